package stack

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// ContentHash computes the change-detection hash for a commit: the tree
// diff (parent tree and tree object ids) plus the commit message with the
// metadata trailer stripped. Excluding the trailer means the amend that
// records metadata does not itself register as a change on the next run.
func ContentHash(parentTreeSHA, treeSHA, message string) string {
	h := sha256.New()
	_, _ = io.WriteString(h, parentTreeSHA)
	_, _ = h.Write([]byte{0})
	_, _ = io.WriteString(h, treeSHA)
	_, _ = h.Write([]byte{0})
	_, _ = io.WriteString(h, StripMetadata(message))
	return hex.EncodeToString(h.Sum(nil))
}

// Classify compares an entry's current content hash against the hash
// recorded at the last sync
func Classify(e *Entry) ChangeKind {
	if e.Meta == nil {
		return ChangeNew
	}
	if e.Meta.SyncHash != "" && e.Meta.SyncHash == e.ContentHash {
		return ChangeUnchanged
	}
	return ChangeModified
}
