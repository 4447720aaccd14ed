package stack

import (
	"strings"
)

// ChangeKind classifies a stack entry against its last-synced state
type ChangeKind int

const (
	// ChangeNew means the commit has never been synced (no metadata)
	ChangeNew ChangeKind = iota
	// ChangeUnchanged means the commit content matches the recorded sync hash
	ChangeUnchanged
	// ChangeModified means the commit content differs from the recorded sync hash
	ChangeModified
)

func (c ChangeKind) String() string {
	switch c {
	case ChangeNew:
		return "new"
	case ChangeUnchanged:
		return "unchanged"
	case ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// PRStatus is the last-known remote state of a pull request
type PRStatus string

const (
	PRStatusOpen    PRStatus = "open"
	PRStatusClosed  PRStatus = "closed"
	PRStatusMerged  PRStatus = "merged"
	PRStatusMissing PRStatus = "missing"
	PRStatusUnknown PRStatus = "unknown"
)

// PullRequestRef links a stack entry to its remote pull request
type PullRequestRef struct {
	Number     int
	HeadBranch string
	BaseBranch string
	Status     PRStatus
	SyncHash   string
}

// Entry is one commit in the stack. Entries are rebuilt from live git
// history on every invocation and never persisted; parents are referenced
// by position in the walker's sequence, not by pointer.
type Entry struct {
	// Index is the position in the stack, 0 = bottommost
	Index int

	// SHA is the commit hash at walk time. Amending metadata rewrites the
	// commit, so this is a pre-amend snapshot, as is ContentHash.
	SHA           string
	TreeSHA       string
	ParentSHA     string
	ParentTreeSHA string

	// Message is the full commit message including any metadata trailer
	Message string

	// Meta is the decoded trailer payload, nil for untracked commits
	Meta *Metadata

	// ContentHash covers the tree diff and the message minus the metadata
	// trailer, so writing metadata never changes it
	ContentHash string

	// Change is set by the change detector
	Change ChangeKind

	// PR is populated from metadata and the remote snapshot
	PR *PullRequestRef
}

// Title returns the first line of the commit message
func (e *Entry) Title() string {
	title, _, _ := strings.Cut(e.Message, "\n")
	return strings.TrimSpace(title)
}

// Body returns the commit message body without the title line and without
// the metadata trailer
func (e *Entry) Body() string {
	stripped := StripMetadata(e.Message)
	_, body, found := strings.Cut(stripped, "\n")
	if !found {
		return ""
	}
	return strings.TrimSpace(body)
}

// Tracked reports whether the commit carries metadata
func (e *Entry) Tracked() bool {
	return e.Meta != nil
}

// PRNumber returns the linked pull request number, or 0
func (e *Entry) PRNumber() int {
	if e.Meta == nil {
		return 0
	}
	return e.Meta.PRNumber
}
