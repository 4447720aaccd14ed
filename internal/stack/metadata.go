// Package stack models a linear stack of local commits and their link to
// remote pull requests. It contains the commit metadata trailer codec, the
// stack walker and the change detector.
package stack

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// Trailer keys persisted in commit messages. The format is stable across
// versions; changing a key orphans every tracked commit.
const (
	trailerKeyID   = "stackpr-id"
	trailerKeyPR   = "stackpr-pr"
	trailerKeyHash = "stackpr-hash"
)

var trailerLineRe = regexp.MustCompile(`^(stackpr-id|stackpr-pr|stackpr-hash):[ \t]*(.*)$`)

// Metadata is the trailer payload linking a commit to its pull request.
// A commit without metadata is untracked.
type Metadata struct {
	// CommitID is a stable identifier minted when the commit is first
	// tracked. The head branch name derives from it, so retitling the
	// commit never renames the branch.
	CommitID string

	// PRNumber is the pull request number, or 0 if no PR exists yet
	PRNumber int

	// SyncHash is the content hash recorded at the last completed sync
	SyncHash string
}

// ParseMessage extracts metadata from a commit message. It returns the
// metadata (nil if the commit is untracked) and the message with the
// metadata trailer lines removed, normalized without trailing blank lines.
// Only the message's final block is scanned, so a body line that happens to
// look like a trailer stays body text. Duplicate or malformed recognized
// keys return a MetadataCorrupt error; silent loss would desynchronize
// local and remote state.
func ParseMessage(message string) (*Metadata, string, error) {
	lines := strings.Split(message, "\n")

	// The trailer block is the last paragraph. A single-paragraph message
	// is all title, never a trailer.
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	start := end
	for start > 0 && strings.TrimSpace(lines[start-1]) != "" {
		start--
	}
	if start == 0 {
		return nil, trimTrailingBlank(lines), nil
	}

	var meta Metadata
	seen := map[string]int{}
	rest := append(make([]string, 0, len(lines)), lines[:start]...)

	for _, line := range lines[start:end] {
		m := trailerLineRe.FindStringSubmatch(line)
		if m == nil {
			rest = append(rest, line)
			continue
		}

		key, value := m[1], strings.TrimSpace(m[2])
		seen[key]++
		if seen[key] > 1 {
			return nil, "", stackprerrors.NewMetadataCorruptError("", fmt.Sprintf("duplicate trailer %q", key))
		}

		switch key {
		case trailerKeyID:
			if value == "" {
				return nil, "", stackprerrors.NewMetadataCorruptError("", "empty stackpr-id")
			}
			meta.CommitID = value
		case trailerKeyPR:
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, "", stackprerrors.NewMetadataCorruptError("", fmt.Sprintf("invalid pr number %q", value))
			}
			meta.PRNumber = n
		case trailerKeyHash:
			if !isHex(value) {
				return nil, "", stackprerrors.NewMetadataCorruptError("", fmt.Sprintf("invalid sync hash %q", value))
			}
			meta.SyncHash = value
		}
	}

	if len(seen) == 0 {
		return nil, trimTrailingBlank(lines), nil
	}
	if meta.CommitID == "" {
		return nil, "", stackprerrors.NewMetadataCorruptError("", "metadata trailer without stackpr-id")
	}

	return &meta, trimTrailingBlank(rest), nil
}

// StripMetadata returns the message with any metadata trailer removed, in
// the normalized form ParseMessage produces. A message therefore strips to
// the same text before and after its trailer is written, which is what
// keeps the content hash stable across the metadata amend. A corrupt
// trailer strips nothing; the walker surfaces the error.
func StripMetadata(message string) string {
	_, rest, err := ParseMessage(message)
	if err != nil {
		return message
	}
	return rest
}

// FormatMessage appends a metadata trailer block to a commit message,
// replacing any existing block. Every other line is preserved verbatim and
// the output is byte-stable: formatting the same metadata twice yields
// identical text.
func FormatMessage(message string, meta *Metadata) string {
	_, rest, err := ParseMessage(message)
	if err != nil {
		// Corrupt trailers are rewritten wholesale; the caller has
		// already decided the stored metadata is authoritative.
		rest = message
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(rest, "\n"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s: %s\n", trailerKeyID, meta.CommitID)
	if meta.PRNumber > 0 {
		fmt.Fprintf(&b, "%s: %d\n", trailerKeyPR, meta.PRNumber)
	}
	if meta.SyncHash != "" {
		fmt.Fprintf(&b, "%s: %s\n", trailerKeyHash, meta.SyncHash)
	}
	return b.String()
}

func trimTrailingBlank(lines []string) string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
