package stack

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultBranchPrefix is used when the repo config does not set one
const DefaultBranchPrefix = "spr"

// NewCommitID mints the stable identifier for a newly tracked commit
func NewCommitID() string {
	return uuid.NewString()
}

// HeadBranchName derives the remote head branch for a commit from its
// stable ID. The name never depends on the commit title, so retitling a
// commit keeps its branch and PR.
func HeadBranchName(prefix, commitID string) string {
	if prefix == "" {
		prefix = DefaultBranchPrefix
	}
	short := commitID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s/%s", prefix, short)
}

// IsGeneratedBranch reports whether a branch name has the shape of a
// generated head branch under the given prefix. PRs based on a generated
// branch belong to the tool even when the branch's commit has already
// landed and left the stack.
func IsGeneratedBranch(prefix, name string) bool {
	if prefix == "" {
		prefix = DefaultBranchPrefix
	}
	rest, ok := strings.CutPrefix(name, prefix+"/")
	if !ok || len(rest) != 8 {
		return false
	}
	for _, r := range rest {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
