package stack

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// Walk traverses first-parent history from tip down to base and returns the
// stack entries oldest first. The range must be a simple chain: a merge
// commit or a tip that does not descend from base fails with
// NotLinearHistory. An empty range (tip == base) is a valid empty stack.
func Walk(repo *gogit.Repository, base, tip plumbing.Hash) ([]*Entry, error) {
	if tip == base {
		return nil, nil
	}

	var entries []*Entry
	commit, err := repo.CommitObject(tip)
	if err != nil {
		return nil, fmt.Errorf("failed to read tip commit %s: %w", tip, err)
	}

	for commit.Hash != base {
		if commit.NumParents() > 1 {
			return nil, stackprerrors.NewNotLinearHistoryError(commit.Hash.String(), "merge commit in stack range")
		}
		if commit.NumParents() == 0 {
			return nil, stackprerrors.NewNotLinearHistoryError(tip.String(), fmt.Sprintf("tip does not descend from base %s", base))
		}

		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("failed to read parent of %s: %w", commit.Hash, err)
		}

		entry, err := newEntry(commit, parent)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		commit = parent
	}

	// The walk collected top-down; the stack is ordered bottom-up.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	for i, e := range entries {
		e.Index = i
		e.Change = Classify(e)
	}

	return entries, nil
}

// WalkRefs resolves base and tip revisions and walks the range between them
func WalkRefs(repo *gogit.Repository, baseRev, tipRev string) ([]*Entry, error) {
	base, err := repo.ResolveRevision(plumbing.Revision(baseRev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base %q: %w", baseRev, err)
	}
	tip, err := repo.ResolveRevision(plumbing.Revision(tipRev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tip %q: %w", tipRev, err)
	}
	return Walk(repo, *base, *tip)
}

func newEntry(commit, parent *object.Commit) (*Entry, error) {
	meta, _, err := ParseMessage(commit.Message)
	if err != nil {
		var corrupt *stackprerrors.MetadataCorruptError
		if errors.As(err, &corrupt) {
			return nil, stackprerrors.NewMetadataCorruptError(commit.Hash.String(), corrupt.Reason)
		}
		return nil, err
	}

	e := &Entry{
		SHA:           commit.Hash.String(),
		TreeSHA:       commit.TreeHash.String(),
		ParentSHA:     parent.Hash.String(),
		ParentTreeSHA: parent.TreeHash.String(),
		Message:       commit.Message,
		Meta:          meta,
	}
	e.ContentHash = ContentHash(e.ParentTreeSHA, e.TreeSHA, e.Message)
	return e, nil
}
