package git

import (
	"context"
	"fmt"
	"strings"
)

// MessageRewrite pairs a commit with its replacement message. Rewrites are
// applied bottom-up: the list must cover every commit from the first
// changed one through the stack tip, in order, including commits whose
// message is unchanged (their hashes still move because a parent moved).
type MessageRewrite struct {
	SHA        string
	NewMessage string
}

// RewriteMessages rebuilds the commit chain of a branch with new messages,
// preserving each commit's tree, author and committer. Returns a map of old
// SHA to new SHA. The branch ref is only updated once the whole chain has
// been rebuilt, so a failure part-way leaves the branch untouched.
func (r *Repo) RewriteMessages(ctx context.Context, branch string, rewrites []MessageRewrite) (map[string]string, error) {
	if len(rewrites) == 0 {
		return map[string]string{}, nil
	}

	newParent, err := r.runner.Run(ctx, "rev-parse", rewrites[0].SHA+"^")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parent of %s: %w", rewrites[0].SHA, err)
	}

	mapping := make(map[string]string, len(rewrites))
	for _, rw := range rewrites {
		info, err := r.runner.Run(ctx, "show", "-s", "--format=%T%x00%an%x00%ae%x00%aD%x00%cn%x00%ce%x00%cD", rw.SHA)
		if err != nil {
			return nil, fmt.Errorf("failed to read commit %s: %w", rw.SHA, err)
		}
		fields := strings.Split(info, "\x00")
		if len(fields) != 7 {
			return nil, fmt.Errorf("unexpected commit info for %s", rw.SHA)
		}

		env := []string{
			"GIT_AUTHOR_NAME=" + fields[1],
			"GIT_AUTHOR_EMAIL=" + fields[2],
			"GIT_AUTHOR_DATE=" + fields[3],
			"GIT_COMMITTER_NAME=" + fields[4],
			"GIT_COMMITTER_EMAIL=" + fields[5],
			"GIT_COMMITTER_DATE=" + fields[6],
		}

		newSHA, err := r.runner.RunWithEnvAndInput(ctx, env, rw.NewMessage, "commit-tree", fields[0], "-p", newParent)
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite commit %s: %w", rw.SHA, err)
		}

		mapping[rw.SHA] = newSHA
		newParent = newSHA
	}

	// Trees are untouched by a message rewrite, so moving the ref is safe
	// even when the branch is checked out: the index and working tree
	// still match the new tip.
	if err := r.UpdateBranchRef(ctx, branch, newParent); err != nil {
		return nil, err
	}

	return mapping, nil
}
