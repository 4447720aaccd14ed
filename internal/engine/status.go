package engine

import (
	"context"

	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/stack"
)

// StatusRow is the read-only view of one stack entry
type StatusRow struct {
	Index    int
	Title    string
	PRNumber int
	Change   stack.ChangeKind
	PRState  github.PRState
	Checks   *github.CheckStatus
}

// Status reports the current stack against the remote without changing
// anything: no pushes, no metadata writes, no lock
func (e *Engine) Status(ctx context.Context) ([]StatusRow, error) {
	entries, _, err := e.loadEntries(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var numbers []int
	for _, entry := range entries {
		if n := entry.PRNumber(); n > 0 {
			numbers = append(numbers, n)
		}
	}
	snapshot, err := github.FetchSnapshot(ctx, e.forge, numbers)
	if err != nil {
		return nil, err
	}

	rows := make([]StatusRow, len(entries))
	for i, entry := range entries {
		rows[i] = StatusRow{
			Index:    entry.Index,
			Title:    entry.Title(),
			PRNumber: entry.PRNumber(),
			Change:   entry.Change,
		}
		if remote := snapshot[entry.PRNumber()]; remote != nil {
			rows[i].PRState = remote.State
			rows[i].Checks = remote.Checks
		}
	}
	return rows, nil
}
