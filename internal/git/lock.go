package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryInterval = 100 * time.Millisecond

// RepoLock is an exclusive repository-level lock held for the duration of a
// sync. The local repository is a single-writer resource; two concurrent
// stack operations against it risk index corruption.
type RepoLock struct {
	fl *flock.Flock
}

// AcquireLock takes the exclusive repository lock, blocking until it is
// available or the context is cancelled. Callers must Release on every exit
// path.
func (r *Repo) AcquireLock(ctx context.Context) (*RepoLock, error) {
	dir := filepath.Join(r.root, ".git", "stackpr")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, "repo.lock"))
	ok, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire repository lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("repository is locked by another stackpr process")
	}
	return &RepoLock{fl: fl}, nil
}

// Release drops the repository lock
func (l *RepoLock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	_ = l.fl.Unlock()
}
