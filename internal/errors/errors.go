// Package errors provides sentinel errors and custom error types for stackpr.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrNotLinearHistory indicates the commit range between base and tip is
	// not a simple chain (merge commit, or tip does not descend from base)
	ErrNotLinearHistory = errors.New("history is not linear")

	// ErrMetadataCorrupt indicates a commit message carries a malformed or
	// duplicated metadata trailer
	ErrMetadataCorrupt = errors.New("commit metadata corrupt")

	// ErrRemoteMissing indicates a tracked pull request no longer exists on
	// the remote
	ErrRemoteMissing = errors.New("pull request missing on remote")

	// ErrRemoteDiverged indicates a tracked pull request was changed
	// out-of-band and is excluded from automatic updates
	ErrRemoteDiverged = errors.New("pull request diverged on remote")

	// ErrAuthFailure indicates the remote rejected our credentials; never retried
	ErrAuthFailure = errors.New("authentication failed")

	// ErrTransientNetwork indicates a retryable network failure
	ErrTransientNetwork = errors.New("transient network error")

	// ErrNonFastForward indicates the remote branch moved past our local
	// state and must not be overwritten
	ErrNonFastForward = errors.New("non-fast-forward update rejected")

	// ErrMergeFailed indicates the remote reported a merge conflict or a
	// failed merge check
	ErrMergeFailed = errors.New("merge failed")
)

// NotLinearHistoryError reports why a commit range cannot form a stack
type NotLinearHistoryError struct {
	Commit string
	Reason string
}

func (e *NotLinearHistoryError) Error() string {
	if e.Commit != "" {
		return fmt.Sprintf("history is not linear at %s: %s", e.Commit, e.Reason)
	}
	return fmt.Sprintf("history is not linear: %s", e.Reason)
}

// Is returns true if the target error is ErrNotLinearHistory
func (e *NotLinearHistoryError) Is(target error) bool {
	return target == ErrNotLinearHistory
}

// NewNotLinearHistoryError creates a new NotLinearHistoryError
func NewNotLinearHistoryError(commit, reason string) *NotLinearHistoryError {
	return &NotLinearHistoryError{Commit: commit, Reason: reason}
}

// MetadataCorruptError reports a commit whose trailer block cannot be trusted
type MetadataCorruptError struct {
	Commit string
	Reason string
}

func (e *MetadataCorruptError) Error() string {
	if e.Commit != "" {
		return fmt.Sprintf("corrupt metadata on commit %s: %s", e.Commit, e.Reason)
	}
	return fmt.Sprintf("corrupt metadata: %s", e.Reason)
}

// Is returns true if the target error is ErrMetadataCorrupt
func (e *MetadataCorruptError) Is(target error) bool {
	return target == ErrMetadataCorrupt
}

// NewMetadataCorruptError creates a new MetadataCorruptError
func NewMetadataCorruptError(commit, reason string) *MetadataCorruptError {
	return &MetadataCorruptError{Commit: commit, Reason: reason}
}

// TransientNetworkError wraps a retryable remote failure with the attempt
// count that was exhausted before surfacing it
type TransientNetworkError struct {
	Attempts int
	Err      error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrTransientNetwork
func (e *TransientNetworkError) Is(target error) bool {
	return target == ErrTransientNetwork
}

// NewTransientNetworkError creates a new TransientNetworkError
func NewTransientNetworkError(attempts int, err error) *TransientNetworkError {
	return &TransientNetworkError{Attempts: attempts, Err: err}
}

// MergeFailedError reports why the remote refused to merge a pull request
type MergeFailedError struct {
	PRNumber int
	Reason   string
	Err      error
}

func (e *MergeFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("merge of PR #%d failed: %s", e.PRNumber, e.Reason)
	}
	return fmt.Sprintf("merge of PR #%d failed: %v", e.PRNumber, e.Err)
}

func (e *MergeFailedError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrMergeFailed
func (e *MergeFailedError) Is(target error) bool {
	return target == ErrMergeFailed
}

// NewMergeFailedError creates a new MergeFailedError
func NewMergeFailedError(prNumber int, reason string, err error) *MergeFailedError {
	return &MergeFailedError{PRNumber: prNumber, Reason: reason, Err: err}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
