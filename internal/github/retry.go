package github

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	gh "github.com/google/go-github/v62/github"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// RetryPolicy is an explicit, bounded, inspectable retry loop. Transient
// errors (timeouts, 5xx) are retried with exponential backoff; auth and
// not-found errors propagate immediately.
type RetryPolicy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	PerAttemptTimeout time.Duration
}

// DefaultRetryPolicy returns the policy used for remote API calls
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		PerAttemptTimeout: 30 * time.Second,
	}
}

// Do runs fn under the policy. Each attempt carries its own timeout; the
// outer context cancels the whole loop.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.PerAttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.PerAttemptTimeout)
		}
		err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return ClassifyError(err)
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return stackprerrors.NewTransientNetworkError(p.MaxAttempts, lastErr)
}

// IsRetryable reports whether an error is a transient network failure
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode >= 500
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status >= 500
	}
	return false
}

// ClassifyError maps a non-retryable API error onto the stackpr error kinds
func ClassifyError(err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case 401, 403:
			return errors.Join(stackprerrors.ErrAuthFailure, err)
		case 404:
			return errors.Join(stackprerrors.ErrRemoteMissing, err)
		}
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.status {
		case 401, 403:
			return errors.Join(stackprerrors.ErrAuthFailure, err)
		case 404:
			return errors.Join(stackprerrors.ErrRemoteMissing, err)
		}
	}
	return err
}
