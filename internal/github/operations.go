package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v62/github"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// CreatePullRequest creates a new pull request
func (c *realClient) CreatePullRequest(ctx context.Context, opts CreatePROptions) (*RemotePR, error) {
	newPR := &gh.NewPullRequest{
		Title: gh.String(opts.Title),
		Head:  gh.String(opts.Head),
		Base:  gh.String(opts.Base),
		Draft: gh.Bool(opts.Draft),
	}
	if opts.Body != "" {
		newPR.Body = gh.String(opts.Body)
	}

	var created *gh.PullRequest
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, newPR)
		if err != nil {
			return err
		}
		created = pr
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request for %s: %w", opts.Head, err)
	}

	return &RemotePR{
		Number: created.GetNumber(),
		State:  PRStateOpen,
		Base:   created.GetBase().GetRef(),
		Head:   created.GetHead().GetRef(),
		Title:  created.GetTitle(),
		Body:   created.GetBody(),
	}, nil
}

// UpdatePullRequest updates base, title and/or description of a PR
func (c *realClient) UpdatePullRequest(ctx context.Context, number int, opts UpdatePROptions) error {
	update := &gh.PullRequest{}
	if opts.Title != nil {
		update.Title = opts.Title
	}
	if opts.Body != nil {
		update.Body = opts.Body
	}
	if opts.Base != nil {
		update.Base = &gh.PullRequestBranch{Ref: opts.Base}
	}

	err := c.retry.Do(ctx, func(ctx context.Context) error {
		_, _, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repo, number, update)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update PR #%d: %w", number, err)
	}
	return nil
}

// MergePullRequest merges a pull request with the squash method: one stack
// entry is one logical change, so it lands as one commit on the target.
func (c *realClient) MergePullRequest(ctx context.Context, number int) error {
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		result, _, err := c.gh.PullRequests.Merge(ctx, c.owner, c.repo, number, "", &gh.PullRequestOptions{
			MergeMethod: "squash",
		})
		if err != nil {
			return err
		}
		if result != nil && result.Merged != nil && !*result.Merged {
			return stackprerrors.NewMergeFailedError(number, result.GetMessage(), nil)
		}
		return nil
	})
	if err != nil {
		var ghErr *gh.ErrorResponse
		// 405 means GitHub refused the merge: conflict or failed check.
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == 405 {
			return stackprerrors.NewMergeFailedError(number, ghErr.Message, err)
		}
		if strings.Contains(err.Error(), "not mergeable") {
			return stackprerrors.NewMergeFailedError(number, "not mergeable", err)
		}
		return fmt.Errorf("failed to merge PR #%d: %w", number, err)
	}
	return nil
}

// GetChecksStatus returns the combined CI status for a PR head, evaluating
// both check runs and the legacy combined status
func (c *realClient) GetChecksStatus(ctx context.Context, number int) (*CheckStatus, error) {
	var pr *gh.PullRequest
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		p, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
		if err != nil {
			return err
		}
		pr = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get PR #%d: %w", number, err)
	}

	headSHA := pr.GetHead().GetSHA()
	if headSHA == "" {
		return &CheckStatus{Passing: true}, nil
	}

	var checkRuns *gh.ListCheckRunsResults
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		runs, _, err := c.gh.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, headSHA, &gh.ListCheckRunsOptions{
			ListOptions: gh.ListOptions{PerPage: 100},
		})
		if err != nil {
			return err
		}
		checkRuns = runs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list check runs for PR #%d: %w", number, err)
	}

	hasPending := false
	hasFailing := false
	for _, run := range checkRuns.CheckRuns {
		switch strings.ToUpper(run.GetStatus()) {
		case "QUEUED", "IN_PROGRESS":
			hasPending = true
		}
		switch strings.ToUpper(run.GetConclusion()) {
		case "FAILURE", "CANCELLED", "TIMED_OUT", "ACTION_REQUIRED":
			hasFailing = true
		}
	}

	// Fall back to the combined commit status when no check runs exist.
	if len(checkRuns.CheckRuns) == 0 {
		var combined *gh.CombinedStatus
		err = c.retry.Do(ctx, func(ctx context.Context) error {
			s, _, err := c.gh.Repositories.GetCombinedStatus(ctx, c.owner, c.repo, headSHA, nil)
			if err != nil {
				return err
			}
			combined = s
			return nil
		})
		if err == nil && combined != nil {
			switch strings.ToUpper(combined.GetState()) {
			case "PENDING":
				hasPending = true
			case "FAILURE", "ERROR":
				hasFailing = true
			}
		}
	}

	return &CheckStatus{Passing: !hasFailing, Pending: hasPending}, nil
}
