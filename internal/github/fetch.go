package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// prQueryFields are the fields requested for every PR in the batched query
const prQueryFields = "number state merged baseRefName headRefName title body headRefOid"

// BatchGetPullRequests fetches all given PR numbers in a single GraphQL
// query using one alias per number. PRs that no longer exist come back as
// PRStateMissing so the planner can decide to warn or re-create.
func (c *realClient) BatchGetPullRequests(ctx context.Context, numbers []int) (map[int]*RemotePR, error) {
	result := make(map[int]*RemotePR, len(numbers))
	if len(numbers) == 0 {
		return result, nil
	}

	deduped := dedupe(numbers)

	var query strings.Builder
	query.WriteString("query($owner: String!, $name: String!) { repository(owner: $owner, name: $name) {")
	for _, n := range deduped {
		fmt.Fprintf(&query, " pr%d: pullRequest(number: %d) { %s }", n, n, prQueryFields)
	}
	query.WriteString(" } }")

	var response struct {
		Data struct {
			Repository map[string]*struct {
				Number      int    `json:"number"`
				State       string `json:"state"`
				Merged      bool   `json:"merged"`
				BaseRefName string `json:"baseRefName"`
				HeadRefName string `json:"headRefName"`
				Title       string `json:"title"`
				Body        string `json:"body"`
				HeadRefOid  string `json:"headRefOid"`
			} `json:"repository"`
		} `json:"data"`
		Errors []struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"errors"`
	}

	err := c.retry.Do(ctx, func(ctx context.Context) error {
		return c.graphql(ctx, query.String(), map[string]any{
			"owner": c.owner,
			"name":  c.repo,
		}, &response)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull requests: %w", err)
	}

	// NOT_FOUND errors for individual aliases are expected when a PR was
	// deleted; anything else is a real failure.
	for _, e := range response.Errors {
		if e.Type != "NOT_FOUND" {
			return nil, fmt.Errorf("pull request query failed: %s", e.Message)
		}
	}

	for _, n := range deduped {
		pr := response.Data.Repository[fmt.Sprintf("pr%d", n)]
		if pr == nil {
			result[n] = &RemotePR{Number: n, State: PRStateMissing}
			continue
		}
		result[n] = &RemotePR{
			Number:  pr.Number,
			State:   stateFromGraphQL(pr.State, pr.Merged),
			Base:    pr.BaseRefName,
			Head:    pr.HeadRefName,
			HeadSHA: pr.HeadRefOid,
			Title:   pr.Title,
			Body:    pr.Body,
		}
	}

	return result, nil
}

// FetchSnapshot retrieves the full remote snapshot for a set of PRs: the
// batched state query plus concurrent per-PR check lookups for open PRs.
// All lookups are joined before returning, so planning always runs against
// a consistent snapshot, never an interleaved view.
func FetchSnapshot(ctx context.Context, client Client, numbers []int) (map[int]*RemotePR, error) {
	snapshot, err := client.BatchGetPullRequests(ctx, numbers)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, pr := range snapshot {
		if pr.State != PRStateOpen {
			continue
		}
		g.Go(func() error {
			checks, err := client.GetChecksStatus(gctx, pr.Number)
			if err != nil {
				return fmt.Errorf("failed to fetch checks for PR #%d: %w", pr.Number, err)
			}
			pr.Checks = checks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (c *realClient) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{status: resp.StatusCode, body: string(data)}
	}

	return json.Unmarshal(data, out)
}

// httpStatusError carries the status code so the retry policy can classify
// GraphQL transport failures the same way as REST ones
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.status, e.body)
}

func stateFromGraphQL(state string, merged bool) PRState {
	if merged {
		return PRStateMerged
	}
	switch strings.ToUpper(state) {
	case "OPEN":
		return PRStateOpen
	case "CLOSED":
		return PRStateClosed
	case "MERGED":
		return PRStateMerged
	default:
		return PRStateMissing
	}
}

func dedupe(numbers []int) []int {
	seen := make(map[int]bool, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if n > 0 && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
