// Package github provides the remote forge collaborator: pull request
// operations over the GitHub API, a batched remote-state fetcher and a
// bounded retry policy for transient failures.
package github

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	gh "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// PRState is the remote lifecycle state of a pull request
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
	// PRStateMissing marks a tracked PR that no longer exists remotely.
	// Missing PRs are reported, never silently omitted.
	PRStateMissing PRState = "missing"
)

// RemotePR is the remote snapshot of one pull request
type RemotePR struct {
	Number  int
	State   PRState
	Base    string
	Head    string
	HeadSHA string
	Title   string
	Body    string
	Checks  *CheckStatus
}

// CheckStatus is the combined status of CI checks for a PR head
type CheckStatus struct {
	Passing bool
	Pending bool
}

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// UpdatePROptions contains options for updating a pull request; nil fields
// are left unchanged
type UpdatePROptions struct {
	Title *string
	Body  *string
	Base  *string
}

// Client is the interface for forge interactions. The engine depends on
// this, not on go-github, so tests can substitute a mock.
type Client interface {
	// BatchGetPullRequests fetches the remote state of all given PR
	// numbers in one query. Every requested number is present in the
	// result; missing PRs have state PRStateMissing.
	BatchGetPullRequests(ctx context.Context, numbers []int) (map[int]*RemotePR, error)

	// GetChecksStatus returns the CI check status for a PR
	GetChecksStatus(ctx context.Context, number int) (*CheckStatus, error)

	// CreatePullRequest creates a new pull request
	CreatePullRequest(ctx context.Context, opts CreatePROptions) (*RemotePR, error)

	// UpdatePullRequest updates base, title and/or description
	UpdatePullRequest(ctx context.Context, number int, opts UpdatePROptions) error

	// MergePullRequest merges a pull request
	MergePullRequest(ctx context.Context, number int) error

	// GetOwnerRepo returns the repository owner and name
	GetOwnerRepo() (owner, repo string)
}

// realClient implements Client against the GitHub REST and GraphQL APIs
type realClient struct {
	gh         *gh.Client
	httpClient *http.Client
	graphqlURL string
	owner      string
	repo       string
	retry      RetryPolicy
}

// TokenFromEnv returns the GitHub token from the environment
func TokenFromEnv() (string, error) {
	for _, key := range []string{"STACKPR_GITHUB_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(key); token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("no GitHub token found; set GITHUB_TOKEN")
}

// NewClient creates a Client for the given repository. hostname selects
// GitHub Enterprise endpoints when it is not github.com.
func NewClient(ctx context.Context, token, hostname, owner, repo string) (Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)

	client := gh.NewClient(httpClient)
	graphqlURL := "https://api.github.com/graphql"
	if hostname != "" && hostname != "github.com" {
		baseURL := fmt.Sprintf("https://%s/api/v3/", hostname)
		uploadURL := fmt.Sprintf("https://%s/api/uploads/", hostname)
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, uploadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise endpoints: %w", err)
		}
		graphqlURL = fmt.Sprintf("https://%s/api/graphql", hostname)
	}

	return &realClient{
		gh:         client,
		httpClient: httpClient,
		graphqlURL: graphqlURL,
		owner:      owner,
		repo:       repo,
		retry:      DefaultRetryPolicy(),
	}, nil
}

func (c *realClient) GetOwnerRepo() (string, string) {
	return c.owner, c.repo
}

// HostnameFromRemoteURL extracts the forge hostname from a git remote URL
func HostnameFromRemoteURL(url string) string {
	s := url
	if _, rest, ok := strings.Cut(s, "://"); ok {
		s = rest
	}
	if strings.HasPrefix(s, "git@") {
		s = strings.TrimPrefix(s, "git@")
		host, _, _ := strings.Cut(s, ":")
		return host
	}
	host, _, _ := strings.Cut(s, "/")
	return host
}
