// Package github implements the GitHubClient port using the go-github
// library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github
// library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport
// stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and
// base URL. This constructor is intended for testing, allowing injection of
// an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchPR retrieves the title and body of one pull request.
func (c *Client) FetchPR(ctx context.Context, repoFullName string, number int) (string, string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", "", err
	}

	pr, resp, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return "", "", fmt.Errorf("get PR %s#%d: %w", repoFullName, number, err)
	}
	logRateLimit(resp, repoFullName+"/pr", 0, 1)

	return pr.GetTitle(), pr.GetBody(), nil
}

// FetchPRDiff retrieves the whole-PR unified diff via the diff media type.
func (c *Client) FetchPRDiff(ctx context.Context, repoFullName string, number int) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	diff, resp, err := c.gh.PullRequests.GetRaw(ctx, owner, repo, number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", fmt.Errorf("get diff for PR %s#%d: %w", repoFullName, number, err)
	}
	logRateLimit(resp, repoFullName+"/diff", 0, 1)

	return diff, nil
}

// FetchPRFiles retrieves the changed files of a PR with per-file patches.
// It handles pagination automatically.
func (c *Client) FetchPRFiles(ctx context.Context, repoFullName string, number int) ([]model.ChangedFile, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: 100}
	var files []model.ChangedFile

	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list files for PR %s#%d (page %d): %w", repoFullName, number, opts.Page, err)
		}
		logRateLimit(resp, repoFullName+"/files", opts.Page, len(page))

		for _, f := range page {
			files = append(files, model.ChangedFile{
				Path:      f.GetFilename(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Patch:     f.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

// FetchClosedPRs lists closed pull requests sorted by most recently updated,
// up to maxItems.
func (c *Client) FetchClosedPRs(ctx context.Context, repoFullName string, maxItems int) ([]model.HistoricalPR, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var prs []model.HistoricalPR

	for {
		page, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list closed PRs for %s (page %d): %w", repoFullName, opts.Page, err)
		}
		logRateLimit(resp, repoFullName+"/prs", opts.Page, len(page))

		for _, pr := range page {
			prs = append(prs, mapHistoricalPR(pr, repoFullName))
			if len(prs) >= maxItems {
				return prs, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return prs, nil
}

// FetchReviews retrieves the review submissions on a PR.
func (c *Client) FetchReviews(ctx context.Context, repoFullName string, number int) ([]model.HistoricalReview, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: 100}
	var reviews []model.HistoricalReview

	for {
		page, resp, err := c.gh.PullRequests.ListReviews(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list reviews for PR %s#%d (page %d): %w", repoFullName, number, opts.Page, err)
		}
		logRateLimit(resp, repoFullName+"/reviews", opts.Page, len(page))

		for _, r := range page {
			reviews = append(reviews, model.HistoricalReview{
				Reviewer:    r.GetUser().GetLogin(),
				State:       r.GetState(),
				SubmittedAt: r.GetSubmittedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return reviews, nil
}

// FetchReviewComments retrieves the line-level review comments on a PR.
func (c *Client) FetchReviewComments(ctx context.Context, repoFullName string, number int) ([]model.HistoricalComment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var comments []model.HistoricalComment

	for {
		page, resp, err := c.gh.PullRequests.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list review comments for PR %s#%d (page %d): %w", repoFullName, number, opts.Page, err)
		}
		logRateLimit(resp, repoFullName+"/review-comments", opts.Page, len(page))

		for _, cm := range page {
			line := cm.GetOriginalLine()
			if line == 0 {
				line = cm.GetLine()
			}
			comments = append(comments, model.HistoricalComment{
				Reviewer:  cm.GetUser().GetLogin(),
				Body:      cm.GetBody(),
				Path:      cm.GetPath(),
				Line:      line,
				PRNumber:  number,
				CreatedAt: cm.GetCreatedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// FetchFileContent retrieves the decoded content of a file at HEAD. A
// missing file is not an error: it returns "", nil.
func (c *Client) FetchFileContent(ctx context.Context, repoFullName, path string) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("get contents of %s in %s: %w", path, repoFullName, err)
	}
	logRateLimit(resp, repoFullName+"/contents", 0, 1)

	if file == nil {
		// Path is a directory.
		return "", nil
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode contents of %s: %w", path, err)
	}
	return content, nil
}

func mapHistoricalPR(pr *gh.PullRequest, repoFullName string) model.HistoricalPR {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	var mergedAt *time.Time
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		mergedAt = &t
	}

	return model.HistoricalPR{
		Repo:      repoFullName,
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		Body:      pr.GetBody(),
		State:     pr.GetState(),
		Labels:    labels,
		CreatedAt: pr.GetCreatedAt().Time,
		MergedAt:  mergedAt,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
