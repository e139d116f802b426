// Package github talks to the GitHub REST API for pull request context and
// review posting.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	llmhttp "github.com/benno-ai/benno/internal/adapter/llm/http"
)

const (
	providerName   = "github"
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second
	apiVersion     = "2022-11-28"
	acceptJSON     = "application/vnd.github+json"
	acceptDiff     = "application/vnd.github.v3.diff"
)

// Client is an HTTP client scoped to one repository.
type Client struct {
	token   string
	owner   string
	repo    string
	baseURL string
	timeout time.Duration

	mu     sync.Mutex
	client *http.Client
}

// Options configures a Client. Zero values fall back to the GITHUB_TOKEN and
// GITHUB_REPOSITORY environment variables and the public API endpoint.
type Options struct {
	Token      string
	Repository string // "owner/repo"
	BaseURL    string
	Timeout    time.Duration
}

// NewClient builds a client for one repository.
func NewClient(opts Options) (*Client, error) {
	token := opts.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("github token missing: set github.token or GITHUB_TOKEN")
	}

	repository := opts.Repository
	if repository == "" {
		repository = os.Getenv("GITHUB_REPOSITORY")
	}
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("github repository %q is not in owner/repo form", repository)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		token:   token,
		owner:   owner,
		repo:    repo,
		baseURL: baseURL,
		timeout: timeout,
	}, nil
}

// Repository returns the owner/repo this client is scoped to.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

func (c *Client) httpClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c.client
}

// Close releases idle connections. Safe to call repeatedly.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
	}
	return nil
}

// PRDiff fetches the pull request's full unified diff.
func (c *Client) PRDiff(ctx context.Context, number int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, c.owner, c.repo, number)
	body, err := c.do(ctx, http.MethodGet, url, acceptDiff, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PRFiles lists the pull request's changed files with their patches.
func (c *Client) PRFiles(ctx context.Context, number int) ([]PRFile, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=100", c.baseURL, c.owner, c.repo, number)
	body, err := c.do(ctx, http.MethodGet, url, acceptJSON, nil)
	if err != nil {
		return nil, err
	}
	var files []PRFile
	if err := json.Unmarshal(body, &files); err != nil {
		return nil, fmt.Errorf("parse files: %w", err)
	}
	return files, nil
}

// PRHeadSHA returns the commit the review should attach to.
func (c *Client) PRHeadSHA(ctx context.Context, number int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, c.owner, c.repo, number)
	body, err := c.do(ctx, http.MethodGet, url, acceptJSON, nil)
	if err != nil {
		return "", err
	}
	var pr pullRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", fmt.Errorf("parse pull request: %w", err)
	}
	return pr.Head.SHA, nil
}

// CreateReview posts a review with inline comments in one call.
func (c *Client) CreateReview(ctx context.Context, number int, commitSHA, summary string, event ReviewEvent, comments []ReviewComment) (*CreateReviewResponse, error) {
	reqBody := createReviewRequest{
		CommitID: commitSHA,
		Body:     summary,
		Event:    event,
		Comments: comments,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, c.owner, c.repo, number)
	body, err := c.do(ctx, http.MethodPost, url, acceptJSON, jsonData)
	if err != nil {
		return nil, err
	}

	var resp CreateReviewResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse review response: %w", err)
	}
	return &resp, nil
}

// PostComment adds a plain comment to the pull request conversation.
func (c *Client) PostComment(ctx context.Context, number int, text string) error {
	jsonData, err := json.Marshal(issueComment{Body: text})
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, c.owner, c.repo, number)
	_, err = c.do(ctx, http.MethodPost, url, acceptJSON, jsonData)
	return err
}

// do executes one request and returns the response body. Error statuses map
// to the shared typed errors so callers can distinguish auth failures from
// rate limits.
func (c *Client) do(ctx context.Context, method, url, accept string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, llmhttp.TransportError(providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var apiErr apiError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		return nil, llmhttp.StatusError(providerName, resp.StatusCode, message)
	}
	return body, nil
}
