package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benno-ai/benno/internal/adapter/github"
	llmhttp "github.com/benno-ai/benno/internal/adapter/llm/http"
)

func newClient(t *testing.T, baseURL string) *github.Client {
	t.Helper()
	c, err := github.NewClient(github.Options{
		Token:      "ghp_test",
		Repository: "acme/rocket",
		BaseURL:    baseURL,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_REPOSITORY", "")

	_, err := github.NewClient(github.Options{Repository: "acme/rocket"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")

	_, err = github.NewClient(github.Options{Token: "ghp_x", Repository: "not-a-repo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/repo")
}

func TestNewClient_EnvFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_env")
	t.Setenv("GITHUB_REPOSITORY", "acme/rocket")

	c, err := github.NewClient(github.Options{})
	require.NoError(t, err)
	assert.Equal(t, "acme/rocket", c.Repository())
}

func TestPRDiff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/rocket/pulls/7", r.URL.Path)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github.v3.diff", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		w.Write([]byte("diff --git a/x.go b/x.go\n"))
	}))
	defer server.Close()

	c := newClient(t, server.URL)

	unified, err := c.PRDiff(context.Background(), 7)
	require.NoError(t, err)
	assert.Contains(t, unified, "diff --git a/x.go")
}

func TestPRFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/rocket/pulls/7/files", r.URL.Path)
		json.NewEncoder(w).Encode([]github.PRFile{
			{Filename: "x.go", Status: "modified", Additions: 2, Patch: "@@ -1,1 +1,2 @@\n one\n+two"},
		})
	}))
	defer server.Close()

	c := newClient(t, server.URL)

	files, err := c.PRFiles(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "x.go", files[0].Filename)
	assert.Contains(t, files[0].Patch, "+two")
}

func TestPRHeadSHA(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"number":7,"head":{"sha":"abc123"}}`))
	}))
	defer server.Close()

	c := newClient(t, server.URL)

	sha, err := c.PRHeadSHA(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sha)
}

func TestCreateReview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/repos/acme/rocket/pulls/7/reviews", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc123", body["commit_id"])
		assert.Equal(t, "REQUEST_CHANGES", body["event"])

		w.Write([]byte(`{"id":42,"state":"CHANGES_REQUESTED"}`))
	}))
	defer server.Close()

	c := newClient(t, server.URL)

	resp, err := c.CreateReview(context.Background(), 7, "abc123", "summary",
		github.EventRequestChanges,
		[]github.ReviewComment{{Path: "x.go", Position: 2, Body: "issue"}})

	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
}

func TestPostComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/rocket/issues/7/comments", r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "hello", body["body"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newClient(t, server.URL)
	require.NoError(t, c.PostComment(context.Background(), 7, "hello"))
}

func TestErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	c := newClient(t, server.URL)

	_, err := c.PRDiff(context.Background(), 7)

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, httpErr.Type)
	assert.Contains(t, httpErr.Message, "Bad credentials")
	assert.Equal(t, "github", httpErr.Provider)
}

func TestClose_Idempotent(t *testing.T) {
	c := newClient(t, "http://unused")

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
