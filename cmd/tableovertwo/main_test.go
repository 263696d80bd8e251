package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronRDurant/table-over-two/content"
)

const testKey = "b30648b0fe1cad4980ba726b12"

func fakeGhost(t *testing.T) {
	t.Helper()
	results := content.Tag{Slug: "results", Name: "Results", Visibility: content.VisibilityPublic}
	internal := content.Tag{Slug: "hash-credits", Name: "#credits", Visibility: content.VisibilityInternal}
	posts := []content.Post{
		{Slug: "anaheim-1-results", Title: "Anaheim 1 Results", PublishedAt: "2025-01-11T20:00:00.000Z", Tags: []content.Tag{results}},
		{Slug: "tag-photo-credits", Title: "Tag Photo Credits", Tags: []content.Tag{internal}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/posts/"):
			json.NewEncoder(w).Encode(map[string]any{"posts": posts})
		case strings.HasSuffix(r.URL.Path, "/tags/"):
			json.NewEncoder(w).Encode(map[string]any{"tags": []content.Tag{results, internal}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("GHOST_API_URL", srv.URL)
	t.Setenv("GHOST_CONTENT_API_KEY", testKey)
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		postsCmd.Flags().Set("json", "false")
		postsCmd.Flags().Set("tag", "")
		versionCmd.Flags().Set("short", "false")
		versionCmd.Flags().Set("json", "false")
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionShort(t *testing.T) {
	version = "1.2.3"
	t.Cleanup(func() { version = "dev" })

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["version"])
	assert.NotEmpty(t, info["goVersion"])
}

func TestPathsCommand(t *testing.T) {
	fakeGhost(t)

	out, err := execute(t, "paths")
	require.NoError(t, err)
	assert.Equal(t, "/\n/archive/\n/topics/\n/about/\n/anaheim-1-results/\n/topics/results/\n", out)
}

func TestPostsTable(t *testing.T) {
	fakeGhost(t)

	out, err := execute(t, "posts")
	require.NoError(t, err)
	assert.Contains(t, out, "anaheim-1-results")
	assert.Contains(t, out, "2025-01-11")
	assert.NotContains(t, out, "tag-photo-credits")
}

func TestPostsJSON(t *testing.T) {
	fakeGhost(t)

	out, err := execute(t, "posts", "--json")
	require.NoError(t, err)

	var posts []content.Post
	require.NoError(t, json.Unmarshal([]byte(out), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "anaheim-1-results", posts[0].Slug)
}

func TestServeRequiresSessionSecret(t *testing.T) {
	fakeGhost(t)
	t.Setenv("SESSION_SECRET", "")

	_, err := execute(t, "serve")
	var cfgErr *content.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SESSION_SECRET", cfgErr.Field)
}

func TestMissingConfigFails(t *testing.T) {
	t.Setenv("GHOST_API_URL", "")
	t.Setenv("GHOST_CONTENT_API_KEY", "")
	t.Setenv("GHOST_ADMIN_API_KEY", "")

	_, err := execute(t, "paths")
	var cfgErr *content.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
