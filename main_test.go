package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/RCarmona53/amazon-word-cloud/models"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "wordcloud.yaml")
	body := "cache:\n  backend: sqlite\nhistory:\n  path: " + filepath.Join(dir, "wordcloud.db") + "\nlanguage:\n  detect: false\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"wordcloud"}, args...))
	return out.String(), err
}

func TestCountAndHistory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dp/1" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, `<div id="feature-bullets">nothing here</div>`)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<div id="productDescription">Soft cotton. Soft sheets.</div>`)
	}))
	defer ts.Close()
	cfg := writeTestConfig(t)

	out, err := runApp(t, "count", "--config", cfg, "--quiet", "--url", ts.URL+"/dp/1", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "soft:2\ncotton:1\nsheets:1\n", out)

	out, err = runApp(t, "count", "--config", cfg, "--quiet", "--url", ts.URL+"/dp/1", "--limit", "1")
	require.NoError(t, err)
	var cached models.Result
	require.NoError(t, json.Unmarshal([]byte(out), &cached))
	assert.True(t, cached.Cached)
	assert.Equal(t, models.RankedList{{Word: "soft", Count: 2}}, cached.WordFrequency)

	path := filepath.Join(t.TempDir(), "out", "result.yaml")
	_, err = runApp(t, "count", "--config", cfg, "--quiet", "--url", ts.URL+"/dp/1", "--format", "yaml", "--output", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "word_frequency:")

	_, err = runApp(t, "count", "--config", cfg, "--quiet", "--url", ts.URL+"/dp/missing")
	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())

	_, err = runApp(t, "count", "--config", cfg, "--quiet", "--url", " ")
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())

	out, err = runApp(t, "history", "--config", cfg, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), "4 requests")
	assert.Contains(t, out, "missing_field")

	out, err = runApp(t, "history", "--config", cfg, "--url", ts.URL+"/dp/1", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"outcome": "cached"`)
}

func TestCount_ExplicitConfigMustExist(t *testing.T) {
	_, err := runApp(t, "count", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--url", "http://example.com/p")
	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
}
