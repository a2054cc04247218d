package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestClassifyCommand(t *testing.T) {
	out, _, err := run(t, "classify", "facebookexternalhit/1.1")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "social-crawler", got["category"])
	require.Equal(t, true, got["is_crawler"])
	require.Equal(t, true, got["is_bot"])

	_, _, err = run(t, "classify")
	require.Error(t, err)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestPreviewCommand(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Shop</title></head><body></body></html>`))
	}))
	defer origin.Close()
	docstore := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/products/abc123") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"fields":{"name":{"stringValue":"Gel Pen"},"price":{"integerValue":"199"}}}`))
	}))
	defer docstore.Close()

	cfg := writeConfig(t, `
origin:
  url: `+origin.URL+`
docstore:
  project_id: proj
  api_key: key
  base_url: `+docstore.URL+`/docs
storefront:
  name: Shop
  base_url: https://shop.example
`)
	out, stderr, err := run(t, "preview", "abc123", "--config", cfg, "--env-file", writeConfig(t, ""))
	require.NoError(t, err)
	require.Contains(t, stderr, "decision=rewritten")
	require.Contains(t, out, "<title>Gel Pen | Shop</title>")
	require.Contains(t, out, `<meta property="og:url" content="https://shop.example/product/abc123">`)

	_, stderr, err = run(t, "preview", "abc123", "--config", cfg, "--env-file", writeConfig(t, ""),
		"--user-agent", "Mozilla/5.0 Chrome/120.0")
	require.Error(t, err)
	require.Contains(t, stderr, "decision=passthrough")
}

func TestPreviewRequiresConfig(t *testing.T) {
	_, _, err := run(t, "preview", "abc123", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
