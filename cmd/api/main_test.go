package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanlaycock/gitsite/internal/config"
)

const siteYAML = `
meta:
  title: Smoke Site
header:
  links:
    - path: blog
      name: Blog
lib:
  tmpl/base:
    filePath: /lib/base.html
content:
  index:
    title: Home
    filePath: /content/index.md
    tmplHtml: tmpl/base
`

const baseHTML = `<title>{{.PageTitle}} | {{.SiteTitle}}</title>{{range .Links}}<a href="/{{.Path}}">{{.Name}}</a>{{end}}<main>{{.Content}}</main>`

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"site.yaml":        siteYAML,
		"lib/base.html":    baseHTML,
		"content/index.md": "# Hello\n",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func TestNewServerLocalSite(t *testing.T) {
	dir := writeSite(t)
	cfg := &config.Config{
		LocalFilesDir:       dir,
		RenderLocalMarkdown: true,
		ConfigFilePath:      filepath.Join(dir, "site.yaml"),
		GitHub:              config.GitHubConfig{APIURL: "https://api.github.com"},
	}

	s, err := newServer(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Home | Smoke Site</title>")
	assert.Contains(t, body, `<a href="/blog">Blog</a>`)
	assert.Contains(t, body, `<h1 id="hello">Hello</h1>`)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok","cacheEntries":2}`, rec.Body.String())
}

func TestNewServerMissingSiteConfig(t *testing.T) {
	cfg := &config.Config{ConfigFilePath: filepath.Join(t.TempDir(), "nope.yaml")}
	_, err := newServer(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
