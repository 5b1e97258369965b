package source

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestLocal_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "content/post1.md", "# Hello")

	l := NewLocal(dir)
	got, err := l.Fetch(context.Background(), Source{Path: "/content/post1.md"})
	require.NoError(t, err)
	assert.Equal(t, "# Hello", got)
}

func TestLocal_FetchMissing(t *testing.T) {
	l := NewLocal(t.TempDir())

	_, err := l.Fetch(context.Background(), Source{Path: "nope.html"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocalFileNotFound))
}

func TestLocal_FetchMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "post.md", "# Title\n\nSome *text*.")
	writeFile(t, dir, "base.html", "<p>{{.Content}}</p>")

	l := NewLocal(dir, WithMarkdown())

	html, err := l.Fetch(context.Background(), Source{Path: "post.md"})
	require.NoError(t, err)
	assert.Contains(t, html, `<h1 id="title">Title</h1>`)
	assert.Contains(t, html, "<em>text</em>")

	raw, err := l.Fetch(context.Background(), Source{Path: "base.html"})
	require.NoError(t, err)
	assert.Equal(t, "<p>{{.Content}}</p>", raw)
}

func TestAcceptFor(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"lib/base.html", AcceptRaw},
		{"lib/BASE.HTML", AcceptRaw},
		{"index.htm", AcceptRaw},
		{"content/post.md", AcceptHTML},
		{"lib/site.css", AcceptHTML},
		{"README", AcceptHTML},
	}

	for _, tt := range tests {
		if got := AcceptFor(tt.path); got != tt.expected {
			t.Errorf("AcceptFor(%q) = %s, want %s", tt.path, got, tt.expected)
		}
	}
}

func TestGitHub_Fetch(t *testing.T) {
	var gotPath, gotAuth, gotAccept, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<h1>rendered</h1>"))
	}))
	defer srv.Close()

	g := NewGitHub("secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	got, err := g.Fetch(context.Background(), Source{Project: "owner/site", Path: "/content/post1.md"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>rendered</h1>", got)
	assert.Equal(t, "/repos/owner/site/contents/content/post1.md", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, AcceptHTML, gotAccept)
	assert.Equal(t, DefaultUserAgent, gotUA)

	_, err = g.Fetch(context.Background(), Source{Project: "owner/site", Path: "lib/base.html"})
	require.NoError(t, err)
	assert.Equal(t, AcceptRaw, gotAccept)

	_, err = g.Raw(context.Background(), "owner/site", "site.yaml")
	require.NoError(t, err)
	assert.Equal(t, AcceptRaw, gotAccept)
}

func TestGitHub_FetchWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	g := NewGitHub("", WithBaseURL(srv.URL))
	_, err := g.Fetch(context.Background(), Source{Project: "o/r", Path: "a.md"})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestGitHub_FetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGitHub("tok", WithBaseURL(srv.URL))
	_, err := g.Fetch(context.Background(), Source{Project: "o/r", Path: "missing.md"})
	require.Error(t, err)

	var re *RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.Status)
	assert.Equal(t, "missing.md", re.Path)
	assert.True(t, strings.Contains(err.Error(), "404"))
}

func TestGitHub_FetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewGitHub("tok", WithBaseURL(url))
	_, err := g.Fetch(context.Background(), Source{Project: "o/r", Path: "a.md"})

	var re *RemoteError
	require.True(t, errors.As(err, &re))
	assert.Zero(t, re.Status)
}

func TestGitHub_LogsThroughContextLogger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("fetch_id", "f-1").Logger()
	ctx := logger.WithContext(context.Background())

	g := NewGitHub("", WithBaseURL(srv.URL))
	_, err := g.Fetch(ctx, Source{Project: "o/r", Path: "a.md"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"fetch_id":"f-1"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, "/repos/o/r/contents/a.md")
}

func TestRemoteError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *RemoteError
		want string
	}{
		{"status only", &RemoteError{Project: "o/r", Path: "x", Status: 500}, "remote fetch o/r:x: status 500"},
		{"status and cause", &RemoteError{Project: "o/r", Path: "x", Status: 404, Err: errors.New("404 Not Found")}, "remote fetch o/r:x: status 404: 404 Not Found"},
		{"transport", &RemoteError{Project: "o/r", Path: "x", Err: errors.New("dial tcp")}, "remote fetch o/r:x: dial tcp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.NotContains(t, tt.err.Error(), "<nil>")
		})
	}
}

type stubFetcher struct {
	name  string
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, src Source) (string, error) {
	s.calls++
	return s.name + ":" + src.Path, nil
}

func TestMulti_Routes(t *testing.T) {
	local := &stubFetcher{name: "local"}
	remote := &stubFetcher{name: "remote"}
	m := Multi{Local: local, Remote: remote}

	got, err := m.Fetch(context.Background(), Source{Path: "a.md"})
	require.NoError(t, err)
	assert.Equal(t, "local:a.md", got)

	got, err = m.Fetch(context.Background(), Source{Path: "b.md", Project: "o/r"})
	require.NoError(t, err)
	assert.Equal(t, "remote:b.md", got)

	assert.Equal(t, 1, local.calls)
	assert.Equal(t, 1, remote.calls)
}

func TestMulti_NoRemote(t *testing.T) {
	m := Multi{Local: &stubFetcher{name: "local"}}

	_, err := m.Fetch(context.Background(), Source{Path: "b.md", Project: "o/r"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRemote))
}
