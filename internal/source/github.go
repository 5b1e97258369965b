package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "gitsite"

	// AcceptRaw asks the contents API for the file bytes as stored
	AcceptRaw = "application/vnd.github.raw+json"
	// AcceptHTML asks the contents API to render the file (markdown etc.) to HTML
	AcceptHTML = "application/vnd.github.html+json"
)

// GitHub reads files through the repository contents API
type GitHub struct {
	http      *http.Client
	baseURL   *url.URL
	userAgent string
}

type Option func(*GitHub)

func WithHTTPClient(h *http.Client) Option {
	return func(g *GitHub) { g.http = h }
}
func WithBaseURL(raw string) Option {
	return func(g *GitHub) {
		if u, err := url.Parse(raw); err == nil {
			g.baseURL = u
		}
	}
}
func WithUserAgent(ua string) Option {
	return func(g *GitHub) { g.userAgent = ua }
}

// NewGitHub creates a contents API client. A non-empty token is sent as
// "Authorization: Bearer <token>" on every request.
func NewGitHub(token string, opts ...Option) *GitHub {
	u, _ := url.Parse(DefaultBaseURL)
	g := &GitHub{
		http:      http.DefaultClient,
		baseURL:   u,
		userAgent: DefaultUserAgent,
	}
	for _, o := range opts {
		o(g)
	}

	if token != "" {
		hc := *g.http
		hc.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   g.http.Transport,
		}
		g.http = &hc
	}
	return g
}

// Fetch implements Fetcher. HTML files are requested raw; everything else is
// requested in its rendered-HTML representation.
func (g *GitHub) Fetch(ctx context.Context, src Source) (string, error) {
	return g.get(ctx, src.Project, src.Path, AcceptFor(src.Path))
}

// Raw fetches a file's stored bytes regardless of extension
func (g *GitHub) Raw(ctx context.Context, project, filePath string) (string, error) {
	return g.get(ctx, project, filePath, AcceptRaw)
}

// AcceptFor returns the Accept header negotiated for a file path
func AcceptFor(filePath string) string {
	ext := strings.ToLower(path.Ext(filePath))
	if ext == ".html" || ext == ".htm" {
		return AcceptRaw
	}
	return AcceptHTML
}

func (g *GitHub) newReq(ctx context.Context, project, filePath, accept string) (*http.Request, error) {
	u := *g.baseURL
	u.Path = path.Join(u.Path, "repos", project, "contents", filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", accept)
	return req, nil
}

func (g *GitHub) get(ctx context.Context, project, filePath, accept string) (string, error) {
	req, err := g.newReq(ctx, project, filePath, accept)
	if err != nil {
		return "", &RemoteError{Project: project, Path: filePath, Err: err}
	}

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		return "", &RemoteError{Project: project, Path: filePath, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	zerolog.Ctx(ctx).Debug().
		Str("url", req.URL.String()).
		Str("accept", accept).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("contents api response")

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", &RemoteError{Project: project, Path: filePath, Status: resp.StatusCode, Err: fmt.Errorf("%s: %s", resp.Status, msg)}
	}
	if err != nil {
		return "", &RemoteError{Project: project, Path: filePath, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return string(body), nil
}
