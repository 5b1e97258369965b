// Package resolver turns a logical path into content: it looks the path up
// in the site map, serves fresh cache entries, fetches and caches on a miss,
// and composes full pages from a body and a template.
//
// Concurrent misses for one key are not coalesced. Each caller fetches and
// writes, and the last write wins the cache slot.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ryanlaycock/gitsite/cache"
	"github.com/ryanlaycock/gitsite/internal/compose"
	"github.com/ryanlaycock/gitsite/internal/site"
	"github.com/ryanlaycock/gitsite/internal/source"
)

// ErrNotFound is the only error returned by the public Resolve methods.
// The cause (unknown key, failed fetch, bad template) is logged, not returned.
var ErrNotFound = errors.New("not found")

// Kind selects one of the resolution flows
type Kind int

const (
	KindLibrary Kind = iota
	KindContent
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindContent:
		return "content"
	case KindPage:
		return "page"
	default:
		return "unknown"
	}
}

// CacheKey scopes a descriptor key by the map it belongs to, so a lib key and
// a content key with the same name never share an entry.
func CacheKey(kind Kind, key string) string {
	return kind.String() + ":" + key
}

type lookupFunc func(key string) (site.Descriptor, bool)

// Engine resolves library files, content files and composed pages
type Engine struct {
	site     *site.Config
	cache    cache.Store
	fetcher  source.Fetcher
	composer *compose.Composer
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the clock used for freshness checks. Use the same clock
// for the cache so stamps and checks agree.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithComposer(c *compose.Composer) Option {
	return func(e *Engine) { e.composer = c }
}

// New creates an Engine. The cache is owned by the caller and may be shared
// between engines.
func New(cfg *site.Config, store cache.Store, f source.Fetcher, opts ...Option) *Engine {
	e := &Engine{
		site:    cfg,
		cache:   store,
		fetcher: f,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.composer == nil {
		e.composer = compose.New(cfg, nil)
	}
	return e
}

// Resolve dispatches to the flow for kind
func (e *Engine) Resolve(ctx context.Context, kind Kind, key string) (cache.Entry, error) {
	switch kind {
	case KindLibrary:
		return e.resolveOne(ctx, kind, key, e.site.LibDescriptor)
	case KindContent:
		return e.resolveOne(ctx, kind, key, e.site.ContentDescriptor)
	case KindPage:
		return e.resolvePage(ctx, key)
	default:
		return cache.Entry{}, ErrNotFound
	}
}

// ResolveLibrary returns a library asset or template by lib key
func (e *Engine) ResolveLibrary(ctx context.Context, key string) (cache.Entry, error) {
	return e.Resolve(ctx, KindLibrary, key)
}

// ResolveContent returns a content file's text by content key
func (e *Engine) ResolveContent(ctx context.Context, key string) (cache.Entry, error) {
	return e.Resolve(ctx, KindContent, key)
}

// ResolvePage returns the composed page for a content key
func (e *Engine) ResolvePage(ctx context.Context, key string) (cache.Entry, error) {
	return e.Resolve(ctx, KindPage, key)
}

// Header returns the site's navigation links
func (e *Engine) Header() []site.Link {
	return e.site.Header.Links
}

// IndexKey returns the content key served at the site root
func (e *Engine) IndexKey() string {
	return e.site.IndexKey()
}

func (e *Engine) resolveOne(ctx context.Context, kind Kind, key string, lookup lookupFunc) (cache.Entry, error) {
	d, ok := lookup(key)
	if !ok {
		e.log.Debug().Str("kind", kind.String()).Str("key", key).Msg("key not in site config")
		return cache.Entry{}, ErrNotFound
	}

	cacheKey := CacheKey(kind, key)
	maxAge := d.MaxAge(e.site.DefaultMaxAge())
	if entry, ok := e.cache.Get(cacheKey); ok && entry.Fresh(maxAge, e.now()) {
		e.log.Debug().Str("kind", kind.String()).Str("key", key).Time("fetched_at", entry.FetchedAt).Msg("cache hit")
		return entry, nil
	}

	src := d.Source()
	log := e.log.With().Str("fetch_id", uuid.NewString()).Logger()
	start := e.now()
	// a fetch outlives a cancelled request so its result can still be cached
	fetchCtx := log.WithContext(context.WithoutCancel(ctx))
	content, err := e.fetcher.Fetch(fetchCtx, src)
	if err != nil {
		ev := log.Warn().Err(err).Str("kind", kind.String()).Str("key", key).Str("source", src.String())
		var re *source.RemoteError
		if errors.As(err, &re) && re.Status != 0 {
			ev = ev.Int("status", re.Status)
		}
		ev.Msg("fetch failed")
		return cache.Entry{}, ErrNotFound
	}

	entry := e.cache.Put(cacheKey, content)
	log.Info().
		Str("kind", kind.String()).
		Str("key", key).
		Str("source", src.String()).
		Bool("remote", src.Remote()).
		Int("bytes", len(content)).
		Dur("took", e.now().Sub(start)).
		Msg("fetched")
	return entry, nil
}

// resolvePage fetches the body and the template concurrently. Either failing
// fails the page. The returned entry carries the template's fetch time.
func (e *Engine) resolvePage(ctx context.Context, key string) (cache.Entry, error) {
	page, ok := e.site.Content[key]
	if !ok || !page.Composable() {
		e.log.Debug().Str("kind", KindPage.String()).Str("key", key).Msg("no composable page for key")
		return cache.Entry{}, ErrNotFound
	}

	var body, tmpl cache.Entry
	var g errgroup.Group
	g.Go(func() error {
		var err error
		body, err = e.resolveOne(ctx, KindContent, key, e.site.ContentDescriptor)
		return err
	})
	g.Go(func() error {
		var err error
		tmpl, err = e.resolveOne(ctx, KindLibrary, page.TmplHTML, e.site.LibDescriptor)
		return err
	})
	if err := g.Wait(); err != nil {
		return cache.Entry{}, ErrNotFound
	}

	out, err := e.composer.Compose(page.TmplHTML, tmpl.Content, body.Content, page)
	if err != nil {
		e.log.Warn().Err(err).Str("key", key).Str("template", page.TmplHTML).Msg("compose failed")
		return cache.Entry{}, ErrNotFound
	}

	return cache.Entry{Content: out, FetchedAt: tmpl.FetchedAt}, nil
}
