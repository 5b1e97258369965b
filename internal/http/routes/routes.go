package routes

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/ryanlaycock/gitsite/cache"
	"github.com/ryanlaycock/gitsite/internal/site"
)

// Resolver is the part of the resolution engine the HTTP layer uses
type Resolver interface {
	ResolveLibrary(ctx context.Context, key string) (cache.Entry, error)
	ResolveContent(ctx context.Context, key string) (cache.Entry, error)
	ResolvePage(ctx context.Context, key string) (cache.Entry, error)
	Header() []site.Link
	IndexKey() string
}

// Sizer reports how many entries a cache holds
type Sizer interface {
	Len() int
}

type Server struct {
	Router   *chi.Mux
	Resolver Resolver
	Cache    Sizer // optional, reported by /healthz
	Log      zerolog.Logger
}

type ServerOptions struct {
	Resolver Resolver
	Cache    Sizer
	Logger   zerolog.Logger
}

type contentResponse struct {
	Data          string    `json:"data"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

type headerResponse struct {
	Data []site.Link `json:"data"`
}

type errorResponse struct {
	Message string `json:"message"`
}

const notFoundMsg = "not found"

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, Resolver: opts.Resolver, Cache: opts.Cache, Log: opts.Logger}

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/header/links", s.handleHeader)
	r.Get("/lib/*", s.handleLib)
	r.Get("/content/*", s.handleContent)
	r.Get("/", s.handleIndex)
	r.Get("/*", s.handlePage)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Cache == nil {
		if _, err := w.Write([]byte("ok")); err != nil {
			s.Log.Error().Err(err).Msg("write health response")
		}
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "cacheEntries": s.Cache.Len()})
}

func (s *Server) handleHeader(w http.ResponseWriter, r *http.Request) {
	links := s.Resolver.Header()
	if links == nil {
		links = []site.Link{}
	}
	s.writeJSON(w, http.StatusOK, headerResponse{Data: links})
}

func (s *Server) handleLib(w http.ResponseWriter, r *http.Request) {
	key := routeKey(r)
	entry, err := s.Resolver.ResolveLibrary(r.Context(), key)
	if err != nil {
		http.Error(w, notFoundMsg, http.StatusNotFound)
		return
	}
	s.writeText(w, contentTypeFor(key), entry)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	entry, err := s.Resolver.ResolveContent(r.Context(), routeKey(r))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Message: notFoundMsg})
		return
	}
	s.writeJSON(w, http.StatusOK, contentResponse{Data: entry.Content, LastUpdatedAt: entry.FetchedAt})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, s.Resolver.IndexKey())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, routeKey(r))
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, key string) {
	entry, err := s.Resolver.ResolvePage(r.Context(), key)
	if err != nil {
		http.Error(w, notFoundMsg, http.StatusNotFound)
		return
	}
	s.writeText(w, "text/html; charset=utf-8", entry)
}

func (s *Server) writeText(w http.ResponseWriter, contentType string, entry cache.Entry) {
	w.Header().Set("Content-Type", contentType)
	if !entry.FetchedAt.IsZero() {
		w.Header().Set("Last-Modified", entry.FetchedAt.UTC().Format(http.TimeFormat))
	}
	if _, err := w.Write([]byte(entry.Content)); err != nil {
		s.Log.Error().Err(err).Msg("write response")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Error().Err(err).Msg("encode json response")
	}
}

// routeKey is the wildcard part of the path without surrounding slashes
func routeKey(r *http.Request) string {
	return strings.Trim(chi.URLParam(r, "*"), "/")
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "text/plain; charset=utf-8"
}
