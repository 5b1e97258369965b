// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ryanlaycock/gitsite/cache"
	"github.com/ryanlaycock/gitsite/internal/compose"
	"github.com/ryanlaycock/gitsite/internal/config"
	"github.com/ryanlaycock/gitsite/internal/http/routes"
	"github.com/ryanlaycock/gitsite/internal/resolver"
	"github.com/ryanlaycock/gitsite/internal/site"
	"github.com/ryanlaycock/gitsite/internal/source"
)

func main() {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	level, _ := cfg.Level()
	logger = logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build server")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

// newServer loads the site config and wires the fetchers, cache and resolver
// behind the router.
func newServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*routes.Server, error) {
	var localOpts []source.LocalOption
	if cfg.RenderLocalMarkdown {
		localOpts = append(localOpts, source.WithMarkdown())
	}
	local := source.NewLocal(cfg.LocalFilesDir, localOpts...)
	gh := source.NewGitHub(cfg.GitHub.AccessToken, source.WithBaseURL(cfg.GitHub.APIURL))

	var (
		siteCfg *site.Config
		err     error
	)
	if cfg.RemoteConfig() {
		siteCfg, err = site.LoadRemote(ctx, gh, cfg.ConfigFileProject, cfg.ConfigFilePath)
	} else {
		siteCfg, err = site.LoadFile(cfg.ConfigFilePath)
	}
	if err != nil {
		return nil, fmt.Errorf("load site config: %w", err)
	}

	if projects := siteCfg.RemoteProjects(); len(projects) > 0 && cfg.GitHub.AccessToken == "" {
		logger.Warn().Strs("projects", projects).Msg("remote projects configured without GITHUB_ACCESS_TOKEN")
	}
	logger.Info().
		Str("title", siteCfg.Meta.Title).
		Int("lib", len(siteCfg.Lib)).
		Int("content", len(siteCfg.Content)).
		Dur("default_max_age", siteCfg.DefaultMaxAge()).
		Msg("site config loaded")

	store := cache.NewMemory()
	engine := resolver.New(siteCfg, store, source.Multi{Local: local, Remote: gh},
		resolver.WithLogger(logger.With().Str("component", "resolver").Logger()),
		resolver.WithComposer(compose.New(siteCfg, compose.NewHTMLRenderer())),
	)

	return routes.New(routes.ServerOptions{
		Resolver: engine,
		Cache:    store,
		Logger:   logger,
	}), nil
}
