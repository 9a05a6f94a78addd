// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/lrstanley/go-ytdlp"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/groovebox/internal/api/httpapi"
	"github.com/osa030/groovebox/internal/app/player"
	"github.com/osa030/groovebox/internal/app/resolver"
	"github.com/osa030/groovebox/internal/app/view"
	"github.com/osa030/groovebox/internal/infra/catalog"
	"github.com/osa030/groovebox/internal/infra/config"
	"github.com/osa030/groovebox/internal/infra/extractor"
	"github.com/osa030/groovebox/internal/infra/logger"
)

var (
	app        = kingpin.New("groovebox-server", "groovebox playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(*verbose, *logfile); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Make sure the yt-dlp binary is available before serving requests.
	zlog.Info().Msg("Checking yt-dlp installation")
	ytdlp.MustInstall(ctx, nil)

	// Catalog translation is optional: without credentials, catalog
	// links fall through to direct search.
	var translator resolver.CatalogTranslator
	if cfg.SpotifyEnabled() {
		t, err := catalog.NewSpotifyTranslator(ctx, catalog.Config{
			ClientID:     cfg.Catalog.Spotify.ClientID,
			ClientSecret: cfg.Catalog.Spotify.ClientSecret,
			Limit:        cfg.Player.PlaylistCap,
		})
		if err != nil {
			return fmt.Errorf("failed to create catalog translator: %w", err)
		}
		translator = t
		zlog.Info().Msg("Spotify catalog translation enabled")
	} else {
		zlog.Info().Msg("Spotify not configured, catalog links degrade to direct search")
	}

	profiles, err := extractor.NewChainFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create extraction profiles: %w", err)
	}

	res := resolver.New(profiles, translator, resolver.Config{
		PreferredFormat: cfg.Resolver.PreferredFormat,
		ProfileTimeout:  cfg.ProfileTimeout(),
		PlaylistCap:     cfg.Player.PlaylistCap,
	})

	registry := player.NewRegistry(res, logPresence{}, cfg.Player.Volume)

	handler := httpapi.New(httpapi.Options{
		Registry: registry,
		Resolver: res,
		Views:    view.NewStore(),
		PageSize: cfg.View.PageSize,
		ViewTTL:  cfg.ViewTTL(),
	})

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// logPresence reports the playing status through the log stream. Voice
// front ends replace this with their own presence updates.
type logPresence struct{}

func (logPresence) SetStatus(text string) {
	if text == "" {
		zlog.Info().Msg("presence cleared")
		return
	}
	zlog.Info().Msgf("presence: listening to %s", text)
}
