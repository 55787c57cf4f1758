package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/auth"
	"github.com/vovakirdan/dealhub-server/internal/config"
	"github.com/vovakirdan/dealhub-server/internal/conversations"
	"github.com/vovakirdan/dealhub-server/internal/notify"
	"github.com/vovakirdan/dealhub-server/internal/store"
	"github.com/vovakirdan/dealhub-server/internal/store/sqlite"
	"github.com/vovakirdan/dealhub-server/internal/telegram"
	transporthttp "github.com/vovakirdan/dealhub-server/internal/transport/http"
)

// App wires together stores, services and transport.
type App struct {
	server          *stdhttp.Server
	poller          *telegram.Poller
	store           store.Store
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	// Initialize database store
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	// Create JWT config
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour, // 24 hour token expiry
	}

	authService := auth.NewService(st, jwtConfig)
	convs := conversations.New(st)
	hub := notify.NewHub()

	// The external channel is optional: without a token the dispatcher
	// runs with the in-app sinks only and everything else works the same.
	sinks := []notify.Sink{hub}
	var poller *telegram.Poller
	if cfg.TelegramEnabled() {
		client := telegram.NewClient(cfg.TelegramToken, cfg.TelegramSendTimeout, logger)
		sinks = append(sinks, notify.NewChannelSink(st, client, logger))

		poller = telegram.NewPoller(client, cfg.TelegramPollTimeout, logger)
		telegram.RegisterDefaultCommands(poller, st, logger)
		logger.Info().Msg("telegram channel enabled")
	} else {
		logger.Info().Msg("telegram token not configured, external channel disabled")
	}

	dispatcher := notify.NewDispatcher(st, logger, sinks...)
	server := transporthttp.NewServer(cfg, authService, st, convs, dispatcher, hub, logger)

	return &App{
		server:          server,
		poller:          poller,
		store:           st,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}, nil
}

// Run starts the HTTP server (and the command loop when configured) and
// blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	if a.poller != nil {
		go func() {
			if err := a.poller.Run(ctx); err != nil {
				a.log.Error().Err(err).Msg("command loop exited with error")
			}
		}()
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
