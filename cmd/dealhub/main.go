package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/dealhub-server/internal/app"
	"github.com/vovakirdan/dealhub-server/internal/config"
	"github.com/vovakirdan/dealhub-server/internal/log"
	"github.com/vovakirdan/dealhub-server/internal/store/sqlite"
	"github.com/vovakirdan/dealhub-server/internal/telegram"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dealhub",
		Short:         "DealHub messaging and notification server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(newServeCmd(&configPath), newBotCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("init application: %w", err)
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting dealhub server")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
}

// newBotCmd runs the inbound command loop as its own process, sharing only
// the database with the API server.
func newBotCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the standalone telegram command loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if !cfg.TelegramEnabled() {
				return errors.New("telegram_token is not configured")
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("init store: %w", err)
			}
			defer func() {
				if err := st.Close(); err != nil {
					logger.Warn().Err(err).Msg("failed to close store")
				}
			}()

			client := telegram.NewClient(cfg.TelegramToken, cfg.TelegramSendTimeout, logger)
			poller := telegram.NewPoller(client, cfg.TelegramPollTimeout, logger)
			telegram.RegisterDefaultCommands(poller, st, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().Msg("starting dealhub bot")
			return poller.Run(ctx)
		},
	}
}

func loadConfig(configPath string) (config.Config, *zerolog.Logger, error) {
	bootstrapLogger := log.New("info")
	cfg, path, err := config.Load(bootstrapLogger, configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}

	logger := log.New(cfg.LogLevel)
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}
