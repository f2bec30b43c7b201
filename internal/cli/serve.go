package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/TonyXvr/DigitGuesser/assets"
	"github.com/TonyXvr/DigitGuesser/internal/chat"
	"github.com/TonyXvr/DigitGuesser/internal/config"
	"github.com/TonyXvr/DigitGuesser/internal/httpserver"
	"github.com/TonyXvr/DigitGuesser/internal/metrics"
	"github.com/TonyXvr/DigitGuesser/internal/ratelimit"
	"github.com/TonyXvr/DigitGuesser/internal/results"
	"github.com/TonyXvr/DigitGuesser/internal/rooms"
	"github.com/TonyXvr/DigitGuesser/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg.Logging)
			return serve(cmd.Context(), cfg)
		},
	}
}

func setupLogging(c config.LoggingConfig) {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		log.Info().Msg("sentry initialized")
	}

	// Redis backs sessions and rate limits when configured; otherwise sessions
	// stay in memory and limits are off.
	var rdb *redis.Client
	games := store.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		games = store.NewRedisStore(rdb, cfg.Redis.SessionTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	res, err := results.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	defer res.Close()

	roomMgr := rooms.NewManager(nil)
	go roomMgr.RunJanitor(ctx, rooms.DefaultSweepInterval, rooms.DefaultIdleTimeout, func(live int) {
		metrics.ActiveRooms.Set(float64(live))
	})

	srv := httpserver.New(httpserver.Deps{
		Config:  cfg,
		Games:   games,
		Results: res,
		Rooms:   roomMgr,
		Limiter: ratelimit.New(rdb),
		Chat: chat.NewClient(chat.Config{
			BaseURL:      cfg.Chat.BaseURL,
			APIKey:       cfg.Chat.APIKey,
			Model:        cfg.Chat.Model,
			SystemPrompt: assets.ChatPrompt(),
			Timeout:      cfg.Chat.Timeout,
		}),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		// No WriteTimeout: room WebSockets are long-lived.
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Str("db", cfg.Database.Driver).Msg("starting digitguess")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
