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

	"chartq/backend/internal/config"
	"chartq/backend/internal/handler"
	"chartq/backend/internal/llm"
	"chartq/backend/internal/logging"
	"chartq/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, nil)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	completer := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAITimeout)

	// Both stay nil interfaces unless a database is configured.
	var db service.DBClient
	var recorder service.QueryRecorder
	if cfg.DatabaseURL != "" {
		pg := service.NewPostgresClient()
		if err := pg.Connect(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pg.Disconnect()
		if err := pg.EnsureSchema(); err != nil {
			return fmt.Errorf("create query history table: %w", err)
		}
		db, recorder = pg, pg
	} else {
		log.Info().Msg("DATABASE_URL not set, query history and dataset endpoints disabled")
	}

	charts := service.NewChartService(completer, recorder)
	r := handler.NewRouter(handler.New(charts, db), handler.RouterConfig{
		StaticDir:      cfg.StaticDir,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowOrigins:   cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("model", completer.Model()).
			Bool("history", db != nil).
			Msg("chart query service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}
