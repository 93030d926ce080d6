package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adaptivequiz/internal/app"
	"adaptivequiz/internal/config"
	"adaptivequiz/internal/logging"

	"go.uber.org/zap"
)

// @title Adaptive Personality Quiz API
// @version 1.0
// @description Personality questionnaire with adaptive question selection
// @host localhost:8080
// @BasePath /v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("completion settings",
		zap.String("provider", string(cfg.Completion.Provider)),
		zap.String("model", cfg.Completion.Model),
		zap.Bool("enabled", cfg.Completion.IsEnabled()),
		zap.Duration("timeout", cfg.Completion.Timeout),
		zap.Duration("engine_deadline", cfg.Selection.Deadline))
	if !cfg.Completion.IsEnabled() {
		logger.Warn("COMPLETION_API_KEY not set, every selection uses the diversity fallback")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		logger.Info("endpoints",
			zap.Strings("routes", []string{
				"POST /v1/auth/respondent",
				"GET  /v1/questions",
				"POST /v1/adaptive/next-questions",
				"POST /v1/results",
				"GET  /v1/results/recent",
				"GET  /metrics",
			}))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Warn("closing connections", zap.Error(err))
	}

	logger.Info("server exited")
}
