package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/manojkp08/adpulse/internal/config"
	"github.com/manojkp08/adpulse/internal/httpx"
	"github.com/manojkp08/adpulse/internal/metrics"
	"github.com/manojkp08/adpulse/internal/narrative"
	"github.com/manojkp08/adpulse/internal/pipeline"
	"github.com/manojkp08/adpulse/internal/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, reports will be numeric-only")
	}

	gen := narrative.NewGemini(narrative.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Timeout: cfg.NarrativeTimeout,
	})
	st := store.NewRunStore(cfg.RunHistory)
	met := metrics.New()
	pl := pipeline.New(gen, st, met, logger)

	r := httpx.NewRouter(logger, pl, st, met, cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
