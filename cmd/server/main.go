package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexiqai/realtime-vad/internal/config"
	"github.com/lexiqai/realtime-vad/internal/observability"
	"github.com/lexiqai/realtime-vad/internal/resilience"
	"github.com/lexiqai/realtime-vad/internal/scorer"
	"github.com/lexiqai/realtime-vad/internal/stream"
	"github.com/lexiqai/realtime-vad/internal/vad"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	vadCfg, err := cfg.VADConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid detector configuration")
	}

	logger.Info().
		Str("port", cfg.Port).
		Int("sample_rate", int(vadCfg.SampleRate)).
		Str("model_version", vadCfg.ModelVersion.String()).
		Str("scorer", cfg.Scorer).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Realtime VAD service starting")

	// One breaker guards every scorer; scorers themselves are per session
	breaker := resilience.NewCircuitBreaker("scorer", cfg.CircuitBreakerMaxFailures, cfg.ResetTimeout(),
		resilience.WithStateChangeHook(func(name string, from, to resilience.CircuitState) {
			observability.UpdateCircuitBreakerState(name, int(to))
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		}))
	observability.UpdateCircuitBreakerState(breaker.Name(), int(breaker.GetState()))
	scorerOpts := cfg.ScorerOptions()
	newScorer := func() (vad.Scorer, error) {
		inner, err := scorer.New(scorerOpts)
		if err != nil {
			return nil, err
		}
		return scorer.NewGuarded(inner, breaker), nil
	}

	// The readiness check scores through its own instance so polling never
	// touches session state. Creating it also validates the scorer options
	readyScorer, err := newScorer()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create scorer")
	}
	defer scorer.Close(readyScorer)

	// Create HTTP server
	mux := http.NewServeMux()

	// Streaming VAD WebSocket handler
	mux.HandleFunc("/streams/vad", stream.HandleVADWS(vadCfg, newScorer))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint - scores one silent frame through the readiness scorer
	scorerCheck := func(ctx context.Context) (bool, error) {
		silence := make([]float32, vadCfg.FrameSize())
		if _, err := readyScorer.Score(silence, vadCfg.SampleRate, vadCfg.ModelVersion); err != nil {
			return false, err
		}
		return true, nil
	}
	breakerCheck := func(ctx context.Context) (bool, error) {
		state, requests, failures, rate := breaker.GetStats()
		if state == resilience.StateOpen {
			return false, fmt.Errorf("circuit %s: %d of %d calls failed (%.1f%%)", state, failures, requests, rate)
		}
		return true, nil
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"scorer":          scorerCheck,
		"circuit_breaker": breakerCheck,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// WriteTimeout stays unset: it would cut long-lived WebSocket sessions
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/streams/vad", cfg.Port)).
			Int("frame_size", vadCfg.FrameSize()).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
