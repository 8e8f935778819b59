package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"salao/internal/api"
	"salao/internal/backup"
	"salao/internal/catalog"
	"salao/internal/config"
	"salao/internal/metrics"
	"salao/internal/notify"
	"salao/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := loadConfig(&logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := store.New(cfg.Data.Path, catalog.Default(), &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}

	notifier := notify.New(cfg.NoticeTTL(), &logger)
	defer notifier.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go startHealthServer(ctx, cfg.Server.HealthCheckPort, st, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		svc := backup.New(cfg.Data.Path, cfg.Backup.Path, cfg.BackupInterval(), cfg.BackupRetention(), &logger)
		go svc.Start(ctx)
	}

	server := api.NewHTTPServer(st, catalog.Default(), notifier, &logger, api.Options{
		Port:              cfg.Server.Port,
		RateLimitEnabled:  cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})

	logger.Info().Msg("salon booking service started")
	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("API server error")
	}
}

func loadConfig(logger *zerolog.Logger) (*config.Config, error) {
	path := os.Getenv("SALAO_CONFIG_PATH")
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) && path == "" {
			logger.Info().Msg("no config file, using defaults")
			cfg = config.Default()
			if err := os.MkdirAll(filepath.Dir(cfg.Data.Path), 0o755); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

func startHealthServer(ctx context.Context, port int, st *store.Store, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := os.Stat(filepath.Dir(st.Path())); err != nil {
			http.Error(w, "data directory not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
