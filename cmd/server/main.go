package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/signform/internal/config"
	"github.com/iudanet/signform/internal/server/handlers"
	mw "github.com/iudanet/signform/internal/server/middleware"
	"github.com/iudanet/signform/internal/server/router"
	"github.com/iudanet/signform/internal/server/storage"
	"github.com/iudanet/signform/internal/server/storage/airtable"
	"github.com/iudanet/signform/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadServer()

	// Flags override environment
	showVersion := flag.Bool("version", false, "Show version information")
	showRecord := flag.String("show-record", "", "Print a stored record by ID and exit (sqlite store)")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.Store, "store", cfg.Store, "Record store: airtable or sqlite")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (sqlite store)")
	flag.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Max submissions per minute per IP, 0 disables")
	flag.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "Take client IP from X-Forwarded-For/X-Real-IP (only behind a trusted proxy)")
	flag.Parse()
	cfg.Normalize()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showRecord != "" {
		if err := printRecord(context.Background(), cfg, *showRecord, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.ServerConfig, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		}
	}()

	var limiter *mw.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = mw.NewRateLimiter(cfg.RateLimit, time.Minute, logger)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: router.New(logger,
			handlers.NewSubmissionHandler(logger, store),
			handlers.NewHealthHandler(logger, store, cfg.Store, Version),
			limiter,
			cfg.TrustProxy,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("SignForm server starting",
			slog.String("addr", cfg.Addr),
			slog.String("store", cfg.Store),
			slog.String("version", Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore создает хранилище записей по конфигурации.
// Airtable клиенту закрывать нечего, closer для него nil.
func openStore(ctx context.Context, cfg config.ServerConfig) (storage.RecordStore, io.Closer, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := sqlite.New(ctx, cfg.DBPath, cfg.Airtable.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, s, nil
	default:
		c, err := airtable.New(airtable.Config{
			APIKey: cfg.Airtable.APIKey,
			BaseID: cfg.Airtable.BaseID,
			Table:  cfg.Airtable.Table,
			APIURL: cfg.Airtable.APIURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create airtable client: %w", err)
		}
		return c, nil, nil
	}
}

// printRecord печатает запись локального хранилища в JSON.
// Airtable записи смотрят в самом Airtable.
func printRecord(ctx context.Context, cfg config.ServerConfig, id string, w io.Writer) error {
	if cfg.Store != config.StoreSQLite {
		return fmt.Errorf("-show-record requires the %s store, got %q", config.StoreSQLite, cfg.Store)
	}

	s, err := sqlite.New(ctx, cfg.DBPath, cfg.Airtable.Table)
	if err != nil {
		return fmt.Errorf("failed to open sqlite store: %w", err)
	}
	defer func() {
		_ = s.Close()
	}()

	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get record %s: %w", id, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func printVersion() {
	fmt.Printf("SignForm Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
