package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gymsched/internal/audit"
	"gymsched/internal/config"
	"gymsched/internal/service/bookings"
	"gymsched/internal/store"
	"gymsched/internal/store/jsonfile"
	"gymsched/internal/store/memory"
	"gymsched/internal/store/postgres"
	httpTransport "gymsched/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "gymsched-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "gymsched-server"),
	)
	slog.SetDefault(log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	log.Info("starting",
		slog.String("http_addr", addr),
		slog.String("snapshot_driver", cfg.SnapshotDriver),
		slog.String("log_level", cfg.LogLevel),
	)

	var (
		snap    store.Snapshotter
		catalog store.ResourceCatalog
		reasons store.AbsenceReasonSource
	)

	switch cfg.SnapshotDriver {
	case "postgres":
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
			log.Error("database connection failed", args...)
			os.Exit(1)
		}
		defer func() {
			if err := postgres.Close(db); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		}()

		snap = postgres.NewSnapshotStore(db)
		pgCatalog := postgres.NewCatalog(db)
		catalog = pgCatalog
		reasons = pgCatalog
	case "file":
		snap = jsonfile.NewSnapshotStore(cfg.SnapshotPath)
		fileCatalog, err := jsonfile.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Error("catalog load failed", slog.Any("err", err), slog.String("path", cfg.CatalogPath))
			os.Exit(1)
		}
		catalog = fileCatalog
		reasons = fileCatalog
	default:
		log.Error("unknown snapshot driver", slog.String("driver", cfg.SnapshotDriver))
		os.Exit(1)
	}

	recorder := audit.NewRecorder(audit.LogSink{Log: log}, cfg.AuditBuffer, log)

	st := memory.New(memory.Options{
		LockTimeout: cfg.LockTimeout,
		Snapshotter: snap,
		Audit:       recorder,
		Logger:      log,
	})
	if err := st.Load(context.Background()); err != nil {
		log.Error("snapshot load failed", slog.Any("err", err))
		os.Exit(1)
	}

	svc := bookings.NewService(st, catalog, reasons)

	server := &http.Server{
		Addr:              addr,
		Handler:           httpTransport.NewRouter(svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", addr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, server, recorder, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, server *http.Server, recorder *audit.Recorder, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing close", slog.Any("err", err))
		_ = server.Close()
	} else {
		log.Info("http server stopped")
	}

	if err := recorder.Close(ctx); err != nil {
		log.Warn("audit recorder drain timed out", slog.Any("err", err))
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
