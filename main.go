package main

//go:generate swag init

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/satheeshds/portal/billing"
	"github.com/satheeshds/portal/config"
	"github.com/satheeshds/portal/db"
	_ "github.com/satheeshds/portal/docs"
	"github.com/satheeshds/portal/documents"
	"github.com/satheeshds/portal/handlers"
	"github.com/satheeshds/portal/metrics"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title           Practice Portal Billing API
// @version         1.0.0
// @description     Service catalog, invoices, payments and client document access.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.basic  BasicAuth

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Configure structured logging
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()})))
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "store", cfg.Store.Kind, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	storage, err := openDocuments(ctx, cfg.Documents)
	if err != nil {
		slog.Error("failed to open document storage", "error", err)
		os.Exit(1)
	}

	m := metrics.NewCollector("portal")
	manager := billing.NewManager(billing.Params{
		Store:   store,
		Logger:  logger.With("component", "invoices"),
		Metrics: m,
		Company: cfg.Company,
		Retries: cfg.Billing.MutationRetries,
	})
	evaluator := billing.NewEvaluator(store, logger.With("component", "payment_status"), m, nil)
	gate := documents.NewGate(evaluator, documents.GateConfig{
		Timeout:         cfg.Gate.Timeout,
		BreakerFailures: cfg.Gate.BreakerFailures,
		BreakerCooldown: cfg.Gate.BreakerCooldown,
	}, logger.With("component", "document_gate"), m)

	h := handlers.New(handlers.Deps{
		Invoices:  manager,
		Catalog:   billing.NewCatalog(store, logger.With("component", "catalog")),
		Evaluator: evaluator,
		Clients:   store,
		Gate:      gate,
		Documents: storage,
		Logger:    logger,
	})

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Group(func(r chi.Router) {
		r.Use(handlers.BasicAuth(cfg.Auth.User, cfg.Auth.Pass))
		h.Routes(r)
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "address", srv.Addr, "store", cfg.Store.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.StoreConfig) (billing.Store, func(), error) {
	if cfg.Kind == config.StoreMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		return db.NewMemory(), func() {}, nil
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, nil, err
	}
	return db.NewPostgres(database), func() { database.Close() }, nil
}

func openDocuments(ctx context.Context, cfg config.DocumentsConfig) (documents.Storage, error) {
	if cfg.Bucket != "" {
		slog.Info("serving documents from s3", "bucket", cfg.Bucket, "prefix", cfg.Prefix)
		return documents.NewS3Storage(ctx, cfg.Bucket, cfg.Prefix, cfg.Region)
	}
	slog.Info("serving documents from local directory", "dir", cfg.Dir)
	return documents.NewDirStorage(cfg.Dir), nil
}
