package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidall28/trocasequebras/internal/api"
	"github.com/vidall28/trocasequebras/internal/auth"
	"github.com/vidall28/trocasequebras/internal/catalog"
	"github.com/vidall28/trocasequebras/internal/draft"
	"github.com/vidall28/trocasequebras/internal/entry"
	"github.com/vidall28/trocasequebras/internal/events"
	"github.com/vidall28/trocasequebras/internal/export"
	"github.com/vidall28/trocasequebras/internal/query"
	"github.com/vidall28/trocasequebras/internal/store"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides SERVER_ADDR)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg

	// First run: create the admin account.
	n, err := store.CountUsers(ctx, a.db)
	if err != nil {
		return err
	}
	if n == 0 {
		password, err := createAdmin(ctx, a.db, cfg.DB.AdminEmployeeID, "Administrator")
		if err != nil {
			return err
		}
		printAdmin(cfg.DB.AdminEmployeeID, password)
	}

	if cfg.Catalog.File != "" {
		products, err := catalog.LoadFile(cfg.Catalog.File)
		if err != nil {
			return err
		}
		if _, err := catalog.Seed(ctx, a.db, products, a.logger); err != nil {
			return err
		}
	}

	secret, err := store.SigningKey(ctx, a.db)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}

	evidenceStore, evidenceRouter, err := a.evidenceBackends(ctx)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.LogPublisher{Logger: a.logger}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		a.logger.Info("publishing entry events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	exports, err := export.NewEngine(evidenceRouter, cfg.Export.Workers, a.logger)
	if err != nil {
		return err
	}
	defer exports.Release()

	slots := &store.DraftSlots{DB: a.db}
	entries := store.NewEntryStore(a.db)

	router := api.NewRouter(api.Deps{
		DB:               a.db,
		Issuer:           auth.NewIssuer(secret, auth.TokenExpiry),
		Drafts:           draft.NewSession(slots, &store.Catalog{DB: a.db}, a.logger),
		Engine:           entry.NewEngine(entries, slots, a.logger, entry.WithPublisher(publisher)),
		Queries:          query.NewService(entries),
		Exports:          exports,
		Evidence:         evidenceStore,
		EvidenceGetter:   evidenceRouter,
		EvidenceMaxBytes: cfg.Evidence.MaxBytes,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", "addr", cfg.Server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server forced to shutdown", "error", err)
	}

	a.logger.Info("server stopped, closing database")
	return nil
}
