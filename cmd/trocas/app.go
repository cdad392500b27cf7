package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vidall28/trocasequebras/internal/config"
	"github.com/vidall28/trocasequebras/internal/db"
	"github.com/vidall28/trocasequebras/internal/evidence"
	"github.com/vidall28/trocasequebras/internal/logger"
)

// app holds what every command needs: settings, logger and an open, migrated
// database.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	closeLog func()
}

func openApp() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	l, closeLog, err := logger.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		closeLog()
		return nil, err
	}
	l.Info("database ready", "path", cfg.DB.Path)

	return &app{cfg: cfg, logger: l, db: database, closeLog: closeLog}, nil
}

func (a *app) Close() {
	a.db.Close()
	a.closeLog()
}

// evidenceBackends returns the store new photos go to and a router that can
// read every reference scheme.
func (a *app) evidenceBackends(ctx context.Context) (evidence.Store, *evidence.Router, error) {
	dbStore := &evidence.DBStore{DB: a.db}
	router := evidence.NewRouter()
	router.Handle(evidence.DBScheme, dbStore)

	router.HandleRemote(&http.Client{Timeout: 30 * time.Second}, a.cfg.Evidence.RemoteHosts, a.cfg.Evidence.MaxBytes)

	var store evidence.Store = dbStore

	s3cfg := a.cfg.S3
	if a.cfg.Evidence.Backend == config.EvidenceS3 || s3cfg.AccessKey != "" {
		s3Store, err := evidence.NewS3Store(evidence.S3Config{
			Endpoint:  s3cfg.Endpoint,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			UseSSL:    s3cfg.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		router.Handle(evidence.S3Scheme, s3Store)

		if a.cfg.Evidence.Backend == config.EvidenceS3 {
			if err := s3Store.EnsureBucket(ctx); err != nil {
				return nil, nil, fmt.Errorf("preparing evidence bucket: %w", err)
			}
			store = s3Store
		}
	}

	a.logger.Info("evidence backend ready", "backend", a.cfg.Evidence.Backend, "remote_hosts", a.cfg.Evidence.RemoteHosts)
	return store, router, nil
}
