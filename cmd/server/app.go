package main

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/diewo77/cobbler-crm/auth"
	"github.com/diewo77/cobbler-crm/internal/apiclient"
	"github.com/diewo77/cobbler-crm/internal/config"
	"github.com/diewo77/cobbler-crm/internal/db"
	"github.com/diewo77/cobbler-crm/internal/images"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/seed"
	"github.com/diewo77/cobbler-crm/internal/server"
	"github.com/diewo77/cobbler-crm/internal/services"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/diewo77/cobbler-crm/internal/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// App is the assembled handler plus whatever must be released on shutdown.
type App struct {
	Handler http.Handler
	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// NewApp wires the configured mode: the local backend over a key-value
// store, or the dashboard over the remote API.
func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	if cfg.App.Mode == config.ModeRemote {
		return newRemoteApp(ctx, cfg, log), nil
	}
	app := &App{}
	backend, err := openBackend(ctx, cfg, log, app)
	if err != nil {
		app.Close()
		return nil, err
	}
	adapter := store.NewAdapter(backend, log)
	imgs := images.New(adapter, cfg.Images.MaxDimension, cfg.Images.Quality, log)
	adapter.SetEvictor(imgs)
	repos := repository.New(adapter, imgs)

	if _, err := seed.Run(ctx, adapter, repos, seed.Options{Version: cfg.App.SchemaVersion, Demo: cfg.App.SeedDemo}, log); err != nil {
		app.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}

	app.Handler = server.New(server.Deps{
		Repos:     repos,
		Workflow:  workflow.NewService(repos.Enquiries, log),
		Billing:   services.NewBillingService(repos.Enquiries, repos.Business),
		Dashboard: services.NewDashboardService(services.LocalSource{Repos: repos}, services.LocalSource{Repos: repos}, services.LocalSource{Repos: repos}),
		Images:    imgs,
		Secret:    auth.Secret(),
		Region:    cfg.App.DefaultRegion,
		Log:       log,
	})
	return app, nil
}

func newRemoteApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) *App {
	client := apiclient.New(cfg.API, log)
	src := server.NewRemoteEnquiries(client, cfg.API.PollInterval, log)
	src.Poller.Start(ctx)
	log.WithFields(logrus.Fields{"module": "main", "base_url": cfg.API.BaseURL, "interval": src.Poller.Interval().String()}).Info("polling remote API")
	return &App{
		Handler: server.NewRemote(services.NewDashboardService(src, nil, nil), auth.Secret(), log),
		closers: []func(){src.Poller.Stop},
	}
}

// openBackend picks the key-value backend named by STORE_BACKEND.
func openBackend(ctx context.Context, cfg *config.Config, log *logrus.Logger, app *App) (store.Backend, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemory(int(cfg.Store.QuotaBytes)), nil
	case "sqlite", "postgres":
		conn, err := db.Open(cfg, log)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := conn.DB(); err == nil {
			app.closers = append(app.closers, func() { _ = sqlDB.Close() })
		}
		if err := db.Migrate(conn); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return store.NewSQL(conn, cfg.Store.QuotaBytes), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.NewRedis(rdb, ""), nil
	case "gcs":
		if cfg.Store.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required for the gcs backend")
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		return store.NewGCS(client, cfg.Store.GCSBucket, "cobbler/"), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
