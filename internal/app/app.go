// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/fact-poller/internal/api"
	"github.com/JakeFAU/fact-poller/internal/clock/system"
	"github.com/JakeFAU/fact-poller/internal/config"
	"github.com/JakeFAU/fact-poller/internal/fact"
	collyfetcher "github.com/JakeFAU/fact-poller/internal/fetcher/colly"
	"github.com/JakeFAU/fact-poller/internal/hash/sha256"
	"github.com/JakeFAU/fact-poller/internal/id/uuid"
	"github.com/JakeFAU/fact-poller/internal/poller"
	memorypub "github.com/JakeFAU/fact-poller/internal/publisher/memory"
	pubsubpub "github.com/JakeFAU/fact-poller/internal/publisher/pubsub"
	"github.com/JakeFAU/fact-poller/internal/storage"
	"github.com/JakeFAU/fact-poller/internal/storage/gcs"
	"github.com/JakeFAU/fact-poller/internal/storage/local"
	"github.com/JakeFAU/fact-poller/internal/storage/memory"
	"github.com/JakeFAU/fact-poller/internal/storage/postgres"
	"github.com/JakeFAU/fact-poller/internal/storage/s3"
	"github.com/JakeFAU/fact-poller/internal/storage/sqlite"
)

type notifier interface {
	fact.Publisher
	Close() error
}

// App holds the shared, long-lived services for one poll run: the store,
// the optional notifier, the optional metrics server, and the poller wired to them.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     storage.Provider
	publisher notifier
	server    *api.Server
	poller    *poller.Poller
}

// NewApp creates and initializes an App from cfg. It fails fast if any
// service cannot be initialized, releasing whatever was already opened.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Initializing application services...")

	clock := system.New()
	ids := uuid.New()

	store, err := newStore(ctx, cfg.Storage, ids, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Debug("Using storage provider", zap.String("provider", store.Name()))

	var pub notifier
	if cfg.Notify.Topic != "" {
		pub, err = newPublisher(ctx, cfg.Notify)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize notifier: %w", err)
		}
		logger.Debug("Publishing save notifications",
			zap.String("provider", cfg.Notify.Provider),
			zap.String("topic", cfg.Notify.Topic),
		)
	}

	var server *api.Server
	if cfg.Metrics.Addr != "" {
		server = api.NewServer(logger)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})

	p := poller.New(
		fetcher,
		store,
		pub,
		sha256.New(),
		clock,
		clock,
		poller.Config{
			URL:        cfg.Poller.URL,
			Iterations: cfg.Poller.Iterations,
			Interval:   cfg.Poller.Interval,
		},
		logger,
	)

	logger.Debug("Application services initialized successfully.")
	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		publisher: pub,
		server:    server,
		poller:    p,
	}, nil
}

func newStore(ctx context.Context, cfg config.StorageConfig, ids fact.IDGenerator, clock fact.Clock) (storage.Provider, error) {
	switch cfg.Provider {
	case config.StorageLocal:
		return local.New(local.Config{BaseDir: cfg.Local.BaseDir}, ids)
	case config.StorageMemory:
		return memory.NewStore(ids), nil
	case config.StorageGCS:
		return gcs.Open(ctx, gcs.Config{Bucket: cfg.GCS.Bucket, Prefix: cfg.GCS.Prefix}, ids)
	case config.StoragePostgres:
		return postgres.Open(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN,
			Table:    cfg.Postgres.Table,
			MaxConns: cfg.Postgres.MaxConns,
		}, ids, clock)
	case config.StorageS3:
		return s3.Open(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		}, ids)
	case config.StorageSQLite:
		return sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLite.Path, Table: cfg.SQLite.Table}, ids, clock)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

func newPublisher(ctx context.Context, cfg config.NotifyConfig) (notifier, error) {
	switch cfg.Provider {
	case config.NotifyPubSub:
		return pubsubpub.Open(ctx, cfg.ProjectID, cfg.Topic)
	case config.NotifyMemory:
		return memorypub.New(cfg.Topic), nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Provider)
	}
}

// Store exposes the configured record store.
func (a *App) Store() storage.Provider {
	return a.store
}

// Publisher returns the configured notifier, or nil when notifications are off.
func (a *App) Publisher() fact.Publisher {
	return a.publisher
}

// Run executes the poll loop. When a metrics address is configured the
// metrics server runs alongside it and is shut down when the loop ends.
func (a *App) Run(ctx context.Context) (poller.Summary, error) {
	if a.server == nil {
		return a.poller.Run(ctx)
	}

	serverCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.server.Serve(serverCtx, a.cfg.Metrics.Addr); err != nil {
			a.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	a.server.SetReady(true)

	summary, err := a.poller.Run(ctx)

	a.server.SetReady(false)
	stop()
	wg.Wait()
	return summary, err
}

// Close gracefully shuts down all services in the App container.
func (a *App) Close() {
	a.logger.Debug("Shutting down application services...")
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("Error closing notifier", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Error closing store", zap.Error(err))
	}
	// Sync fails on some terminals (ENOTTY on stderr); nothing useful can be done about it here.
	_ = a.logger.Sync()
}
