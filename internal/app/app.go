// Package app assembles the stores and services shared by the server and eventctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/sportify-server/internal/cache/sqlite"
	"github.com/dtroode/sportify-server/internal/config"
	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
	"github.com/dtroode/sportify-server/internal/repository/document"
	"github.com/dtroode/sportify-server/internal/repository/memory"
	"github.com/dtroode/sportify-server/internal/repository/postgres"
	minioStorage "github.com/dtroode/sportify-server/internal/storage/minio"
	s3Storage "github.com/dtroode/sportify-server/internal/storage/s3"
	"github.com/dtroode/sportify-server/internal/service"
	"github.com/dtroode/sportify-server/internal/token"
)

// App holds the wired services.
type App struct {
	Cache      *sqlite.Store
	Membership *service.Membership
	Events     *service.Events
	Profiles   *service.Profiles
	Cached     *service.Cached
	Tokens     *token.JWT

	closers []func() error
}

type options struct {
	skipBlobs bool
}

// Option adjusts what New connects to.
type Option func(*options)

// WithoutBlobs skips the blob backend. Uploads then fail, which suits
// administrative commands that never upload.
func WithoutBlobs() Option {
	return func(o *options) { o.skipBlobs = true }
}

// New connects the document store, blob backend and cache, and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{}

	docs, err := a.openDocuments(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	var blobs model.BlobStore
	if !o.skipBlobs {
		blobs, err = NewBlobStore(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	cache, err := sqlite.Open(cfg.Cache.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, cache.Close)
	a.Cache = cache

	users := document.NewUserRepository(docs)
	events := document.NewEventRepository(docs)

	a.Membership = service.NewMembership(users, events, cfg.Sync.FanoutLimit, logger.Component("membership"))
	a.Events = service.NewEvents(users, events, a.Membership, blobs, cfg.Sync.FanoutLimit, logger.Component("events"))
	a.Profiles = service.NewProfiles(users, cache, blobs, logger.Component("profiles"))
	a.Cached = service.NewCached(users, a.Events, a.Membership, a.Profiles, cache, cfg.Cache.MaxStaleness, logger.Component("cache"))
	a.Tokens = token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)

	return a, nil
}

func (a *App) openDocuments(ctx context.Context, cfg config.Database, logger *logger.Logger) (model.DocumentStore, error) {
	if cfg.Driver == config.DatabaseDriverMemory {
		logger.Warn("using in-memory document store, data is lost on exit")
		return memory.NewDocumentStore(), nil
	}

	db, err := postgres.NewConnection(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document store: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	return postgres.NewDocumentRepository(db), nil
}

// NewBlobStore connects the configured blob backend.
func NewBlobStore(ctx context.Context, cfg *config.Config) (model.BlobStore, error) {
	switch cfg.Blob.Backend {
	case config.BlobBackendS3:
		client, err := s3Storage.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		return client, nil
	default:
		minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
			Secure: cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		client, err := minioStorage.NewClient(ctx, minioClient, cfg.Storage.Bucket, minioPublicURL(cfg.Storage))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize minio storage: %w", err)
		}
		return client, nil
	}
}

func minioPublicURL(cfg config.Storage) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: cfg.Endpoint}).String()
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
