package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/foxxcyber/fresh-feed/internal/config"
	"github.com/foxxcyber/fresh-feed/internal/database"
	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/logging"
)

// LearningBackend is the learning store selected by LEARNING_STORE plus the
// backup service when object storage is configured
type LearningBackend struct {
	Store   expiry.Store
	Backups *BackupService

	closers []func() error
}

// OpenLearningBackend builds the configured backend. db may be nil unless the
// postgres backend is selected.
func OpenLearningBackend(ctx context.Context, cfg *config.Config, db *database.DB) (*LearningBackend, error) {
	var storage *StorageService
	if cfg.S3Configured() {
		s, err := NewStorageService(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			logging.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("could not ensure bucket exists")
		}
		storage = s
	}

	backend := &LearningBackend{}
	if storage != nil {
		backend.Backups = NewBackupService(storage, cfg.BackupURLExpiry)
	}

	switch cfg.LearningStore {
	case config.StoreMemory:
		logging.Warn().Msg("learning store is in memory, corrections are lost on restart")
		backend.Store = expiry.NewMemoryStore()

	case config.StoreBadger:
		store, err := expiry.OpenBadgerStore(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		backend.Store = store
		backend.closers = append(backend.closers, store.Close)

	case config.StorePostgres:
		if db == nil {
			return nil, errors.New("postgres learning store needs a database connection")
		}
		backend.Store = database.NewLearningRepo(db)

	case config.StoreS3:
		if storage == nil {
			return nil, errors.New("s3 learning store needs S3_ACCESS_KEY and S3_SECRET_KEY")
		}
		backend.Store = NewLearningObjectStore(storage, cfg.S3BreakerTimeout)

	default:
		return nil, fmt.Errorf("unknown learning store %q", cfg.LearningStore)
	}

	logging.Info().
		Str("store", cfg.LearningStore).
		Bool("backups", backend.Backups != nil).
		Msg("learning backend ready")
	return backend, nil
}

// Close releases backend resources
func (b *LearningBackend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
