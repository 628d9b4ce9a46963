// Package store moves economy snapshots to and from durable storage. Drivers
// only handle bytes; the economy package owns the format.
package store

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"OilTycoon/internal/config"
)

// Driver names a store implementation.
type Driver string

const (
	DriverMemory   Driver = config.DriverMemory
	DriverFile     Driver = config.DriverFile
	DriverSQLite   Driver = config.DriverSQLite
	DriverPostgres Driver = config.DriverPostgres
	DriverS3       Driver = config.DriverS3
)

// Store holds a single save blob.
type Store interface {
	// Load returns the saved bytes, or false when nothing has been saved.
	Load(ctx context.Context) ([]byte, bool, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
	Close() error
	Driver() Driver
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch Driver(cfg.Driver) {
	case DriverMemory:
		s = NewMemoryStore()
	case DriverFile:
		s = NewFileStore(cfg.FilePath)
	case DriverSQLite:
		s, err = NewSQLiteStore(ctx, cfg.SQLitePath, cfg.Key)
	case DriverPostgres:
		s, err = NewPostgresStore(ctx, cfg.PostgresDSN, cfg.Key)
	case DriverS3:
		s, err = NewS3Store(ctx, S3Config{
			Bucket:          cfg.S3.Bucket,
			Key:             cfg.Key,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	if logger != nil {
		logger.Info("save store ready", "driver", s.Driver())
	}
	return s, nil
}
