// Package catalogue is the single entry point to a chembank store. It owns the
// store handle and serializes every operation behind one lock, running each
// multi-statement operation in its own transaction.
package catalogue

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/chembank/chembank/pkg/db"
	"github.com/chembank/chembank/pkg/errors"
	"github.com/chembank/chembank/pkg/security"
	"github.com/chembank/chembank/pkg/transfer"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures a catalogue.
type Options struct {
	// ImageBatchSize is the number of image rows held in memory during export.
	ImageBatchSize int
	// MaxImageSize bounds image payloads accepted by SetImage and import. <= 0 disables it.
	MaxImageSize int64
}

// Catalogue guards one store file.
type Catalogue struct {
	mu       sync.Mutex
	path     string
	opts     Options
	repo     *db.Repository
	guard    *security.Validator
	validate *validator.Validate
	metrics  *metrics
}

// Open opens (creating if needed) the store at path.
func Open(path string, opts Options) (*Catalogue, error) {
	repo, err := db.NewRepository(path)
	if err != nil {
		return nil, err
	}
	slog.Info("catalogue_open", "path", path)
	return &Catalogue{
		path:     path,
		opts:     opts,
		repo:     repo,
		guard:    security.NewValidator(opts.MaxImageSize),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  newMetrics(),
	}, nil
}

// Close releases the store handle. Later operations fail with StorageFailure.
func (c *Catalogue) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.repo == nil {
		return nil
	}
	err := c.repo.Close()
	c.repo = nil
	slog.Info("catalogue_closed", "path", c.path)
	if err != nil {
		return errors.New(errors.ErrStorageFailure, "store", "close", err)
	}
	return nil
}

// Reset deletes the store file and recreates an empty store in its place.
func (c *Catalogue) Reset(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("reset", time.Now(), &err)

	slog.Warn("catalogue_reset", "path", c.path)
	if c.repo != nil {
		if err := c.repo.Close(); err != nil {
			slog.Error("catalogue_reset_close_failed", "path", c.path, "error", err)
		}
		c.repo = nil
	}

	for _, p := range []string{c.path, c.path + "-wal", c.path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Error("catalogue_reset_remove_failed", "path", p, "error", err)
			return errors.New(errors.ErrStorageFailure, "store", "reset", err)
		}
	}

	repo, err := db.NewRepository(c.path)
	if err != nil {
		return err
	}
	c.repo = repo
	return nil
}

// Path returns the store file path.
func (c *Catalogue) Path() string {
	return c.path
}

// Registry exposes the catalogue metrics.
func (c *Catalogue) Registry() *prometheus.Registry {
	return c.metrics.registry
}

// WriteMetrics dumps the catalogue metrics to path in the text exposition format.
func (c *Catalogue) WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, c.metrics.registry); err != nil {
		slog.Error("catalogue_metrics_write_failed", "path", path, "error", err)
		return errors.Wrap(err, "failed to write metrics")
	}
	return nil
}

// repository must be called with mu held.
func (c *Catalogue) repository() (*db.Repository, error) {
	if c.repo == nil {
		return nil, errors.Newf(errors.ErrStorageFailure, "store", "access", "store not open")
	}
	return c.repo, nil
}

func (c *Catalogue) transferOptions() transfer.Options {
	return transfer.Options{ImageBatchSize: c.opts.ImageBatchSize, Validator: c.guard}
}

// ExportToFolder writes the whole store to dir from one consistent snapshot.
func (c *Catalogue) ExportToFolder(ctx context.Context, dir string) (stats *transfer.Stats, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("export", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	err = repo.WithTx(ctx, func(q *db.Queries) error {
		var err error
		stats, err = transfer.Export(ctx, q, dir, c.transferOptions())
		return err
	})
	c.metrics.recordTransfer("export", stats)
	return stats, err
}

// ImportFromFolder inserts the contents of dir. Nothing is written unless the
// whole folder imports cleanly.
func (c *Catalogue) ImportFromFolder(ctx context.Context, dir string) (stats *transfer.Stats, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("import", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	err = repo.WithTx(ctx, func(q *db.Queries) error {
		var err error
		stats, err = transfer.Import(ctx, q, dir, c.transferOptions())
		return err
	})
	if err != nil {
		slog.Error("catalogue_import_rolled_back", "dir", dir, "error", err)
		return nil, err
	}
	c.metrics.recordTransfer("import", stats)
	return stats, nil
}
