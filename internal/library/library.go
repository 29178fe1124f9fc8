// Package library keeps the store consistent: the JSONL index governs, and
// the bibliography file, document directory and query cache follow it.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/matsen/refman/internal/config"
	"github.com/matsen/refman/internal/document"
	"github.com/matsen/refman/internal/ident"
	"github.com/matsen/refman/internal/logging"
	"github.com/matsen/refman/internal/reference"
	"github.com/matsen/refman/internal/resolver"
	"github.com/matsen/refman/internal/storage"
)

// Resolver turns identifiers into entries.
type Resolver interface {
	Resolve(ctx context.Context, id ident.Identifier) (*resolver.Resolution, error)
}

// Fetcher stores the document for a record.
type Fetcher interface {
	Fetch(ctx context.Context, req document.Request) (*document.Result, error)
}

// Library operates on one store.
type Library struct {
	paths    config.Paths
	resolver Resolver
	fetcher  Fetcher
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Library.
type Option func(*Library)

// WithResolver sets the identifier resolver used by Add.
func WithResolver(r Resolver) Option {
	return func(l *Library) {
		l.resolver = r
	}
}

// WithFetcher sets the document fetcher. Without one no documents are fetched.
func WithFetcher(f Fetcher) Option {
	return func(l *Library) {
		l.fetcher = f
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithClock overrides the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		l.now = now
	}
}

// Open prepares the store at root, creating its directories.
func Open(root string, opts ...Option) (*Library, error) {
	l := &Library{
		paths:  config.Paths{Root: root},
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.paths.EnsureDirs(); err != nil {
		return nil, err
	}
	return l, nil
}

// Paths returns the store layout.
func (l *Library) Paths() config.Paths {
	return l.paths
}

// Records reads the whole index.
func (l *Library) Records() ([]reference.Record, error) {
	return storage.ReadAll(l.paths.IndexPath())
}

// DocumentPath returns the absolute path of a record's document, or "" when
// it has none.
func (l *Library) DocumentPath(r reference.Record) string {
	if !r.HasDocument() {
		return ""
	}
	return l.paths.DocumentPath(r.DocumentFilename)
}

// lock takes the store lock for one mutating operation.
func (l *Library) lock() (func(), error) {
	lk, err := storage.AcquireLock(l.paths.LockPath())
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lk.Release(); err != nil {
			l.logger.Warn("failed to release store lock", "error", err)
		}
	}, nil
}

// commit writes the index and bibliography, then refreshes the cache.
// A cache failure is logged, not returned: the cache is rebuilt on demand.
func (l *Library) commit(records []reference.Record, bib *storage.BibFile) error {
	if err := storage.WriteAll(l.paths.IndexPath(), records); err != nil {
		return err
	}
	if bib != nil {
		if err := bib.Save(); err != nil {
			return err
		}
	}
	if err := l.refreshCache(records); err != nil {
		l.logger.Warn("query cache not updated", "error", err)
	}
	return nil
}

func (l *Library) refreshCache(records []reference.Record) error {
	db, err := storage.OpenDB(l.paths.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Rebuild(records)
}

// cache opens the query cache, rebuilding it when the index is newer.
func (l *Library) cache() (*storage.DB, error) {
	fresh := false
	if dbInfo, err := os.Stat(l.paths.DBPath()); err == nil {
		idxInfo, err := os.Stat(l.paths.IndexPath())
		fresh = err != nil || !idxInfo.ModTime().After(dbInfo.ModTime())
	}

	db, err := storage.OpenDB(l.paths.DBPath())
	if err != nil {
		return nil, err
	}
	if fresh {
		return db, nil
	}

	records, err := l.Records()
	if err != nil {
		db.Close()
		return nil, err
	}
	l.logger.Debug("rebuilding query cache", "records", len(records))
	if err := db.Rebuild(records); err != nil {
		db.Close()
		return nil, fmt.Errorf("rebuilding query cache: %w", err)
	}
	return db, nil
}
