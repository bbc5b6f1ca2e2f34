// Package store provides storage backends for accepted reflections.
//
// The store is a fire-and-forget sink from the pipeline's point of view:
// save failures are logged by the caller and never affect the HTTP response.
// Backends: in-memory (default, tests), SQLite, and PostgreSQL.
package store

import (
	"context"
	"strings"
	"sync"

	"github.com/softreset-app/softreset/internal/models"
)

// Store is the persistence interface for reflection records.
type Store interface {
	SaveReflection(ctx context.Context, rec models.ReflectionRecord) error
	ListReflections(ctx context.Context, limit int) ([]models.ReflectionRecord, error)
	Close() error
}

// DefaultListLimit is used when a caller asks for a non-positive number of records.
const DefaultListLimit = 50

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the database connection string: a postgres:// URL or an SQLite
	// file path.
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDriver determines the database driver from the DSN shape:
// postgres://- or postgresql://-prefixed DSNs select Postgres, anything else
// is treated as an SQLite file path.
func DetectDriver(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite3"
}

// InMemoryStore keeps reflections in process memory. Used as the default
// backend and in tests.
type InMemoryStore struct {
	mu          sync.RWMutex
	reflections []models.ReflectionRecord
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// SaveReflection appends a reflection record.
func (s *InMemoryStore) SaveReflection(_ context.Context, rec models.ReflectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reflections = append(s.reflections, rec)
	return nil
}

// ListReflections returns up to limit records, newest first.
func (s *InMemoryStore) ListReflections(_ context.Context, limit int) ([]models.ReflectionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ReflectionRecord, 0, limit)
	for i := len(s.reflections) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.reflections[i])
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
