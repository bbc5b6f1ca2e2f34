// Package store provides storage backends for accepted reflections.
//
// This file implements the SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/softreset-app/softreset/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists reflections in an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given options. The DSN
// is a file path; its directory is created when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// SaveReflection inserts a reflection record.
func (s *SQLiteStore) SaveReflection(ctx context.Context, rec models.ReflectionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reflections (id, feeling_label, time_label, dump, text, model_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, nilIfEmpty(rec.FeelingLabel), nilIfEmpty(rec.TimeLabel), rec.Dump, rec.Text, rec.ModelUsed, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reflection failed: %w", err)
	}
	return nil
}

// ListReflections returns up to limit records, newest first.
func (s *SQLiteStore) ListReflections(ctx context.Context, limit int) ([]models.ReflectionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, feeling_label, time_label, dump, text, model_used, created_at
		 FROM reflections ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reflections failed: %w", err)
	}
	defer rows.Close()
	return collectReflections(rows)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
