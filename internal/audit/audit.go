// Package audit keeps a persistent log of who ran which device operation.
// Recording never fails the calling request; write errors are logged and
// counted.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/metrics"
	"github.com/Gibrhan/Autoconf/internal/store"
)

// Entry is one recorded operation.
type Entry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Device    string    `json:"device,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder persists audit entries in SQLite.
type Recorder struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecorder creates a Recorder and ensures the audit table exists.
func NewRecorder(s *store.SQLiteStore, logger *zap.Logger) (*Recorder, error) {
	db := s.DB()
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			username   TEXT NOT NULL,
			action     TEXT NOT NULL,
			device     TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &Recorder{db: db, logger: logger}, nil
}

// Record inserts an entry. Failures are logged, never returned, so a broken
// audit store cannot block device operations.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_entries (username, action, device, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.Username, e.Action, e.Device, e.Detail, e.CreatedAt,
	)
	if err != nil {
		metrics.AuditWritesTotal.WithLabelValues("error").Inc()
		r.logger.Warn("audit write failed",
			zap.String("action", e.Action),
			zap.Error(err),
		)
		return
	}
	metrics.AuditWritesTotal.WithLabelValues("ok").Inc()
}

// List returns the most recent entries, newest first.
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, action, device, detail, created_at
		FROM audit_entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Device, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
