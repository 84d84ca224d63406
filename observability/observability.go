// Package observability records capture outcomes in a SQLite audit log.
// Recording is non-blocking by contract: a failing audit store is logged via
// slog and never fails the capture it describes.
package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/parkermclaren/polymarket-screenshotter/idgen"
)

// CaptureEvent is one row of the audit log.
type CaptureEvent struct {
	RequestID string
	SourceURL string
	EventSlug string
	PageMode  string
	Aspect    string
	TimeRange string
	Watermark string
	Success   bool
	Error     string
	Duration  time.Duration
	ImageSize int
}

// EventLogger writes capture events.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event rows.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given database. Call Init
// once at startup to create the schema.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Init creates the audit schema if it does not exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS capture_events (
			event_id    TEXT PRIMARY KEY,
			request_id  TEXT NOT NULL,
			source_url  TEXT NOT NULL,
			event_slug  TEXT,
			page_mode   TEXT,
			aspect      TEXT,
			time_range  TEXT,
			watermark   TEXT,
			success     INTEGER NOT NULL,
			error       TEXT,
			duration_ms INTEGER,
			image_bytes INTEGER,
			created_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_capture_events_created
			ON capture_events (created_at);
	`)
	return err
}

// LogCapture records a capture event. Errors are logged, never returned, so a
// failing audit store cannot fail the capture.
func (l *EventLogger) LogCapture(ctx context.Context, ev CaptureEvent) {
	eventID := l.newID()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO capture_events (
			event_id, request_id, source_url, event_slug, page_mode,
			aspect, time_range, watermark, success, error,
			duration_ms, image_bytes, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		eventID, ev.RequestID, ev.SourceURL, ev.EventSlug, ev.PageMode,
		ev.Aspect, ev.TimeRange, ev.Watermark, ev.Success, ev.Error,
		ev.Duration.Milliseconds(), ev.ImageSize, time.Now().Unix())
	if err != nil {
		slog.Error("observability: capture event log failed",
			"error", err, "request_id", ev.RequestID)
	}
}

// Cleanup deletes events older than the retention window. Zero days disables
// cleanup.
func Cleanup(ctx context.Context, db *sql.DB, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(retentionDays*86400)
	_, err := db.ExecContext(ctx,
		`DELETE FROM capture_events WHERE created_at < ?`, cutoff)
	return err
}
