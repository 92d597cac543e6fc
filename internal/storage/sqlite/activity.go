package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/pkg/log"
)

// ActivityLog is the SQLite-backed audit trail. Record is fire-and-forget:
// a failed insert is logged and dropped, never returned to the caller.
type ActivityLog struct {
	db *sql.DB
}

func NewActivityLog(db *sql.DB) *ActivityLog {
	return &ActivityLog{db: db}
}

func (a *ActivityLog) Record(ctx context.Context, rec core.ActivityRecord) {
	metadata := ""
	if len(rec.Metadata) > 0 {
		if data, err := json.Marshal(rec.Metadata); err == nil {
			metadata = string(data)
		}
	}

	query := `INSERT INTO activity (category, summary, detail, status, metadata) VALUES (?, ?, ?, ?, ?)`
	if _, err := a.db.ExecContext(ctx, query, rec.Category, rec.Summary, rec.Detail, rec.Status, metadata); err != nil {
		log.FromCtx(ctx).Error().Err(err).
			Str("category", rec.Category).
			Msg("failed to record activity")
	}
}

// StoredActivity is one persisted audit entry.
type StoredActivity struct {
	ID        int64
	Category  string
	Summary   string
	Detail    string
	Status    string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Recent returns the newest entries, newest first.
func (a *ActivityLog) Recent(ctx context.Context, limit int) ([]StoredActivity, error) {
	query := `SELECT id, category, summary, detail, status, metadata, created_at FROM activity ORDER BY id DESC LIMIT ?`

	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []StoredActivity
	for rows.Next() {
		var e StoredActivity
		var metadata string
		if err := rows.Scan(&e.ID, &e.Category, &e.Summary, &e.Detail, &e.Status, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
				log.FromCtx(ctx).Warn().Err(err).Int64("id", e.ID).Msg("bad activity metadata")
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
