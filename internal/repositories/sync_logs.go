package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
)

// SyncLogRepository persists the append-only sync audit.
type SyncLogRepository struct {
	store
}

// NewSyncLogRepository creates a new SyncLogRepository with the given database connection
func NewSyncLogRepository(db *sql.DB) *SyncLogRepository {
	return &SyncLogRepository{store: newStore(db)}
}

// Append writes one audit row. Rows are never updated.
func (r *SyncLogRepository) Append(ctx context.Context, l *models.SyncLog) error {
	if l.ID == "" {
		l.ID = shared.GenerateID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now()
	}
	if err := l.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	stats, err := json.Marshal(l.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	_, err = r.exec(ctx,
		`INSERT INTO sync_logs (id, user_id, status, stats, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Status, string(stats), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

// List returns the most recent runs for an owner, newest first. A limit <= 0 returns all rows.
func (r *SyncLogRepository) List(ctx context.Context, userID string, limit int) ([]*models.SyncLog, error) {
	query := `SELECT id, user_id, status, stats, created_at FROM sync_logs WHERE user_id = ? ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.SyncLog
	for rows.Next() {
		var (
			l     models.SyncLog
			stats string
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Status, &stats, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		if err := json.Unmarshal([]byte(stats), &l.Stats); err != nil {
			return nil, fmt.Errorf("failed to decode stats: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return logs, nil
}
