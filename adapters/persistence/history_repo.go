package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/streamlog"
)

type postgresHistoryRepo struct {
	db *pgxpool.Pool
}

func NewPostgresHistoryRepo(db *pgxpool.Pool) streamlog.HistoryRepository {
	return &postgresHistoryRepo{db: db}
}

func (r *postgresHistoryRepo) UpsertMax(ctx context.Context, e *streamlog.HistoryEntry) error {
	query := `
		INSERT INTO stream_history_entries (id, member_id, kind, media_id, percentage, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id, kind, media_id) DO UPDATE
		SET percentage = GREATEST(stream_history_entries.percentage, EXCLUDED.percentage),
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.MemberID, e.Kind, e.MediaID, e.Percentage, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert history entry: %w", err)
	}
	return nil
}

func (r *postgresHistoryRepo) ListRecentByMember(ctx context.Context, memberID uuid.UUID, limit int) ([]streamlog.HistoryEntry, error) {
	query := `
		SELECT id, member_id, kind, media_id, percentage, updated_at
		FROM stream_history_entries
		WHERE member_id = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history entries: %w", err)
	}
	defer rows.Close()

	entries := make([]streamlog.HistoryEntry, 0)
	for rows.Next() {
		var e streamlog.HistoryEntry
		err := rows.Scan(&e.ID, &e.MemberID, &e.Kind, &e.MediaID, &e.Percentage, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return entries, nil
}
