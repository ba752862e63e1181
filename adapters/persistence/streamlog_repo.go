package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/streamlog"
)

type postgresStreamLogRepo struct {
	db *pgxpool.Pool
}

func NewPostgresStreamLogRepo(db *pgxpool.Pool) streamlog.Repository {
	return &postgresStreamLogRepo{db: db}
}

func (r *postgresStreamLogRepo) Append(ctx context.Context, e *streamlog.Entry) error {
	query := `
		INSERT INTO stream_log_entries (id, member_id, kind, media_id, bytes, duration_sec, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.MemberID, e.Kind, e.MediaID, e.Bytes, e.DurationSec, e.Status, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append stream log entry: %w", err)
	}
	return nil
}

func (r *postgresStreamLogRepo) ListByMember(ctx context.Context, memberID uuid.UUID) ([]streamlog.Entry, error) {
	query := `
		SELECT id, member_id, kind, media_id, bytes, duration_sec, status, created_at
		FROM stream_log_entries
		WHERE member_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stream log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]streamlog.Entry, 0)
	for rows.Next() {
		var e streamlog.Entry
		err := rows.Scan(&e.ID, &e.MemberID, &e.Kind, &e.MediaID, &e.Bytes, &e.DurationSec, &e.Status, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stream log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stream log rows: %w", err)
	}
	return entries, nil
}

func (r *postgresStreamLogRepo) ReplaceForMember(ctx context.Context, memberID uuid.UUID, kept []streamlog.Entry, deleted []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin reduction transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range kept {
		if e.MemberID != memberID {
			return errors.New("reduction result crosses members")
		}
		_, err := tx.Exec(ctx, `
			UPDATE stream_log_entries
			SET bytes = $2, duration_sec = $3, status = $4
			WHERE id = $1`,
			e.ID, e.Bytes, e.DurationSec, e.Status)
		if err != nil {
			return fmt.Errorf("failed to update reduced entry: %w", err)
		}
	}
	if len(deleted) > 0 {
		_, err := tx.Exec(ctx,
			`DELETE FROM stream_log_entries WHERE member_id = $1 AND id = ANY($2)`,
			memberID, deleted)
		if err != nil {
			return fmt.Errorf("failed to delete absorbed entries: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reduction: %w", err)
	}
	return nil
}
