package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/order"
	"github.com/afrovod/afrovod/pkg/apperror"
)

// Item lists are stored as JSONB snapshots: an order must keep the sizes and
// prices it was built with even if the catalog changes afterwards.
type postgresUpdateRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUpdateRepo(db *pgxpool.Pool) order.Repository {
	return &postgresUpdateRepo{db: db}
}

const updateColumns = `id, operator_id, status, add_list, delete_list,
	total_size_mb, total_cost, created_at, authorized_at, delivered_at, fail_reason`

func scanUpdate(row pgx.Row) (*order.ContentUpdate, error) {
	cu := &order.ContentUpdate{}
	var addBytes, deleteBytes []byte

	err := row.Scan(
		&cu.ID,
		&cu.OperatorID,
		&cu.Status,
		&addBytes,
		&deleteBytes,
		&cu.TotalSizeMB,
		&cu.TotalCost,
		&cu.CreatedAt,
		&cu.AuthorizedAt,
		&cu.DeliveredAt,
		&cu.FailReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrContentUpdateNotFound
		}
		return nil, fmt.Errorf("failed to scan content update row: %w", err)
	}

	if err := json.Unmarshal(addBytes, &cu.AddList); err != nil {
		cu.AddList = []order.Item{}
	}
	if err := json.Unmarshal(deleteBytes, &cu.DeleteList); err != nil {
		cu.DeleteList = []order.Item{}
	}
	return cu, nil
}

func scanUpdates(rows pgx.Rows) ([]order.ContentUpdate, error) {
	updates := make([]order.ContentUpdate, 0)
	defer rows.Close()

	for rows.Next() {
		cu, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *cu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content update rows: %w", err)
	}
	return updates, nil
}

func (r *postgresUpdateRepo) FindByID(ctx context.Context, id uuid.UUID) (*order.ContentUpdate, error) {
	query := fmt.Sprintf(`SELECT %s FROM content_updates WHERE id = $1`, updateColumns)
	return scanUpdate(r.db.QueryRow(ctx, query, id))
}

func (r *postgresUpdateRepo) FindRunning(ctx context.Context, operatorID uuid.UUID) (*order.ContentUpdate, error) {
	return r.findByOperatorStatus(ctx, operatorID, order.StatusRunning)
}

func (r *postgresUpdateRepo) FindPending(ctx context.Context, operatorID uuid.UUID) (*order.ContentUpdate, error) {
	return r.findByOperatorStatus(ctx, operatorID, order.StatusPending)
}

func (r *postgresUpdateRepo) findByOperatorStatus(ctx context.Context, operatorID uuid.UUID, status order.Status) (*order.ContentUpdate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM content_updates
		WHERE operator_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 1`, updateColumns)
	return scanUpdate(r.db.QueryRow(ctx, query, operatorID, status))
}

func (r *postgresUpdateRepo) ListByOperator(ctx context.Context, operatorID uuid.UUID, limit int) ([]order.ContentUpdate, error) {
	builder := psql.Select(updateColumns).
		From("content_updates").
		Where(sq.Eq{"operator_id": operatorID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	sql, args, _ := builder.ToSql()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content updates: %w", err)
	}
	return scanUpdates(rows)
}

func (r *postgresUpdateRepo) ListByStatus(ctx context.Context, status order.Status, limit int) ([]order.ContentUpdate, error) {
	builder := psql.Select(updateColumns).
		From("content_updates").
		Where(sq.Eq{"status": status}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	sql, args, _ := builder.ToSql()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content updates by status: %w", err)
	}
	return scanUpdates(rows)
}

func (r *postgresUpdateRepo) Save(ctx context.Context, cu *order.ContentUpdate) error {
	addBytes, deleteBytes, err := marshalLists(cu)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO content_updates (id, operator_id, status, add_list, delete_list,
			total_size_mb, total_cost, created_at, authorized_at, delivered_at, fail_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.Exec(ctx, query,
		cu.ID, cu.OperatorID, cu.Status, addBytes, deleteBytes,
		cu.TotalSizeMB, cu.TotalCost, cu.CreatedAt, cu.AuthorizedAt, cu.DeliveredAt, cu.FailReason,
	)
	if err != nil {
		return fmt.Errorf("failed to save content update: %w", err)
	}
	return nil
}

func (r *postgresUpdateRepo) Update(ctx context.Context, cu *order.ContentUpdate) error {
	addBytes, deleteBytes, err := marshalLists(cu)
	if err != nil {
		return err
	}
	query := `
		UPDATE content_updates SET
			status = $2, add_list = $3, delete_list = $4, total_size_mb = $5,
			total_cost = $6, authorized_at = $7, delivered_at = $8, fail_reason = $9
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query,
		cu.ID, cu.Status, addBytes, deleteBytes, cu.TotalSizeMB,
		cu.TotalCost, cu.AuthorizedAt, cu.DeliveredAt, cu.FailReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update content update: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return order.ErrContentUpdateNotFound
	}
	return nil
}

func (r *postgresUpdateRepo) UpdateFrom(ctx context.Context, cu *order.ContentUpdate, expected order.Status) error {
	addBytes, deleteBytes, err := marshalLists(cu)
	if err != nil {
		return err
	}
	conn := connFrom(ctx, r.db)
	query := `
		UPDATE content_updates SET
			status = $2, add_list = $3, delete_list = $4, total_size_mb = $5,
			total_cost = $6, authorized_at = $7, delivered_at = $8, fail_reason = $9
		WHERE id = $1 AND status = $10
	`
	cmdTag, err := conn.Exec(ctx, query,
		cu.ID, cu.Status, addBytes, deleteBytes, cu.TotalSizeMB,
		cu.TotalCost, cu.AuthorizedAt, cu.DeliveredAt, cu.FailReason, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update content update: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		var current order.Status
		err := conn.QueryRow(ctx, `SELECT status FROM content_updates WHERE id = $1`, cu.ID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrContentUpdateNotFound
			}
			return fmt.Errorf("failed to read content update status: %w", err)
		}
		return apperror.NewStateConflict("content update", string(current), string(cu.Status))
	}
	return nil
}

func (r *postgresUpdateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM content_updates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content update: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return order.ErrContentUpdateNotFound
	}
	return nil
}

func marshalLists(cu *order.ContentUpdate) ([]byte, []byte, error) {
	addBytes, err := json.Marshal(cu.AddList)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal add list: %w", err)
	}
	deleteBytes, err := json.Marshal(cu.DeleteList)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal delete list: %w", err)
	}
	return addBytes, deleteBytes, nil
}
