package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/billing"
)

type postgresBundleRepo struct {
	db *pgxpool.Pool
}

func NewPostgresBundleRepo(db *pgxpool.Pool) billing.BundleRepository {
	return &postgresBundleRepo{db: db}
}

func (r *postgresBundleRepo) FindRetailBundle(ctx context.Context, id int64) (*billing.RetailBundle, error) {
	b := &billing.RetailBundle{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, quantity, cost, adult_authorized, duration_days, comment
		FROM retail_bundles WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Quantity, &b.Cost, &b.AdultAuthorized, &b.DurationDays, &b.Comment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to scan retail bundle: %w", err)
	}
	return b, nil
}

func (r *postgresBundleRepo) FindVODBundle(ctx context.Context, id int64) (*billing.VODBundle, error) {
	b := &billing.VODBundle{}
	err := r.db.QueryRow(ctx, `
		SELECT id, volume_mb, cost, duration_days, adult_authorized, comment
		FROM vod_bundles WHERE id = $1`, id).
		Scan(&b.ID, &b.VolumeMB, &b.Cost, &b.DurationDays, &b.AdultAuthorized, &b.Comment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to scan vod bundle: %w", err)
	}
	return b, nil
}

func (r *postgresBundleRepo) ListRetailBundles(ctx context.Context) ([]*billing.RetailBundle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, quantity, cost, adult_authorized, duration_days, comment
		FROM retail_bundles ORDER BY cost`)
	if err != nil {
		return nil, fmt.Errorf("failed to query retail bundles: %w", err)
	}
	defer rows.Close()

	bundles := make([]*billing.RetailBundle, 0)
	for rows.Next() {
		b := &billing.RetailBundle{}
		err := rows.Scan(&b.ID, &b.Name, &b.Quantity, &b.Cost, &b.AdultAuthorized, &b.DurationDays, &b.Comment)
		if err != nil {
			return nil, fmt.Errorf("failed to scan retail bundle row: %w", err)
		}
		bundles = append(bundles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating retail bundle rows: %w", err)
	}
	return bundles, nil
}

func (r *postgresBundleRepo) ListVODBundles(ctx context.Context) ([]*billing.VODBundle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, volume_mb, cost, duration_days, adult_authorized, comment
		FROM vod_bundles ORDER BY cost`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vod bundles: %w", err)
	}
	defer rows.Close()

	bundles := make([]*billing.VODBundle, 0)
	for rows.Next() {
		b := &billing.VODBundle{}
		err := rows.Scan(&b.ID, &b.VolumeMB, &b.Cost, &b.DurationDays, &b.AdultAuthorized, &b.Comment)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vod bundle row: %w", err)
		}
		bundles = append(bundles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vod bundle rows: %w", err)
	}
	return bundles, nil
}

func (r *postgresBundleRepo) CheapestAdultVODBundle(ctx context.Context) (*billing.VODBundle, error) {
	b := &billing.VODBundle{}
	err := r.db.QueryRow(ctx, `
		SELECT id, volume_mb, cost, duration_days, adult_authorized, comment
		FROM vod_bundles WHERE adult_authorized = TRUE
		ORDER BY cost LIMIT 1`).
		Scan(&b.ID, &b.VolumeMB, &b.Cost, &b.DurationDays, &b.AdultAuthorized, &b.Comment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to scan cheapest adult bundle: %w", err)
	}
	return b, nil
}
