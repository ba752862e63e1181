package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

type postgresEpisodeRepo struct {
	db *pgxpool.Pool
}

func NewPostgresEpisodeRepo(db *pgxpool.Pool) catalog.EpisodeRepository {
	return &postgresEpisodeRepo{db: db}
}

const episodeColumns = `id, series_id, title, slug, size_mb, duration_min,
	resource, resource_mob, orders, fake_orders, clicks, fake_clicks, is_adult`

func scanEpisode(row pgx.Row) (*catalog.SeriesEpisode, error) {
	e := &catalog.SeriesEpisode{}
	err := row.Scan(
		&e.ID,
		&e.SeriesID,
		&e.Title,
		&e.Slug,
		&e.SizeMB,
		&e.DurationMin,
		&e.Resource,
		&e.ResourceMob,
		&e.Orders,
		&e.FakeOrders,
		&e.Clicks,
		&e.FakeClicks,
		&e.IsAdult,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrEpisodeNotFound
		}
		return nil, fmt.Errorf("failed to scan episode row: %w", err)
	}
	return e, nil
}

func (r *postgresEpisodeRepo) FindByID(ctx context.Context, id int64) (*catalog.SeriesEpisode, error) {
	query := fmt.Sprintf(`SELECT %s FROM series_episodes WHERE id = $1`, episodeColumns)
	return scanEpisode(r.db.QueryRow(ctx, query, id))
}

func (r *postgresEpisodeRepo) ListBySeries(ctx context.Context, seriesID int64) ([]*catalog.SeriesEpisode, error) {
	query := fmt.Sprintf(`SELECT %s FROM series_episodes WHERE series_id = $1 ORDER BY id`, episodeColumns)
	rows, err := r.db.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	episodes := make([]*catalog.SeriesEpisode, 0)
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episode rows: %w", err)
	}
	return episodes, nil
}

// TopExcludingSeries drives the series selection loop: the single best
// episode, series-wide exclusions applied, joined on a visible parent.
func (r *postgresEpisodeRepo) TopExcludingSeries(ctx context.Context, excludeSeriesIDs []int64) (*catalog.SeriesEpisode, error) {
	builder := psql.Select(
		"e.id", "e.series_id", "e.title", "e.slug", "e.size_mb", "e.duration_min",
		"e.resource", "e.resource_mob", "e.orders", "e.fake_orders",
		"e.clicks", "e.fake_clicks", "e.is_adult").
		From("series_episodes e").
		Join("series s ON s.id = e.series_id").
		Where(sq.Eq{"s.visible": true}).
		OrderBy("e.orders DESC, e.id DESC").
		Limit(1)
	if len(excludeSeriesIDs) > 0 {
		builder = builder.Where(sq.NotEq{"e.series_id": excludeSeriesIDs})
	}

	sql, args, _ := builder.ToSql()
	return scanEpisode(r.db.QueryRow(ctx, sql, args...))
}

func (r *postgresEpisodeRepo) IncrementOrders(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE series_episodes SET orders = orders + 1, fake_orders = fake_orders + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment episode orders: %w", err)
	}
	return nil
}

func (r *postgresEpisodeRepo) Save(ctx context.Context, e *catalog.SeriesEpisode) error {
	query := `
		INSERT INTO series_episodes (series_id, title, slug, size_mb, duration_min,
			resource, resource_mob, orders, fake_orders, clicks, fake_clicks, is_adult)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		e.SeriesID, e.Title, e.Slug, e.SizeMB, e.DurationMin,
		e.Resource, e.ResourceMob, e.Orders, e.FakeOrders, e.Clicks, e.FakeClicks, e.IsAdult,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to save episode: %w", err)
	}
	return nil
}
