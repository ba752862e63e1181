package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

type postgresSeriesRepo struct {
	db *pgxpool.Pool
}

func NewPostgresSeriesRepo(db *pgxpool.Pool) catalog.SeriesRepository {
	return &postgresSeriesRepo{db: db}
}

const seriesColumns = `id, title, season, slug, release, episodes_count, synopsis,
	poster, provider_id, price, view_price, download_price, is_adult,
	trailer_resource, categories, visible, groups, tags`

func scanSeries(row pgx.Row) (*catalog.Series, error) {
	s := &catalog.Series{}
	var posterBytes, categoryBytes []byte

	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Season,
		&s.Slug,
		&s.Release,
		&s.EpisodesCount,
		&s.Synopsis,
		&posterBytes,
		&s.ProviderID,
		&s.Price,
		&s.ViewPrice,
		&s.DownloadPrice,
		&s.IsAdult,
		&s.TrailerResource,
		&categoryBytes,
		&s.Visible,
		&s.Groups,
		&s.Tags,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to scan series row: %w", err)
	}

	if err := json.Unmarshal(posterBytes, &s.Poster); err != nil {
		s.Poster = catalog.Poster{}
	}
	if err := json.Unmarshal(categoryBytes, &s.Categories); err != nil {
		s.Categories = []catalog.CategoryRef{}
	}
	return s, nil
}

func scanSeriesList(rows pgx.Rows) ([]*catalog.Series, error) {
	list := make([]*catalog.Series, 0)
	defer rows.Close()

	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series rows: %w", err)
	}
	return list, nil
}

func (r *postgresSeriesRepo) FindByID(ctx context.Context, id int64) (*catalog.Series, error) {
	query := fmt.Sprintf(`SELECT %s FROM series WHERE id = $1`, seriesColumns)
	return scanSeries(r.db.QueryRow(ctx, query, id))
}

func (r *postgresSeriesRepo) FindBySlug(ctx context.Context, slug string) (*catalog.Series, error) {
	query := fmt.Sprintf(`SELECT %s FROM series WHERE slug = $1`, seriesColumns)
	return scanSeries(r.db.QueryRow(ctx, query, slug))
}

func (r *postgresSeriesRepo) TopByCategory(ctx context.Context, categoryID int64, exclude []int64, limit int) ([]*catalog.Series, error) {
	match, _ := json.Marshal([]map[string]int64{{"id": categoryID}})
	builder := psql.Select(seriesColumns).
		From("series").
		Where(sq.Eq{"visible": true}).
		Where("categories @> ?", match).
		OrderBy("release DESC NULLS LAST, season DESC, id DESC").
		Limit(uint64(limit))
	if len(exclude) > 0 {
		builder = builder.Where(sq.NotEq{"id": exclude})
	}

	sql, args, _ := builder.ToSql()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top series: %w", err)
	}
	return scanSeriesList(rows)
}

func (r *postgresSeriesRepo) CountVisible(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM series WHERE visible = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count series: %w", err)
	}
	return count, nil
}

func (r *postgresSeriesRepo) CountVisibleByCategory(ctx context.Context, categoryID int64) (int64, error) {
	match, _ := json.Marshal([]map[string]int64{{"id": categoryID}})
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM series WHERE visible = TRUE AND categories @> $1`, match).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count series by category: %w", err)
	}
	return count, nil
}

// Stats recomputes the derived aggregates straight from the episode rows.
func (r *postgresSeriesRepo) Stats(ctx context.Context, seriesID int64) (catalog.SeriesStats, error) {
	var st catalog.SeriesStats
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(size_mb), 0),
		       COALESCE(SUM(duration_min), 0),
		       COALESCE(AVG(orders), 0)::BIGINT,
		       COALESCE(AVG(clicks), 0)::BIGINT
		FROM series_episodes WHERE series_id = $1`, seriesID).
		Scan(&st.SizeMB, &st.DurationMin, &st.Orders, &st.Clicks)
	if err != nil {
		return st, fmt.Errorf("failed to compute series stats: %w", err)
	}
	return st, nil
}

func (r *postgresSeriesRepo) SearchVisible(ctx context.Context, word string, limit int) ([]*catalog.Series, error) {
	builder := psql.Select(seriesColumns).
		From("series").
		Where(sq.Eq{"visible": true}).
		Where(sq.ILike{"title": "%" + word + "%"}).
		OrderBy("release DESC NULLS LAST, season DESC, id DESC").
		Limit(uint64(limit))

	sql, args, _ := builder.ToSql()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search series: %w", err)
	}
	return scanSeriesList(rows)
}

func (r *postgresSeriesRepo) Save(ctx context.Context, s *catalog.Series) error {
	posterBytes, _ := json.Marshal(s.Poster)
	categoryBytes, err := json.Marshal(s.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal series categories: %w", err)
	}

	query := `
		INSERT INTO series (title, season, slug, release, episodes_count, synopsis,
			poster, provider_id, price, view_price, download_price, is_adult,
			trailer_resource, categories, visible, groups, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	err = r.db.QueryRow(ctx, query,
		s.Title, s.Season, s.Slug, s.Release, s.EpisodesCount, s.Synopsis,
		posterBytes, s.ProviderID, s.Price, s.ViewPrice, s.DownloadPrice, s.IsAdult,
		s.TrailerResource, categoryBytes, s.Visible, s.Groups, s.Tags,
	).Scan(&s.ID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return errors.New("series slug already exists")
		}
		return fmt.Errorf("failed to save series: %w", err)
	}
	return nil
}

func (r *postgresSeriesRepo) Update(ctx context.Context, s *catalog.Series) error {
	posterBytes, _ := json.Marshal(s.Poster)
	categoryBytes, err := json.Marshal(s.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal series categories: %w", err)
	}

	query := `
		UPDATE series SET
			title = $2, season = $3, slug = $4, release = $5, episodes_count = $6,
			synopsis = $7, poster = $8, price = $9, view_price = $10,
			download_price = $11, is_adult = $12, trailer_resource = $13,
			categories = $14, visible = $15, groups = $16, tags = $17
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query,
		s.ID, s.Title, s.Season, s.Slug, s.Release, s.EpisodesCount,
		s.Synopsis, posterBytes, s.Price, s.ViewPrice,
		s.DownloadPrice, s.IsAdult, s.TrailerResource,
		categoryBytes, s.Visible, s.Groups, s.Tags,
	)
	if err != nil {
		return fmt.Errorf("failed to update series: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return catalog.ErrSeriesNotFound
	}
	return nil
}
