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

type postgresMovieRepo struct {
	db *pgxpool.Pool
}

func NewPostgresMovieRepo(db *pgxpool.Pool) catalog.MovieRepository {
	return &postgresMovieRepo{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const movieColumns = `id, title, slug, size_mb, duration_min, release, synopsis,
	resource, resource_mob, poster, price, view_price, download_price,
	trailer_resource, provider_id, orders, fake_orders, clicks, fake_clicks,
	visible, is_adult, categories, groups, tags, current_earnings`

func rankClause(rank catalog.MovieRank) string {
	if rank == catalog.RankRecommend {
		return "release DESC NULLS LAST, fake_clicks DESC, fake_orders DESC, id DESC"
	}
	return "orders DESC, release DESC NULLS LAST, id DESC"
}

func scanMovie(row pgx.Row) (*catalog.Movie, error) {
	m := &catalog.Movie{}
	var posterBytes, categoryBytes []byte

	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Slug,
		&m.SizeMB,
		&m.DurationMin,
		&m.Release,
		&m.Synopsis,
		&m.Resource,
		&m.ResourceMob,
		&posterBytes,
		&m.Price,
		&m.ViewPrice,
		&m.DownloadPrice,
		&m.TrailerResource,
		&m.ProviderID,
		&m.Orders,
		&m.FakeOrders,
		&m.Clicks,
		&m.FakeClicks,
		&m.Visible,
		&m.IsAdult,
		&categoryBytes,
		&m.Groups,
		&m.Tags,
		&m.CurrentEarnings,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to scan movie row: %w", err)
	}

	if err := json.Unmarshal(posterBytes, &m.Poster); err != nil {
		m.Poster = catalog.Poster{}
	}
	if err := json.Unmarshal(categoryBytes, &m.Categories); err != nil {
		m.Categories = []catalog.CategoryRef{}
	}
	return m, nil
}

func scanMovies(rows pgx.Rows) ([]*catalog.Movie, error) {
	movies := make([]*catalog.Movie, 0)
	defer rows.Close()

	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movie rows: %w", err)
	}
	return movies, nil
}

func (r *postgresMovieRepo) FindByID(ctx context.Context, id int64) (*catalog.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	return scanMovie(r.db.QueryRow(ctx, query, id))
}

func (r *postgresMovieRepo) FindBySlug(ctx context.Context, slug string) (*catalog.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE slug = $1`, movieColumns)
	return scanMovie(r.db.QueryRow(ctx, query, slug))
}

// ListVisibleByCategory matches against the embedded category copies, not a
// join table.
func (r *postgresMovieRepo) ListVisibleByCategory(ctx context.Context, categoryID int64) ([]*catalog.Movie, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM movies
		WHERE visible = TRUE AND categories @> $1
		ORDER BY orders DESC, release DESC NULLS LAST, id DESC`, movieColumns)
	match, _ := json.Marshal([]map[string]int64{{"id": categoryID}})
	rows, err := r.db.Query(ctx, query, match)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies by category: %w", err)
	}
	return scanMovies(rows)
}

func (r *postgresMovieRepo) TopByCategory(ctx context.Context, categoryID int64, exclude []int64, limit int, rank catalog.MovieRank) ([]*catalog.Movie, error) {
	match, _ := json.Marshal([]map[string]int64{{"id": categoryID}})
	builder := psql.Select(movieColumns).
		From("movies").
		Where(sq.Eq{"visible": true}).
		Where("categories @> ?", match).
		OrderBy(rankClause(rank)).
		Limit(uint64(limit))
	if len(exclude) > 0 {
		builder = builder.Where(sq.NotEq{"id": exclude})
	}

	sql, args, _ := builder.ToSql()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top movies: %w", err)
	}
	return scanMovies(rows)
}

func (r *postgresMovieRepo) CountVisible(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movies WHERE visible = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return count, nil
}

func (r *postgresMovieRepo) CountVisibleByCategory(ctx context.Context, categoryID int64) (int64, error) {
	match, _ := json.Marshal([]map[string]int64{{"id": categoryID}})
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM movies WHERE visible = TRUE AND categories @> $1`, match).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movies by category: %w", err)
	}
	return count, nil
}

func (r *postgresMovieRepo) RecentReleases(ctx context.Context, limit int) ([]*catalog.Movie, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM movies
		WHERE visible = TRUE
		ORDER BY release DESC NULLS LAST, id DESC
		LIMIT $1`, movieColumns)
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent releases: %w", err)
	}
	return scanMovies(rows)
}

func (r *postgresMovieRepo) SearchVisible(ctx context.Context, word string, limit int) ([]*catalog.Movie, error) {
	builder := psql.Select(movieColumns).
		From("movies").
		Where(sq.Eq{"visible": true}).
		Where(sq.ILike{"title": "%" + word + "%"}).
		OrderBy("orders DESC, release DESC NULLS LAST, id DESC").
		Limit(uint64(limit))

	sql, args, _ := builder.ToSql()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}
	return scanMovies(rows)
}

func (r *postgresMovieRepo) IncrementClicks(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE movies SET clicks = clicks + 1, fake_clicks = fake_clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment movie clicks: %w", err)
	}
	return nil
}

func (r *postgresMovieRepo) IncrementOrders(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE movies SET orders = orders + 1, fake_orders = fake_orders + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment movie orders: %w", err)
	}
	return nil
}

func (r *postgresMovieRepo) Save(ctx context.Context, m *catalog.Movie) error {
	posterBytes, _ := json.Marshal(m.Poster)
	categoryBytes, err := json.Marshal(m.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal movie categories: %w", err)
	}

	query := `
		INSERT INTO movies (title, slug, size_mb, duration_min, release, synopsis,
			resource, resource_mob, poster, price, view_price, download_price,
			trailer_resource, provider_id, orders, fake_orders, clicks, fake_clicks,
			visible, is_adult, categories, groups, tags, current_earnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id
	`
	err = r.db.QueryRow(ctx, query,
		m.Title, m.Slug, m.SizeMB, m.DurationMin, m.Release, m.Synopsis,
		m.Resource, m.ResourceMob, posterBytes, m.Price, m.ViewPrice, m.DownloadPrice,
		m.TrailerResource, m.ProviderID, m.Orders, m.FakeOrders, m.Clicks, m.FakeClicks,
		m.Visible, m.IsAdult, categoryBytes, m.Groups, m.Tags, m.CurrentEarnings,
	).Scan(&m.ID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return errors.New("movie slug already exists")
		}
		return fmt.Errorf("failed to save movie: %w", err)
	}
	return nil
}

func (r *postgresMovieRepo) Update(ctx context.Context, m *catalog.Movie) error {
	posterBytes, _ := json.Marshal(m.Poster)
	categoryBytes, err := json.Marshal(m.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal movie categories: %w", err)
	}

	query := `
		UPDATE movies SET
			title = $2, slug = $3, size_mb = $4, duration_min = $5, release = $6,
			synopsis = $7, resource = $8, resource_mob = $9, poster = $10,
			price = $11, view_price = $12, download_price = $13,
			trailer_resource = $14, visible = $15, is_adult = $16,
			categories = $17, groups = $18, tags = $19, current_earnings = $20
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query,
		m.ID, m.Title, m.Slug, m.SizeMB, m.DurationMin, m.Release,
		m.Synopsis, m.Resource, m.ResourceMob, posterBytes,
		m.Price, m.ViewPrice, m.DownloadPrice,
		m.TrailerResource, m.Visible, m.IsAdult,
		categoryBytes, m.Groups, m.Tags, m.CurrentEarnings,
	)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return catalog.ErrMovieNotFound
	}
	return nil
}
