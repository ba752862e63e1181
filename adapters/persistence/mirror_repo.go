package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

// Operator mirrors live in shared tables keyed by the operator's site id.
// Rows are only ever upserted or hidden; the operator may still hold the
// files of a delisted title, so nothing is hard deleted.
type postgresMirrorRepo struct {
	db *pgxpool.Pool
}

func NewPostgresMirrorRepo(db *pgxpool.Pool) catalog.MirrorRepository {
	return &postgresMirrorRepo{db: db}
}

func (r *postgresMirrorRepo) UpsertMovie(ctx context.Context, operatorID string, m *catalog.Movie) error {
	posterBytes, _ := json.Marshal(m.Poster)
	categoryBytes, err := json.Marshal(m.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal mirror movie categories: %w", err)
	}

	query := `
		INSERT INTO mirror_movies (operator_site_id, movie_id, title, slug, size_mb,
			duration_min, release, synopsis, resource, resource_mob, poster,
			view_price, download_price, is_adult, categories, visible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, TRUE)
		ON CONFLICT (operator_site_id, movie_id) DO UPDATE SET
			title = EXCLUDED.title, slug = EXCLUDED.slug, size_mb = EXCLUDED.size_mb,
			duration_min = EXCLUDED.duration_min, release = EXCLUDED.release,
			synopsis = EXCLUDED.synopsis, resource = EXCLUDED.resource,
			resource_mob = EXCLUDED.resource_mob, poster = EXCLUDED.poster,
			view_price = EXCLUDED.view_price, download_price = EXCLUDED.download_price,
			is_adult = EXCLUDED.is_adult, categories = EXCLUDED.categories,
			visible = TRUE
	`
	_, err = r.db.Exec(ctx, query,
		operatorID, m.ID, m.Title, m.Slug, m.SizeMB,
		m.DurationMin, m.Release, m.Synopsis, m.Resource, m.ResourceMob, posterBytes,
		m.ViewPrice, m.DownloadPrice, m.IsAdult, categoryBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mirror movie: %w", err)
	}
	return nil
}

func (r *postgresMirrorRepo) UpsertSeries(ctx context.Context, operatorID string, s *catalog.Series) error {
	posterBytes, _ := json.Marshal(s.Poster)
	categoryBytes, err := json.Marshal(s.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal mirror series categories: %w", err)
	}

	query := `
		INSERT INTO mirror_series (operator_site_id, series_id, title, season, slug,
			release, episodes_count, synopsis, poster, view_price, download_price,
			is_adult, categories, visible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, TRUE)
		ON CONFLICT (operator_site_id, series_id) DO UPDATE SET
			title = EXCLUDED.title, season = EXCLUDED.season, slug = EXCLUDED.slug,
			release = EXCLUDED.release, episodes_count = EXCLUDED.episodes_count,
			synopsis = EXCLUDED.synopsis, poster = EXCLUDED.poster,
			view_price = EXCLUDED.view_price, download_price = EXCLUDED.download_price,
			is_adult = EXCLUDED.is_adult, categories = EXCLUDED.categories,
			visible = TRUE
	`
	_, err = r.db.Exec(ctx, query,
		operatorID, s.ID, s.Title, s.Season, s.Slug,
		s.Release, s.EpisodesCount, s.Synopsis, posterBytes, s.ViewPrice, s.DownloadPrice,
		s.IsAdult, categoryBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mirror series: %w", err)
	}
	return nil
}

func (r *postgresMirrorRepo) UpsertEpisode(ctx context.Context, operatorID string, e *catalog.SeriesEpisode) error {
	query := `
		INSERT INTO mirror_episodes (operator_site_id, episode_id, series_id, title,
			slug, size_mb, duration_min, resource, resource_mob, is_adult)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (operator_site_id, episode_id) DO UPDATE SET
			series_id = EXCLUDED.series_id, title = EXCLUDED.title,
			slug = EXCLUDED.slug, size_mb = EXCLUDED.size_mb,
			duration_min = EXCLUDED.duration_min, resource = EXCLUDED.resource,
			resource_mob = EXCLUDED.resource_mob, is_adult = EXCLUDED.is_adult
	`
	_, err := r.db.Exec(ctx, query,
		operatorID, e.ID, e.SeriesID, e.Title,
		e.Slug, e.SizeMB, e.DurationMin, e.Resource, e.ResourceMob, e.IsAdult,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mirror episode: %w", err)
	}
	return nil
}

func (r *postgresMirrorRepo) HideMovie(ctx context.Context, operatorID string, movieID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE mirror_movies SET visible = FALSE WHERE operator_site_id = $1 AND movie_id = $2`,
		operatorID, movieID)
	if err != nil {
		return fmt.Errorf("failed to hide mirror movie: %w", err)
	}
	return nil
}

func (r *postgresMirrorRepo) HideSeries(ctx context.Context, operatorID string, seriesID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE mirror_series SET visible = FALSE WHERE operator_site_id = $1 AND series_id = $2`,
		operatorID, seriesID)
	if err != nil {
		return fmt.Errorf("failed to hide mirror series: %w", err)
	}
	return nil
}
