package catalog

import "context"

// MovieRank names the orderings the engines rely on. All orderings break
// remaining ties with id desc so results are stable.
type MovieRank string

const (
	// RankOrders is the selection engine ranking: "orders desc, release
	// desc, id desc".
	RankOrders MovieRank = "orders"
	// RankRecommend is the recommendation ranking: "release desc,
	// fake_clicks desc, fake_orders desc, id desc".
	RankRecommend MovieRank = "recommend"
)

type MovieRepository interface {
	FindByID(ctx context.Context, id int64) (*Movie, error)
	FindBySlug(ctx context.Context, slug string) (*Movie, error)
	// ListVisibleByCategory returns every visible movie embedding the
	// category, unranked. Used for base-category bulk grabs.
	ListVisibleByCategory(ctx context.Context, categoryID int64) ([]*Movie, error)
	// TopByCategory returns up to limit visible movies of the category,
	// skipping exclude ids, ranked per rank.
	TopByCategory(ctx context.Context, categoryID int64, exclude []int64, limit int, rank MovieRank) ([]*Movie, error)
	CountVisible(ctx context.Context) (int64, error)
	CountVisibleByCategory(ctx context.Context, categoryID int64) (int64, error)
	RecentReleases(ctx context.Context, limit int) ([]*Movie, error)
	SearchVisible(ctx context.Context, word string, limit int) ([]*Movie, error)
	IncrementClicks(ctx context.Context, id int64) error
	// IncrementOrders bumps both the actual and the displayed counter.
	IncrementOrders(ctx context.Context, id int64) error
	Save(ctx context.Context, m *Movie) error
	Update(ctx context.Context, m *Movie) error
}

type SeriesRepository interface {
	FindByID(ctx context.Context, id int64) (*Series, error)
	FindBySlug(ctx context.Context, slug string) (*Series, error)
	// TopByCategory ranks by "release desc, season desc, id desc", the
	// recommendation ranking for series.
	TopByCategory(ctx context.Context, categoryID int64, exclude []int64, limit int) ([]*Series, error)
	CountVisible(ctx context.Context) (int64, error)
	CountVisibleByCategory(ctx context.Context, categoryID int64) (int64, error)
	// Stats recomputes the derived aggregates from the episode rows.
	Stats(ctx context.Context, seriesID int64) (SeriesStats, error)
	SearchVisible(ctx context.Context, word string, limit int) ([]*Series, error)
	Save(ctx context.Context, s *Series) error
	Update(ctx context.Context, s *Series) error
}

type EpisodeRepository interface {
	FindByID(ctx context.Context, id int64) (*SeriesEpisode, error)
	ListBySeries(ctx context.Context, seriesID int64) ([]*SeriesEpisode, error)
	// TopExcludingSeries returns the single episode with the highest orders
	// count whose series is not in the exclude list, or ErrEpisodeNotFound.
	TopExcludingSeries(ctx context.Context, excludeSeriesIDs []int64) (*SeriesEpisode, error)
	IncrementOrders(ctx context.Context, id int64) error
	Save(ctx context.Context, e *SeriesEpisode) error
}

// MirrorRepository writes into an operator's local catalog mirror. Delete-list
// items are hidden, never removed: the operator may still hold the files.
type MirrorRepository interface {
	UpsertMovie(ctx context.Context, operatorID string, m *Movie) error
	UpsertSeries(ctx context.Context, operatorID string, s *Series) error
	UpsertEpisode(ctx context.Context, operatorID string, e *SeriesEpisode) error
	HideMovie(ctx context.Context, operatorID string, movieID int64) error
	HideSeries(ctx context.Context, operatorID string, seriesID int64) error
}
