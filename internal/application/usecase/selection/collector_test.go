package selection

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/pkg/logger"
)

type fakeMovieRepo struct {
	movies []*catalog.Movie
}

func (f *fakeMovieRepo) FindByID(ctx context.Context, id int64) (*catalog.Movie, error) {
	for _, m := range f.movies {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, catalog.ErrMovieNotFound
}

func (f *fakeMovieRepo) FindBySlug(ctx context.Context, slug string) (*catalog.Movie, error) {
	return nil, catalog.ErrMovieNotFound
}

func hasCategory(refs []catalog.CategoryRef, id int64) bool {
	for _, r := range refs {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeMovieRepo) ListVisibleByCategory(ctx context.Context, categoryID int64) ([]*catalog.Movie, error) {
	var out []*catalog.Movie
	for _, m := range f.movies {
		if m.Visible && hasCategory(m.Categories, categoryID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovieRepo) TopByCategory(ctx context.Context, categoryID int64, exclude []int64, limit int, rank catalog.MovieRank) ([]*catalog.Movie, error) {
	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []*catalog.Movie
	for _, m := range f.movies {
		if m.Visible && hasCategory(m.Categories, categoryID) && !skip[m.ID] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Orders != out[j].Orders {
			return out[i].Orders > out[j].Orders
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMovieRepo) CountVisible(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeMovieRepo) CountVisibleByCategory(ctx context.Context, categoryID int64) (int64, error) {
	return 0, nil
}
func (f *fakeMovieRepo) RecentReleases(ctx context.Context, limit int) ([]*catalog.Movie, error) {
	return nil, nil
}
func (f *fakeMovieRepo) SearchVisible(ctx context.Context, word string, limit int) ([]*catalog.Movie, error) {
	return nil, nil
}
func (f *fakeMovieRepo) IncrementClicks(ctx context.Context, id int64) error { return nil }
func (f *fakeMovieRepo) IncrementOrders(ctx context.Context, id int64) error { return nil }
func (f *fakeMovieRepo) Save(ctx context.Context, m *catalog.Movie) error    { return nil }
func (f *fakeMovieRepo) Update(ctx context.Context, m *catalog.Movie) error  { return nil }

type fakeSeriesRepo struct {
	series []*catalog.Series
	stats  map[int64]catalog.SeriesStats
}

func (f *fakeSeriesRepo) FindByID(ctx context.Context, id int64) (*catalog.Series, error) {
	for _, s := range f.series {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, catalog.ErrSeriesNotFound
}

func (f *fakeSeriesRepo) FindBySlug(ctx context.Context, slug string) (*catalog.Series, error) {
	return nil, catalog.ErrSeriesNotFound
}

func (f *fakeSeriesRepo) TopByCategory(ctx context.Context, categoryID int64, exclude []int64, limit int) ([]*catalog.Series, error) {
	return nil, nil
}

func (f *fakeSeriesRepo) CountVisible(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeSeriesRepo) CountVisibleByCategory(ctx context.Context, categoryID int64) (int64, error) {
	return 0, nil
}

func (f *fakeSeriesRepo) Stats(ctx context.Context, seriesID int64) (catalog.SeriesStats, error) {
	return f.stats[seriesID], nil
}

func (f *fakeSeriesRepo) SearchVisible(ctx context.Context, word string, limit int) ([]*catalog.Series, error) {
	return nil, nil
}
func (f *fakeSeriesRepo) Save(ctx context.Context, s *catalog.Series) error   { return nil }
func (f *fakeSeriesRepo) Update(ctx context.Context, s *catalog.Series) error { return nil }

type fakeEpisodeRepo struct {
	episodes []*catalog.SeriesEpisode
}

func (f *fakeEpisodeRepo) FindByID(ctx context.Context, id int64) (*catalog.SeriesEpisode, error) {
	for _, e := range f.episodes {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, catalog.ErrEpisodeNotFound
}

func (f *fakeEpisodeRepo) ListBySeries(ctx context.Context, seriesID int64) ([]*catalog.SeriesEpisode, error) {
	var out []*catalog.SeriesEpisode
	for _, e := range f.episodes {
		if e.SeriesID == seriesID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEpisodeRepo) TopExcludingSeries(ctx context.Context, excludeSeriesIDs []int64) (*catalog.SeriesEpisode, error) {
	skip := make(map[int64]bool, len(excludeSeriesIDs))
	for _, id := range excludeSeriesIDs {
		skip[id] = true
	}
	var best *catalog.SeriesEpisode
	for _, e := range f.episodes {
		if skip[e.SeriesID] {
			continue
		}
		if best == nil || e.Orders > best.Orders {
			best = e
		}
	}
	if best == nil {
		return nil, catalog.ErrEpisodeNotFound
	}
	return best, nil
}

func (f *fakeEpisodeRepo) IncrementOrders(ctx context.Context, id int64) error      { return nil }
func (f *fakeEpisodeRepo) Save(ctx context.Context, e *catalog.SeriesEpisode) error { return nil }

type fakeCategoryRepo struct {
	categories []*catalog.Category
}

func (f *fakeCategoryRepo) FindByID(ctx context.Context, id int64) (*catalog.Category, error) {
	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (f *fakeCategoryRepo) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	return nil, catalog.ErrCategoryNotFound
}

func (f *fakeCategoryRepo) ListVisible(ctx context.Context) ([]*catalog.Category, error) {
	var out []*catalog.Category
	for _, c := range f.categories {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) ListExcludingSlugs(ctx context.Context, slugs []string) ([]*catalog.Category, error) {
	return f.ListVisible(ctx)
}

func movie(id int64, sizeMB int64, orders int64, categoryIDs ...int64) *catalog.Movie {
	refs := make([]catalog.CategoryRef, len(categoryIDs))
	for i, cid := range categoryIDs {
		refs[i] = catalog.CategoryRef{ID: cid}
	}
	return &catalog.Movie{
		ID:         id,
		SizeMB:     sizeMB,
		Orders:     orders,
		Visible:    true,
		Categories: refs,
	}
}

func newTestCollector(movies *fakeMovieRepo, categories *fakeCategoryRepo) *Collector {
	return NewCollector(movies, &fakeSeriesRepo{}, &fakeEpisodeRepo{}, categories, logger.NewZapLogger("test"))
}

func TestCollectMoviesBaseGrabStopsAtBudget(t *testing.T) {
	movies := &fakeMovieRepo{movies: []*catalog.Movie{
		movie(1, 80, 0, 10),
		movie(2, 90, 0, 10),
		movie(3, 70, 0, 10),
	}}
	categories := &fakeCategoryRepo{categories: []*catalog.Category{
		{ID: 10, Visible: true},
	}}
	c := newTestCollector(movies, categories)

	out, err := c.CollectMovies(context.Background(), CollectMoviesInput{
		MaxLoad:         180,
		Unit:            catalog.UnitVolume,
		BaseCategoryIDs: []int64{10},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(170), out.TotalLoad)
	assert.Len(t, out.Movies, 2)
	assert.LessOrEqual(t, out.TotalLoad, int64(180))
}

func TestCollectMoviesNeverExceedsBudget(t *testing.T) {
	movies := &fakeMovieRepo{movies: []*catalog.Movie{
		movie(1, 40, 9, 10), movie(2, 35, 8, 10), movie(3, 50, 7, 11),
		movie(4, 25, 6, 11), movie(5, 60, 5, 12), movie(6, 45, 4, 12),
	}}
	categories := &fakeCategoryRepo{categories: []*catalog.Category{
		{ID: 10, Visible: true}, {ID: 11, Visible: true}, {ID: 12, Visible: true},
	}}
	c := newTestCollector(movies, categories)

	for _, budget := range []int64{30, 75, 120, 999} {
		out, err := c.CollectMovies(context.Background(), CollectMoviesInput{
			MaxLoad: budget,
			Unit:    catalog.UnitVolume,
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, out.TotalLoad, budget, "budget=%d", budget)
	}
}

func TestCollectMoviesNoDuplicatesAcrossCategories(t *testing.T) {
	// Movie 1 sits in both categories; it must be picked once.
	movies := &fakeMovieRepo{movies: []*catalog.Movie{
		movie(1, 50, 9, 10, 11),
		movie(2, 50, 5, 11),
	}}
	categories := &fakeCategoryRepo{categories: []*catalog.Category{
		{ID: 10, Visible: true}, {ID: 11, Visible: true},
	}}
	c := newTestCollector(movies, categories)

	out, err := c.CollectMovies(context.Background(), CollectMoviesInput{
		MaxLoad:         1000,
		Unit:            catalog.UnitVolume,
		BaseCategoryIDs: []int64{10},
	})

	require.NoError(t, err)
	seen := make(map[int64]int)
	for _, m := range out.Movies {
		seen[m.ID]++
	}
	assert.Equal(t, 1, seen[1])
	assert.Equal(t, 1, seen[2])
	assert.Equal(t, int64(100), out.TotalLoad)
}

func TestCollectMoviesRespectsExcludeList(t *testing.T) {
	movies := &fakeMovieRepo{movies: []*catalog.Movie{
		movie(1, 50, 9, 10),
		movie(2, 50, 5, 10),
	}}
	categories := &fakeCategoryRepo{categories: []*catalog.Category{{ID: 10, Visible: true}}}
	c := newTestCollector(movies, categories)

	out, err := c.CollectMovies(context.Background(), CollectMoviesInput{
		MaxLoad:    1000,
		Unit:       catalog.UnitVolume,
		ExcludeIDs: []int64{1},
	})

	require.NoError(t, err)
	require.Len(t, out.Movies, 1)
	assert.Equal(t, int64(2), out.Movies[0].ID)
}

func TestCollectMoviesZeroLoadExcludedPermanently(t *testing.T) {
	// Movie 2 has no size on record; under the volume unit it must be
	// excluded without consuming budget and without stalling the sweep.
	movies := &fakeMovieRepo{movies: []*catalog.Movie{
		movie(1, 50, 9, 10),
		movie(2, 0, 8, 10),
		movie(3, 50, 7, 10),
	}}
	categories := &fakeCategoryRepo{categories: []*catalog.Category{{ID: 10, Visible: true}}}
	c := newTestCollector(movies, categories)

	out, err := c.CollectMovies(context.Background(), CollectMoviesInput{
		MaxLoad: 1000,
		Unit:    catalog.UnitVolume,
	})

	require.NoError(t, err)
	assert.Len(t, out.Movies, 2)
	assert.Equal(t, int64(100), out.TotalLoad)
	assert.Contains(t, out.ExcludeIDs, int64(2))
}

func TestCollectMoviesTrailersPiggybackOnBaseGrab(t *testing.T) {
	withTrailer := movie(1, 100, 0, 10)
	withTrailer.DurationMin = 90
	withTrailer.TrailerResource = "trailer.mp4"
	movies := &fakeMovieRepo{movies: []*catalog.Movie{withTrailer}}
	categories := &fakeCategoryRepo{categories: []*catalog.Category{{ID: 10, Visible: true}}}
	c := newTestCollector(movies, categories)

	// Under the time unit the movie is 90 and its trailer 3; a budget of
	// 92 cannot take both, so neither lands.
	out, err := c.CollectMovies(context.Background(), CollectMoviesInput{
		MaxLoad:         92,
		Unit:            catalog.UnitTime,
		BaseCategoryIDs: []int64{10},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Movies)

	out, err = c.CollectMovies(context.Background(), CollectMoviesInput{
		MaxLoad:         93,
		Unit:            catalog.UnitTime,
		BaseCategoryIDs: []int64{10},
	})
	require.NoError(t, err)
	require.Len(t, out.Movies, 1)
	require.Len(t, out.Trailers, 1)
	assert.Equal(t, int64(93), out.TotalLoad)
}

func TestCollectMoviesPreferredCategoriesGetDeeperPasses(t *testing.T) {
	movies := &fakeMovieRepo{movies: []*catalog.Movie{
		movie(1, 10, 9, 10), movie(2, 10, 8, 10), movie(3, 10, 7, 10), movie(4, 10, 6, 10),
		movie(5, 10, 9, 11), movie(6, 10, 8, 11), movie(7, 10, 7, 11), movie(8, 10, 6, 11),
	}}
	categories := &fakeCategoryRepo{categories: []*catalog.Category{
		{ID: 10, Visible: true}, {ID: 11, Visible: true},
	}}
	c := newTestCollector(movies, categories)

	// Six slots of budget: the first sweep takes two from the preferred
	// category and one from the other; the second sweep finishes the fill.
	out, err := c.CollectMovies(context.Background(), CollectMoviesInput{
		MaxLoad:              60,
		Unit:                 catalog.UnitVolume,
		PreferredCategoryIDs: []int64{10},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(60), out.TotalLoad)

	var preferred, other int
	for _, m := range out.Movies {
		if hasCategory(m.Categories, 10) {
			preferred++
		} else {
			other++
		}
	}
	assert.Equal(t, 4, preferred)
	assert.Equal(t, 2, other)
}

func TestCollectMoviesSmartCategoriesStayOut(t *testing.T) {
	movies := &fakeMovieRepo{movies: []*catalog.Movie{
		movie(1, 50, 9, 10),
		movie(2, 50, 9, 20),
	}}
	categories := &fakeCategoryRepo{categories: []*catalog.Category{
		{ID: 10, Visible: true},
		{ID: 20, Visible: true, Smart: true},
	}}
	c := newTestCollector(movies, categories)

	out, err := c.CollectMovies(context.Background(), CollectMoviesInput{
		MaxLoad: 1000,
		Unit:    catalog.UnitVolume,
	})

	require.NoError(t, err)
	require.Len(t, out.Movies, 1)
	assert.Equal(t, int64(1), out.Movies[0].ID)
}

func TestCollectSeriesAllOrNothing(t *testing.T) {
	seriesRepo := &fakeSeriesRepo{
		series: []*catalog.Series{{ID: 1, Visible: true}, {ID: 2, Visible: true}},
		stats: map[int64]catalog.SeriesStats{
			1: {SizeMB: 600},
			2: {SizeMB: 500},
		},
	}
	episodeRepo := &fakeEpisodeRepo{episodes: []*catalog.SeriesEpisode{
		{ID: 11, SeriesID: 1, SizeMB: 300, Orders: 50},
		{ID: 12, SeriesID: 1, SizeMB: 300, Orders: 10},
		{ID: 21, SeriesID: 2, SizeMB: 500, Orders: 40},
	}}
	c := NewCollector(&fakeMovieRepo{}, seriesRepo, episodeRepo, &fakeCategoryRepo{}, logger.NewZapLogger("test"))

	out, err := c.CollectSeries(context.Background(), CollectSeriesInput{
		MaxLoad: 700,
		Unit:    catalog.UnitVolume,
	})

	require.NoError(t, err)
	require.Len(t, out.Series, 1, "the second series does not fit and must not be split")
	assert.Equal(t, int64(1), out.Series[0].Series.ID)
	assert.Len(t, out.Series[0].Episodes, 2, "a selected series brings its full episode list")
	assert.Equal(t, int64(600), out.TotalLoad)
	assert.Contains(t, out.ExcludeSeriesIDs, int64(1))
}

func TestCollectSeriesSkipsZeroLoad(t *testing.T) {
	seriesRepo := &fakeSeriesRepo{
		series: []*catalog.Series{{ID: 1, Visible: true}, {ID: 2, Visible: true}},
		stats: map[int64]catalog.SeriesStats{
			1: {},
			2: {SizeMB: 400},
		},
	}
	episodeRepo := &fakeEpisodeRepo{episodes: []*catalog.SeriesEpisode{
		{ID: 11, SeriesID: 1, Orders: 90},
		{ID: 21, SeriesID: 2, SizeMB: 400, Orders: 40},
	}}
	c := NewCollector(&fakeMovieRepo{}, seriesRepo, episodeRepo, &fakeCategoryRepo{}, logger.NewZapLogger("test"))

	out, err := c.CollectSeries(context.Background(), CollectSeriesInput{
		MaxLoad: 1000,
		Unit:    catalog.UnitVolume,
	})

	require.NoError(t, err)
	require.Len(t, out.Series, 1)
	assert.Equal(t, int64(2), out.Series[0].Series.ID)
	assert.Contains(t, out.ExcludeSeriesIDs, int64(1), "zero-load series are excluded, not retried forever")
}
