package recommend

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/streamlog"
	"github.com/afrovod/afrovod/pkg/logger"
)

type fakeLogRepo struct {
	entries      []streamlog.Entry
	replaceCalls int
	lastDeleted  []uuid.UUID
}

func (f *fakeLogRepo) Append(ctx context.Context, e *streamlog.Entry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeLogRepo) ListByMember(ctx context.Context, memberID uuid.UUID) ([]streamlog.Entry, error) {
	return append([]streamlog.Entry(nil), f.entries...), nil
}

func (f *fakeLogRepo) ReplaceForMember(ctx context.Context, memberID uuid.UUID, kept []streamlog.Entry, deleted []uuid.UUID) error {
	f.replaceCalls++
	f.lastDeleted = deleted
	f.entries = append([]streamlog.Entry(nil), kept...)
	return nil
}

type fakeMovieRepo struct {
	movies []*catalog.Movie
	recent []*catalog.Movie
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

func movieHasCategory(m *catalog.Movie, id int64) bool {
	for _, r := range m.Categories {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeMovieRepo) ListVisibleByCategory(ctx context.Context, categoryID int64) ([]*catalog.Movie, error) {
	var out []*catalog.Movie
	for _, m := range f.movies {
		if m.Visible && movieHasCategory(m, categoryID) {
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
		if m.Visible && movieHasCategory(m, categoryID) && !skip[m.ID] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Orders > out[j].Orders })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMovieRepo) CountVisible(ctx context.Context) (int64, error) {
	var n int64
	for _, m := range f.movies {
		if m.Visible {
			n++
		}
	}
	return n, nil
}

func (f *fakeMovieRepo) CountVisibleByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	for _, m := range f.movies {
		if m.Visible && movieHasCategory(m, categoryID) {
			n++
		}
	}
	return n, nil
}

func (f *fakeMovieRepo) RecentReleases(ctx context.Context, limit int) ([]*catalog.Movie, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
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

func seriesHasCategory(s *catalog.Series, id int64) bool {
	for _, r := range s.Categories {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeSeriesRepo) TopByCategory(ctx context.Context, categoryID int64, exclude []int64, limit int) ([]*catalog.Series, error) {
	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []*catalog.Series
	for _, s := range f.series {
		if s.Visible && seriesHasCategory(s, categoryID) && !skip[s.ID] {
			out = append(out, s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSeriesRepo) CountVisible(ctx context.Context) (int64, error) {
	return int64(len(f.series)), nil
}

func (f *fakeSeriesRepo) CountVisibleByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	for _, s := range f.series {
		if s.Visible && seriesHasCategory(s, categoryID) {
			n++
		}
	}
	return n, nil
}

func (f *fakeSeriesRepo) Stats(ctx context.Context, seriesID int64) (catalog.SeriesStats, error) {
	return catalog.SeriesStats{}, nil
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
	return nil, nil
}

func (f *fakeEpisodeRepo) TopExcludingSeries(ctx context.Context, excludeSeriesIDs []int64) (*catalog.SeriesEpisode, error) {
	return nil, catalog.ErrEpisodeNotFound
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
	return f.categories, nil
}

func (f *fakeCategoryRepo) ListExcludingSlugs(ctx context.Context, slugs []string) ([]*catalog.Category, error) {
	return f.categories, nil
}

type fakeCache struct {
	store      map[string][]byte
	registered map[string][]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}, registered: map[string][]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := f.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = raw
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.store, k)
	}
	return nil
}

func (f *fakeCache) RegisterExcludeKey(ctx context.Context, username string, key string) error {
	f.registered[username] = append(f.registered[username], key)
	return nil
}

func (f *fakeCache) ExcludeKeys(ctx context.Context, username string) ([]string, error) {
	return f.registered[username], nil
}

type fixture struct {
	logs       *fakeLogRepo
	movies     *fakeMovieRepo
	series     *fakeSeriesRepo
	episodes   *fakeEpisodeRepo
	categories *fakeCategoryRepo
	cache      *fakeCache
	watched    *WatchedUseCase
	recommend  *RecommendUseCase
}

func newFixture() *fixture {
	f := &fixture{
		logs:       &fakeLogRepo{},
		movies:     &fakeMovieRepo{},
		series:     &fakeSeriesRepo{},
		episodes:   &fakeEpisodeRepo{},
		categories: &fakeCategoryRepo{},
		cache:      newFakeCache(),
	}
	f.watched = NewWatchedUseCase(f.logs, f.movies, f.series, f.episodes, f.categories)
	share := NewShareUseCase(f.movies, f.series)
	f.recommend = NewRecommendUseCase(f.watched, share, f.movies, f.series, f.cache, logger.NewZapLogger("test"))
	return f
}

func reducedEntry(memberID uuid.UUID, kind catalog.MediaKind, mediaID int64) streamlog.Entry {
	return streamlog.Entry{
		ID:       uuid.New(),
		MemberID: memberID,
		Kind:     kind,
		MediaID:  mediaID,
		Status:   streamlog.StatusReduced,
	}
}

func TestWatchedNewestFirstAndDeduplicated(t *testing.T) {
	f := newFixture()
	memberID := uuid.New()

	f.movies.movies = []*catalog.Movie{
		{ID: 1, Visible: true},
		{ID: 2, Visible: true},
	}
	f.series.series = []*catalog.Series{{ID: 50, Visible: true}}
	f.episodes.episodes = []*catalog.SeriesEpisode{{ID: 500, SeriesID: 50}}

	// Oldest first: movie 1, an episode of series 50, movie 1 again, movie 2.
	f.logs.entries = []streamlog.Entry{
		reducedEntry(memberID, catalog.KindMovie, 1),
		reducedEntry(memberID, catalog.KindEpisode, 500),
		reducedEntry(memberID, catalog.KindMovie, 1),
		reducedEntry(memberID, catalog.KindMovie, 2),
	}

	watched, err := f.watched.Execute(context.Background(), memberID)
	require.NoError(t, err)

	require.Len(t, watched, 3)
	assert.Equal(t, catalog.KindMovie, watched[0].Kind)
	assert.Equal(t, int64(2), watched[0].Movie.ID)
	assert.Equal(t, catalog.KindMovie, watched[1].Kind)
	assert.Equal(t, int64(1), watched[1].Movie.ID)
	assert.Equal(t, catalog.KindSeries, watched[2].Kind)
	assert.Equal(t, int64(50), watched[2].Series.ID)

	assert.Equal(t, 0, f.logs.replaceCalls, "nothing was merged, nothing to persist")
}

func TestWatchedPersistsReductionWhenEntriesMerge(t *testing.T) {
	f := newFixture()
	memberID := uuid.New()
	f.movies.movies = []*catalog.Movie{{ID: 1, Visible: true}}

	e1 := reducedEntry(memberID, catalog.KindMovie, 1)
	e1.Status = streamlog.StatusSingle
	e2 := reducedEntry(memberID, catalog.KindMovie, 1)
	e2.Status = streamlog.StatusSingle
	f.logs.entries = []streamlog.Entry{e1, e2}

	watched, err := f.watched.Execute(context.Background(), memberID)
	require.NoError(t, err)

	require.Len(t, watched, 1)
	assert.Equal(t, 1, f.logs.replaceCalls)
	assert.Equal(t, []uuid.UUID{e2.ID}, f.logs.lastDeleted)
	require.Len(t, f.logs.entries, 1)
	assert.Equal(t, streamlog.StatusReduced, f.logs.entries[0].Status)
}

func TestWatchedSkipsTitlesGoneFromCatalog(t *testing.T) {
	f := newFixture()
	memberID := uuid.New()
	f.movies.movies = []*catalog.Movie{{ID: 2, Visible: true}}
	f.logs.entries = []streamlog.Entry{
		reducedEntry(memberID, catalog.KindMovie, 999),
		reducedEntry(memberID, catalog.KindMovie, 2),
	}

	watched, err := f.watched.Execute(context.Background(), memberID)
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, int64(2), watched[0].Movie.ID)
}

func TestWatchedCategoriesKeepRecencyOrderAndSkipSmart(t *testing.T) {
	f := newFixture()
	f.categories.categories = []*catalog.Category{
		{ID: 1, Slug: "drama", Visible: true},
		{ID: 2, Slug: "action", Visible: true},
		{ID: 3, Slug: "top-picks", Visible: true, Smart: true},
	}

	watched := []WatchedItem{
		{Kind: catalog.KindMovie, Movie: &catalog.Movie{ID: 10, Categories: []catalog.CategoryRef{{ID: 3}, {ID: 2}}}},
		{Kind: catalog.KindSeries, Series: &catalog.Series{ID: 20, Categories: []catalog.CategoryRef{{ID: 1}, {ID: 2}}}},
	}

	cats, err := f.watched.WatchedCategories(context.Background(), watched)
	require.NoError(t, err)

	require.Len(t, cats, 2)
	assert.Equal(t, int64(2), cats[0].ID, "most recent title's category comes first")
	assert.Equal(t, int64(1), cats[1].ID)
}

// seedShelfFixture builds three plain categories with plenty of unseen
// movies and a history touching them newest-to-oldest as 1, 2, 3.
func seedShelfFixture(f *fixture, memberID uuid.UUID) {
	f.categories.categories = []*catalog.Category{
		{ID: 1, Slug: "drama", Visible: true},
		{ID: 2, Slug: "action", Visible: true},
		{ID: 3, Slug: "comedy", Visible: true},
	}
	cat := func(id int64) []catalog.CategoryRef { return []catalog.CategoryRef{{ID: id}} }

	f.movies.movies = []*catalog.Movie{
		{ID: 101, Visible: true, Categories: cat(1)},
		{ID: 102, Visible: true, Categories: cat(2)},
		{ID: 103, Visible: true, Categories: cat(3)},
	}
	for i := int64(0); i < 15; i++ {
		f.movies.movies = append(f.movies.movies,
			&catalog.Movie{ID: 1000 + i, Orders: 100 - i, Visible: true, Categories: cat(1)},
			&catalog.Movie{ID: 2000 + i, Orders: 100 - i, Visible: true, Categories: cat(2)},
			&catalog.Movie{ID: 3000 + i, Orders: 100 - i, Visible: true, Categories: cat(3)},
		)
	}

	// Oldest first, so the drama title is the most recent watch.
	f.logs.entries = []streamlog.Entry{
		reducedEntry(memberID, catalog.KindMovie, 103),
		reducedEntry(memberID, catalog.KindMovie, 102),
		reducedEntry(memberID, catalog.KindMovie, 101),
	}
}

func TestRecommendMainCategoryTakesUnclaimedSlots(t *testing.T) {
	f := newFixture()
	memberID := uuid.New()
	seedShelfFixture(f, memberID)

	items, err := f.recommend.Execute(context.Background(), AllRecommendedInput{
		MemberID: memberID,
		Username: "alice",
		Count:    12,
	})
	require.NoError(t, err)
	require.Len(t, items, 12)

	perCategory := map[int64]int{}
	seen := map[int64]bool{}
	for _, it := range items {
		require.Equal(t, catalog.KindMovie, it.Kind)
		assert.False(t, seen[it.Movie.ID], "movie %d recommended twice", it.Movie.ID)
		seen[it.Movie.ID] = true
		assert.NotContains(t, []int64{101, 102, 103}, it.Movie.ID, "watched titles never come back")
		perCategory[it.Movie.Categories[0].ID]++
	}
	assert.Equal(t, 10, perCategory[1], "main category fills the slots the others leave")
	assert.Equal(t, 1, perCategory[2])
	assert.Equal(t, 1, perCategory[3])
}

func TestRecommendShelfIsCachedPerMember(t *testing.T) {
	f := newFixture()
	memberID := uuid.New()
	seedShelfFixture(f, memberID)

	input := AllRecommendedInput{MemberID: memberID, Username: "alice", Count: 12}
	first, err := f.recommend.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Contains(t, f.cache.store, "alice:recommended")
	assert.Contains(t, f.cache.store, "alice:already_watched")
	assert.Contains(t, f.cache.registered["alice"], "alice:recommended")

	// Starve the repos; a cached shelf must still come back intact.
	f.movies.movies = nil
	second, err := f.recommend.Execute(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Movie.ID, second[i].Movie.ID)
	}
}

func TestRecommendEmptyHistoryGivesEmptyShelf(t *testing.T) {
	f := newFixture()
	items, err := f.recommend.Execute(context.Background(), AllRecommendedInput{
		MemberID: uuid.New(),
		Username: "bob",
		Count:    12,
	})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotContains(t, f.cache.store, "bob:recommended")
}

func TestRecommendPadsThinShelvesWithRecentReleases(t *testing.T) {
	f := newFixture()
	memberID := uuid.New()
	f.categories.categories = []*catalog.Category{{ID: 1, Slug: "drama", Visible: true}}
	cats := []catalog.CategoryRef{{ID: 1}}

	f.movies.movies = []*catalog.Movie{
		{ID: 101, Visible: true, Categories: cats},
		{ID: 1, Orders: 9, Visible: true, Categories: cats},
		{ID: 2, Orders: 8, Visible: true, Categories: cats},
	}
	// Recent releases include the watched title and an already chosen one;
	// both must be skipped while padding.
	f.movies.recent = []*catalog.Movie{{ID: 101, Visible: true}, {ID: 1, Visible: true}}
	for i := int64(0); i < 10; i++ {
		f.movies.recent = append(f.movies.recent, &catalog.Movie{ID: 200 + i, Visible: true})
	}
	f.logs.entries = []streamlog.Entry{reducedEntry(memberID, catalog.KindMovie, 101)}

	items, err := f.recommend.Execute(context.Background(), AllRecommendedInput{
		MemberID: memberID,
		Username: "alice",
		Count:    12,
	})
	require.NoError(t, err)

	require.Len(t, items, MinRecommended)
	for _, it := range items {
		assert.NotEqual(t, int64(101), it.Movie.ID)
	}
}

func TestClearMemberCacheForcesRecompute(t *testing.T) {
	f := newFixture()
	memberID := uuid.New()
	seedShelfFixture(f, memberID)

	input := AllRecommendedInput{MemberID: memberID, Username: "alice", Count: 12}
	_, err := f.recommend.Execute(context.Background(), input)
	require.NoError(t, err)
	require.Contains(t, f.cache.store, "alice:recommended")

	require.NoError(t, f.recommend.ClearMemberCache(context.Background(), "alice"))
	assert.NotContains(t, f.cache.store, "alice:recommended")
	assert.NotContains(t, f.cache.store, "alice:already_watched")

	// A new watch lands; the rebuilt shelf must not contain it.
	f.logs.entries = append(f.logs.entries, reducedEntry(memberID, catalog.KindMovie, 1000))
	items, err := f.recommend.Execute(context.Background(), input)
	require.NoError(t, err)
	for _, it := range items {
		assert.NotEqual(t, int64(1000), it.Movie.ID)
	}
}
