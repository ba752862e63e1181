package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/application/service"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/pkg/logger"
)

// MinRecommended is the floor below which the list is padded with recent
// releases so a thin history still yields a usable shelf.
const MinRecommended = 10

// Item is one recommended title. Exactly one of Movie or Series is set.
type Item struct {
	Kind   catalog.MediaKind `json:"kind"`
	Movie  *catalog.Movie    `json:"movie,omitempty"`
	Series *catalog.Series   `json:"series,omitempty"`
}

// RecommendUseCase ranks unseen titles against a member's watch history. All
// products of a run are cached per member without TTL; writers of catalog or
// history data must invalidate through ClearMemberCache.
type RecommendUseCase struct {
	watched    *WatchedUseCase
	share      *ShareUseCase
	movieRepo  catalog.MovieRepository
	seriesRepo catalog.SeriesRepository
	cache      service.RecommendCache
	logger     logger.Logger
}

func NewRecommendUseCase(
	watched *WatchedUseCase,
	share *ShareUseCase,
	mRepo catalog.MovieRepository,
	sRepo catalog.SeriesRepository,
	cache service.RecommendCache,
	log logger.Logger,
) *RecommendUseCase {
	return &RecommendUseCase{
		watched:    watched,
		share:      share,
		movieRepo:  mRepo,
		seriesRepo: sRepo,
		cache:      cache,
		logger:     log,
	}
}

type categoryPick struct {
	category *catalog.Category
	count    int64
}

// excludeSet tracks titles already watched or already chosen in this run.
type excludeSet struct {
	movies []int64
	series []int64
}

func (x *excludeSet) addMovie(id int64)  { x.movies = append(x.movies, id) }
func (x *excludeSet) addSeries(id int64) { x.series = append(x.series, id) }

// forCategory pulls up to count unseen titles of one category, split between
// movies and series by catalog population. Movies rank by release then the
// displayed click and order counters; series by release then season.
func (uc *RecommendUseCase) forCategory(ctx context.Context, category *catalog.Category, count int64, exclude *excludeSet) ([]Item, error) {
	moviesCount, seriesCount, err := uc.share.Execute(ctx, count, &category.ID)
	if err != nil {
		return nil, err
	}

	var items []Item
	if moviesCount > 0 {
		movies, err := uc.movieRepo.TopByCategory(ctx, category.ID, exclude.movies, int(moviesCount), catalog.RankRecommend)
		if err != nil {
			return nil, err
		}
		for _, m := range movies {
			items = append(items, Item{Kind: catalog.KindMovie, Movie: m})
			exclude.addMovie(m.ID)
		}
	}
	if seriesCount > 0 {
		series, err := uc.seriesRepo.TopByCategory(ctx, category.ID, exclude.series, int(seriesCount))
		if err != nil {
			return nil, err
		}
		for _, s := range series {
			items = append(items, Item{Kind: catalog.KindSeries, Series: s})
			exclude.addSeries(s.ID)
		}
	}
	return items, nil
}

type AllRecommendedInput struct {
	MemberID uuid.UUID
	Username string
	Count    int64
}

// Execute builds the member's recommendation shelf. The most recently
// watched category is the main one and receives every slot the others do
// not claim; each remaining watched category gets one. A member with no
// history gets an empty shelf.
func (uc *RecommendUseCase) Execute(ctx context.Context, input AllRecommendedInput) ([]Item, error) {
	recommendedKey := fmt.Sprintf("%s:recommended", input.Username)
	watchedKey := fmt.Sprintf("%s:already_watched", input.Username)

	var cached []Item
	if hit, err := uc.cache.Get(ctx, recommendedKey, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		uc.logger.Warn("Recommendation cache read failed", zap.String("key", recommendedKey), zap.Error(err))
	}

	watched, err := uc.watched.Execute(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}
	if len(watched) == 0 {
		return nil, nil
	}

	categories, err := uc.watched.WatchedCategories(ctx, watched)
	if err != nil {
		return nil, err
	}

	exclude := &excludeSet{}
	for _, w := range watched {
		if w.Kind == catalog.KindMovie {
			exclude.addMovie(w.id())
		} else {
			exclude.addSeries(w.id())
		}
	}

	var picks []categoryPick
	if len(categories) > 0 {
		mainCount := input.Count - int64(len(categories)-1)
		if mainCount < 0 {
			mainCount = 0
		}
		picks = append(picks, categoryPick{category: categories[0], count: mainCount})
		for _, cat := range categories[1:] {
			picks = append(picks, categoryPick{category: cat, count: 1})
		}
	}

	var items []Item
	for _, p := range picks {
		if p.count == 0 {
			continue
		}
		got, err := uc.forCategory(ctx, p.category, p.count, exclude)
		if err != nil {
			return nil, err
		}
		items = append(items, got...)
	}

	if len(items) < MinRecommended {
		items, err = uc.padWithRecent(ctx, items, exclude)
		if err != nil {
			return nil, err
		}
	}

	uc.cacheShelf(ctx, input.Username, recommendedKey, watchedKey, items, watched, exclude)
	return items, nil
}

func (uc *RecommendUseCase) padWithRecent(ctx context.Context, items []Item, exclude *excludeSet) ([]Item, error) {
	recent, err := uc.movieRepo.RecentReleases(ctx, MinRecommended)
	if err != nil {
		return nil, err
	}
	excluded := make(map[int64]bool, len(exclude.movies))
	for _, id := range exclude.movies {
		excluded[id] = true
	}
	for _, m := range recent {
		if len(items) >= MinRecommended {
			break
		}
		if excluded[m.ID] {
			continue
		}
		items = append(items, Item{Kind: catalog.KindMovie, Movie: m})
		exclude.addMovie(m.ID)
	}
	return items, nil
}

// cacheShelf writes the run's artifacts. Cache failures degrade to slower
// reads, never to errors.
func (uc *RecommendUseCase) cacheShelf(ctx context.Context, username, recommendedKey, watchedKey string, items []Item, watched []WatchedItem, exclude *excludeSet) {
	if err := uc.cache.Set(ctx, recommendedKey, items, 0); err != nil {
		uc.logger.Warn("Failed to cache recommendations", zap.String("key", recommendedKey), zap.Error(err))
		return
	}
	if err := uc.cache.Set(ctx, watchedKey, watched, 0); err != nil {
		uc.logger.Warn("Failed to cache watch history", zap.String("key", watchedKey), zap.Error(err))
	}
	for _, key := range []string{recommendedKey, watchedKey} {
		if err := uc.cache.RegisterExcludeKey(ctx, username, key); err != nil {
			uc.logger.Warn("Failed to register cache key", zap.String("key", key), zap.Error(err))
		}
	}
}

// ForSingleCategory serves the per-category shelf endpoint, cached under its
// own member-scoped key and registered for bulk invalidation.
func (uc *RecommendUseCase) ForSingleCategory(ctx context.Context, input AllRecommendedInput, category *catalog.Category) ([]Item, error) {
	key := fmt.Sprintf("%s:recommended:%s", input.Username, category.Slug)
	var cached []Item
	if hit, err := uc.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	watched, err := uc.watched.Execute(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}
	exclude := &excludeSet{}
	for _, w := range watched {
		if w.Kind == catalog.KindMovie {
			exclude.addMovie(w.id())
		} else {
			exclude.addSeries(w.id())
		}
	}
	items, err := uc.forCategory(ctx, category, input.Count, exclude)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.Set(ctx, key, items, 0); err == nil {
		if rErr := uc.cache.RegisterExcludeKey(ctx, input.Username, key); rErr != nil {
			uc.logger.Warn("Failed to register cache key", zap.String("key", key), zap.Error(rErr))
		}
	}
	return items, nil
}

// ClearMemberCache drops every cached artifact registered for the member.
func (uc *RecommendUseCase) ClearMemberCache(ctx context.Context, username string) error {
	keys, err := uc.cache.ExcludeKeys(ctx, username)
	if err != nil {
		return err
	}
	keys = append(keys,
		fmt.Sprintf("%s:recommended", username),
		fmt.Sprintf("%s:already_watched", username),
		fmt.Sprintf("%s:exclude_list_keys", username),
	)
	return uc.cache.Delete(ctx, keys...)
}
