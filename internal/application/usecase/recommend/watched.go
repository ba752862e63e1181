package recommend

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/streamlog"
)

// WatchedItem is one title from a member's viewing history. Exactly one of
// Movie or Series is set; episodes resolve to their parent series.
type WatchedItem struct {
	Kind   catalog.MediaKind `json:"kind"`
	Movie  *catalog.Movie    `json:"movie,omitempty"`
	Series *catalog.Series   `json:"series,omitempty"`
}

func (w WatchedItem) id() int64 {
	if w.Kind == catalog.KindMovie {
		return w.Movie.ID
	}
	return w.Series.ID
}

func (w WatchedItem) categories() []catalog.CategoryRef {
	if w.Kind == catalog.KindMovie {
		return w.Movie.Categories
	}
	return w.Series.Categories
}

// WatchedUseCase derives a member's viewing history from the stream log.
type WatchedUseCase struct {
	logRepo      streamlog.Repository
	movieRepo    catalog.MovieRepository
	seriesRepo   catalog.SeriesRepository
	episodeRepo  catalog.EpisodeRepository
	categoryRepo catalog.CategoryRepository
}

func NewWatchedUseCase(
	lRepo streamlog.Repository,
	mRepo catalog.MovieRepository,
	sRepo catalog.SeriesRepository,
	eRepo catalog.EpisodeRepository,
	cRepo catalog.CategoryRepository,
) *WatchedUseCase {
	return &WatchedUseCase{
		logRepo:      lRepo,
		movieRepo:    mRepo,
		seriesRepo:   sRepo,
		episodeRepo:  eRepo,
		categoryRepo: cRepo,
	}
}

// Execute reduces the member's raw log entries into sessions, persists the
// reduction, and maps each session back to its title, most recent first,
// deduplicated by first occurrence.
func (uc *WatchedUseCase) Execute(ctx context.Context, memberID uuid.UUID) ([]WatchedItem, error) {
	entries, err := uc.logRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	kept, deleted := streamlog.Reduce(entries)
	if len(deleted) > 0 {
		if err := uc.logRepo.ReplaceForMember(ctx, memberID, kept, deleted); err != nil {
			return nil, err
		}
	}

	var watched []WatchedItem
	seenMovies := make(map[int64]bool)
	seenSeries := make(map[int64]bool)
	// Entries are stored oldest first; history reads newest first.
	for i := len(kept) - 1; i >= 0; i-- {
		e := kept[i]
		item, err := uc.resolve(ctx, e)
		if err != nil {
			if isCatalogNotFound(err) {
				continue
			}
			return nil, err
		}
		if item.Kind == catalog.KindMovie {
			if seenMovies[item.id()] {
				continue
			}
			seenMovies[item.id()] = true
		} else {
			if seenSeries[item.id()] {
				continue
			}
			seenSeries[item.id()] = true
		}
		watched = append(watched, item)
	}
	return watched, nil
}

func (uc *WatchedUseCase) resolve(ctx context.Context, e streamlog.Entry) (WatchedItem, error) {
	switch e.Kind {
	case catalog.KindMovie:
		m, err := uc.movieRepo.FindByID(ctx, e.MediaID)
		if err != nil {
			return WatchedItem{}, err
		}
		return WatchedItem{Kind: catalog.KindMovie, Movie: m}, nil
	case catalog.KindEpisode:
		ep, err := uc.episodeRepo.FindByID(ctx, e.MediaID)
		if err != nil {
			return WatchedItem{}, err
		}
		s, err := uc.seriesRepo.FindByID(ctx, ep.SeriesID)
		if err != nil {
			return WatchedItem{}, err
		}
		return WatchedItem{Kind: catalog.KindSeries, Series: s}, nil
	default:
		s, err := uc.seriesRepo.FindByID(ctx, e.MediaID)
		if err != nil {
			return WatchedItem{}, err
		}
		return WatchedItem{Kind: catalog.KindSeries, Series: s}, nil
	}
}

// WatchedCategories flattens the categories of the watched list, skipping
// smart ones, preserving the recency order and deduplicating.
func (uc *WatchedUseCase) WatchedCategories(ctx context.Context, watched []WatchedItem) ([]*catalog.Category, error) {
	smart := make(map[int64]bool)
	var out []*catalog.Category
	seen := make(map[int64]bool)
	for _, item := range watched {
		for _, ref := range item.categories() {
			if seen[ref.ID] || smart[ref.ID] {
				continue
			}
			cat, err := uc.categoryRepo.FindByID(ctx, ref.ID)
			if err != nil {
				if errors.Is(err, catalog.ErrCategoryNotFound) {
					seen[ref.ID] = true
					continue
				}
				return nil, err
			}
			if cat.Smart {
				smart[ref.ID] = true
				continue
			}
			seen[ref.ID] = true
			out = append(out, cat)
		}
	}
	return out, nil
}

func isCatalogNotFound(err error) bool {
	return errors.Is(err, catalog.ErrMovieNotFound) ||
		errors.Is(err, catalog.ErrSeriesNotFound) ||
		errors.Is(err, catalog.ErrEpisodeNotFound)
}
