package selection

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/pkg/logger"
)

const (
	preferredPerPass = 2
	otherPerPass     = 1
)

// Collector picks catalog items under a load budget, spreading the picks
// across categories instead of exhausting one category first.
type Collector struct {
	movieRepo    catalog.MovieRepository
	seriesRepo   catalog.SeriesRepository
	episodeRepo  catalog.EpisodeRepository
	categoryRepo catalog.CategoryRepository
	logger       logger.Logger
}

func NewCollector(
	mRepo catalog.MovieRepository,
	sRepo catalog.SeriesRepository,
	eRepo catalog.EpisodeRepository,
	cRepo catalog.CategoryRepository,
	log logger.Logger,
) *Collector {
	return &Collector{
		movieRepo:    mRepo,
		seriesRepo:   sRepo,
		episodeRepo:  eRepo,
		categoryRepo: cRepo,
		logger:       log,
	}
}

type CollectMoviesInput struct {
	MaxLoad              int64
	Unit                 catalog.LoadUnit
	BaseCategoryIDs      []int64
	PreferredCategoryIDs []int64
	ExcludeIDs           []int64
}

type CollectMoviesOutput struct {
	Movies     []*catalog.Movie
	Trailers   []*catalog.Trailer
	TotalLoad  int64
	ExcludeIDs []int64
}

// CollectMovies fills the budget in two phases. Base categories are grabbed
// whole, trailers included. The remaining categories are then swept round
// robin, preferred ones contributing up to two titles per pass and the rest
// one, until a full sweep adds no load. A title whose load is zero for the
// active unit is excluded permanently without consuming budget; the result
// never exceeds MaxLoad.
func (c *Collector) CollectMovies(ctx context.Context, input CollectMoviesInput) (*CollectMoviesOutput, error) {
	out := &CollectMoviesOutput{ExcludeIDs: append([]int64(nil), input.ExcludeIDs...)}
	excluded := make(map[int64]bool, len(input.ExcludeIDs))
	for _, id := range input.ExcludeIDs {
		excluded[id] = true
	}

	exclude := func(id int64) {
		excluded[id] = true
		out.ExcludeIDs = append(out.ExcludeIDs, id)
	}

	for _, catID := range input.BaseCategoryIDs {
		movies, err := c.movieRepo.ListVisibleByCategory(ctx, catID)
		if err != nil {
			return nil, err
		}
		for _, m := range movies {
			if excluded[m.ID] {
				continue
			}
			load := m.Load(input.Unit)
			if load == 0 {
				exclude(m.ID)
				continue
			}
			if t := m.Trailer(); t != nil {
				load += t.Load(input.Unit)
			}
			if out.TotalLoad+load > input.MaxLoad {
				break
			}
			out.Movies = append(out.Movies, m)
			if t := m.Trailer(); t != nil {
				out.Trailers = append(out.Trailers, t)
			}
			out.TotalLoad += load
			exclude(m.ID)
		}
	}

	sweepCats, err := c.sweepCategories(ctx, input)
	if err != nil {
		return nil, err
	}

	for {
		// A pass that only excludes zero-load titles still makes progress:
		// the next pass sees fresh candidates behind them.
		progress := false
		for _, sc := range sweepCats {
			perPass := otherPerPass
			if sc.preferred {
				perPass = preferredPerPass
			}
			candidates, err := c.movieRepo.TopByCategory(ctx, sc.id, out.ExcludeIDs, perPass, catalog.RankOrders)
			if err != nil {
				return nil, err
			}
			for _, m := range candidates {
				load := m.Load(input.Unit)
				if load == 0 {
					exclude(m.ID)
					progress = true
					continue
				}
				if out.TotalLoad+load > input.MaxLoad {
					break
				}
				out.Movies = append(out.Movies, m)
				out.TotalLoad += load
				exclude(m.ID)
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	c.logger.Info("Movie collection finished",
		zap.Int("movies", len(out.Movies)),
		zap.Int64("total_load", out.TotalLoad),
		zap.Int64("max_load", input.MaxLoad))
	return out, nil
}

type sweepCategory struct {
	id        int64
	preferred bool
}

// sweepCategories orders the sweep: preferred categories first, then every
// other visible category not already consumed as a base category.
func (c *Collector) sweepCategories(ctx context.Context, input CollectMoviesInput) ([]sweepCategory, error) {
	taken := make(map[int64]bool, len(input.BaseCategoryIDs)+len(input.PreferredCategoryIDs))
	out := make([]sweepCategory, 0, len(input.PreferredCategoryIDs))
	for _, id := range input.BaseCategoryIDs {
		taken[id] = true
	}
	for _, id := range input.PreferredCategoryIDs {
		if taken[id] {
			continue
		}
		taken[id] = true
		out = append(out, sweepCategory{id: id, preferred: true})
	}
	visible, err := c.categoryRepo.ListVisible(ctx)
	if err != nil {
		return nil, err
	}
	for _, cat := range visible {
		if taken[cat.ID] || cat.Smart {
			continue
		}
		out = append(out, sweepCategory{id: cat.ID})
	}
	return out, nil
}

type CollectSeriesInput struct {
	MaxLoad          int64
	Unit             catalog.LoadUnit
	ExcludeSeriesIDs []int64
}

type SelectedSeries struct {
	Series   *catalog.Series
	Episodes []*catalog.SeriesEpisode
	Stats    catalog.SeriesStats
}

type CollectSeriesOutput struct {
	Series           []SelectedSeries
	TotalLoad        int64
	ExcludeSeriesIDs []int64
}

// CollectSeries repeatedly takes the series whose best episode has the most
// orders among those not yet excluded. A series is all or nothing: its full
// episode list is added and its load counted once. Zero-load series are
// excluded and the scan retried; the first series that no longer fits ends
// the collection.
func (c *Collector) CollectSeries(ctx context.Context, input CollectSeriesInput) (*CollectSeriesOutput, error) {
	out := &CollectSeriesOutput{ExcludeSeriesIDs: append([]int64(nil), input.ExcludeSeriesIDs...)}

	for {
		ep, err := c.episodeRepo.TopExcludingSeries(ctx, out.ExcludeSeriesIDs)
		if err != nil {
			if errors.Is(err, catalog.ErrEpisodeNotFound) {
				break
			}
			return nil, err
		}
		stats, err := c.seriesRepo.Stats(ctx, ep.SeriesID)
		if err != nil {
			return nil, err
		}
		load := stats.Load(input.Unit)
		if load == 0 {
			out.ExcludeSeriesIDs = append(out.ExcludeSeriesIDs, ep.SeriesID)
			continue
		}
		if out.TotalLoad+load > input.MaxLoad {
			break
		}
		series, err := c.seriesRepo.FindByID(ctx, ep.SeriesID)
		if err != nil {
			return nil, err
		}
		episodes, err := c.episodeRepo.ListBySeries(ctx, ep.SeriesID)
		if err != nil {
			return nil, err
		}
		out.Series = append(out.Series, SelectedSeries{Series: series, Episodes: episodes, Stats: stats})
		out.TotalLoad += load
		out.ExcludeSeriesIDs = append(out.ExcludeSeriesIDs, ep.SeriesID)
	}

	c.logger.Info("Series collection finished",
		zap.Int("series", len(out.Series)),
		zap.Int64("total_load", out.TotalLoad),
		zap.Int64("max_load", input.MaxLoad))
	return out, nil
}
