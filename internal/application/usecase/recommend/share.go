package recommend

import (
	"context"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

// ShareUseCase splits a recommendation slot count between movies and series
// in proportion to how many of each the catalog holds.
type ShareUseCase struct {
	movieRepo  catalog.MovieRepository
	seriesRepo catalog.SeriesRepository
}

func NewShareUseCase(mRepo catalog.MovieRepository, sRepo catalog.SeriesRepository) *ShareUseCase {
	return &ShareUseCase{movieRepo: mRepo, seriesRepo: sRepo}
}

// Execute returns (movies, series) slot counts for the category, or for the
// whole catalog when categoryID is nil. The movie share truncates; series
// take the remainder. A single slot goes to the bigger population, series
// on a tie, and when the two populations sum exactly to count they pass
// through unrounded.
func (uc *ShareUseCase) Execute(ctx context.Context, count int64, categoryID *int64) (int64, int64, error) {
	var totalMovies, totalSeries int64
	var err error
	if categoryID != nil {
		totalMovies, err = uc.movieRepo.CountVisibleByCategory(ctx, *categoryID)
		if err != nil {
			return 0, 0, err
		}
		totalSeries, err = uc.seriesRepo.CountVisibleByCategory(ctx, *categoryID)
		if err != nil {
			return 0, 0, err
		}
	} else {
		totalMovies, err = uc.movieRepo.CountVisible(ctx)
		if err != nil {
			return 0, 0, err
		}
		totalSeries, err = uc.seriesRepo.CountVisible(ctx)
		if err != nil {
			return 0, 0, err
		}
	}
	movies, series := Share(count, totalMovies, totalSeries)
	return movies, series, nil
}

// Share is the pure split rule, exposed for reuse by the selection paths.
func Share(count, totalMovies, totalSeries int64) (int64, int64) {
	total := totalMovies + totalSeries
	if total == 0 || count <= 0 {
		return 0, 0
	}
	if count == 1 {
		if totalMovies > totalSeries {
			return 1, 0
		}
		return 0, 1
	}
	if total == count {
		return totalMovies, totalSeries
	}
	movies := count * totalMovies / total
	return movies, count - movies
}
