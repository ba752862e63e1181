package catalogbrowse

import (
	"context"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

// BrowseUseCase serves the read-only storefront: category listing, recent
// releases, search and title detail pages.
type BrowseUseCase struct {
	categoryRepo catalog.CategoryRepository
	movieRepo    catalog.MovieRepository
	seriesRepo   catalog.SeriesRepository
	episodeRepo  catalog.EpisodeRepository
}

func NewBrowseUseCase(
	cRepo catalog.CategoryRepository,
	mRepo catalog.MovieRepository,
	sRepo catalog.SeriesRepository,
	eRepo catalog.EpisodeRepository,
) *BrowseUseCase {
	return &BrowseUseCase{
		categoryRepo: cRepo,
		movieRepo:    mRepo,
		seriesRepo:   sRepo,
		episodeRepo:  eRepo,
	}
}

func (uc *BrowseUseCase) Categories(ctx context.Context) ([]*catalog.Category, error) {
	return uc.categoryRepo.ListVisible(ctx)
}

func (uc *BrowseUseCase) Category(ctx context.Context, slug string) (*catalog.Category, error) {
	return uc.categoryRepo.FindBySlug(ctx, slug)
}

func (uc *BrowseUseCase) RecentReleases(ctx context.Context, limit int) ([]*catalog.Movie, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.movieRepo.RecentReleases(ctx, limit)
}

// CategoryShelf returns the ranked top of one category, movies and series
// mixed according to its previews length.
type CategoryShelf struct {
	Category *catalog.Category `json:"category"`
	Movies   []*catalog.Movie  `json:"movies"`
	Series   []*catalog.Series `json:"series"`
}

func (uc *BrowseUseCase) Shelf(ctx context.Context, slug string) (*CategoryShelf, error) {
	category, err := uc.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	limit := category.PreviewsLength
	if limit <= 0 {
		limit = 12
	}
	movies, err := uc.movieRepo.TopByCategory(ctx, category.ID, nil, limit, catalog.RankRecommend)
	if err != nil {
		return nil, err
	}
	series, err := uc.seriesRepo.TopByCategory(ctx, category.ID, nil, limit)
	if err != nil {
		return nil, err
	}
	return &CategoryShelf{Category: category, Movies: movies, Series: series}, nil
}

type SearchOutput struct {
	Movies []*catalog.Movie  `json:"movies"`
	Series []*catalog.Series `json:"series"`
}

func (uc *BrowseUseCase) Search(ctx context.Context, word string, limit int) (*SearchOutput, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	movies, err := uc.movieRepo.SearchVisible(ctx, word, limit)
	if err != nil {
		return nil, err
	}
	series, err := uc.seriesRepo.SearchVisible(ctx, word, limit)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Movies: movies, Series: series}, nil
}

func (uc *BrowseUseCase) MovieBySlug(ctx context.Context, slug string) (*catalog.Movie, error) {
	return uc.movieRepo.FindBySlug(ctx, slug)
}

// SeriesDetail bundles the series with its episode list so the player can
// offer the next episode without a second round trip.
type SeriesDetail struct {
	Series   *catalog.Series          `json:"series"`
	Episodes []*catalog.SeriesEpisode `json:"episodes"`
}

func (uc *BrowseUseCase) SeriesBySlug(ctx context.Context, slug string) (*SeriesDetail, error) {
	s, err := uc.seriesRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	episodes, err := uc.episodeRepo.ListBySeries(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return &SeriesDetail{Series: s, Episodes: episodes}, nil
}
