package http

import (
	"time"

	"github.com/afrovod/afrovod/internal/application/usecase/recommend"
	"github.com/afrovod/afrovod/internal/domain/catalog"
)

// Movie and series DTOs strip the resource locators: clients resolve
// playback through the stream endpoints, never from catalog payloads.

type CategoryDTO struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	IsAdult       bool   `json:"is_adult"`
	PreviewsTitle string `json:"previews_title"`
}

func ToCategoryDTO(c *catalog.Category) CategoryDTO {
	return CategoryDTO{
		ID:            c.ID,
		Title:         c.Title,
		Slug:          c.Slug,
		IsAdult:       c.IsAdult,
		PreviewsTitle: c.PreviewsTitle,
	}
}

type MovieDTO struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	Slug     string         `json:"slug"`
	Release  *time.Time     `json:"release,omitempty"`
	Synopsis string         `json:"synopsis,omitempty"`
	Poster   catalog.Poster `json:"poster"`
	Price    int64          `json:"price"`
	Size     string         `json:"size"`
	Duration string         `json:"duration"`
	Orders   string         `json:"orders"`
	Clicks   string         `json:"clicks"`
	IsAdult  bool           `json:"is_adult"`
	Trailer  bool           `json:"has_trailer"`
}

func ToMovieDTO(m *catalog.Movie) MovieDTO {
	return MovieDTO{
		ID:       m.ID,
		Title:    m.Title,
		Slug:     m.Slug,
		Release:  m.Release,
		Synopsis: m.Synopsis,
		Poster:   m.Poster,
		Price:    m.Price,
		Size:     m.DisplaySize(),
		Duration: m.DisplayDuration(),
		Orders:   m.DisplayOrders(),
		Clicks:   m.DisplayClicks(),
		IsAdult:  m.IsAdult,
		Trailer:  m.TrailerResource != "",
	}
}

func ToMovieDTOs(movies []*catalog.Movie) []MovieDTO {
	out := make([]MovieDTO, len(movies))
	for i, m := range movies {
		out[i] = ToMovieDTO(m)
	}
	return out
}

type SeriesDTO struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	Slug     string         `json:"slug"`
	Season   int            `json:"season"`
	Release  *time.Time     `json:"release,omitempty"`
	Synopsis string         `json:"synopsis,omitempty"`
	Poster   catalog.Poster `json:"poster"`
	Price    int64          `json:"price"`
	Episodes int            `json:"episodes"`
	IsAdult  bool           `json:"is_adult"`
}

func ToSeriesDTO(s *catalog.Series) SeriesDTO {
	return SeriesDTO{
		ID:       s.ID,
		Title:    s.FullTitle(),
		Slug:     s.Slug,
		Season:   s.Season,
		Release:  s.Release,
		Synopsis: s.Synopsis,
		Poster:   s.Poster,
		Price:    s.Price,
		Episodes: s.EpisodesCount,
		IsAdult:  s.IsAdult,
	}
}

func ToSeriesDTOs(series []*catalog.Series) []SeriesDTO {
	out := make([]SeriesDTO, len(series))
	for i, s := range series {
		out[i] = ToSeriesDTO(s)
	}
	return out
}

type EpisodeDTO struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Size     string `json:"size"`
	Duration string `json:"duration"`
}

func ToEpisodeDTOs(episodes []*catalog.SeriesEpisode) []EpisodeDTO {
	out := make([]EpisodeDTO, len(episodes))
	for i, e := range episodes {
		out[i] = EpisodeDTO{
			ID:       e.ID,
			Title:    e.Title,
			Size:     e.DisplaySize(),
			Duration: e.DisplayDuration(),
		}
	}
	return out
}

// RecommendedItemDTO flattens the movie-or-series union into one card shape.
type RecommendedItemDTO struct {
	Kind   string     `json:"kind"`
	Movie  *MovieDTO  `json:"movie,omitempty"`
	Series *SeriesDTO `json:"series,omitempty"`
}

func ToRecommendedItemDTOs(items []recommend.Item) []RecommendedItemDTO {
	out := make([]RecommendedItemDTO, 0, len(items))
	for _, it := range items {
		dto := RecommendedItemDTO{Kind: string(it.Kind)}
		if it.Movie != nil {
			m := ToMovieDTO(it.Movie)
			dto.Movie = &m
		}
		if it.Series != nil {
			s := ToSeriesDTO(it.Series)
			dto.Series = &s
		}
		out = append(out, dto)
	}
	return out
}
