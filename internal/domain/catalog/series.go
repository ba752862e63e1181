package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Series is an aggregate: its size, duration, orders and clicks are derived
// from its episodes, never stored. Repositories recompute them on access.
type Series struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Season          int           `json:"season"`
	Slug            string        `json:"slug"`
	Release         *time.Time    `json:"release"`
	EpisodesCount   int           `json:"episodes_count"`
	Synopsis        string        `json:"synopsis"`
	Poster          Poster        `json:"poster"`
	ProviderID      *uuid.UUID    `json:"-"`
	Price           int64         `json:"price"`
	ViewPrice       int64         `json:"view_price"`
	DownloadPrice   int64         `json:"download_price"`
	IsAdult         bool          `json:"is_adult"`
	TrailerResource string        `json:"-"`
	Categories      []CategoryRef `json:"categories"`
	Visible         bool          `json:"-"`
	Groups          string        `json:"groups"`
	Tags            string        `json:"tags"`
}

func (s *Series) FullTitle() string {
	return fmt.Sprintf("%s - Season %d", s.Title, s.Season)
}

func (s *Series) SetCategories(categories []Category) {
	s.Categories = make([]CategoryRef, 0, len(categories))
	s.IsAdult = false
	for _, c := range categories {
		s.Categories = append(s.Categories, c.Ref())
		if c.IsAdult {
			s.IsAdult = true
		}
	}
}

func (s *Series) Trailer() *Trailer {
	if s.TrailerResource == "" {
		return nil
	}
	return &Trailer{DurationMin: 3, Resource: s.TrailerResource}
}

// SeriesStats are the derived aggregates of a series. Size and duration are
// sums over episodes; orders and clicks are averages.
type SeriesStats struct {
	SizeMB      int64 `json:"size_mb"`
	DurationMin int64 `json:"duration_min"`
	Orders      int64 `json:"orders"`
	Clicks      int64 `json:"clicks"`
}

func (st SeriesStats) Load(unit LoadUnit) int64 {
	if unit == UnitTime {
		return st.DurationMin
	}
	return st.SizeMB
}

// ComputeSeriesStats derives the aggregate from an episode list.
func ComputeSeriesStats(episodes []*SeriesEpisode) SeriesStats {
	var st SeriesStats
	if len(episodes) == 0 {
		return st
	}
	var totalOrders, totalClicks int64
	for _, ep := range episodes {
		st.SizeMB += ep.SizeMB
		st.DurationMin += ep.DurationMin
		totalOrders += ep.Orders
		totalClicks += ep.Clicks
	}
	st.Orders = totalOrders / int64(len(episodes))
	st.Clicks = totalClicks / int64(len(episodes))
	return st
}

// SeriesEpisode belongs to exactly one Series and inherits its adult flag,
// release date and view price from the parent.
type SeriesEpisode struct {
	ID          int64  `json:"id"`
	SeriesID    int64  `json:"series_id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	SizeMB      int64  `json:"size_mb"`
	DurationMin int64  `json:"duration_min"`
	Resource    string `json:"-"`
	ResourceMob string `json:"-"`
	Orders      int64  `json:"orders"`
	FakeOrders  int64  `json:"fake_orders"`
	Clicks      int64  `json:"clicks"`
	FakeClicks  int64  `json:"fake_clicks"`
	IsAdult     bool   `json:"is_adult"`
}

func (e *SeriesEpisode) Load(unit LoadUnit) int64 {
	if unit == UnitTime {
		return e.DurationMin
	}
	return e.SizeMB
}

func (e *SeriesEpisode) Filenames() []string {
	return splitFilenames(e.Resource)
}

func (e *SeriesEpisode) DisplaySize() string     { return displaySize(e.SizeMB) }
func (e *SeriesEpisode) DisplayDuration() string { return displayDuration(e.DurationMin) }
