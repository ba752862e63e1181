package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaKind discriminates catalog items. It replaces runtime type inspection:
// the kind is fixed at construction and stored with the row.
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindSeries  MediaKind = "series"
	KindEpisode MediaKind = "episode"
	KindTrailer MediaKind = "trailer"
)

// LoadUnit is the unit of trade: minutes of broadcasting time or megabytes
// of data volume.
type LoadUnit string

const (
	UnitTime   LoadUnit = "time"
	UnitVolume LoadUnit = "volume"
)

func ParseLoadUnit(s string) (LoadUnit, error) {
	switch LoadUnit(s) {
	case UnitTime, UnitVolume:
		return LoadUnit(s), nil
	}
	return "", fmt.Errorf("unknown load unit %q", s)
}

// UnitString is the human suffix used in operator-facing messages.
func (u LoadUnit) UnitString() string {
	if u == UnitTime {
		return "h"
	}
	return "MB"
}

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrSeriesNotFound   = errors.New("series not found")
	ErrEpisodeNotFound  = errors.New("episode not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type Poster struct {
	URL      string `json:"url"`
	SmallURL string `json:"small_url"`
	ThumbURL string `json:"thumb_url"`
}

// Movie is a standalone catalog item. Categories are embedded value copies,
// not foreign keys; see CategoryRef.
type Movie struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	SizeMB          int64         `json:"size_mb"`
	DurationMin     int64         `json:"duration_min"`
	Release         *time.Time    `json:"release"`
	Synopsis        string        `json:"synopsis"`
	Resource        string        `json:"-"`
	ResourceMob     string        `json:"-"`
	Poster          Poster        `json:"poster"`
	Price           int64         `json:"price"`
	ViewPrice       int64         `json:"view_price"`
	DownloadPrice   int64         `json:"download_price"`
	TrailerResource string        `json:"-"`
	ProviderID      *uuid.UUID    `json:"-"`
	Orders          int64         `json:"orders"`
	FakeOrders      int64         `json:"fake_orders"`
	Clicks          int64         `json:"clicks"`
	FakeClicks      int64         `json:"fake_clicks"`
	Visible         bool          `json:"-"`
	IsAdult         bool          `json:"is_adult"`
	Categories      []CategoryRef `json:"categories"`
	Groups          string        `json:"groups"`
	Tags            string        `json:"tags"`
	CurrentEarnings int64         `json:"-"`
}

// SetCategories embeds value copies and recomputes the adult flag from
// category membership.
func (m *Movie) SetCategories(categories []Category) {
	m.Categories = make([]CategoryRef, 0, len(categories))
	m.IsAdult = false
	for _, c := range categories {
		m.Categories = append(m.Categories, c.Ref())
		if c.IsAdult {
			m.IsAdult = true
		}
	}
}

func (m *Movie) Load(unit LoadUnit) int64 {
	if unit == UnitTime {
		return m.DurationMin
	}
	return m.SizeMB
}

// Trailer materializes the piggyback trailer of the movie, if any. Trailers
// carry an arbitrary 3-minute duration and no size, matching how they are
// accounted in selections.
func (m *Movie) Trailer() *Trailer {
	if m.TrailerResource == "" {
		return nil
	}
	return &Trailer{DurationMin: 3, Resource: m.TrailerResource}
}

// Filenames splits the resource field: some movies ship in multiple file
// parts separated by commas.
func (m *Movie) Filenames() []string {
	return splitFilenames(m.Resource)
}

func (m *Movie) DisplayOrders() string { return displayCounter(m.FakeOrders) }
func (m *Movie) DisplayClicks() string { return displayCounter(m.FakeClicks) }

func (m *Movie) DisplaySize() string     { return displaySize(m.SizeMB) }
func (m *Movie) DisplayDuration() string { return displayDuration(m.DurationMin) }

type Trailer struct {
	Title       string `json:"title"`
	SizeMB      int64  `json:"size_mb"`
	DurationMin int64  `json:"duration_min"`
	Resource    string `json:"-"`
	ResourceMob string `json:"-"`
}

func (t *Trailer) Load(unit LoadUnit) int64 {
	if unit == UnitTime {
		return t.DurationMin
	}
	return t.SizeMB
}

func splitFilenames(resource string) []string {
	if resource == "" {
		return nil
	}
	parts := strings.Split(resource, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// displayCounter rounds large counters down to the nearest 500 for
// social-proof display: 1234 -> "1000+".
func displayCounter(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d+", n/500*500)
}

func displaySize(sizeMB int64) string {
	if sizeMB < 1024 {
		return fmt.Sprintf("%d MB", sizeMB)
	}
	return fmt.Sprintf("%.2f GB", float64(sizeMB)/1024.0)
}

func displayDuration(min int64) string {
	if min < 60 {
		return fmt.Sprintf("%dmn", min)
	}
	return fmt.Sprintf("%dh%dmn", min/60, min%60)
}
