package stream

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/streamlog"
	"github.com/afrovod/afrovod/pkg/apperror"
)

const recentHistoryLength = 10

// WatchProgressUseCase keeps the furthest-watched marker per member and
// title. Players report percentages while playing; the resume list reads
// them back with the titles resolved.
type WatchProgressUseCase struct {
	historyRepo streamlog.HistoryRepository
	movieRepo   catalog.MovieRepository
	seriesRepo  catalog.SeriesRepository
	episodeRepo catalog.EpisodeRepository
}

func NewWatchProgressUseCase(
	hRepo streamlog.HistoryRepository,
	mRepo catalog.MovieRepository,
	sRepo catalog.SeriesRepository,
	eRepo catalog.EpisodeRepository,
) *WatchProgressUseCase {
	return &WatchProgressUseCase{
		historyRepo: hRepo,
		movieRepo:   mRepo,
		seriesRepo:  sRepo,
		episodeRepo: eRepo,
	}
}

type MonitorInput struct {
	MemberID   uuid.UUID
	Kind       catalog.MediaKind
	MediaID    int64
	Percentage int
}

func (uc *WatchProgressUseCase) Monitor(ctx context.Context, input MonitorInput) error {
	if input.Percentage < 0 {
		return apperror.NewInvalidInput("percentage cannot be negative", nil)
	}
	entry := &streamlog.HistoryEntry{
		ID:        uuid.New(),
		MemberID:  input.MemberID,
		Kind:      input.Kind,
		MediaID:   input.MediaID,
		UpdatedAt: time.Now().UTC(),
	}
	entry.Advance(input.Percentage)
	return uc.historyRepo.UpsertMax(ctx, entry)
}

// HistoryItem is one resume-list row. Movie is set for movies; episodes
// carry both the episode and its parent series for the link back.
type HistoryItem struct {
	Kind       catalog.MediaKind      `json:"kind"`
	Percentage int                    `json:"percentage"`
	Movie      *catalog.Movie         `json:"movie,omitempty"`
	Series     *catalog.Series        `json:"series,omitempty"`
	Episode    *catalog.SeriesEpisode `json:"episode,omitempty"`
}

// Recent returns the member's latest progress markers with titles resolved.
// Entries whose title left the catalog are skipped.
func (uc *WatchProgressUseCase) Recent(ctx context.Context, memberID uuid.UUID) ([]HistoryItem, error) {
	entries, err := uc.historyRepo.ListRecentByMember(ctx, memberID, recentHistoryLength)
	if err != nil {
		return nil, err
	}
	var items []HistoryItem
	for _, e := range entries {
		item, err := uc.resolveHistory(ctx, e)
		if err != nil {
			if isCatalogNotFound(err) {
				continue
			}
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (uc *WatchProgressUseCase) resolveHistory(ctx context.Context, e streamlog.HistoryEntry) (HistoryItem, error) {
	switch e.Kind {
	case catalog.KindMovie:
		m, err := uc.movieRepo.FindByID(ctx, e.MediaID)
		if err != nil {
			return HistoryItem{}, err
		}
		return HistoryItem{Kind: catalog.KindMovie, Percentage: e.Percentage, Movie: m}, nil
	default:
		ep, err := uc.episodeRepo.FindByID(ctx, e.MediaID)
		if err != nil {
			return HistoryItem{}, err
		}
		s, err := uc.seriesRepo.FindByID(ctx, ep.SeriesID)
		if err != nil {
			return HistoryItem{}, err
		}
		return HistoryItem{Kind: catalog.KindEpisode, Percentage: e.Percentage, Episode: ep, Series: s}, nil
	}
}

func isCatalogNotFound(err error) bool {
	return errors.Is(err, catalog.ErrMovieNotFound) ||
		errors.Is(err, catalog.ErrSeriesNotFound) ||
		errors.Is(err, catalog.ErrEpisodeNotFound)
}
