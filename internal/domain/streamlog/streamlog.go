package streamlog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

type Status string

const (
	// StatusSingle entries are raw usage pings straight from players.
	StatusSingle Status = "single"
	// StatusReduced entries are merged viewing sessions.
	StatusReduced Status = "reduced"
)

// Entry records one slice of consumption for a member and title. Players
// report repeatedly during playback, so single entries pile up until a
// reduction pass folds each run into one reduced session.
type Entry struct {
	ID          uuid.UUID         `json:"id"`
	MemberID    uuid.UUID         `json:"member_id"`
	Kind        catalog.MediaKind `json:"kind"`
	MediaID     int64             `json:"media_id"`
	Bytes       int64             `json:"bytes"`
	DurationSec int               `json:"duration_sec"`
	Status      Status            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Reduce merges runs of consecutive same-media single entries, oldest first.
// Each run's bytes and duration accumulate into its first entry, which flips
// to reduced; the absorbed entries are zeroed so a sweep can delete them.
// Reduced entries already present pass through untouched, so a second pass
// over reduced data is a no-op.
//
// Returns the surviving entries and the ids of zeroed entries to delete.
func Reduce(entries []Entry) (kept []Entry, deleted []uuid.UUID) {
	run := -1
	for i := range entries {
		e := entries[i]
		if e.Status == StatusReduced {
			if run >= 0 {
				kept[run].Status = StatusReduced
				run = -1
			}
			kept = append(kept, e)
			continue
		}
		if run >= 0 && kept[run].Kind == e.Kind && kept[run].MediaID == e.MediaID {
			kept[run].Bytes += e.Bytes
			kept[run].DurationSec += e.DurationSec
			deleted = append(deleted, e.ID)
			continue
		}
		if run >= 0 {
			kept[run].Status = StatusReduced
		}
		kept = append(kept, e)
		run = len(kept) - 1
	}
	if run >= 0 {
		kept[run].Status = StatusReduced
	}
	return kept, deleted
}

// HistoryEntry tracks how far a member got into a title. One row per member,
// kind and media id; the recorded percentage only moves forward.
type HistoryEntry struct {
	ID         uuid.UUID         `json:"id"`
	MemberID   uuid.UUID         `json:"member_id"`
	Kind       catalog.MediaKind `json:"kind"`
	MediaID    int64             `json:"media_id"`
	Percentage int               `json:"percentage"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Advance records a progress report. Rewinds are ignored, so seeking back
// never loses the furthest point reached.
func (h *HistoryEntry) Advance(percentage int) {
	if percentage > 100 {
		percentage = 100
	}
	if percentage > h.Percentage {
		h.Percentage = percentage
	}
}

type HistoryRepository interface {
	// UpsertMax inserts the entry or raises the stored percentage to the
	// entry's value, never lowering it.
	UpsertMax(ctx context.Context, e *HistoryEntry) error
	// ListRecentByMember returns the member's entries, most recent first.
	ListRecentByMember(ctx context.Context, memberID uuid.UUID, limit int) ([]HistoryEntry, error)
}

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	// ListByMember returns every entry for the member, oldest first.
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]Entry, error)
	// ReplaceForMember persists a reduction result: updates the kept rows
	// and deletes the absorbed ones, as one transaction.
	ReplaceForMember(ctx context.Context, memberID uuid.UUID, kept []Entry, deleted []uuid.UUID) error
}
