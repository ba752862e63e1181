package streamlog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

func entry(kind catalog.MediaKind, mediaID int64, bytes int64, sec int) Entry {
	return Entry{
		ID:          uuid.New(),
		MemberID:    uuid.Nil,
		Kind:        kind,
		MediaID:     mediaID,
		Bytes:       bytes,
		DurationSec: sec,
		Status:      StatusSingle,
		CreatedAt:   time.Now(),
	}
}

func TestReduceMergesConsecutiveRuns(t *testing.T) {
	entries := []Entry{
		entry(catalog.KindMovie, 1, 100, 10),
		entry(catalog.KindMovie, 1, 200, 20),
		entry(catalog.KindMovie, 1, 300, 30),
		entry(catalog.KindEpisode, 7, 50, 5),
		entry(catalog.KindMovie, 1, 40, 4),
	}

	kept, deleted := Reduce(entries)

	require.Len(t, kept, 3)
	assert.Len(t, deleted, 2)

	assert.Equal(t, int64(600), kept[0].Bytes)
	assert.Equal(t, 60, kept[0].DurationSec)
	assert.Equal(t, StatusReduced, kept[0].Status)

	assert.Equal(t, int64(50), kept[1].Bytes)
	assert.Equal(t, StatusReduced, kept[1].Status)

	// Returning to the same movie after an interruption starts a new
	// session, it does not merge into the old one.
	assert.Equal(t, int64(40), kept[2].Bytes)
	assert.Equal(t, StatusReduced, kept[2].Status)

	assert.Contains(t, deleted, entries[1].ID)
	assert.Contains(t, deleted, entries[2].ID)
}

func TestReduceIsIdempotent(t *testing.T) {
	entries := []Entry{
		entry(catalog.KindMovie, 1, 100, 10),
		entry(catalog.KindMovie, 1, 200, 20),
		entry(catalog.KindEpisode, 3, 10, 1),
	}

	once, deletedOnce := Reduce(entries)
	twice, deletedTwice := Reduce(once)

	assert.Equal(t, once, twice)
	assert.NotEmpty(t, deletedOnce)
	assert.Empty(t, deletedTwice)
}

func TestReduceKeepsZeroByteInterestEntries(t *testing.T) {
	click := entry(catalog.KindMovie, 9, 0, 0)
	entries := []Entry{click}

	kept, deleted := Reduce(entries)

	require.Len(t, kept, 1)
	assert.Empty(t, deleted)
	assert.Equal(t, click.ID, kept[0].ID)
	assert.Equal(t, StatusReduced, kept[0].Status)
}

func TestReduceEmpty(t *testing.T) {
	kept, deleted := Reduce(nil)
	assert.Empty(t, kept)
	assert.Empty(t, deleted)
}

func TestHistoryAdvanceNeverRewinds(t *testing.T) {
	h := HistoryEntry{Percentage: 40}

	h.Advance(25)
	assert.Equal(t, 40, h.Percentage)

	h.Advance(60)
	assert.Equal(t, 60, h.Percentage)

	h.Advance(250)
	assert.Equal(t, 100, h.Percentage, "progress caps at 100")
}
