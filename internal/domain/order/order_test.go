package order

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/pkg/apperror"
)

func TestAddItemAccumulatesTotals(t *testing.T) {
	cu := New(uuid.New())

	cu.AddItem(Item{Kind: catalog.KindMovie, MediaID: 1, Filename: "a.mp4", SizeMB: 700, Price: 100})
	cu.AddItem(Item{Kind: catalog.KindMovie, MediaID: 2, Filename: "b.mp4", SizeMB: 800, Price: 150})
	cu.AddItem(Item{Kind: catalog.KindSeries, MediaID: 3, Title: "Some Show", Price: 500})

	assert.Equal(t, float64(1500), cu.TotalSizeMB)
	assert.Equal(t, int64(750), cu.TotalCost)
	assert.Equal(t, "a.mp4,b.mp4", cu.AddFilenames(), "items without filenames stay out of the derived view")
}

func TestLifecycleHappyPath(t *testing.T) {
	cu := New(uuid.New())
	now := time.Now()

	require.Equal(t, StatusRunning, cu.Status)
	require.NoError(t, cu.Complete())
	require.Equal(t, StatusPending, cu.Status)

	require.NoError(t, cu.Authorize(now))
	require.Equal(t, StatusAuthorized, cu.Status)
	require.NotNil(t, cu.AuthorizedAt)

	require.NoError(t, cu.MarkDelivered(now))
	require.Equal(t, StatusDelivered, cu.Status)
	require.NotNil(t, cu.DeliveredAt)
}

func TestAuthorizeRequiresPending(t *testing.T) {
	now := time.Now()

	for _, status := range []Status{StatusRunning, StatusAuthorized, StatusDelivered, StatusFailed} {
		cu := New(uuid.New())
		cu.Status = status

		err := cu.Authorize(now)
		require.Error(t, err, "authorize from %s must fail", status)
		assert.True(t, errors.Is(err, apperror.ErrStateConflict))
		assert.Equal(t, status, cu.Status, "a rejected transition must not change state")
	}
}

func TestReauthorizeIsAConflict(t *testing.T) {
	cu := New(uuid.New())
	now := time.Now()
	require.NoError(t, cu.Complete())
	require.NoError(t, cu.Authorize(now))

	err := cu.Authorize(now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrStateConflict))
}

func TestMarkFailedFromAnywhere(t *testing.T) {
	cu := New(uuid.New())
	cu.MarkFailed("catalog unreachable")

	assert.Equal(t, StatusFailed, cu.Status)
	assert.Equal(t, "catalog unreachable", cu.FailReason)
}

func TestDisplaySize(t *testing.T) {
	cu := New(uuid.New())
	cu.TotalSizeMB = 512
	assert.Equal(t, "512 MB", cu.DisplaySize())

	// Decimal GB, matching the shortfall messages.
	cu.TotalSizeMB = 1000
	assert.Equal(t, "1.00 GB", cu.DisplaySize())

	cu.TotalSizeMB = 2048
	assert.Equal(t, "2.05 GB", cu.DisplaySize())
}
