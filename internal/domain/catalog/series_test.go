package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSeriesStats(t *testing.T) {
	episodes := []*SeriesEpisode{
		{SizeMB: 300, DurationMin: 45, Orders: 10, Clicks: 100},
		{SizeMB: 350, DurationMin: 50, Orders: 20, Clicks: 200},
		{SizeMB: 250, DurationMin: 40, Orders: 30, Clicks: 60},
	}

	st := ComputeSeriesStats(episodes)

	assert.Equal(t, int64(900), st.SizeMB)
	assert.Equal(t, int64(135), st.DurationMin)
	assert.Equal(t, int64(20), st.Orders)
	assert.Equal(t, int64(120), st.Clicks)
}

func TestComputeSeriesStatsEmpty(t *testing.T) {
	st := ComputeSeriesStats(nil)
	assert.Zero(t, st.SizeMB)
	assert.Zero(t, st.Orders)
}

func TestSeriesStatsLoad(t *testing.T) {
	st := SeriesStats{SizeMB: 900, DurationMin: 135}
	assert.Equal(t, int64(900), st.Load(UnitVolume))
	assert.Equal(t, int64(135), st.Load(UnitTime))
}
