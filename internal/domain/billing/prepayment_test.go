package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

func TestExpiryUnpaidAlwaysComparesExpired(t *testing.T) {
	now := time.Now().UTC()
	p := Prepayment{DurationDays: 30, Status: StatusPending}

	assert.True(t, p.Expiry(now).Before(now))
	assert.Equal(t, now.Add(-48*time.Hour), p.Expiry(now))
}

func TestExpiryPaid(t *testing.T) {
	now := time.Now().UTC()
	paid := now.Add(-10 * 24 * time.Hour)
	p := Prepayment{DurationDays: 30, Status: StatusConfirmed, PaidOn: &paid}

	assert.Equal(t, paid.Add(30*24*time.Hour), p.Expiry(now))
	assert.False(t, p.Expiry(now).Before(now))
}

func TestDaysLeft(t *testing.T) {
	now := time.Now().UTC()

	unpaid := Prepayment{DurationDays: 30}
	assert.Equal(t, DaysLeftUnpaid, unpaid.DaysLeft(now))
	assert.Negative(t, unpaid.DaysLeft(now))

	paid := now.Add(-10 * 24 * time.Hour)
	p := Prepayment{DurationDays: 30, PaidOn: &paid}
	assert.Equal(t, 20, p.DaysLeft(now))

	exhausted := now.Add(-31 * 24 * time.Hour)
	e := Prepayment{DurationDays: 30, PaidOn: &exhausted}
	assert.Equal(t, -1, e.DaysLeft(now))
}

func TestConfirm(t *testing.T) {
	now := time.Now().UTC()
	p := Prepayment{Status: StatusPending}

	p.Confirm(now)

	assert.Equal(t, StatusConfirmed, p.Status)
	assert.Equal(t, now, *p.PaidOn)
}

func TestUnitPrepaymentCovers(t *testing.T) {
	moviePurchase := UnitPrepayment{MediaKind: catalog.KindMovie, MediaID: 5}
	assert.True(t, moviePurchase.Covers(catalog.KindMovie, 5, 0))
	assert.False(t, moviePurchase.Covers(catalog.KindMovie, 6, 0))
	assert.False(t, moviePurchase.Covers(catalog.KindEpisode, 5, 5))

	seriesPurchase := UnitPrepayment{MediaKind: catalog.KindSeries, MediaID: 9}
	assert.True(t, seriesPurchase.Covers(catalog.KindEpisode, 42, 9), "a series purchase covers its episodes")
	assert.False(t, seriesPurchase.Covers(catalog.KindEpisode, 42, 10))
	assert.False(t, seriesPurchase.Covers(catalog.KindMovie, 9, 0))
}
