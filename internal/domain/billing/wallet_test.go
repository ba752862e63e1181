package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertConserved(t *testing.T, s Split) {
	t.Helper()
	assert.Equal(t, s.Amount, s.Operator+s.Platform+s.Partner, "shares must sum to the gross amount")
}

func TestComputeSplitRateAndFixed(t *testing.T) {
	s := ComputeSplit(10000, SplitPolicy{ShareRate: 10, ShareFixed: 500})

	// 10% rate part plus the fixed fee.
	assert.Equal(t, int64(1500), s.Platform)
	assert.Equal(t, int64(8500), s.Operator)
	assert.Zero(t, s.Partner)
	assertConserved(t, s)
}

func TestComputeSplitFixedFallsBackOnSmallAmounts(t *testing.T) {
	// Fixed fee of 500 against an amount of 1000 would eat half the
	// payment; the fallback rate replaces it.
	s := ComputeSplit(1000, SplitPolicy{ShareRate: 2, ShareFixed: 500, FallbackRate: 3})

	// 2% rate part (20) plus 3% fallback in place of the fixed fee (30).
	assert.Equal(t, int64(50), s.Platform)
	assert.Equal(t, int64(950), s.Operator)
	assertConserved(t, s)
}

func TestComputeSplitFallbackUsesLargerOfRates(t *testing.T) {
	// When the share rate already exceeds the fallback rate, the fallback
	// does not lower the fee.
	s := ComputeSplit(1000, SplitPolicy{ShareRate: 5, ShareFixed: 500, FallbackRate: 3})

	assert.Equal(t, int64(100), s.Platform) // 5% + 5%
	assertConserved(t, s)
}

func TestComputeSplitWithPartner(t *testing.T) {
	s := ComputeSplit(10000, SplitPolicy{
		ShareRate:     10,
		ShareFixed:    500,
		HasPartner:    true,
		PartnerTxRate: 60,
	})

	// Gross platform share is 1500; the partner keeps all but the 60%
	// transaction rate of it.
	assert.Equal(t, int64(600), s.Partner)
	assert.Equal(t, int64(900), s.Platform)
	assert.Equal(t, int64(8500), s.Operator)
	assertConserved(t, s)
}

func TestComputeSplitConservationUnderRounding(t *testing.T) {
	policies := []SplitPolicy{
		{ShareRate: 7.5, ShareFixed: 33},
		{ShareRate: 3.33, ShareFixed: 1000, FallbackRate: 4.17},
		{ShareRate: 12.5, ShareFixed: 99, HasPartner: true, PartnerTxRate: 41.7},
	}
	amounts := []int64{1, 7, 99, 1001, 54321, 999999}

	for _, policy := range policies {
		for _, amount := range amounts {
			s := ComputeSplit(amount, policy)
			assertConserved(t, s)
			assert.GreaterOrEqual(t, s.Platform, int64(0))
			assert.GreaterOrEqual(t, s.Partner, int64(0))
		}
	}
}
