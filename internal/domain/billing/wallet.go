package billing

import (
	"context"

	"github.com/google/uuid"
)

// Split is the outcome of dividing a confirmed payment between the
// participants. Shares always sum back to the gross amount.
type Split struct {
	Amount   int64 `json:"amount"`
	Operator int64 `json:"operator"`
	Platform int64 `json:"platform"`
	Partner  int64 `json:"partner"`
}

// SplitPolicy holds the platform commission terms. The fixed component falls
// back to a rate when it alone would exceed a tenth of the amount, so small
// payments are not eaten by the fee.
type SplitPolicy struct {
	ShareRate     float64
	ShareFixed    int64
	FallbackRate  float64
	PartnerTxRate float64
	HasPartner    bool
}

// ComputeSplit divides amount per the policy. Integer arithmetic throughout;
// the operator share absorbs rounding so conservation holds exactly.
func ComputeSplit(amount int64, policy SplitPolicy) Split {
	ratePart := amount * int64(policy.ShareRate*100) / 10000
	fixedPart := policy.ShareFixed
	if fixedPart > amount/10 {
		rate := policy.ShareRate
		if policy.FallbackRate > rate {
			rate = policy.FallbackRate
		}
		fixedPart = amount * int64(rate*100) / 10000
	}
	platform := ratePart + fixedPart

	var partner int64
	if policy.HasPartner {
		partner = platform * int64((100-policy.PartnerTxRate)*100) / 10000
		platform -= partner
	}

	return Split{
		Amount:   amount,
		Operator: amount - platform - partner,
		Platform: platform,
		Partner:  partner,
	}
}

// Wallet identifiers for the fixed ledgers every deployment carries.
const (
	WalletOperator = "operator"
	WalletPlatform = "platform"
	WalletPartner  = "partner"
)

type WalletCounters struct {
	Turnover         int64 `json:"turnover"`
	Earnings         int64 `json:"earnings"`
	TransactionCount int64 `json:"transaction_count"`
}

// WalletRepository applies revenue splits. ApplySplit must be atomic and
// idempotent per payment id: a retried application of the same payment is a
// no-op, and a failure applies none of the legs.
type WalletRepository interface {
	ApplySplit(ctx context.Context, paymentID uuid.UUID, split Split) (applied bool, err error)
	Balance(ctx context.Context, wallet string) (int64, error)
	Counters(ctx context.Context, wallet string) (WalletCounters, error)
	// IncrementMemberCounters tracks per-customer turnover and order counts.
	IncrementMemberCounters(ctx context.Context, memberID uuid.UUID, turnover int64, orders int64) error
}
