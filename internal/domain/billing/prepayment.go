package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
)

var (
	ErrPrepaymentNotFound = errors.New("prepayment not found")
	ErrBundleNotFound     = errors.New("bundle not found")
	// ErrInsufficientBalance is returned by a conditional debit whose stored
	// balance no longer covers the amount.
	ErrInsufficientBalance = errors.New("insufficient prepayment balance")
)

// DaysLeftUnpaid is returned by DaysLeft for a prepayment that was never
// paid: unusable by numeric comparison, yet distinct from a paid bundle that
// genuinely ran out of days.
const DaysLeftUnpaid = -1

// Prepayment is the common bookkeeping of all three purchase kinds. The
// "current" prepayment of a member for a kind is the most recently created
// one; older ones are history.
type Prepayment struct {
	ID           uuid.UUID  `json:"id"`
	MemberID     uuid.UUID  `json:"member_id"`
	Amount       int64      `json:"amount"`
	PaidOn       *time.Time `json:"paid_on"`
	Currency     string     `json:"currency"`
	PaymentMean  string     `json:"payment_mean"`
	DurationDays int        `json:"duration_days"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Expiry computes when the prepayment stops being usable. An unpaid
// prepayment reports two days in the past so it always compares as expired.
func (p *Prepayment) Expiry(now time.Time) time.Time {
	if p.PaidOn == nil {
		return now.Add(-48 * time.Hour)
	}
	return p.PaidOn.Add(time.Duration(p.DurationDays) * 24 * time.Hour)
}

// DaysLeft counts down from the payment date. The counter only starts upon
// payment; see DaysLeftUnpaid.
func (p *Prepayment) DaysLeft(now time.Time) int {
	if p.PaidOn == nil {
		return DaysLeftUnpaid
	}
	spent := int(now.Sub(*p.PaidOn).Hours() / 24)
	return p.DurationDays - spent
}

func (p *Prepayment) Confirm(now time.Time) {
	p.Status = StatusConfirmed
	p.PaidOn = &now
}

// RetailPrepayment is the content-vendor quota: a balance of megabytes or
// broadcasting hours that catalog update orders are debited against.
type RetailPrepayment struct {
	Prepayment
	Balance         int64 `json:"balance"`
	AdultAuthorized bool  `json:"adult_authorized"`
}

// VODPrepayment meters streaming: the balance is in bytes.
type VODPrepayment struct {
	Prepayment
	BalanceBytes    int64      `json:"balance_bytes"`
	AdultAuthorized bool       `json:"adult_authorized"`
	TellerID        *uuid.UUID `json:"teller_id"`
}

// UnitPrepayment grants time-boxed access to a single movie or series.
// It expires at a fixed timestamp instead of holding a balance.
type UnitPrepayment struct {
	Prepayment
	MediaKind    catalog.MediaKind `json:"media_kind"`
	MediaID      int64             `json:"media_id"`
	ExpiresAt    *time.Time        `json:"expires_at"`
	TellerID     *uuid.UUID        `json:"teller_id"`
	DownloadLink string            `json:"download_link"`
}

// Covers reports whether this purchase grants access to the given media.
// A series purchase covers every episode of the series.
func (u *UnitPrepayment) Covers(kind catalog.MediaKind, mediaID, seriesID int64) bool {
	if u.MediaKind == catalog.KindMovie {
		return kind == catalog.KindMovie && u.MediaID == mediaID
	}
	return kind != catalog.KindMovie && u.MediaID == seriesID
}

type RetailBundle struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Quantity        int64  `json:"quantity"`
	Cost            int64  `json:"cost"`
	AdultAuthorized bool   `json:"adult_authorized"`
	DurationDays    int    `json:"duration_days"`
	Comment         string `json:"comment"`
}

type VODBundle struct {
	ID              int64  `json:"id"`
	VolumeMB        int64  `json:"volume_mb"`
	Cost            int64  `json:"cost"`
	DurationDays    int    `json:"duration_days"`
	AdultAuthorized bool   `json:"adult_authorized"`
	Comment         string `json:"comment"`
}
