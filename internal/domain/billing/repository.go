package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PrepaymentRepository interface {
	// LastRetail returns the most recently created retail prepayment of the
	// member, or ErrPrepaymentNotFound.
	LastRetail(ctx context.Context, memberID uuid.UUID) (*RetailPrepayment, error)
	// LastVOD returns the most recently created VOD prepayment, optionally
	// filtered by status ("" means any).
	LastVOD(ctx context.Context, memberID uuid.UUID, status Status) (*VODPrepayment, error)
	// ListActiveUnits returns confirmed unit prepayments of the member whose
	// expiry is in the future.
	ListActiveUnits(ctx context.Context, memberID uuid.UUID, now time.Time) ([]*UnitPrepayment, error)

	FindRetail(ctx context.Context, id uuid.UUID) (*RetailPrepayment, error)
	FindVOD(ctx context.Context, id uuid.UUID) (*VODPrepayment, error)
	FindUnit(ctx context.Context, id uuid.UUID) (*UnitPrepayment, error)

	SaveRetail(ctx context.Context, p *RetailPrepayment) error
	SaveVOD(ctx context.Context, p *VODPrepayment) error
	SaveUnit(ctx context.Context, p *UnitPrepayment) error
	UpdateRetail(ctx context.Context, p *RetailPrepayment) error
	UpdateVOD(ctx context.Context, p *VODPrepayment) error
	UpdateUnit(ctx context.Context, p *UnitPrepayment) error

	// DebitRetailBalance subtracts amount from the stored balance in one
	// conditional write: the debit happens only if the stored balance still
	// covers it, so concurrent debits can never spend the same balance
	// twice. Returns the balance after the debit, or the stored balance
	// with ErrInsufficientBalance when it does not cover the amount.
	DebitRetailBalance(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
	// DebitVODBalance subtracts bytes from the stored byte balance in one
	// write, clamping at zero, and returns the new balance.
	DebitVODBalance(ctx context.Context, id uuid.UUID, bytes int64) (int64, error)

	// DeletePendingByMember wipes prepayments left over from abandoned
	// checkouts before a new one starts.
	DeletePendingByMember(ctx context.Context, memberID uuid.UUID) error
	// ZeroExpiredBalances brings the balance of every confirmed prepayment
	// past its expiry back to zero. Run periodically.
	ZeroExpiredBalances(ctx context.Context, now time.Time) (int64, error)
}

type BundleRepository interface {
	FindRetailBundle(ctx context.Context, id int64) (*RetailBundle, error)
	FindVODBundle(ctx context.Context, id int64) (*VODBundle, error)
	ListRetailBundles(ctx context.Context) ([]*RetailBundle, error)
	ListVODBundles(ctx context.Context) ([]*VODBundle, error)
	// CheapestAdultVODBundle names the minimum qualifying bundle in
	// adult-content gating messages, or ErrBundleNotFound.
	CheapestAdultVODBundle(ctx context.Context) (*VODBundle, error)
}
