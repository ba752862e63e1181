package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/config"
	"github.com/afrovod/afrovod/internal/domain/billing"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/logger"
)

// CheckoutUseCase opens a pending prepayment for a chosen bundle. Pending
// leftovers from abandoned checkouts are wiped first, preserving the rule
// that the newest prepayment of a kind is the member's current one.
type CheckoutUseCase struct {
	prepaymentRepo billing.PrepaymentRepository
	bundleRepo     billing.BundleRepository
	cfg            config.SalesConfig
	logger         logger.Logger
}

func NewCheckoutUseCase(pRepo billing.PrepaymentRepository, bRepo billing.BundleRepository, cfg config.SalesConfig, log logger.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{
		prepaymentRepo: pRepo,
		bundleRepo:     bRepo,
		cfg:            cfg,
		logger:         log,
	}
}

type CheckoutRetailInput struct {
	MemberID uuid.UUID
	BundleID int64
}

func (uc *CheckoutUseCase) ExecuteRetail(ctx context.Context, input CheckoutRetailInput) (*billing.RetailPrepayment, error) {
	bundle, err := uc.bundleRepo.FindRetailBundle(ctx, input.BundleID)
	if err != nil {
		return nil, err
	}
	if err := uc.prepaymentRepo.DeletePendingByMember(ctx, input.MemberID); err != nil {
		return nil, err
	}
	p := &billing.RetailPrepayment{
		Prepayment: billing.Prepayment{
			ID:           uuid.New(),
			MemberID:     input.MemberID,
			Amount:       bundle.Cost,
			Currency:     uc.cfg.Currency,
			DurationDays: bundle.DurationDays,
			Status:       billing.StatusPending,
			CreatedAt:    time.Now().UTC(),
		},
		Balance:         bundle.Quantity,
		AdultAuthorized: bundle.AdultAuthorized,
	}
	if err := uc.prepaymentRepo.SaveRetail(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type CheckoutVODInput struct {
	MemberID uuid.UUID
	BundleID int64
	TellerID *uuid.UUID
}

func (uc *CheckoutUseCase) ExecuteVOD(ctx context.Context, input CheckoutVODInput) (*billing.VODPrepayment, error) {
	bundle, err := uc.bundleRepo.FindVODBundle(ctx, input.BundleID)
	if err != nil {
		return nil, err
	}
	if err := uc.prepaymentRepo.DeletePendingByMember(ctx, input.MemberID); err != nil {
		return nil, err
	}
	p := &billing.VODPrepayment{
		Prepayment: billing.Prepayment{
			ID:           uuid.New(),
			MemberID:     input.MemberID,
			Amount:       bundle.Cost,
			Currency:     uc.cfg.Currency,
			DurationDays: bundle.DurationDays,
			Status:       billing.StatusPending,
			CreatedAt:    time.Now().UTC(),
		},
		BalanceBytes:    bundle.VolumeMB * 1024 * 1024,
		AdultAuthorized: bundle.AdultAuthorized,
		TellerID:        input.TellerID,
	}
	if err := uc.prepaymentRepo.SaveVOD(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GrantWelcomeOffer seeds a brand-new member with a small confirmed VOD
// balance so the first visit is not a dead end.
func (uc *CheckoutUseCase) GrantWelcomeOffer(ctx context.Context, memberID uuid.UUID) error {
	if uc.cfg.WelcomeOfferMB <= 0 {
		return nil
	}
	now := time.Now().UTC()
	p := &billing.VODPrepayment{
		Prepayment: billing.Prepayment{
			ID:           uuid.New(),
			MemberID:     memberID,
			Amount:       0,
			Currency:     uc.cfg.Currency,
			PaymentMean:  "welcome_offer",
			DurationDays: uc.cfg.WelcomeOfferDays,
			Status:       billing.StatusConfirmed,
			PaidOn:       &now,
			CreatedAt:    now,
		},
		BalanceBytes: uc.cfg.WelcomeOfferMB * 1024 * 1024,
	}
	if err := uc.prepaymentRepo.SaveVOD(ctx, p); err != nil {
		return apperror.NewInternal("failed to grant welcome offer", err)
	}
	uc.logger.Info("Welcome offer granted",
		zap.String("member_id", memberID.String()),
		zap.Int64("volume_mb", uc.cfg.WelcomeOfferMB))
	return nil
}

// ZeroExpired sweeps balances of prepayments past their expiry. Intended to
// run on a schedule from the worker.
func (uc *CheckoutUseCase) ZeroExpired(ctx context.Context) (int64, error) {
	n, err := uc.prepaymentRepo.ZeroExpiredBalances(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.logger.Info("Expired prepayment balances zeroed", zap.Int64("count", n))
	}
	return n, nil
}
