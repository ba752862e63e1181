package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/config"
	"github.com/afrovod/afrovod/internal/domain/billing"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/logger"
)

type PrepaymentKind string

const (
	KindRetail PrepaymentKind = "retail"
	KindVOD    PrepaymentKind = "vod"
	KindUnit   PrepaymentKind = "unit"
)

// ConfirmPaymentUseCase settles a pending prepayment: flips it to confirmed
// and splits the gross amount between the operator, the platform and the
// optional retail partner. The split legs land atomically and replays of the
// same payment id are no-ops, so a crashed confirmation can simply be retried.
type ConfirmPaymentUseCase struct {
	prepaymentRepo billing.PrepaymentRepository
	walletRepo     billing.WalletRepository
	cfg            config.SalesConfig
	logger         logger.Logger
}

func NewConfirmPaymentUseCase(pRepo billing.PrepaymentRepository, wRepo billing.WalletRepository, cfg config.SalesConfig, log logger.Logger) *ConfirmPaymentUseCase {
	return &ConfirmPaymentUseCase{
		prepaymentRepo: pRepo,
		walletRepo:     wRepo,
		cfg:            cfg,
		logger:         log,
	}
}

type ConfirmPaymentInput struct {
	PrepaymentID uuid.UUID
	Kind         PrepaymentKind
	PaymentMean  string
}

type ConfirmPaymentOutput struct {
	Split billing.Split
}

func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, input ConfirmPaymentInput) (*ConfirmPaymentOutput, error) {
	now := time.Now().UTC()

	var base *billing.Prepayment
	var update func(context.Context) error
	switch input.Kind {
	case KindRetail:
		p, err := uc.prepaymentRepo.FindRetail(ctx, input.PrepaymentID)
		if err != nil {
			return nil, err
		}
		base = &p.Prepayment
		update = func(ctx context.Context) error { return uc.prepaymentRepo.UpdateRetail(ctx, p) }
	case KindVOD:
		p, err := uc.prepaymentRepo.FindVOD(ctx, input.PrepaymentID)
		if err != nil {
			return nil, err
		}
		base = &p.Prepayment
		update = func(ctx context.Context) error { return uc.prepaymentRepo.UpdateVOD(ctx, p) }
	case KindUnit:
		p, err := uc.prepaymentRepo.FindUnit(ctx, input.PrepaymentID)
		if err != nil {
			return nil, err
		}
		base = &p.Prepayment
		update = func(ctx context.Context) error { return uc.prepaymentRepo.UpdateUnit(ctx, p) }
	default:
		return nil, apperror.NewInvalidInput("unknown prepayment kind", errors.New(string(input.Kind)))
	}

	if base.Status == billing.StatusConfirmed {
		return nil, apperror.NewStateConflict("prepayment", string(base.Status), string(billing.StatusConfirmed))
	}

	base.Confirm(now)
	base.PaymentMean = input.PaymentMean
	if err := update(ctx); err != nil {
		return nil, err
	}

	split := billing.ComputeSplit(base.Amount, billing.SplitPolicy{
		ShareRate:     uc.cfg.ShareRate,
		ShareFixed:    uc.cfg.ShareFixed,
		FallbackRate:  uc.cfg.FallbackRate,
		PartnerTxRate: uc.cfg.PartnerTxRate,
		HasPartner:    uc.cfg.HasPartner,
	})

	applied, err := uc.walletRepo.ApplySplit(ctx, base.ID, split)
	if err != nil {
		return nil, apperror.NewInternal("failed to apply revenue split", err)
	}
	if !applied {
		uc.logger.Warn("Revenue split already applied", zap.String("payment_id", base.ID.String()))
	}
	if err := uc.walletRepo.IncrementMemberCounters(ctx, base.MemberID, base.Amount, 1); err != nil {
		uc.logger.Warn("Failed to bump member counters",
			zap.String("member_id", base.MemberID.String()), zap.Error(err))
	}

	uc.logger.Info("Payment confirmed",
		zap.String("payment_id", base.ID.String()),
		zap.Int64("amount", split.Amount),
		zap.Int64("operator_share", split.Operator),
		zap.Int64("platform_share", split.Platform),
		zap.Int64("partner_share", split.Partner))

	return &ConfirmPaymentOutput{Split: split}, nil
}
