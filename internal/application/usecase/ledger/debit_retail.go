package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/billing"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/pkg/apperror"
)

// DebitRetailUseCase charges a content update's load against the member's
// retail balance. The balance never goes negative: an insufficient balance
// rejects the whole debit with the exact shortfall spelled out for display.
type DebitRetailUseCase struct {
	prepaymentRepo billing.PrepaymentRepository
	unit           catalog.LoadUnit
}

func NewDebitRetailUseCase(pRepo billing.PrepaymentRepository, unit catalog.LoadUnit) *DebitRetailUseCase {
	return &DebitRetailUseCase{prepaymentRepo: pRepo, unit: unit}
}

type DebitRetailInput struct {
	MemberID uuid.UUID
	Load     int64
}

type DebitRetailOutput struct {
	Balance int64
}

func (uc *DebitRetailUseCase) Execute(ctx context.Context, input DebitRetailInput) (*DebitRetailOutput, error) {
	prepayment, err := uc.prepaymentRepo.LastRetail(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}
	if prepayment.Status != billing.StatusConfirmed {
		return nil, apperror.NewInsufficient("no active bundle, please buy one")
	}
	// The decrement is conditional on the stored balance, not on the value
	// read above, so a concurrent debit cannot make this one overspend.
	balance, err := uc.prepaymentRepo.DebitRetailBalance(ctx, prepayment.ID, input.Load)
	if err != nil {
		if errors.Is(err, billing.ErrInsufficientBalance) {
			shortfall := input.Load - balance
			return nil, apperror.NewInsufficient(fmt.Sprintf(
				"insufficient balance, you are missing %s", FormatShortfall(uc.unit, shortfall)))
		}
		return nil, err
	}
	return &DebitRetailOutput{Balance: balance}, nil
}

// Check validates without writing, for the order commit path where the debit
// itself only happens at authorization.
func (uc *DebitRetailUseCase) Check(ctx context.Context, input DebitRetailInput) (*DebitRetailOutput, error) {
	prepayment, err := uc.prepaymentRepo.LastRetail(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}
	if prepayment.Status != billing.StatusConfirmed {
		return nil, apperror.NewInsufficient("no active bundle, please buy one")
	}
	if prepayment.Balance < input.Load {
		shortfall := input.Load - prepayment.Balance
		return nil, apperror.NewInsufficient(fmt.Sprintf(
			"insufficient balance, you are missing %s", FormatShortfall(uc.unit, shortfall)))
	}
	return &DebitRetailOutput{Balance: prepayment.Balance}, nil
}
