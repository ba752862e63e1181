package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/domain/billing"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/streamlog"
	"github.com/afrovod/afrovod/pkg/logger"
)

// DebitStreamUseCase charges streamed bytes against the member's VOD
// prepayment and appends the usage to the stream log.
type DebitStreamUseCase struct {
	prepaymentRepo billing.PrepaymentRepository
	logRepo        streamlog.Repository
	logger         logger.Logger
}

func NewDebitStreamUseCase(pRepo billing.PrepaymentRepository, lRepo streamlog.Repository, log logger.Logger) *DebitStreamUseCase {
	return &DebitStreamUseCase{
		prepaymentRepo: pRepo,
		logRepo:        lRepo,
		logger:         log,
	}
}

type DebitStreamInput struct {
	MemberID    uuid.UUID
	Kind        catalog.MediaKind
	MediaID     int64
	Bytes       int64
	DurationSec int
}

type DebitStreamOutput struct {
	BalanceBytes int64
	// OutOfBalance reports that the debit hit bottom: the balance was
	// clamped to zero instead of going negative.
	OutOfBalance bool
}

func (uc *DebitStreamUseCase) Execute(ctx context.Context, input DebitStreamInput) (*DebitStreamOutput, error) {
	prepayment, err := uc.prepaymentRepo.LastVOD(ctx, input.MemberID, billing.StatusConfirmed)
	if err != nil {
		if errors.Is(err, billing.ErrPrepaymentNotFound) {
			return &DebitStreamOutput{BalanceBytes: 0, OutOfBalance: true}, nil
		}
		return nil, err
	}

	// One clamped decrement in storage instead of read-modify-write, so
	// concurrent stream debits each take their own bite out of the balance.
	balance, err := uc.prepaymentRepo.DebitVODBalance(ctx, prepayment.ID, input.Bytes)
	if err != nil {
		return nil, err
	}
	out := &DebitStreamOutput{BalanceBytes: balance, OutOfBalance: balance == 0}

	entry := &streamlog.Entry{
		ID:          uuid.New(),
		MemberID:    input.MemberID,
		Kind:        input.Kind,
		MediaID:     input.MediaID,
		Bytes:       input.Bytes,
		DurationSec: input.DurationSec,
		Status:      streamlog.StatusSingle,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.logRepo.Append(ctx, entry); err != nil {
		// The debit already went through; history is best effort here.
		uc.logger.Warn("Failed to append stream log entry",
			zap.String("member_id", input.MemberID.String()), zap.Error(err))
	}
	return out, nil
}
