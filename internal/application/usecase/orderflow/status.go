package orderflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/order"
	"github.com/afrovod/afrovod/pkg/apperror"
)

// StatusUseCase serves the polling endpoint for background selection and
// sync jobs, and cancels orders that never went out.
type StatusUseCase struct {
	updateRepo order.Repository
}

func NewStatusUseCase(uRepo order.Repository) *StatusUseCase {
	return &StatusUseCase{updateRepo: uRepo}
}

type StatusOutput struct {
	UpdateID   uuid.UUID `json:"update_id"`
	Status     string    `json:"status"`
	Items      int       `json:"items"`
	TotalCost  int64     `json:"total_cost"`
	Size       string    `json:"size"`
	FailReason string    `json:"fail_reason,omitempty"`
}

func (uc *StatusUseCase) Execute(ctx context.Context, updateID uuid.UUID) (*StatusOutput, error) {
	update, err := uc.updateRepo.FindByID(ctx, updateID)
	if err != nil {
		return nil, err
	}
	return &StatusOutput{
		UpdateID:   update.ID,
		Status:     string(update.Status),
		Items:      len(update.AddList),
		TotalCost:  update.TotalCost,
		Size:       update.DisplaySize(),
		FailReason: update.FailReason,
	}, nil
}

// Cancel discards an order that has not been authorized yet.
func (uc *StatusUseCase) Cancel(ctx context.Context, operatorID, updateID uuid.UUID) error {
	update, err := uc.updateRepo.FindByID(ctx, updateID)
	if err != nil {
		return err
	}
	if update.OperatorID != operatorID {
		return apperror.NewPermissionDenied("content update belongs to another operator")
	}
	if update.Status != order.StatusRunning && update.Status != order.StatusPending {
		return apperror.NewStateConflict("content update", string(update.Status), string(order.StatusPending))
	}
	return uc.updateRepo.Delete(ctx, update.ID)
}
