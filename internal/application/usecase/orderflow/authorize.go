package orderflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/application/service"
	"github.com/afrovod/afrovod/internal/application/usecase/ledger"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/member"
	"github.com/afrovod/afrovod/internal/domain/order"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/auth"
	"github.com/afrovod/afrovod/pkg/logger"
)

// AuthorizeUseCase is the provider-side gate of the delivery pipeline. The
// provider presents its credentials, names the operator and how much local
// disk it has; the usecase checks space and balance, debits the retail
// bundle and flips the pending update to authorized. The debit and the flip
// commit together: a flip the usecase lost to a concurrent authorization
// rolls the debit back, so an order can never be paid for twice.
type AuthorizeUseCase struct {
	memberRepo  member.Repository
	updateRepo  order.Repository
	debitRetail *ledger.DebitRetailUseCase
	tx          service.Transactor
	unit        catalog.LoadUnit
	logger      logger.Logger
}

func NewAuthorizeUseCase(mRepo member.Repository, uRepo order.Repository, debitRetail *ledger.DebitRetailUseCase, tx service.Transactor, unit catalog.LoadUnit, log logger.Logger) *AuthorizeUseCase {
	return &AuthorizeUseCase{
		memberRepo:  mRepo,
		updateRepo:  uRepo,
		debitRetail: debitRetail,
		tx:          tx,
		unit:        unit,
		logger:      log,
	}
}

type AuthorizeInput struct {
	ProviderUsername string
	ProviderPassword string
	OperatorUsername string
	AvailableSpaceMB int64
}

type AuthorizeOutput struct {
	UpdateID   string   `json:"update_id"`
	AddList    []string `json:"add_list"`
	DeleteList []string `json:"delete_list"`
}

func (uc *AuthorizeUseCase) Execute(ctx context.Context, input AuthorizeInput) (*AuthorizeOutput, error) {
	provider, err := uc.memberRepo.FindByUsername(ctx, input.ProviderUsername)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, apperror.NewUnauthorized("invalid username or password", nil)
		}
		return nil, err
	}
	if !provider.IsProvider || !auth.CheckPassword(provider.PasswordHash, input.ProviderPassword) {
		return nil, apperror.NewUnauthorized("invalid username or password", nil)
	}

	operator, err := uc.memberRepo.FindByUsername(ctx, input.OperatorUsername)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, apperror.NewNotFound("operator", input.OperatorUsername)
		}
		return nil, err
	}

	update, err := uc.updateRepo.FindPending(ctx, operator.ID)
	if err != nil {
		if errors.Is(err, order.ErrContentUpdateNotFound) {
			return nil, apperror.NewNotFound("pending content update", input.OperatorUsername)
		}
		return nil, err
	}

	addSize := int64(update.TotalSizeMB)
	var deleteSize int64
	for _, it := range update.DeleteList {
		deleteSize += int64(it.SizeMB)
	}
	if input.AvailableSpaceMB+deleteSize < addSize {
		shortfall := addSize - deleteSize - input.AvailableSpaceMB
		return nil, apperror.NewInsufficient(fmt.Sprintf(
			"insufficient space on your server, you need %s more",
			ledger.FormatShortfall(catalog.UnitVolume, shortfall)))
	}

	if err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.debitRetail.Execute(ctx, ledger.DebitRetailInput{
			MemberID: operator.ID,
			Load:     addListLoad(update, uc.unit),
		}); err != nil {
			return err
		}
		if err := update.Authorize(time.Now().UTC()); err != nil {
			return err
		}
		// Conditional on the stored status: a second authorization racing
		// this one finds the row already flipped and rolls its debit back.
		return uc.updateRepo.UpdateFrom(ctx, update, order.StatusPending)
	}); err != nil {
		return nil, err
	}

	uc.logger.Info("Content update authorized",
		zap.String("update_id", update.ID.String()),
		zap.String("operator", operator.Username))

	out := &AuthorizeOutput{UpdateID: update.ID.String()}
	for _, it := range update.AddList {
		for _, name := range splitNames(it.Filename) {
			out.AddList = append(out.AddList, name)
		}
	}
	for _, it := range update.DeleteList {
		for _, name := range splitNames(it.Filename) {
			out.DeleteList = append(out.DeleteList, name)
		}
	}
	return out, nil
}
