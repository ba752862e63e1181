package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/application/usecase/ledger"
	"github.com/afrovod/afrovod/internal/domain/member"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/auth"
	"github.com/afrovod/afrovod/pkg/logger"
)

type RegisterUseCase struct {
	memberRepo member.Repository
	checkout   *ledger.CheckoutUseCase
	jwtService *auth.JWTService
	logger     logger.Logger
}

func NewRegisterUseCase(mRepo member.Repository, checkout *ledger.CheckoutUseCase, jwtSvc *auth.JWTService, log logger.Logger) *RegisterUseCase {
	return &RegisterUseCase{
		memberRepo: mRepo,
		checkout:   checkout,
		jwtService: jwtSvc,
		logger:     log,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	City     string
}

type RegisterOutput struct {
	MemberID    uuid.UUID
	AccessToken string
}

func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if input.Username == "" || input.Password == "" {
		return nil, apperror.NewInvalidInput("username and password are required", nil)
	}
	if _, err := uc.memberRepo.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperror.NewConflict("member", "username", input.Username)
	} else if !errors.Is(err, member.ErrMemberNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	m := &member.Member{
		ID:           uuid.New(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
		City:         input.City,
	}
	if err := uc.memberRepo.Save(ctx, m); err != nil {
		return nil, err
	}

	if err := uc.checkout.GrantWelcomeOffer(ctx, m.ID); err != nil {
		// The account exists; the offer can be granted manually later.
		uc.logger.Warn("Welcome offer grant failed", zap.String("member_id", m.ID.String()), zap.Error(err))
	}

	token, err := uc.jwtService.GenerateToken(m.ID)
	if err != nil {
		return nil, err
	}
	return &RegisterOutput{MemberID: m.ID, AccessToken: token}, nil
}
