package auth

import (
	"context"
	"errors"

	"github.com/afrovod/afrovod/internal/domain/member"
	"github.com/afrovod/afrovod/pkg/auth"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type LoginUseCase struct {
	memberRepo member.Repository
	jwtService *auth.JWTService
}

func NewLoginUseCase(mRepo member.Repository, jwtSvc *auth.JWTService) *LoginUseCase {
	return &LoginUseCase{
		memberRepo: mRepo,
		jwtService: jwtSvc,
	}
}

type LoginInput struct {
	Username string
	Password string
}

type LoginOutput struct {
	AccessToken string
	Username    string
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	m, err := uc.memberRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(m.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := uc.jwtService.GenerateToken(m.ID)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{AccessToken: token, Username: m.Username}, nil
}
