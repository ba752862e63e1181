package member

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrMemberNotFound = errors.New("member not found")

// Member is a platform account: a viewer, an operator buying catalog
// updates, or a provider. Operators carry the identifier of their own
// storefront so deliveries know which catalog mirror to write.
type Member struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         *string   `json:"name"`
	PasswordHash string    `json:"-"`
	// AdultAuthorized is the profile-level opt-in. Access additionally
	// requires an adult-authorized bundle for non-operators.
	AdultAuthorized bool    `json:"adult_authorized"`
	OperatorSiteID  *string `json:"operator_site_id"`
	IsProvider      bool    `json:"is_provider"`
	City            string  `json:"city"`
}

func (m *Member) IsOperator() bool {
	return m.OperatorSiteID != nil && *m.OperatorSiteID != ""
}

type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*Member, error)
	FindByUsername(ctx context.Context, username string) (*Member, error)
	Save(ctx context.Context, m *Member) error
	Update(ctx context.Context, m *Member) error
}
