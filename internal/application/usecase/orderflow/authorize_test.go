package orderflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrovod/afrovod/internal/application/usecase/ledger"
	"github.com/afrovod/afrovod/internal/domain/billing"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/member"
	"github.com/afrovod/afrovod/internal/domain/order"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/auth"
	"github.com/afrovod/afrovod/pkg/logger"
)

type fakeMemberRepo struct {
	member.Repository
	members map[string]*member.Member
}

func (f *fakeMemberRepo) FindByUsername(ctx context.Context, username string) (*member.Member, error) {
	m, ok := f.members[username]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	return m, nil
}

// fakeUpdateRepo serves reads from a snapshot taken at construction so a
// test can replay a caller holding a stale view, while writes are checked
// against the stored row like the conditional SQL does.
type fakeUpdateRepo struct {
	order.Repository
	stored   *order.ContentUpdate
	snapshot *order.ContentUpdate
}

func newFakeUpdateRepo(cu *order.ContentUpdate) *fakeUpdateRepo {
	snap := *cu
	return &fakeUpdateRepo{stored: cu, snapshot: &snap}
}

func (f *fakeUpdateRepo) FindPending(ctx context.Context, operatorID uuid.UUID) (*order.ContentUpdate, error) {
	if f.snapshot == nil || f.snapshot.Status != order.StatusPending {
		return nil, order.ErrContentUpdateNotFound
	}
	cp := *f.snapshot
	return &cp, nil
}

func (f *fakeUpdateRepo) UpdateFrom(ctx context.Context, cu *order.ContentUpdate, expected order.Status) error {
	if f.stored == nil || f.stored.ID != cu.ID {
		return order.ErrContentUpdateNotFound
	}
	if f.stored.Status != expected {
		return apperror.NewStateConflict("content update", string(f.stored.Status), string(cu.Status))
	}
	cp := *cu
	f.stored = &cp
	return nil
}

type fakeLedgerRepo struct {
	billing.PrepaymentRepository
	retail *billing.RetailPrepayment
}

func (f *fakeLedgerRepo) LastRetail(ctx context.Context, memberID uuid.UUID) (*billing.RetailPrepayment, error) {
	if f.retail == nil {
		return nil, billing.ErrPrepaymentNotFound
	}
	cp := *f.retail
	return &cp, nil
}

func (f *fakeLedgerRepo) DebitRetailBalance(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	if f.retail == nil || f.retail.ID != id {
		return 0, billing.ErrPrepaymentNotFound
	}
	if f.retail.Balance < amount {
		return f.retail.Balance, billing.ErrInsufficientBalance
	}
	f.retail.Balance -= amount
	return f.retail.Balance, nil
}

// fakeTransactor undoes the ledger write when the wrapped function errors,
// the way a rolled back transaction would.
type fakeTransactor struct {
	ledger    *fakeLedgerRepo
	rollbacks int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	before := f.ledger.retail.Balance
	if err := fn(ctx); err != nil {
		f.ledger.retail.Balance = before
		f.rollbacks++
		return err
	}
	return nil
}

type authorizeFixture struct {
	uc       *AuthorizeUseCase
	updates  *fakeUpdateRepo
	ledger   *fakeLedgerRepo
	tx       *fakeTransactor
	operator *member.Member
}

func newAuthorizeFixture(t *testing.T, update *order.ContentUpdate, balance int64) *authorizeFixture {
	t.Helper()
	hash, err := auth.HashPassword("deliver-pass")
	require.NoError(t, err)

	operator := &member.Member{ID: update.OperatorID, Username: "operator1"}
	provider := &member.Member{ID: uuid.New(), Username: "provider1", PasswordHash: hash, IsProvider: true}
	members := &fakeMemberRepo{members: map[string]*member.Member{
		operator.Username: operator,
		provider.Username: provider,
	}}

	now := time.Now().UTC()
	ledgerRepo := &fakeLedgerRepo{retail: &billing.RetailPrepayment{
		Prepayment: billing.Prepayment{
			ID:        uuid.New(),
			MemberID:  operator.ID,
			Status:    billing.StatusConfirmed,
			PaidOn:    &now,
			CreatedAt: now,
		},
		Balance: balance,
	}}
	updates := newFakeUpdateRepo(update)
	tx := &fakeTransactor{ledger: ledgerRepo}

	debit := ledger.NewDebitRetailUseCase(ledgerRepo, catalog.UnitVolume)
	uc := NewAuthorizeUseCase(members, updates, debit, tx, catalog.UnitVolume, logger.NewZapLogger("test"))
	return &authorizeFixture{uc: uc, updates: updates, ledger: ledgerRepo, tx: tx, operator: operator}
}

func pendingUpdate(t *testing.T) *order.ContentUpdate {
	t.Helper()
	cu := order.New(uuid.New())
	cu.AddItem(order.Item{Kind: catalog.KindMovie, MediaID: 1, Title: "Alpha", Filename: "alpha.mp4", SizeMB: 700, Price: 10})
	cu.AddItem(order.Item{Kind: catalog.KindMovie, MediaID: 2, Title: "Beta", Filename: "beta-1.mp4, beta-2.mp4", SizeMB: 300, Price: 10})
	require.NoError(t, cu.Complete())
	return cu
}

func TestAuthorizeDebitsAndFlips(t *testing.T) {
	f := newAuthorizeFixture(t, pendingUpdate(t), 2000)

	out, err := f.uc.Execute(context.Background(), AuthorizeInput{
		ProviderUsername: "provider1",
		ProviderPassword: "deliver-pass",
		OperatorUsername: "operator1",
		AvailableSpaceMB: 5000,
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusAuthorized, f.updates.stored.Status)
	assert.NotNil(t, f.updates.stored.AuthorizedAt)
	assert.Equal(t, int64(1000), f.ledger.retail.Balance)
	assert.Equal(t, []string{"alpha.mp4", "beta-1.mp4", "beta-2.mp4"}, out.AddList)
}

func TestAuthorizeLostRaceRollsBackDebit(t *testing.T) {
	// The stored row was authorized after this caller read it pending, as
	// happens when two providers submit the same order back to back. The
	// loser's status flip must fail and take its debit down with it.
	update := pendingUpdate(t)
	f := newAuthorizeFixture(t, update, 2000)
	require.NoError(t, f.updates.stored.Authorize(time.Now().UTC()))

	_, err := f.uc.Execute(context.Background(), AuthorizeInput{
		ProviderUsername: "provider1",
		ProviderPassword: "deliver-pass",
		OperatorUsername: "operator1",
		AvailableSpaceMB: 5000,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrStateConflict))
	assert.Equal(t, 1, f.tx.rollbacks)
	assert.Equal(t, int64(2000), f.ledger.retail.Balance, "the debit must not survive the lost flip")
	assert.Equal(t, order.StatusAuthorized, f.updates.stored.Status)
}

func TestAuthorizeInsufficientBalanceLeavesOrderPending(t *testing.T) {
	f := newAuthorizeFixture(t, pendingUpdate(t), 500)

	_, err := f.uc.Execute(context.Background(), AuthorizeInput{
		ProviderUsername: "provider1",
		ProviderPassword: "deliver-pass",
		OperatorUsername: "operator1",
		AvailableSpaceMB: 5000,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInsufficient))
	assert.Equal(t, order.StatusPending, f.updates.stored.Status)
	assert.Equal(t, int64(500), f.ledger.retail.Balance)
}
