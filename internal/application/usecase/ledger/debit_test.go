package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrovod/afrovod/internal/domain/billing"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/streamlog"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/logger"
)

// fakePrepaymentRepo keeps at most one prepayment per kind, which matches
// how the debit paths read them.
type fakePrepaymentRepo struct {
	retail *billing.RetailPrepayment
	vod    *billing.VODPrepayment
	units  []*billing.UnitPrepayment

	// staleRetailBalance, when set, is the balance reads report regardless
	// of the stored value. Replays a debit whose read raced another writer.
	staleRetailBalance *int64
}

func (f *fakePrepaymentRepo) LastRetail(ctx context.Context, memberID uuid.UUID) (*billing.RetailPrepayment, error) {
	if f.retail == nil {
		return nil, billing.ErrPrepaymentNotFound
	}
	if f.staleRetailBalance != nil {
		stale := *f.retail
		stale.Balance = *f.staleRetailBalance
		return &stale, nil
	}
	return f.retail, nil
}

func (f *fakePrepaymentRepo) LastVOD(ctx context.Context, memberID uuid.UUID, status billing.Status) (*billing.VODPrepayment, error) {
	if f.vod == nil || (status != "" && f.vod.Status != status) {
		return nil, billing.ErrPrepaymentNotFound
	}
	return f.vod, nil
}

func (f *fakePrepaymentRepo) ListActiveUnits(ctx context.Context, memberID uuid.UUID, now time.Time) ([]*billing.UnitPrepayment, error) {
	return f.units, nil
}

func (f *fakePrepaymentRepo) FindRetail(ctx context.Context, id uuid.UUID) (*billing.RetailPrepayment, error) {
	return f.LastRetail(ctx, uuid.Nil)
}

func (f *fakePrepaymentRepo) FindVOD(ctx context.Context, id uuid.UUID) (*billing.VODPrepayment, error) {
	return f.LastVOD(ctx, uuid.Nil, "")
}

func (f *fakePrepaymentRepo) FindUnit(ctx context.Context, id uuid.UUID) (*billing.UnitPrepayment, error) {
	for _, u := range f.units {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, billing.ErrPrepaymentNotFound
}

func (f *fakePrepaymentRepo) SaveRetail(ctx context.Context, p *billing.RetailPrepayment) error {
	f.retail = p
	return nil
}

func (f *fakePrepaymentRepo) SaveVOD(ctx context.Context, p *billing.VODPrepayment) error {
	f.vod = p
	return nil
}

func (f *fakePrepaymentRepo) SaveUnit(ctx context.Context, p *billing.UnitPrepayment) error {
	f.units = append(f.units, p)
	return nil
}

func (f *fakePrepaymentRepo) UpdateRetail(ctx context.Context, p *billing.RetailPrepayment) error {
	f.retail = p
	return nil
}

func (f *fakePrepaymentRepo) UpdateVOD(ctx context.Context, p *billing.VODPrepayment) error {
	f.vod = p
	return nil
}

func (f *fakePrepaymentRepo) UpdateUnit(ctx context.Context, p *billing.UnitPrepayment) error {
	return nil
}

// DebitRetailBalance mirrors the conditional SQL decrement: the check runs
// against the stored balance, never against what a caller read earlier.
func (f *fakePrepaymentRepo) DebitRetailBalance(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	if f.retail == nil || f.retail.ID != id {
		return 0, billing.ErrPrepaymentNotFound
	}
	if f.retail.Balance < amount {
		return f.retail.Balance, billing.ErrInsufficientBalance
	}
	f.retail.Balance -= amount
	return f.retail.Balance, nil
}

func (f *fakePrepaymentRepo) DebitVODBalance(ctx context.Context, id uuid.UUID, bytes int64) (int64, error) {
	if f.vod == nil || f.vod.ID != id {
		return 0, billing.ErrPrepaymentNotFound
	}
	f.vod.BalanceBytes -= bytes
	if f.vod.BalanceBytes < 0 {
		f.vod.BalanceBytes = 0
	}
	return f.vod.BalanceBytes, nil
}

func (f *fakePrepaymentRepo) DeletePendingByMember(ctx context.Context, memberID uuid.UUID) error {
	if f.retail != nil && f.retail.Status == billing.StatusPending {
		f.retail = nil
	}
	if f.vod != nil && f.vod.Status == billing.StatusPending {
		f.vod = nil
	}
	return nil
}

func (f *fakePrepaymentRepo) ZeroExpiredBalances(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeStreamLogRepo struct {
	entries []streamlog.Entry
}

func (f *fakeStreamLogRepo) Append(ctx context.Context, e *streamlog.Entry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeStreamLogRepo) ListByMember(ctx context.Context, memberID uuid.UUID) ([]streamlog.Entry, error) {
	return f.entries, nil
}

func (f *fakeStreamLogRepo) ReplaceForMember(ctx context.Context, memberID uuid.UUID, kept []streamlog.Entry, deleted []uuid.UUID) error {
	f.entries = kept
	return nil
}

func confirmedRetail(balance int64) *billing.RetailPrepayment {
	now := time.Now().UTC()
	return &billing.RetailPrepayment{
		Prepayment: billing.Prepayment{
			ID:           uuid.New(),
			MemberID:     uuid.New(),
			Status:       billing.StatusConfirmed,
			PaidOn:       &now,
			DurationDays: 30,
			CreatedAt:    now,
		},
		Balance: balance,
	}
}

func TestDebitRetailHappyPath(t *testing.T) {
	repo := &fakePrepaymentRepo{retail: confirmedRetail(500)}
	uc := NewDebitRetailUseCase(repo, catalog.UnitVolume)

	out, err := uc.Execute(context.Background(), DebitRetailInput{MemberID: repo.retail.MemberID, Load: 300})

	require.NoError(t, err)
	assert.Equal(t, int64(200), out.Balance)
	assert.Equal(t, int64(200), repo.retail.Balance)
}

func TestDebitRetailRejectsShortfall(t *testing.T) {
	repo := &fakePrepaymentRepo{retail: confirmedRetail(500)}
	uc := NewDebitRetailUseCase(repo, catalog.UnitVolume)

	_, err := uc.Execute(context.Background(), DebitRetailInput{MemberID: repo.retail.MemberID, Load: 600})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInsufficient))
	assert.Contains(t, err.Error(), "100 MB")
	assert.Equal(t, int64(500), repo.retail.Balance, "a rejected debit must not touch the balance")
}

func TestDebitRetailStaleReadCannotOverspend(t *testing.T) {
	// The stored balance dropped to 100 after this caller read 500, as if a
	// concurrent debit landed between the read and the write. The decrement
	// must honor the stored value, not the snapshot.
	repo := &fakePrepaymentRepo{retail: confirmedRetail(100)}
	stale := int64(500)
	repo.staleRetailBalance = &stale
	uc := NewDebitRetailUseCase(repo, catalog.UnitVolume)

	_, err := uc.Execute(context.Background(), DebitRetailInput{MemberID: repo.retail.MemberID, Load: 300})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInsufficient))
	assert.Contains(t, err.Error(), "200 MB")
	assert.Equal(t, int64(100), repo.retail.Balance, "a lost race must leave the stored balance alone")
}

func TestDebitRetailSequentialDebitsShareOneBalance(t *testing.T) {
	repo := &fakePrepaymentRepo{retail: confirmedRetail(200)}
	uc := NewDebitRetailUseCase(repo, catalog.UnitVolume)

	out, err := uc.Execute(context.Background(), DebitRetailInput{MemberID: repo.retail.MemberID, Load: 150})
	require.NoError(t, err)
	assert.Equal(t, int64(50), out.Balance)

	_, err = uc.Execute(context.Background(), DebitRetailInput{MemberID: repo.retail.MemberID, Load: 150})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInsufficient))
	assert.Equal(t, int64(50), repo.retail.Balance)
}

func TestDebitRetailRejectsUnconfirmedBundle(t *testing.T) {
	p := confirmedRetail(500)
	p.Status = billing.StatusPending
	repo := &fakePrepaymentRepo{retail: p}
	uc := NewDebitRetailUseCase(repo, catalog.UnitVolume)

	_, err := uc.Execute(context.Background(), DebitRetailInput{MemberID: p.MemberID, Load: 100})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInsufficient))
}

func TestDebitRetailCheckDoesNotWrite(t *testing.T) {
	repo := &fakePrepaymentRepo{retail: confirmedRetail(500)}
	uc := NewDebitRetailUseCase(repo, catalog.UnitVolume)

	out, err := uc.Check(context.Background(), DebitRetailInput{MemberID: repo.retail.MemberID, Load: 300})

	require.NoError(t, err)
	assert.Equal(t, int64(500), out.Balance)
	assert.Equal(t, int64(500), repo.retail.Balance)
}

func confirmedVOD(balanceBytes int64) *billing.VODPrepayment {
	now := time.Now().UTC()
	return &billing.VODPrepayment{
		Prepayment: billing.Prepayment{
			ID:           uuid.New(),
			MemberID:     uuid.New(),
			Status:       billing.StatusConfirmed,
			PaidOn:       &now,
			DurationDays: 30,
			CreatedAt:    now,
		},
		BalanceBytes: balanceBytes,
	}
}

func TestDebitStreamDecrements(t *testing.T) {
	repo := &fakePrepaymentRepo{vod: confirmedVOD(1000)}
	logRepo := &fakeStreamLogRepo{}
	uc := NewDebitStreamUseCase(repo, logRepo, logger.NewZapLogger("test"))

	out, err := uc.Execute(context.Background(), DebitStreamInput{
		MemberID: repo.vod.MemberID,
		Kind:     catalog.KindMovie,
		MediaID:  1,
		Bytes:    400,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(600), out.BalanceBytes)
	assert.False(t, out.OutOfBalance)
	require.Len(t, logRepo.entries, 1)
	assert.Equal(t, int64(400), logRepo.entries[0].Bytes)
	assert.Equal(t, streamlog.StatusSingle, logRepo.entries[0].Status)
}

func TestDebitStreamClampsAtZero(t *testing.T) {
	repo := &fakePrepaymentRepo{vod: confirmedVOD(300)}
	uc := NewDebitStreamUseCase(repo, &fakeStreamLogRepo{}, logger.NewZapLogger("test"))

	out, err := uc.Execute(context.Background(), DebitStreamInput{
		MemberID: repo.vod.MemberID,
		Kind:     catalog.KindMovie,
		MediaID:  1,
		Bytes:    500,
	})

	require.NoError(t, err)
	assert.Zero(t, out.BalanceBytes)
	assert.True(t, out.OutOfBalance)
	assert.Zero(t, repo.vod.BalanceBytes, "the balance never goes negative")
}

func TestDebitStreamWithoutBundle(t *testing.T) {
	uc := NewDebitStreamUseCase(&fakePrepaymentRepo{}, &fakeStreamLogRepo{}, logger.NewZapLogger("test"))

	out, err := uc.Execute(context.Background(), DebitStreamInput{
		MemberID: uuid.New(),
		Kind:     catalog.KindMovie,
		MediaID:  1,
		Bytes:    100,
	})

	require.NoError(t, err)
	assert.Zero(t, out.BalanceBytes)
	assert.True(t, out.OutOfBalance)
}
