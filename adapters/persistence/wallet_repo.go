package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/billing"
)

type postgresWalletRepo struct {
	db *pgxpool.Pool
}

func NewPostgresWalletRepo(db *pgxpool.Pool) billing.WalletRepository {
	return &postgresWalletRepo{db: db}
}

// ApplySplit runs all legs in one transaction. The applied_splits insert
// doubles as the idempotency guard: its primary key is the payment id, so a
// replay aborts before any balance moves.
func (r *postgresWalletRepo) ApplySplit(ctx context.Context, paymentID uuid.UUID, split billing.Split) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to begin split transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO applied_splits (payment_id, amount, operator_share, platform_share, partner_share, applied_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		paymentID, split.Amount, split.Operator, split.Platform, split.Partner)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("failed to record split: %w", err)
	}

	legs := []struct {
		wallet string
		amount int64
	}{
		{billing.WalletOperator, split.Operator},
		{billing.WalletPlatform, split.Platform},
		{billing.WalletPartner, split.Partner},
	}
	for _, leg := range legs {
		if leg.amount == 0 {
			continue
		}
		cmdTag, err := tx.Exec(ctx, `
			UPDATE wallets SET
				balance = balance + $2,
				turnover = turnover + $3,
				earnings = earnings + $2,
				transaction_count = transaction_count + 1
			WHERE name = $1`,
			leg.wallet, leg.amount, split.Amount)
		if err != nil {
			return false, fmt.Errorf("failed to credit %s wallet: %w", leg.wallet, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return false, fmt.Errorf("wallet %s does not exist", leg.wallet)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit split transaction: %w", err)
	}
	return true, nil
}

func (r *postgresWalletRepo) Balance(ctx context.Context, wallet string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE name = $1`, wallet).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("wallet %s does not exist", wallet)
		}
		return 0, fmt.Errorf("failed to read wallet balance: %w", err)
	}
	return balance, nil
}

func (r *postgresWalletRepo) Counters(ctx context.Context, wallet string) (billing.WalletCounters, error) {
	var c billing.WalletCounters
	err := r.db.QueryRow(ctx,
		`SELECT turnover, earnings, transaction_count FROM wallets WHERE name = $1`, wallet).
		Scan(&c.Turnover, &c.Earnings, &c.TransactionCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, fmt.Errorf("wallet %s does not exist", wallet)
		}
		return c, fmt.Errorf("failed to read wallet counters: %w", err)
	}
	return c, nil
}

func (r *postgresWalletRepo) IncrementMemberCounters(ctx context.Context, memberID uuid.UUID, turnover int64, orders int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO member_counters (member_id, turnover, orders)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id) DO UPDATE SET
			turnover = member_counters.turnover + EXCLUDED.turnover,
			orders = member_counters.orders + EXCLUDED.orders`,
		memberID, turnover, orders)
	if err != nil {
		return fmt.Errorf("failed to bump member counters: %w", err)
	}
	return nil
}
