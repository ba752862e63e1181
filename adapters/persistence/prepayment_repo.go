package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/billing"
)

// All three prepayment kinds share one table discriminated by kind; the
// newest row per member and kind is the member's current prepayment.
type postgresPrepaymentRepo struct {
	db *pgxpool.Pool
}

func NewPostgresPrepaymentRepo(db *pgxpool.Pool) billing.PrepaymentRepository {
	return &postgresPrepaymentRepo{db: db}
}

const prepaymentColumns = `id, member_id, amount, paid_on, currency, payment_mean,
	duration_days, status, created_at, balance, balance_bytes, adult_authorized,
	teller_id, media_kind, media_id, expires_at, download_link`

func scanBase(row pgx.Row, dest *billing.Prepayment, extras ...any) error {
	fields := append([]any{
		&dest.ID, &dest.MemberID, &dest.Amount, &dest.PaidOn, &dest.Currency,
		&dest.PaymentMean, &dest.DurationDays, &dest.Status, &dest.CreatedAt,
	}, extras...)
	if err := row.Scan(fields...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.ErrPrepaymentNotFound
		}
		return fmt.Errorf("failed to scan prepayment row: %w", err)
	}
	return nil
}

func scanRetail(row pgx.Row) (*billing.RetailPrepayment, error) {
	p := &billing.RetailPrepayment{}
	var balanceBytes *int64
	var tellerID *uuid.UUID
	var mediaKind, downloadLink *string
	var mediaID *int64
	var expiresAt *time.Time
	err := scanBase(row, &p.Prepayment,
		&p.Balance, &balanceBytes, &p.AdultAuthorized,
		&tellerID, &mediaKind, &mediaID, &expiresAt, &downloadLink)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanVOD(row pgx.Row) (*billing.VODPrepayment, error) {
	p := &billing.VODPrepayment{}
	var balance *int64
	var mediaKind, downloadLink *string
	var mediaID *int64
	var expiresAt *time.Time
	err := scanBase(row, &p.Prepayment,
		&balance, &p.BalanceBytes, &p.AdultAuthorized,
		&p.TellerID, &mediaKind, &mediaID, &expiresAt, &downloadLink)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanUnit(row pgx.Row) (*billing.UnitPrepayment, error) {
	p := &billing.UnitPrepayment{}
	var balance, balanceBytes *int64
	var adultAuthorized *bool
	var downloadLink *string
	err := scanBase(row, &p.Prepayment,
		&balance, &balanceBytes, &adultAuthorized,
		&p.TellerID, &p.MediaKind, &p.MediaID, &p.ExpiresAt, &downloadLink)
	if err != nil {
		return nil, err
	}
	if downloadLink != nil {
		p.DownloadLink = *downloadLink
	}
	return p, nil
}

func (r *postgresPrepaymentRepo) LastRetail(ctx context.Context, memberID uuid.UUID) (*billing.RetailPrepayment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM prepayments
		WHERE member_id = $1 AND kind = 'retail'
		ORDER BY created_at DESC, id DESC LIMIT 1`, prepaymentColumns)
	return scanRetail(r.db.QueryRow(ctx, query, memberID))
}

func (r *postgresPrepaymentRepo) LastVOD(ctx context.Context, memberID uuid.UUID, status billing.Status) (*billing.VODPrepayment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM prepayments
		WHERE member_id = $1 AND kind = 'vod' AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC LIMIT 1`, prepaymentColumns)
	return scanVOD(r.db.QueryRow(ctx, query, memberID, string(status)))
}

func (r *postgresPrepaymentRepo) ListActiveUnits(ctx context.Context, memberID uuid.UUID, now time.Time) ([]*billing.UnitPrepayment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM prepayments
		WHERE member_id = $1 AND kind = 'unit' AND status = $2 AND expires_at > $3
		ORDER BY created_at DESC`, prepaymentColumns)
	rows, err := r.db.Query(ctx, query, memberID, billing.StatusConfirmed, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query unit prepayments: %w", err)
	}
	defer rows.Close()

	units := make([]*billing.UnitPrepayment, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unit prepayment rows: %w", err)
	}
	return units, nil
}

func (r *postgresPrepaymentRepo) FindRetail(ctx context.Context, id uuid.UUID) (*billing.RetailPrepayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM prepayments WHERE id = $1 AND kind = 'retail'`, prepaymentColumns)
	return scanRetail(r.db.QueryRow(ctx, query, id))
}

func (r *postgresPrepaymentRepo) FindVOD(ctx context.Context, id uuid.UUID) (*billing.VODPrepayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM prepayments WHERE id = $1 AND kind = 'vod'`, prepaymentColumns)
	return scanVOD(r.db.QueryRow(ctx, query, id))
}

func (r *postgresPrepaymentRepo) FindUnit(ctx context.Context, id uuid.UUID) (*billing.UnitPrepayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM prepayments WHERE id = $1 AND kind = 'unit'`, prepaymentColumns)
	return scanUnit(r.db.QueryRow(ctx, query, id))
}

const insertPrepayment = `
	INSERT INTO prepayments (id, member_id, kind, amount, paid_on, currency,
		payment_mean, duration_days, status, created_at, balance, balance_bytes,
		adult_authorized, teller_id, media_kind, media_id, expires_at, download_link)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
`

func (r *postgresPrepaymentRepo) SaveRetail(ctx context.Context, p *billing.RetailPrepayment) error {
	_, err := r.db.Exec(ctx, insertPrepayment,
		p.ID, p.MemberID, "retail", p.Amount, p.PaidOn, p.Currency,
		p.PaymentMean, p.DurationDays, p.Status, p.CreatedAt, p.Balance, nil,
		p.AdultAuthorized, nil, nil, nil, nil, nil,
	)
	if err != nil {
		return fmt.Errorf("failed to save retail prepayment: %w", err)
	}
	return nil
}

func (r *postgresPrepaymentRepo) SaveVOD(ctx context.Context, p *billing.VODPrepayment) error {
	_, err := r.db.Exec(ctx, insertPrepayment,
		p.ID, p.MemberID, "vod", p.Amount, p.PaidOn, p.Currency,
		p.PaymentMean, p.DurationDays, p.Status, p.CreatedAt, nil, p.BalanceBytes,
		p.AdultAuthorized, p.TellerID, nil, nil, nil, nil,
	)
	if err != nil {
		return fmt.Errorf("failed to save vod prepayment: %w", err)
	}
	return nil
}

func (r *postgresPrepaymentRepo) SaveUnit(ctx context.Context, p *billing.UnitPrepayment) error {
	_, err := r.db.Exec(ctx, insertPrepayment,
		p.ID, p.MemberID, "unit", p.Amount, p.PaidOn, p.Currency,
		p.PaymentMean, p.DurationDays, p.Status, p.CreatedAt, nil, nil,
		nil, p.TellerID, p.MediaKind, p.MediaID, p.ExpiresAt, p.DownloadLink,
	)
	if err != nil {
		return fmt.Errorf("failed to save unit prepayment: %w", err)
	}
	return nil
}

func (r *postgresPrepaymentRepo) UpdateRetail(ctx context.Context, p *billing.RetailPrepayment) error {
	query := `
		UPDATE prepayments SET
			paid_on = $2, payment_mean = $3, status = $4, balance = $5
		WHERE id = $1 AND kind = 'retail'
	`
	cmdTag, err := r.db.Exec(ctx, query, p.ID, p.PaidOn, p.PaymentMean, p.Status, p.Balance)
	if err != nil {
		return fmt.Errorf("failed to update retail prepayment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return billing.ErrPrepaymentNotFound
	}
	return nil
}

func (r *postgresPrepaymentRepo) UpdateVOD(ctx context.Context, p *billing.VODPrepayment) error {
	query := `
		UPDATE prepayments SET
			paid_on = $2, payment_mean = $3, status = $4, balance_bytes = $5
		WHERE id = $1 AND kind = 'vod'
	`
	cmdTag, err := r.db.Exec(ctx, query, p.ID, p.PaidOn, p.PaymentMean, p.Status, p.BalanceBytes)
	if err != nil {
		return fmt.Errorf("failed to update vod prepayment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return billing.ErrPrepaymentNotFound
	}
	return nil
}

func (r *postgresPrepaymentRepo) UpdateUnit(ctx context.Context, p *billing.UnitPrepayment) error {
	query := `
		UPDATE prepayments SET
			paid_on = $2, payment_mean = $3, status = $4, expires_at = $5, download_link = $6
		WHERE id = $1 AND kind = 'unit'
	`
	cmdTag, err := r.db.Exec(ctx, query, p.ID, p.PaidOn, p.PaymentMean, p.Status, p.ExpiresAt, p.DownloadLink)
	if err != nil {
		return fmt.Errorf("failed to update unit prepayment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return billing.ErrPrepaymentNotFound
	}
	return nil
}

// DebitRetailBalance decrements in SQL rather than writing back a value
// read earlier, so two concurrent debits can never both spend the same
// balance: the condition re-evaluates against the stored row under the row
// lock.
func (r *postgresPrepaymentRepo) DebitRetailBalance(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	conn := connFrom(ctx, r.db)
	query := `
		UPDATE prepayments SET balance = balance - $2
		WHERE id = $1 AND kind = 'retail' AND balance >= $2
		RETURNING balance
	`
	var balance int64
	err := conn.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to debit retail balance: %w", err)
	}

	// No row matched: either the prepayment is gone or the balance no
	// longer covers the amount. Report which, with the stored balance for
	// the shortfall message.
	err = conn.QueryRow(ctx, `SELECT balance FROM prepayments WHERE id = $1 AND kind = 'retail'`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, billing.ErrPrepaymentNotFound
		}
		return 0, fmt.Errorf("failed to read retail balance: %w", err)
	}
	return balance, billing.ErrInsufficientBalance
}

func (r *postgresPrepaymentRepo) DebitVODBalance(ctx context.Context, id uuid.UUID, bytes int64) (int64, error) {
	query := `
		UPDATE prepayments SET balance_bytes = GREATEST(balance_bytes - $2, 0)
		WHERE id = $1 AND kind = 'vod'
		RETURNING balance_bytes
	`
	var balance int64
	if err := connFrom(ctx, r.db).QueryRow(ctx, query, id, bytes).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, billing.ErrPrepaymentNotFound
		}
		return 0, fmt.Errorf("failed to debit vod balance: %w", err)
	}
	return balance, nil
}

func (r *postgresPrepaymentRepo) DeletePendingByMember(ctx context.Context, memberID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM prepayments WHERE member_id = $1 AND status = $2`,
		memberID, billing.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to delete pending prepayments: %w", err)
	}
	return nil
}

func (r *postgresPrepaymentRepo) ZeroExpiredBalances(ctx context.Context, now time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE prepayments
		SET balance = CASE WHEN balance IS NULL THEN NULL ELSE 0 END,
		    balance_bytes = CASE WHEN balance_bytes IS NULL THEN NULL ELSE 0 END
		WHERE status = $1
		  AND paid_on IS NOT NULL
		  AND paid_on + duration_days * INTERVAL '1 day' < $2
		  AND (COALESCE(balance, 0) > 0 OR COALESCE(balance_bytes, 0) > 0)`,
		billing.StatusConfirmed, now)
	if err != nil {
		return 0, fmt.Errorf("failed to zero expired balances: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
