package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/member"
)

type postgresMemberRepo struct {
	db *pgxpool.Pool
}

func NewPostgresMemberRepo(db *pgxpool.Pool) member.Repository {
	return &postgresMemberRepo{db: db}
}

const memberColumns = `id, email, username, name, password_hash, adult_authorized,
	operator_site_id, is_provider, city`

func scanMember(row pgx.Row) (*member.Member, error) {
	m := &member.Member{}
	err := row.Scan(
		&m.ID,
		&m.Email,
		&m.Username,
		&m.Name,
		&m.PasswordHash,
		&m.AdultAuthorized,
		&m.OperatorSiteID,
		&m.IsProvider,
		&m.City,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan member row: %w", err)
	}
	return m, nil
}

func (r *postgresMemberRepo) FindByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE id = $1`, memberColumns)
	return scanMember(r.db.QueryRow(ctx, query, id))
}

func (r *postgresMemberRepo) FindByEmail(ctx context.Context, email string) (*member.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE email = $1`, memberColumns)
	return scanMember(r.db.QueryRow(ctx, query, email))
}

func (r *postgresMemberRepo) FindByUsername(ctx context.Context, username string) (*member.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE username = $1`, memberColumns)
	return scanMember(r.db.QueryRow(ctx, query, username))
}

func (r *postgresMemberRepo) Save(ctx context.Context, m *member.Member) error {
	query := `
		INSERT INTO members (id, email, username, name, password_hash,
			adult_authorized, operator_site_id, is_provider, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		m.ID, m.Email, m.Username, m.Name, m.PasswordHash,
		m.AdultAuthorized, m.OperatorSiteID, m.IsProvider, m.City,
	)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return errors.New("email or username already exists")
		}
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

func (r *postgresMemberRepo) Update(ctx context.Context, m *member.Member) error {
	query := `
		UPDATE members SET
			email = $2, username = $3, name = $4, password_hash = $5,
			adult_authorized = $6, operator_site_id = $7, is_provider = $8, city = $9
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query,
		m.ID, m.Email, m.Username, m.Name, m.PasswordHash,
		m.AdultAuthorized, m.OperatorSiteID, m.IsProvider, m.City,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}
