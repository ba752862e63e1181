package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afrovod/afrovod/internal/domain/catalog"
)

type postgresCategoryRepo struct {
	db *pgxpool.Pool
}

func NewPostgresCategoryRepo(db *pgxpool.Pool) catalog.CategoryRepository {
	return &postgresCategoryRepo{db: db}
}

const categoryColumns = `id, title, slug, is_adult, smart, order_of_appearance,
	appear_in_main, visible, previews_title, previews_length`

func scanCategory(row pgx.Row) (*catalog.Category, error) {
	c := &catalog.Category{}
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Slug,
		&c.IsAdult,
		&c.Smart,
		&c.OrderOfAppearance,
		&c.AppearInMain,
		&c.Visible,
		&c.PreviewsTitle,
		&c.PreviewsLength,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to scan category row: %w", err)
	}
	return c, nil
}

func scanCategories(rows pgx.Rows) ([]*catalog.Category, error) {
	categories := make([]*catalog.Category, 0)
	defer rows.Close()

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *postgresCategoryRepo) FindByID(ctx context.Context, id int64) (*catalog.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns)
	return scanCategory(r.db.QueryRow(ctx, query, id))
}

func (r *postgresCategoryRepo) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE slug = $1`, categoryColumns)
	return scanCategory(r.db.QueryRow(ctx, query, slug))
}

func (r *postgresCategoryRepo) ListVisible(ctx context.Context) ([]*catalog.Category, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM categories
		WHERE visible = TRUE
		ORDER BY order_of_appearance, id`, categoryColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	return scanCategories(rows)
}

func (r *postgresCategoryRepo) ListExcludingSlugs(ctx context.Context, slugs []string) ([]*catalog.Category, error) {
	builder := psql.Select(categoryColumns).
		From("categories").
		Where(sq.Eq{"visible": true}).
		OrderBy("order_of_appearance, id")
	if len(slugs) > 0 {
		builder = builder.Where(sq.NotEq{"slug": slugs})
	}

	sql, args, _ := builder.ToSql()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	return scanCategories(rows)
}
