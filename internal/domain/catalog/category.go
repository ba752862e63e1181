package catalog

import "context"

// Category is the curated classification of movies and series. Smart
// categories ("Top 20", "Recent") are machine-populated and excluded from
// recommendation category discovery.
type Category struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Slug              string `json:"slug"`
	IsAdult           bool   `json:"is_adult"`
	Smart             bool   `json:"smart"`
	OrderOfAppearance int    `json:"order_of_appearance"`
	AppearInMain      bool   `json:"appear_in_main"`
	Visible           bool   `json:"visible"`
	PreviewsTitle     string `json:"previews_title"`
	PreviewsLength    int    `json:"previews_length"`
}

// CategoryRef is the value copy embedded into Movie and Series rows at write
// time. Editing a Category does not retroactively update media that already
// embed it; a backfill pass over existing media is required after category
// metadata changes.
type CategoryRef struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	IsAdult bool   `json:"is_adult"`
}

func (c Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Title: c.Title, Slug: c.Slug, IsAdult: c.IsAdult}
}

type CategoryRepository interface {
	FindByID(ctx context.Context, id int64) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	ListVisible(ctx context.Context) ([]*Category, error)
	// ListExcludingSlugs returns visible categories whose slug is not in the
	// given list, ordered by order_of_appearance. Used by the selection sweep.
	ListExcludingSlugs(ctx context.Context, slugs []string) ([]*Category, error)
}
