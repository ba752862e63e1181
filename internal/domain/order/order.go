package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/pkg/apperror"
)

type Status string

const (
	StatusRunning    Status = "running"
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusDelivered  Status = "delivered"
	StatusFailed     Status = "failed"
)

var ErrContentUpdateNotFound = errors.New("content update not found")

// Item is one title captured in a content update. The snapshot carries
// everything delivery needs so later catalog edits cannot skew an order
// that was already priced.
type Item struct {
	Kind        catalog.MediaKind `json:"kind"`
	MediaID     int64             `json:"media_id"`
	SeriesID    int64             `json:"series_id,omitempty"`
	Title       string            `json:"title"`
	Filename    string            `json:"filename"`
	SizeMB      float64           `json:"size_mb"`
	DurationMin int               `json:"duration_min"`
	Price       int64             `json:"price"`
}

// ContentUpdate is an operator order assembled by the selection engine.
// AddList and DeleteList are the source of truth; filename strings are
// derived views, never stored independently.
type ContentUpdate struct {
	ID           uuid.UUID  `json:"id"`
	OperatorID   uuid.UUID  `json:"operator_id"`
	Status       Status     `json:"status"`
	AddList      []Item     `json:"add_list"`
	DeleteList   []Item     `json:"delete_list"`
	TotalSizeMB  float64    `json:"total_size_mb"`
	TotalCost    int64      `json:"total_cost"`
	CreatedAt    time.Time  `json:"created_at"`
	AuthorizedAt *time.Time `json:"authorized_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	FailReason   string     `json:"fail_reason,omitempty"`
}

func New(operatorID uuid.UUID) *ContentUpdate {
	return &ContentUpdate{
		ID:         uuid.New(),
		OperatorID: operatorID,
		Status:     StatusRunning,
		CreatedAt:  time.Now().UTC(),
	}
}

func (c *ContentUpdate) AddItem(it Item) {
	c.AddList = append(c.AddList, it)
	c.TotalSizeMB += it.SizeMB
	c.TotalCost += it.Price
}

func (c *ContentUpdate) MarkForDeletion(it Item) {
	c.DeleteList = append(c.DeleteList, it)
}

// AddFilenames renders the add list as the comma separated filename string
// delivery scripts consume.
func (c *ContentUpdate) AddFilenames() string {
	names := make([]string, 0, len(c.AddList))
	for _, it := range c.AddList {
		if it.Filename != "" {
			names = append(names, it.Filename)
		}
	}
	return strings.Join(names, ",")
}

func (c *ContentUpdate) DeleteFilenames() string {
	names := make([]string, 0, len(c.DeleteList))
	for _, it := range c.DeleteList {
		if it.Filename != "" {
			names = append(names, it.Filename)
		}
	}
	return strings.Join(names, ",")
}

// Complete moves a freshly assembled order to pending, ready for review.
func (c *ContentUpdate) Complete() error {
	if c.Status != StatusRunning {
		return apperror.NewStateConflict("content update", string(c.Status), string(StatusPending))
	}
	c.Status = StatusPending
	return nil
}

// Authorize commits the order. Only a pending order may be authorized;
// anything else is a state conflict, retries included.
func (c *ContentUpdate) Authorize(now time.Time) error {
	if c.Status != StatusPending {
		return apperror.NewStateConflict("content update", string(c.Status), string(StatusAuthorized))
	}
	c.Status = StatusAuthorized
	t := now.UTC()
	c.AuthorizedAt = &t
	return nil
}

func (c *ContentUpdate) MarkDelivered(now time.Time) error {
	if c.Status != StatusAuthorized {
		return apperror.NewStateConflict("content update", string(c.Status), string(StatusDelivered))
	}
	c.Status = StatusDelivered
	t := now.UTC()
	c.DeliveredAt = &t
	return nil
}

func (c *ContentUpdate) MarkFailed(reason string) {
	c.Status = StatusFailed
	c.FailReason = reason
}

// DisplaySize renders the order volume in GB past a thousand MB, on the
// same decimal boundary every other size message uses.
func (c *ContentUpdate) DisplaySize() string {
	if c.TotalSizeMB >= 1000 {
		return fmt.Sprintf("%.2f GB", c.TotalSizeMB/1000)
	}
	return fmt.Sprintf("%.0f MB", c.TotalSizeMB)
}

type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ContentUpdate, error)
	// FindRunning returns the operator's in-progress order, if any.
	FindRunning(ctx context.Context, operatorID uuid.UUID) (*ContentUpdate, error)
	// FindPending returns the operator's committed, not yet authorized order.
	FindPending(ctx context.Context, operatorID uuid.UUID) (*ContentUpdate, error)
	ListByOperator(ctx context.Context, operatorID uuid.UUID, limit int) ([]ContentUpdate, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]ContentUpdate, error)
	Save(ctx context.Context, cu *ContentUpdate) error
	Update(ctx context.Context, cu *ContentUpdate) error
	// UpdateFrom writes cu only while the stored status still equals
	// expected. A transition that lost the race comes back as a state
	// conflict instead of silently overwriting the winner.
	UpdateFrom(ctx context.Context, cu *ContentUpdate, expected Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}
