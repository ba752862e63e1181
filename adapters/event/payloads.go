package event

import "github.com/google/uuid"

// SelectionJobPayload asks the worker to run auto-selection into the given
// running content update.
type SelectionJobPayload struct {
	UpdateID             uuid.UUID `json:"update_id"`
	OperatorID           uuid.UUID `json:"operator_id"`
	MaxLoad              int64     `json:"max_load"`
	Unit                 string    `json:"unit"`
	BaseCategoryIDs      []int64   `json:"base_category_ids"`
	PreferredCategoryIDs []int64   `json:"preferred_category_ids"`
}

// SyncJobPayload asks the worker to mirror an authorized content update into
// the operator's catalog.
type SyncJobPayload struct {
	UpdateID   uuid.UUID `json:"update_id"`
	OperatorID uuid.UUID `json:"operator_id"`
}
