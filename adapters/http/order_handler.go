package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/application/usecase/orderflow"
	"github.com/afrovod/afrovod/internal/application/usecase/selection"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/order"
)

type OrderHandler struct {
	startSelectUseCase   *selection.StartAutoSelectUseCase
	statusUseCase        *orderflow.StatusUseCase
	confirmOrderUseCase  *orderflow.ConfirmOrderUseCase
	startDeliveryUseCase *orderflow.StartDeliveryUseCase
	unit                 catalog.LoadUnit
}

func NewOrderHandler(
	startSelectUC *selection.StartAutoSelectUseCase,
	statusUC *orderflow.StatusUseCase,
	confirmOrderUC *orderflow.ConfirmOrderUseCase,
	startDeliveryUC *orderflow.StartDeliveryUseCase,
	unit catalog.LoadUnit,
) *OrderHandler {
	return &OrderHandler{
		startSelectUseCase:   startSelectUC,
		statusUseCase:        statusUC,
		confirmOrderUseCase:  confirmOrderUC,
		startDeliveryUseCase: startDeliveryUC,
		unit:                 unit,
	}
}

type autoSelectRequest struct {
	MaxLoad              int64   `json:"max_load" binding:"required"`
	BaseCategoryIDs      []int64 `json:"base_category_ids"`
	PreferredCategoryIDs []int64 `json:"preferred_category_ids"`
}

// StartAutoSelect enqueues a selection run and answers immediately; the
// client polls the status endpoint with the returned update id.
func (h *OrderHandler) StartAutoSelect(c *gin.Context) {
	var req autoSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	operatorID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}

	output, err := h.startSelectUseCase.Execute(c.Request.Context(), selection.StartAutoSelectInput{
		OperatorID:           operatorID,
		MaxLoad:              req.MaxLoad,
		Unit:                 h.unit,
		BaseCategoryIDs:      req.BaseCategoryIDs,
		PreferredCategoryIDs: req.PreferredCategoryIDs,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "selection started",
		"update_id": output.UpdateID,
	})
}

func (h *OrderHandler) Status(c *gin.Context) {
	updateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'id' is not a valid UUID"})
		return
	}
	output, err := h.statusUseCase.Execute(c.Request.Context(), updateID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

// Commit moves the operator's finished selection from Running to Pending
// after checking it fits the retail balance.
func (h *OrderHandler) Commit(c *gin.Context) {
	operatorID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}
	update, err := h.confirmOrderUseCase.CommitAutoSelection(c.Request.Context(), operatorID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"update_id":  update.ID,
		"status":     update.Status,
		"items":      len(update.AddList),
		"total_cost": update.TotalCost,
		"size":       update.DisplaySize(),
	})
}

type manualItemsRequest struct {
	Items []struct {
		Kind    string `json:"kind" binding:"required,oneof=movie series"`
		MediaID int64  `json:"media_id" binding:"required"`
		Delete  bool   `json:"delete"`
	} `json:"items" binding:"required,min=1"`
}

func (h *OrderHandler) AddManualItems(c *gin.Context) {
	var req manualItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	operatorID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}

	refs := make([]orderflow.ManualItemRef, len(req.Items))
	for i, it := range req.Items {
		refs[i] = orderflow.ManualItemRef{
			Kind:    catalog.MediaKind(it.Kind),
			MediaID: it.MediaID,
			Delete:  it.Delete,
		}
	}

	update, err := h.confirmOrderUseCase.AddManualItems(c.Request.Context(), operatorID, refs)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"update_id":  update.ID,
		"status":     update.Status,
		"items":      len(update.AddList),
		"total_cost": update.TotalCost,
		"size":       update.DisplaySize(),
	})
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	updateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'id' is not a valid UUID"})
		return
	}
	operatorID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}
	if err := h.statusUseCase.Cancel(c.Request.Context(), operatorID, updateID); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "content update cancelled"})
}

// StartDelivery enqueues the mirror sync of an authorized update.
func (h *OrderHandler) StartDelivery(c *gin.Context) {
	updateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'id' is not a valid UUID"})
		return
	}
	if err := h.startDeliveryUseCase.Execute(c.Request.Context(), updateID); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message":   "delivery started",
		"update_id": updateID,
		"status":    order.StatusAuthorized,
	})
}
