package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afrovod/afrovod/internal/application/usecase/orderflow"
)

// ProviderHandler serves the provider-side sync agent. The agent runs on the
// operator's box and authenticates with provider credentials on every call
// instead of carrying a token.
type ProviderHandler struct {
	authorizeUseCase *orderflow.AuthorizeUseCase
}

func NewProviderHandler(authorizeUC *orderflow.AuthorizeUseCase) *ProviderHandler {
	return &ProviderHandler{authorizeUseCase: authorizeUC}
}

type authorizeRequest struct {
	Username         string `json:"username" binding:"required"`
	Password         string `json:"password" binding:"required"`
	OperatorUsername string `json:"operator_username" binding:"required"`
	AvailableSpaceMB int64  `json:"available_space_mb" binding:"min=0"`
}

func (h *ProviderHandler) Authorize(c *gin.Context) {
	var req authorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	output, err := h.authorizeUseCase.Execute(c.Request.Context(), orderflow.AuthorizeInput{
		ProviderUsername: req.Username,
		ProviderPassword: req.Password,
		OperatorUsername: req.OperatorUsername,
		AvailableSpaceMB: req.AvailableSpaceMB,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}
