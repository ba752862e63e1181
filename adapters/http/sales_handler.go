package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/application/usecase/ledger"
	"github.com/afrovod/afrovod/internal/domain/billing"
)

type SalesHandler struct {
	checkoutUseCase *ledger.CheckoutUseCase
	confirmUseCase  *ledger.ConfirmPaymentUseCase
	bundleRepo      billing.BundleRepository
}

func NewSalesHandler(checkoutUC *ledger.CheckoutUseCase, confirmUC *ledger.ConfirmPaymentUseCase, bRepo billing.BundleRepository) *SalesHandler {
	return &SalesHandler{
		checkoutUseCase: checkoutUC,
		confirmUseCase:  confirmUC,
		bundleRepo:      bRepo,
	}
}

func (h *SalesHandler) ListBundles(c *gin.Context) {
	retail, err := h.bundleRepo.ListRetailBundles(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	vod, err := h.bundleRepo.ListVODBundles(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"retail_bundles": retail,
		"vod_bundles":    vod,
	})
}

type checkoutRequest struct {
	BundleID int64  `json:"bundle_id" binding:"required"`
	Kind     string `json:"kind" binding:"required,oneof=retail vod"`
}

// Checkout opens a pending prepayment for the chosen bundle. Any earlier
// pending checkout of the member is discarded first.
func (h *SalesHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	memberID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}

	ctx := c.Request.Context()
	switch req.Kind {
	case "retail":
		p, err := h.checkoutUseCase.ExecuteRetail(ctx, ledger.CheckoutRetailInput{
			MemberID: memberID,
			BundleID: req.BundleID,
		})
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"prepayment_id": p.ID,
			"amount":        p.Amount,
			"currency":      p.Currency,
		})
	default:
		p, err := h.checkoutUseCase.ExecuteVOD(ctx, ledger.CheckoutVODInput{
			MemberID: memberID,
			BundleID: req.BundleID,
		})
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"prepayment_id": p.ID,
			"amount":        p.Amount,
			"currency":      p.Currency,
		})
	}
}

type confirmPaymentRequest struct {
	PrepaymentID string `json:"prepayment_id" binding:"required"`
	Kind         string `json:"kind" binding:"required,oneof=retail vod unit"`
	PaymentMean  string `json:"payment_mean" binding:"required"`
}

// ConfirmPayment is the endpoint the payment gateway callback lands on.
// Replays of the same prepayment id answer 409.
func (h *SalesHandler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	prepaymentID, err := uuid.Parse(req.PrepaymentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'prepayment_id' is not a valid UUID"})
		return
	}

	output, err := h.confirmUseCase.Execute(c.Request.Context(), ledger.ConfirmPaymentInput{
		PrepaymentID: prepaymentID,
		Kind:         ledger.PrepaymentKind(req.Kind),
		PaymentMean:  req.PaymentMean,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"amount":         output.Split.Amount,
		"operator_share": output.Split.Operator,
		"platform_share": output.Split.Platform,
		"partner_share":  output.Split.Partner,
	})
}
