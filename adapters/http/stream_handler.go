package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/application/usecase/ledger"
	"github.com/afrovod/afrovod/internal/application/usecase/recommend"
	"github.com/afrovod/afrovod/internal/application/usecase/stream"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/member"
	"github.com/afrovod/afrovod/pkg/logger"
)

type StreamHandler struct {
	accessUseCase    *stream.CheckAccessUseCase
	debitUseCase     *ledger.DebitStreamUseCase
	progressUseCase  *stream.WatchProgressUseCase
	recommendUseCase *recommend.RecommendUseCase
	memberRepo       member.Repository
	logger           logger.Logger
}

func NewStreamHandler(
	accessUC *stream.CheckAccessUseCase,
	debitUC *ledger.DebitStreamUseCase,
	progressUC *stream.WatchProgressUseCase,
	recommendUC *recommend.RecommendUseCase,
	mRepo member.Repository,
	log logger.Logger,
) *StreamHandler {
	return &StreamHandler{
		accessUseCase:    accessUC,
		debitUseCase:     debitUC,
		progressUseCase:  progressUC,
		recommendUseCase: recommendUC,
		memberRepo:       mRepo,
		logger:           log,
	}
}

type accessRequest struct {
	MediaType string `json:"media_type" binding:"required,oneof=movie episode"`
	ItemID    int64  `json:"item_id" binding:"required"`
	Mobile    bool   `json:"mobile"`
	IsCheck   bool   `json:"is_check"`
}

// Access answers "can this member play this title, and from where". With
// is_check set it only probes; otherwise a successful call counts a view.
func (h *StreamHandler) Access(c *gin.Context) {
	var req accessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	memberID, loggedIn := GetMemberIDFromGinContext(c)
	output, err := h.accessUseCase.Execute(c.Request.Context(), stream.CheckAccessInput{
		MemberID: memberID,
		LoggedIn: loggedIn,
		Kind:     catalog.MediaKind(req.MediaType),
		MediaID:  req.ItemID,
		Mobile:   req.Mobile,
		IsCheck:  req.IsCheck,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	if !req.IsCheck {
		h.invalidateRecommendations(c, memberID)
	}
	c.JSON(http.StatusOK, output)
}

type debitRequest struct {
	MediaType   string `json:"media_type" binding:"required,oneof=movie episode"`
	MediaID     int64  `json:"media_id" binding:"required"`
	Bytes       int64  `json:"bytes" binding:"min=0"`
	DurationSec int    `json:"duration" binding:"min=0"`
}

// Debit is called periodically by the player while bytes flow. An exhausted
// balance is reported in the body, not as an HTTP error: the player keeps
// the current segment running and stops at the next checkpoint.
func (h *StreamHandler) Debit(c *gin.Context) {
	var req debitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	memberID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}

	output, err := h.debitUseCase.Execute(c.Request.Context(), ledger.DebitStreamInput{
		MemberID:    memberID,
		Kind:        catalog.MediaKind(req.MediaType),
		MediaID:     req.MediaID,
		Bytes:       req.Bytes,
		DurationSec: req.DurationSec,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	resp := gin.H{"balance": output.BalanceBytes}
	if output.OutOfBalance {
		resp["error"] = "your bundle balance is exhausted"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StreamHandler) Download(c *gin.Context) {
	var req accessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	memberID, loggedIn := GetMemberIDFromGinContext(c)
	link, err := h.accessUseCase.Download(c.Request.Context(), stream.CheckAccessInput{
		MemberID: memberID,
		LoggedIn: loggedIn,
		Kind:     catalog.MediaKind(req.MediaType),
		MediaID:  req.ItemID,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_link": link})
}

type progressRequest struct {
	MediaType  string `json:"media_type" binding:"required,oneof=movie episode"`
	MediaID    int64  `json:"media_id" binding:"required"`
	Percentage int    `json:"percentage" binding:"min=0,max=100"`
}

// Progress records how far playback got. The stored marker only moves
// forward.
func (h *StreamHandler) Progress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	memberID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}

	err := h.progressUseCase.Monitor(c.Request.Context(), stream.MonitorInput{
		MemberID:   memberID,
		Kind:       catalog.MediaKind(req.MediaType),
		MediaID:    req.MediaID,
		Percentage: req.Percentage,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// History lists the member's resume points, most recent first.
func (h *StreamHandler) History(c *gin.Context) {
	memberID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}

	items, err := h.progressUseCase.Recent(c.Request.Context(), memberID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"watched": items})
}

// invalidateRecommendations drops the member's cached shelves after a view:
// the watch history just changed under them. Best effort.
func (h *StreamHandler) invalidateRecommendations(c *gin.Context, memberID uuid.UUID) {
	m, err := h.memberRepo.FindByID(c.Request.Context(), memberID)
	if err != nil {
		h.logger.Warn("Cache invalidation skipped", zap.String("member_id", memberID.String()), zap.Error(err))
		return
	}
	if err := h.recommendUseCase.ClearMemberCache(c.Request.Context(), m.Username); err != nil {
		h.logger.Warn("Cache invalidation failed", zap.String("username", m.Username), zap.Error(err))
	}
}
