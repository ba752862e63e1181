package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/billing"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/member"
	"github.com/afrovod/afrovod/internal/domain/order"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/auth"
)

const (
	GinContextKeyMemberID = "memberID"
)

func AuthMiddleware(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(GinContextKeyMemberID, claims.MemberID)

		c.Next()
	}
}

// OptionalAuthMiddleware attaches the member id when a valid token is
// present and lets the request through anonymously otherwise. The stream
// access check wants to answer "log in first" itself instead of 401-ing.
func OptionalAuthMiddleware(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != "" && tokenString != authHeader {
			if claims, err := jwtSvc.ValidateToken(tokenString); err == nil {
				c.Set(GinContextKeyMemberID, claims.MemberID)
			}
		}
		c.Next()
	}
}

// RefererGuard rejects requests whose Referer header is missing. The debit
// endpoint is only ever called by the embedded player, never typed into a
// browser bar or replayed from scripts without a page context.
func RefererGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Referer") == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func GetMemberIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	memberID, ok := c.Get(GinContextKeyMemberID)
	if !ok {
		return uuid.Nil, false
	}
	memberIDUUID, ok := memberID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return memberIDUUID, true
}

// renderError maps domain and application errors onto HTTP responses. App
// errors carry their own status and body; anything else is a 500 with a
// generic message.
func renderError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(apperror.ToHTTPStatus(appErr), appErr.ToJSON())
		return
	}
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func isNotFound(err error) bool {
	for _, sentinel := range []error{
		catalog.ErrMovieNotFound,
		catalog.ErrSeriesNotFound,
		catalog.ErrEpisodeNotFound,
		catalog.ErrCategoryNotFound,
		member.ErrMemberNotFound,
		billing.ErrPrepaymentNotFound,
		billing.ErrBundleNotFound,
		order.ErrContentUpdateNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
