package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codingswamp/codingswamp-backend/internal/http/response"
	"github.com/codingswamp/codingswamp-backend/internal/platform/ctxutil"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
	"github.com/codingswamp/codingswamp-backend/internal/services"
)

type AuthMiddleware struct {
	log          *logger.Logger
	tokenService services.TokenService
}

func NewAuthMiddleware(log *logger.Logger, tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		log:          log.With("middleware", "AuthMiddleware"),
		tokenService: tokenService,
	}
}

// RequireAuth resolves the Authorization header into request data on the
// context. All token failures surface as the same unauthorized response.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := am.tokenService.ResolvePayload(c.GetHeader("Authorization"))
		if err != nil {
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		if claims.MemberID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorEnvelope{
				Error: response.APIError{Message: "forbidden", Code: "forbidden"},
			})
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			MemberID: claims.MemberID,
			Role:     string(claims.Role),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
