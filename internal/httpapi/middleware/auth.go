package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/httpapi/response"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

const userIDKey = "user_id"

type AuthMiddleware struct {
	identity service.IdentityProvider
}

func NewAuthMiddleware(identity service.IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{identity: identity}
}

// RequireAuth резолвит "Authorization: Bearer <jwt>" в id пользователя
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := am.identity.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.RespondError(c, err)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID аутентифицированный пользователь запроса
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
