package middleware

import (
	"strings"

	"trekhub_backend/internal/logger"
	"trekhub_backend/pkg/apperrors"
	"trekhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RoleHeader - роль пользователя, которую проставляет шлюз
const RoleHeader = "X-User-Role"

const RoleAdmin = "admin"

// ViewerMiddleware переносит ID пользователя из заголовка шлюза в контекст.
// Анонимный запрос пропускается без viewer.
func ViewerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID := strings.TrimSpace(c.GetHeader(contextkeys.ViewerHeader))
		if viewerID == "" {
			c.Next()
			return
		}
		if _, err := uuid.Parse(viewerID); err != nil {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Invalid viewer identity"))
			return
		}

		c.Set(string(contextkeys.ViewerIDKey), viewerID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), viewerID))
		c.Next()
	}
}

// RequireViewer отклоняет анонимные запросы
func RequireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(string(contextkeys.ViewerIDKey)); !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
			return
		}
		c.Next()
	}
}

// RoleMiddleware - middleware ограничения по ролям
func RoleMiddleware(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(c.GetHeader(RoleHeader), requiredRole) {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied"))
			return
		}
		c.Next()
	}
}
