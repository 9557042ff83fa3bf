package handlers

import (
	"strconv"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/services/dto"
	"trekhub_backend/internal/validator"
	"trekhub_backend/pkg/apperrors"
	"trekhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// ============================================================================
// 2. Методы привязки и валидации (с контекстным логгированием)
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindJSON(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}

	return h.validate(c, obj)
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// ============================================================================
// 3. Обработчики ошибок
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"code", appErr.Code,
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 4. Вспомогательные функции
// ============================================================================

// GetViewerID возвращает ID пользователя или пустую строку для анонимного запроса
func (h *BaseHandler) GetViewerID(c *gin.Context) string {
	return c.GetString(string(contextkeys.ViewerIDKey))
}

// RequireViewerID возвращает ID пользователя или отвечает 401
func (h *BaseHandler) RequireViewerID(c *gin.Context) (string, bool) {
	viewerID := h.GetViewerID(c)
	if viewerID == "" {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: viewer not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return "", false
	}
	return viewerID, true
}

// ParsePagination читает page (с 1) и size. Отсутствующие значения берутся по умолчанию,
// size больше максимума обрезается, а нечисловые или неположительные значения - ошибка валидации.
func ParsePagination(c *gin.Context) (dto.PageRequest, error) {
	page, pageErr := parsePositiveQuery(c, "page", 1)
	size, sizeErr := parsePositiveQuery(c, "size", dto.DefaultPageSize)

	details := map[string]string{}
	if pageErr != "" {
		details["page"] = pageErr
	}
	if sizeErr != "" {
		details["size"] = sizeErr
	}
	if len(details) > 0 {
		return dto.PageRequest{}, apperrors.ValidationError(details)
	}

	if size > dto.MaxPageSize {
		size = dto.MaxPageSize
	}
	return dto.PageRequest{Page: page, Size: size}, nil
}

func parsePositiveQuery(c *gin.Context, key string, defaultValue int) (int, string) {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue, ""
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, "Must be an integer"
	}
	if value < 1 {
		return 0, "Must be at least 1"
	}
	return value, ""
}
