package handlers

import (
	"net/http"

	"trekhub_backend/internal/services"
	"trekhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type OtpHandler struct {
	*BaseHandler
	otpService services.OtpService
	exposeCode bool
}

// exposeCode - возвращать код в ответе (только для разработки и тестов)
func NewOtpHandler(base *BaseHandler, otpService services.OtpService, exposeCode bool) *OtpHandler {
	return &OtpHandler{
		BaseHandler: base,
		otpService:  otpService,
		exposeCode:  exposeCode,
	}
}

func (h *OtpHandler) RegisterRoutes(r *gin.RouterGroup) {
	otp := r.Group("/otp")
	{
		otp.POST("/issue", h.Issue)
		otp.POST("/verify", h.Verify)
	}
}

func (h *OtpHandler) Issue(c *gin.Context) {
	var req dto.IssueOtpRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	record, err := h.otpService.Issue(c.Request.Context(), req.Subject)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	resp := dto.IssueOtpResponse{Subject: record.Subject, ExpiresAt: record.ExpiresAt}
	if h.exposeCode {
		resp.Code = record.Code
	}
	c.JSON(http.StatusCreated, resp)
}

// Verify отвечает 200 только на SUCCESS; остальные исходы - ошибки со своим кодом
func (h *OtpHandler) Verify(c *gin.Context) {
	var req dto.VerifyOtpRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.otpService.Verify(c.Request.Context(), req.Subject, req.Code)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if err := services.OtpResultError(result); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyOtpResponse{Result: string(result)})
}
