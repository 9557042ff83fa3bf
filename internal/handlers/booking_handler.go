package handlers

import (
	"context"
	"net/http"

	"trekhub_backend/internal/middleware"
	"trekhub_backend/internal/services"
	"trekhub_backend/internal/services/dto"
	"trekhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	*BaseHandler
	bookingService services.BookingService
	exposeCode     bool
}

func NewBookingHandler(base *BaseHandler, bookingService services.BookingService, exposeCode bool) *BookingHandler {
	return &BookingHandler{
		BaseHandler:    base,
		bookingService: bookingService,
		exposeCode:     exposeCode,
	}
}

func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.RequireViewer())
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:bookingId", h.GetBooking)
		bookings.GET("/:bookingId/history", h.GetHistory)
		bookings.POST("/:bookingId/otp/:action", h.RequestOtp)
		bookings.POST("/:bookingId/confirm", h.Confirm)
		bookings.POST("/:bookingId/release", h.Release)
	}

	// Переходы инициирует платежный шлюз или администратор
	admin := r.Group("/admin/bookings")
	admin.Use(middleware.RoleMiddleware(middleware.RoleAdmin))
	{
		admin.POST("/:bookingId/transitions", h.Transition)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	viewerID, ok := h.RequireViewerID(c)
	if !ok {
		return
	}

	var req dto.CreateBookingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), viewerID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	viewerID, ok := h.RequireViewerID(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if booking.PayerID != viewerID && booking.OrganizerID != viewerID {
		h.HandleServiceError(c, apperrors.ErrNotFound(nil, "booking", "Booking"))
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) GetHistory(c *gin.Context) {
	viewerID, ok := h.RequireViewerID(c)
	if !ok {
		return
	}
	bookingID := c.Param("bookingId")

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if booking.PayerID != viewerID && booking.OrganizerID != viewerID {
		h.HandleServiceError(c, apperrors.ErrNotFound(nil, "booking", "Booking"))
		return
	}

	history, err := h.bookingService.GetHistory(c.Request.Context(), bookingID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookingId": bookingID, "history": history})
}

func (h *BookingHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	booking, err := h.bookingService.Transition(c.Request.Context(), c.Param("bookingId"), req.Status, req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) RequestOtp(c *gin.Context) {
	viewerID, ok := h.RequireViewerID(c)
	if !ok {
		return
	}

	record, err := h.bookingService.RequestActionOtp(c.Request.Context(), viewerID, c.Param("bookingId"), c.Param("action"))
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

func (h *BookingHandler) Confirm(c *gin.Context) {
	h.otpGated(c, h.bookingService.ConfirmWithOtp)
}

func (h *BookingHandler) Release(c *gin.Context) {
	h.otpGated(c, h.bookingService.ReleasePayout)
}

type otpGatedAction func(ctx context.Context, viewerID, bookingID, code string) (*dto.BookingResponse, error)

func (h *BookingHandler) otpGated(c *gin.Context, action otpGatedAction) {
	viewerID, ok := h.RequireViewerID(c)
	if !ok {
		return
	}

	var req dto.OtpGatedRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	booking, err := action(c.Request.Context(), viewerID, c.Param("bookingId"), req.Code)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}
