package handlers

import (
	"net/http"

	"trekhub_backend/internal/middleware"
	"trekhub_backend/internal/services"
	"trekhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	*BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(base *BaseHandler, reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   base,
		reviewService: reviewService,
	}
}

func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public routes (viewer необязателен, влияет только на isHelpful)
	r.GET("/events/:eventId/reviews", h.ListEventReviews)

	reviews := r.Group("/reviews")
	reviews.Use(middleware.RequireViewer())
	{
		reviews.POST("", h.SubmitReview)
		reviews.GET("/pending", h.ListPendingReviews)
		reviews.POST("/:reviewId/helpful", h.MarkHelpful)
	}

	// Admin routes
	admin := r.Group("/admin/reviews")
	admin.Use(middleware.RoleMiddleware(middleware.RoleAdmin))
	{
		admin.GET("/pending", h.ListModerationQueue)
		admin.POST("/:reviewId/moderate", h.ModerateReview)
	}
}

func (h *ReviewHandler) ListEventReviews(c *gin.Context) {
	page, err := ParsePagination(c)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	resp, err := h.reviewService.ListEventReviews(c.Request.Context(), h.GetViewerID(c), c.Param("eventId"), page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	viewerID, ok := h.RequireViewerID(c)
	if !ok {
		return
	}

	var req dto.SubmitReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.SubmitReview(c.Request.Context(), viewerID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) ListPendingReviews(c *gin.Context) {
	viewerID, ok := h.RequireViewerID(c)
	if !ok {
		return
	}
	page, err := ParsePagination(c)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	resp, err := h.reviewService.ListPendingReviews(c.Request.Context(), viewerID, page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	viewerID, ok := h.RequireViewerID(c)
	if !ok {
		return
	}

	review, err := h.reviewService.MarkHelpful(c.Request.Context(), viewerID, c.Param("reviewId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// --- Admin handlers ---

func (h *ReviewHandler) ListModerationQueue(c *gin.Context) {
	page, err := ParsePagination(c)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	resp, err := h.reviewService.ListModerationQueue(c.Request.Context(), page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	var req dto.ModerateReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.ModerateReview(c.Request.Context(), c.Param("reviewId"), *req.Approve)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}
