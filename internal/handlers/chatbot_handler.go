package handlers

import (
	"net/http"

	"trekhub_backend/internal/services"
	"trekhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ChatbotHandler struct {
	*BaseHandler
	chatbotService services.ChatbotService
}

func NewChatbotHandler(base *BaseHandler, chatbotService services.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{BaseHandler: base, chatbotService: chatbotService}
}

func (h *ChatbotHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chatbot/reply", h.Reply)
}

func (h *ChatbotHandler) Reply(c *gin.Context) {
	var req dto.ChatbotRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.chatbotService.Reply(c.Request.Context(), h.GetViewerID(c), req.Message)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
