package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-llm/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de conversaciones.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		chatServ: chatServ,
	}
}

// SendMessage maneja POST /api/v1/chat. La denegación por cupo se responde
// por el canal normal con success=false, no como error de transporte.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
		ChatID  string `json:"chatId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Message is required"})
		return
	}

	result, err := h.chatServ.SendMessage(c.Request.Context(), claims.UserID, req.ChatID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ID format"})
		case errors.Is(err, service.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Chat not found"})
		default:
			h.logger.Error("send message failed", zap.Error(err), zap.String("user_id", claims.UserID))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not generate response"})
		}
		return
	}

	if result.Denied {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": result.DenialMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"chatId":  result.ChatID,
		"reply":   result.Reply,
	})
}

// GetChat maneja GET /api/v1/chat/:chatId.
func (h *ChatHandler) GetChat(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
		return
	}

	msgs, err := h.chatServ.GetChat(c.Request.Context(), claims.UserID, c.Param("chatId"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ID format"})
		case errors.Is(err, service.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Chat not found"})
		default:
			h.logger.Error("get chat failed", zap.Error(err), zap.String("user_id", claims.UserID))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not load chat"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs})
}

// GetHistory maneja GET /api/v1/chat/history.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
		return
	}

	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = 5
	}

	items, pagination, err := h.chatServ.ListHistory(c.Request.Context(), claims.UserID, page, limit)
	if err != nil {
		if errors.Is(err, service.ErrChatInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID format"})
			return
		}
		h.logger.Error("get history failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       items,
		"pagination": pagination,
	})
}

// DeleteChat maneja DELETE /api/v1/chat/delete/:chatId.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
		return
	}

	err := h.chatServ.DeleteChat(c.Request.Context(), claims.UserID, c.Param("chatId"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ID format"})
		case errors.Is(err, service.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Chat not found"})
		default:
			h.logger.Error("delete chat failed", zap.Error(err), zap.String("user_id", claims.UserID))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not delete chat"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat deleted successfully"})
}
