package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ollamahub/internal/models"
)

// sharedChat is the one unauthenticated read endpoint: it resolves a share
// token to a public view of the chat, with the owner's identity omitted.
func (h *Handler) sharedChat(c *gin.Context) {
	token := strings.TrimSpace(c.Param("shareToken"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid share token"})
		return
	}
	chat, err := h.chats.GetByShareToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shared chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	messages, err := h.chats.ListMessages(c.Request.Context(), chat.ChatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = make([]models.ChatMessage, 0)
	}
	c.JSON(http.StatusOK, gin.H{
		"chat": gin.H{
			"title":        chat.Title,
			"lmm_type":     chat.LmmType,
			"created_time": chat.CreatedTime,
		},
		"messages": messages,
	})
}

func (h *Handler) getShareToken(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	chat, ok := h.requireChatOwner(c, chatID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_id": chat.ChatID, "share_token": chat.ShareToken})
}

// regenerateShareToken rotates the share token, invalidating any previously
// shared link.
func (h *Handler) regenerateShareToken(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	if _, ok := h.requireChatOwner(c, chatID); !ok {
		return
	}
	token, err := h.chats.RegenerateShareToken(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "share_token": token})
}

// disableShare rotates the token without returning it, so the old link stops
// resolving.
func (h *Handler) disableShare(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	if _, ok := h.requireChatOwner(c, chatID); !ok {
		return
	}
	if _, err := h.chats.RegenerateShareToken(c.Request.Context(), chatID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
