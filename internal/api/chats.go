package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ollamahub/internal/models"
	"ollamahub/internal/service/servers"
)

type createChatRequest struct {
	Title   string `json:"title"`
	LmmType string `json:"lmm_type"`
}

func (h *Handler) createChat(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	chat, err := h.chats.Create(c.Request.Context(), userID, req.Title, req.LmmType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (h *Handler) listChats(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	list, err := h.chats.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = make([]models.Chat, 0)
	}
	c.JSON(http.StatusOK, gin.H{"chats": list})
}

func (h *Handler) getChat(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	chat, ok := h.requireChatOwner(c, chatID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *Handler) updateChatTitle(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	if _, ok := h.requireChatOwner(c, chatID); !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.chats.UpdateTitle(c.Request.Context(), chatID, req.Title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteChat(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	if _, ok := h.requireChatOwner(c, chatID); !ok {
		return
	}
	if err := h.chats.Delete(c.Request.Context(), chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteAllChats(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := h.chats.DeleteAllForUser(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

func (h *Handler) generate(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	response, err := h.chats.Generate(c.Request.Context(), req.Model, req.Prompt)
	if err != nil {
		if errors.Is(err, servers.ErrNoActiveServer) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": response})
}

type createMessageRequest struct {
	ChatID         int64  `json:"chat_id"`
	MessageType    string `json:"message_type"`
	MessageContent string `json:"message_content"`
}

func (h *Handler) createMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	chat, ok := h.requireChatOwner(c, req.ChatID)
	if !ok {
		return
	}
	msg, err := h.chats.CreateMessage(c.Request.Context(), models.ChatMessage{
		ChatID:         chat.ChatID,
		UserID:         chat.UserID,
		MessageType:    req.MessageType,
		MessageContent: req.MessageContent,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// uploads that arrived before this message get attached to it
	if err := h.files.LinkPendingToMessage(c.Request.Context(), chat.ChatID, msg.MessageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) listMessages(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	if _, ok := h.requireChatOwner(c, chatID); !ok {
		return
	}
	list, err := h.chats.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = make([]models.ChatMessage, 0)
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *Handler) getMessage(c *gin.Context) {
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}
	msg, err := h.chats.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, ok := h.requireChatOwner(c, msg.ChatID); !ok {
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handler) deleteMessage(c *gin.Context) {
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}
	msg, err := h.chats.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, ok := h.requireChatOwner(c, msg.ChatID); !ok {
		return
	}
	if err := h.chats.DeleteMessage(c.Request.Context(), messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
