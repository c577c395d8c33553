package api

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ollamahub/internal/models"
	"ollamahub/internal/service/files"
)

func (h *Handler) uploadFile(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(files.MaxUploadSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	chatID, err := strconv.ParseInt(c.PostForm("chat_id"), 10, 64)
	if err != nil || chatID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat_id"})
		return
	}
	chat, ok := h.requireChatOwner(c, chatID)
	if !ok {
		return
	}
	var messageID int64
	if raw := c.PostForm("message_id"); raw != "" {
		messageID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || messageID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message_id"})
			return
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > files.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	stored, err := h.files.Upload(c.Request.Context(), data, fileHeader.Filename, contentType, userID, chat.ChatID, messageID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func (h *Handler) listChatFiles(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	if _, ok := h.requireChatOwner(c, chatID); !ok {
		return
	}
	list, err := h.files.ListByChat(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = make([]models.ChatFile, 0)
	}
	c.JSON(http.StatusOK, gin.H{"files": list})
}

// requireFileOwner loads the file in the path parameter and checks the chat
// it belongs to is owned by the authenticated user.
func (h *Handler) requireFileOwner(c *gin.Context) (*models.ChatFile, bool) {
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return nil, false
	}
	file, err := h.files.Get(c.Request.Context(), fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if _, ok := h.requireChatOwner(c, file.ChatID); !ok {
		return nil, false
	}
	return file, true
}

func (h *Handler) getFile(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *Handler) downloadFile(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	_, data, err := h.files.Content(c.Request.Context(), file.FileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file content not available"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, data)
}

func (h *Handler) deleteFile(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	if err := h.files.Delete(c.Request.Context(), file.FileID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
