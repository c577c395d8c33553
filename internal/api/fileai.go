package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ollamahub/internal/extract"
)

// analyzeUpload runs extraction on an uploaded document without persisting
// anything, so clients can inspect what the assistant would see.
func (h *Handler) analyzeUpload(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
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
	c.JSON(http.StatusOK, extract.Analyze(data, fileHeader.Filename, contentType))
}

type fileQuestionRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
	Model    string `json:"model"`
}

func (h *Handler) askAboutFile(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	var req fileQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	answer := h.fileAI.AskAboutFile(c.Request.Context(), file.FileID, req.Question, req.Model)
	c.JSON(http.StatusOK, gin.H{"response": answer})
}

func (h *Handler) askWithContext(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	var req fileQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	answer := h.fileAI.AskWithContext(c.Request.Context(), file.FileID, req.Question, req.Context, req.Model)
	c.JSON(http.StatusOK, gin.H{"response": answer})
}

func (h *Handler) summarizeFile(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	var req fileQuestionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	summary := h.fileAI.Summarize(c.Request.Context(), file.FileID, req.Model)
	c.JSON(http.StatusOK, gin.H{"response": summary})
}

func (h *Handler) analyzeFile(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	var req fileQuestionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	analysis := h.fileAI.Analyze(c.Request.Context(), file.FileID, req.Model)
	c.JSON(http.StatusOK, gin.H{"response": analysis})
}

func (h *Handler) fileText(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"file_id":                    file.FileID,
		"file_name":                  file.FileName,
		"extracted_text":             file.ExtractedText,
		"text_extraction_successful": file.TextExtractionSuccessful,
	})
}

func (h *Handler) reExtractFile(c *gin.Context) {
	file, ok := h.requireFileOwner(c)
	if !ok {
		return
	}
	updated, err := h.files.ReExtract(c.Request.Context(), file.FileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}
