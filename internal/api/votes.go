package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ollamahub/internal/models"
)

type createVoteRequest struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	VoteInt   int    `json:"vote_int"`
	Comment   string `json:"comment"`
}

func (h *Handler) createVote(c *gin.Context) {
	var req createVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, ok := h.requireChatOwner(c, req.ChatID); !ok {
		return
	}
	vote, err := h.chats.CreateVote(c.Request.Context(), models.ChatVote{
		ChatID:    req.ChatID,
		MessageID: req.MessageID,
		VoteInt:   req.VoteInt,
		Comment:   req.Comment,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, vote)
}

func (h *Handler) listVotes(c *gin.Context) {
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}
	if _, ok := h.requireChatOwner(c, chatID); !ok {
		return
	}
	list, err := h.chats.ListVotes(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = make([]models.ChatVote, 0)
	}
	c.JSON(http.StatusOK, gin.H{"votes": list})
}

func (h *Handler) getVote(c *gin.Context) {
	voteID, ok := pathID(c, "voteId")
	if !ok {
		return
	}
	vote, err := h.chats.GetVote(c.Request.Context(), voteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vote not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, ok := h.requireChatOwner(c, vote.ChatID); !ok {
		return
	}
	c.JSON(http.StatusOK, vote)
}

func (h *Handler) deleteVote(c *gin.Context) {
	voteID, ok := pathID(c, "voteId")
	if !ok {
		return
	}
	vote, err := h.chats.GetVote(c.Request.Context(), voteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vote not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, ok := h.requireChatOwner(c, vote.ChatID); !ok {
		return
	}
	if err := h.chats.DeleteVote(c.Request.Context(), voteID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
