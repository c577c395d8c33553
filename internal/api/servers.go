package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ollamahub/internal/models"
	"ollamahub/internal/service/servers"
)

type createServerRequest struct {
	EndpointURL  string `json:"endpoint_url"`
	EndpointPort int    `json:"endpoint_port"`
	Status       string `json:"status"`
	Token        string `json:"token"`
}

func (h *Handler) createServer(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	var req createServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	srv, err := h.servers.Create(c.Request.Context(), models.ChatServer{
		EndpointURL:  req.EndpointURL,
		EndpointPort: req.EndpointPort,
		Status:       req.Status,
		Token:        req.Token,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, srv)
}

func (h *Handler) listServers(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	list, err := h.servers.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = make([]models.ChatServer, 0)
	}
	c.JSON(http.StatusOK, gin.H{"servers": list})
}

func (h *Handler) getServer(c *gin.Context) {
	serverID, ok := pathID(c, "serverId")
	if !ok {
		return
	}
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	srv, err := h.servers.Get(c.Request.Context(), serverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, srv)
}

func (h *Handler) deleteServer(c *gin.Context) {
	serverID, ok := pathID(c, "serverId")
	if !ok {
		return
	}
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if err := h.servers.Delete(c.Request.Context(), serverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateServerStatus(c *gin.Context) {
	serverID, ok := pathID(c, "serverId")
	if !ok {
		return
	}
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.servers.UpdateStatus(c.Request.Context(), serverID, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateServerToken(c *gin.Context) {
	serverID, ok := pathID(c, "serverId")
	if !ok {
		return
	}
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.servers.UpdateToken(c.Request.Context(), serverID, req.Token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) regenerateServerToken(c *gin.Context) {
	serverID, ok := pathID(c, "serverId")
	if !ok {
		return
	}
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	token, err := h.servers.RegenerateToken(c.Request.Context(), serverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"server_id": serverID, "token": token})
}

func (h *Handler) checkServer(c *gin.Context) {
	serverID, ok := pathID(c, "serverId")
	if !ok {
		return
	}
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if _, err := h.servers.Get(c.Request.Context(), serverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	reachable := h.manager.Probe(c.Request.Context(), serverID)
	c.JSON(http.StatusOK, gin.H{"server_id": serverID, "reachable": reachable})
}

func (h *Handler) checkDefaultServer(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	srv, err := h.servers.FindDefault(c.Request.Context())
	if err != nil {
		if errors.Is(err, servers.ErrNoActiveServer) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	reachable := h.manager.Probe(c.Request.Context(), srv.ServerID)
	c.JSON(http.StatusOK, gin.H{"server_id": srv.ServerID, "reachable": reachable})
}

func (h *Handler) checkAllServers(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if err := h.monitor.CheckAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	list, err := h.servers.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = make([]models.ChatServer, 0)
	}
	c.JSON(http.StatusOK, gin.H{"servers": list})
}
