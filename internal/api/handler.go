// Package api wires the HTTP routes to the underlying services.
package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ollamahub/internal/auth"
	"ollamahub/internal/models"
	"ollamahub/internal/ollama"
	"ollamahub/internal/service/chats"
	"ollamahub/internal/service/fileai"
	"ollamahub/internal/service/files"
	"ollamahub/internal/service/servers"
)

// Handler exposes the HTTP surface over the chat, file and server services.
type Handler struct {
	auth    *auth.Service
	chats   *chats.Service
	files   *files.Service
	fileAI  *fileai.Service
	servers *servers.Service
	manager *ollama.Manager
	monitor *ollama.Monitor
}

// NewHandler constructs a Handler instance.
func NewHandler(authService *auth.Service, chatService *chats.Service, fileService *files.Service, fileAIService *fileai.Service, serverService *servers.Service, manager *ollama.Manager, monitor *ollama.Monitor) *Handler {
	return &Handler{
		auth:    authService,
		chats:   chatService,
		files:   fileService,
		fileAI:  fileAIService,
		servers: serverService,
		manager: manager,
		monitor: monitor,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.POST("/auth/signup", h.signup)
	api.POST("/auth/login", h.login)
	api.GET("/share/:shareToken", h.sharedChat)

	authMW := h.auth.Middleware()
	protected := api.Group("")
	protected.Use(authMW, h.auth.CSRFMiddleware())

	protected.POST("/auth/logout", h.logout)
	protected.POST("/auth/change-password", h.changePassword)
	protected.GET("/auth/validate-token", h.validateToken)
	protected.DELETE("/auth/account", h.deleteAccount)

	protected.POST("/chat", h.createChat)
	protected.GET("/chat", h.listChats)
	protected.POST("/chat/generate", h.generate)
	protected.GET("/chat/:chatId", h.getChat)
	protected.PUT("/chat/:chatId/title", h.updateChatTitle)
	protected.DELETE("/chat/:chatId", h.deleteChat)
	protected.DELETE("/chat", h.deleteAllChats)
	protected.GET("/chat/:chatId/share", h.getShareToken)
	protected.POST("/chat/:chatId/regenerate-share", h.regenerateShareToken)

	protected.POST("/messages", h.createMessage)
	protected.GET("/messages/chat/:chatId", h.listMessages)
	protected.GET("/messages/:messageId", h.getMessage)
	protected.DELETE("/messages/:messageId", h.deleteMessage)

	protected.POST("/files/upload", h.uploadFile)
	protected.GET("/files/chat/:chatId", h.listChatFiles)
	protected.GET("/files/download/:fileId", h.downloadFile)
	protected.GET("/files/:fileId", h.getFile)
	protected.DELETE("/files/:fileId", h.deleteFile)

	protected.POST("/files/ai/analyze", h.analyzeUpload)
	protected.POST("/files/ai/question/:fileId", h.askAboutFile)
	protected.POST("/files/ai/question-with-context/:fileId", h.askWithContext)
	protected.POST("/files/ai/summarize/:fileId", h.summarizeFile)
	protected.POST("/files/ai/detailed-analysis/:fileId", h.analyzeFile)
	protected.GET("/files/ai/text/:fileId", h.fileText)
	protected.POST("/files/ai/re-extract/:fileId", h.reExtractFile)

	protected.POST("/votes", h.createVote)
	protected.GET("/votes/chat/:chatId", h.listVotes)
	protected.GET("/votes/:voteId", h.getVote)
	protected.DELETE("/votes/:voteId", h.deleteVote)

	protected.POST("/server", h.createServer)
	protected.GET("/server", h.listServers)
	protected.GET("/server/default/status/check", h.checkDefaultServer)
	protected.POST("/server/status/check-all", h.checkAllServers)
	protected.GET("/server/:serverId", h.getServer)
	protected.DELETE("/server/:serverId", h.deleteServer)
	protected.PUT("/server/:serverId/status", h.updateServerStatus)
	protected.PUT("/server/:serverId/token", h.updateServerToken)
	protected.POST("/server/:serverId/token/regenerate", h.regenerateServerToken)
	protected.GET("/server/:serverId/status/check", h.checkServer)

	protected.POST("/share/generate/:chatId", h.regenerateShareToken)
	protected.DELETE("/share/disable/:chatId", h.disableShare)
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

// requireChatOwner loads the chat in the path parameter and checks it belongs
// to the authenticated user. Every chat-scoped handler goes through here.
func (h *Handler) requireChatOwner(c *gin.Context, chatID int64) (*models.Chat, bool) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return nil, false
	}
	chat, err := h.chats.Get(c.Request.Context(), chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if chat.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "chat does not belong to user"})
		return nil, false
	}
	return chat, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	setCookie(c, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	setCookie(c, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		setCookie(c, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func setCookie(c *gin.Context, ck *http.Cookie) {
	if ck == nil {
		return
	}
	http.SetCookie(c.Writer, ck)
}
