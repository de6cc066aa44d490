package handler

import (
	"net/http"
	"strings"

	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	// A nil CheckOrigin keeps gorilla's same-origin check.
	if len(h.AllowedOrigins) > 0 {
		u.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range h.AllowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		}
	}
	return u
}

// ServeWebSocket streams change events to staff dashboards. Browsers cannot
// set headers on a WebSocket handshake, so the token may come as ?token=.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}
		parsed, err := h.Accounts.Tokens().Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}
		p = *parsed
	}
	if err := auth.Require(p.Role, auth.PermViewAllComplaints); err != nil {
		h.respondError(c, err)
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewWebSocketClient(conn, h.Hub, h.Logger)
	select {
	case h.Hub.RegisterCh <- client:
		client.Run()
	case <-h.Hub.Done():
		conn.Close()
	}
}
