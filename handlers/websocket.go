package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"starter-server/apperrors"
	"starter-server/logger"
	"starter-server/middleware"
	"starter-server/usecases"
	"starter-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	maxFrameSize = 4096
)

// WebSocket message envelopes
type incomingMessage struct {
	Type string `json:"type"` // ping | mark_read | mark_all_read
	ID   string `json:"id,omitempty"`
}

type outgoingMessage struct {
	Type string      `json:"type"` // pong | unread_count | notification | error
	Data interface{} `json:"data,omitempty"`
}

// WSHandler groups dependencies for websocket flows
type WSHandler struct {
	mgr           *ws.Manager
	notifications *usecases.NotificationUseCase
	log           logger.Logger
	upgrader      websocket.Upgrader
}

func NewWSHandler(mgr *ws.Manager, notifications *usecases.NotificationUseCase, allowedOrigins []string, log logger.Logger) *WSHandler {
	return &WSHandler{
		mgr:           mgr,
		notifications: notifications,
		log:           log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients), any origin when "*" is configured, or one of the listed origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleNotificationsWS upgrades to websocket and streams the caller's
// notifications.
// GET /api/v1/notifications/ws
func (h *WSHandler) HandleNotificationsWS(c *gin.Context) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "UNAUTHORIZED"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed: ", err)
		return
	}
	client := h.mgr.Register(p.UserID, conn)
	h.log.Debug("websocket connected: ", p.UserID)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.mgr.Unregister(client)
		h.log.Debug("websocket disconnected: ", p.UserID)
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.keepAlive(ctx, client)

	h.sendUnread(ctx, client)

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error from ", p.UserID, ": ", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var msg incomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.write(client, outgoingMessage{Type: "error", Data: "invalid json"})
			continue
		}

		switch msg.Type {
		case "ping":
			h.write(client, outgoingMessage{Type: "pong"})
		case "mark_read":
			if err := h.notifications.MarkRead(ctx, p.UserID, msg.ID); err != nil {
				appErr := apperrors.From(err)
				if appErr.Status >= http.StatusInternalServerError {
					h.log.Error("mark read over websocket failed: ", err)
				}
				h.write(client, outgoingMessage{Type: "error", Data: appErr.Message})
				continue
			}
			h.sendUnread(ctx, client)
		case "mark_all_read":
			if _, err := h.notifications.MarkAllRead(ctx, p.UserID); err != nil {
				h.log.Error("mark all read over websocket failed: ", err)
				continue
			}
			h.sendUnread(ctx, client)
		default:
			h.write(client, outgoingMessage{Type: "error", Data: "unknown message type"})
		}
	}
}

func (h *WSHandler) keepAlive(ctx context.Context, client *ws.Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) sendUnread(ctx context.Context, client *ws.Client) {
	n, err := h.notifications.UnreadCount(ctx, client.UserID)
	if err != nil {
		h.log.Error("unread count failed: ", err)
		return
	}
	h.write(client, outgoingMessage{Type: "unread_count", Data: gin.H{"unread": n}})
}

func (h *WSHandler) write(client *ws.Client, msg outgoingMessage) {
	b, _ := json.Marshal(msg)
	if err := client.Write(b); err != nil {
		h.log.Debug("websocket write to ", client.UserID, " failed: ", err)
	}
}

// GetConnections GET /api/v1/admin/connections
func (h *WSHandler) GetConnections(c *gin.Context) {
	users := h.mgr.List()
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"users":       users,
		"count":       len(users),
		"connections": h.mgr.Count(),
	}})
}
