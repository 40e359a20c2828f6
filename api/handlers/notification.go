package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/models"
)

const writeWait = 10 * time.Second

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the mobile app sends no Origin; access tokens gate the socket
		return true
	},
}

// TokenVerifier resolves an access token to a user id
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// NotificationHub keeps the open notification sockets of each user
type NotificationHub struct {
	clients map[string]map[*websocket.Conn]bool
	mutex   sync.Mutex
}

// NewNotificationHub returns an empty hub
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{clients: make(map[string]map[*websocket.Conn]bool)}
}

// HandleNotificationsWebSocket upgrades the caller to a socket that receives new
// bell notifications. The access token comes in the access_token query parameter.
func (h *NotificationHub) HandleNotificationsWebSocket(verifier TokenVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := verifier.VerifyToken(r.URL.Query().Get("access_token"))
		if err != nil {
			zap.S().Infow("rejected notification socket", "error", err)
			http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			zap.S().Warnw("WebSocket upgrade error", "error", err)
			return
		}
		h.register(userID, conn)
		zap.S().Debugw("user connected to /ws/notifications", "userId", userID)

		// Keep connection alive until the client goes away
		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
		h.unregister(userID, conn)
		zap.S().Debugw("user disconnected from /ws/notifications", "userId", userID)
	}
}

// Broadcast sends a bell notification to every open socket of userID
func (h *NotificationHub) Broadcast(userID string, notification models.Notification) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients[userID] {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteJSON(map[string]interface{}{
			"event": "new_notification",
			"data":  notification,
		})
		if err != nil {
			zap.S().Infow("dropping notification socket", "userId", userID, "error", err)
			h.removeLocked(userID, conn)
		}
	}
}

// Connected returns the number of open sockets for userID
func (h *NotificationHub) Connected(userID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients[userID])
}

func (h *NotificationHub) register(userID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
}

func (h *NotificationHub) unregister(userID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(userID, conn)
}

func (h *NotificationHub) removeLocked(userID string, conn *websocket.Conn) {
	conns := h.clients[userID]
	if !conns[conn] {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	_ = conn.Close()
}
