package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/middleware"
	"github.com/huddlechat/huddle/internal/store"
	"github.com/huddlechat/huddle/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, replace with proper origin checking
	},
}

// WebSocketHandler upgrades connections into gateway clients.
type WebSocketHandler struct {
	Hub      *ws.Hub
	Sessions store.SessionStore
	Teams    store.TeamStore
	Log      *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *ws.Hub, sessions store.SessionStore, teams store.TeamStore, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{Hub: hub, Sessions: sessions, Teams: teams, Log: log}
}

// HandleWebSocket upgrades the connection. The session cookie is captured
// here but not required: a connection without one stays open and gets an
// authentication error on its first join attempt instead.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(middleware.CookieName); err == nil {
		token = cookie.Value
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Error("failed to upgrade connection", "error", err)
		return
	}

	h.Log.Debug("websocket connected", "remote", conn.RemoteAddr().String(), "has_cookie", token != "")
	ws.NewClient(h.Hub, conn, token, h.Sessions, h.Teams, h.Log).Start()
}
