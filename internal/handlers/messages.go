package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/middleware"
	"github.com/huddlechat/huddle/internal/store"
)

// Broadcaster fans an event out to a team's live room. Implemented by ws.Hub.
type Broadcaster interface {
	BroadcastEvent(teamID int64, event string, data interface{})
}

// MessageHandler serves message sending and history. Sending goes through
// this HTTP path only; the websocket channel never accepts chat content, so
// persistence always precedes delivery.
type MessageHandler struct {
	Messages store.MessageStore
	Teams    store.TeamStore
	Users    store.UserStore
	Rooms    Broadcaster
	Log      *logger.Logger
}

// NewMessageHandler creates a new instance of MessageHandler.
func NewMessageHandler(messages store.MessageStore, teams store.TeamStore, users store.UserStore, rooms Broadcaster, log *logger.Logger) *MessageHandler {
	return &MessageHandler{Messages: messages, Teams: teams, Users: users, Rooms: rooms, Log: log}
}

type sendMessageRequest struct {
	TeamID  int64  `json:"teamId"`
	Content string `json:"content"`
}

type newMessagePayload struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

// SendMessage persists a message and then broadcasts it to the team room.
// The broadcast happens strictly after the append succeeds: a persistence
// failure means zero broadcasts.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.TeamID == 0 || req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "Team ID and content are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if !h.requireMember(ctx, w, userID, req.TeamID) {
		return
	}

	createdAt, err := h.Messages.Append(ctx, req.TeamID, userID, req.Content)
	if err != nil {
		h.Log.Error("failed to persist message", "error", err, "team_id", req.TeamID, "user_id", userID)
		respondWithError(w, http.StatusBadRequest, "Failed to send message")
		return
	}

	sender := ""
	if user, err := h.Users.GetByID(ctx, userID); err == nil {
		sender = user.Email
	} else {
		h.Log.Error("failed to resolve sender email", "error", err, "user_id", userID)
	}

	// The message counts as sent once stored, even with no sockets connected.
	h.Rooms.BroadcastEvent(req.TeamID, "newMessage", newMessagePayload{
		Sender: sender,
		Text:   req.Content,
		Date:   createdAt,
	})

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Message sent successfully",
		"date":    createdAt,
		"sender":  sender,
		"text":    req.Content,
	})
}

// ViewMessages returns the team's full history in ascending order.
func (h *MessageHandler) ViewMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req teamIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TeamID == 0 {
		respondWithError(w, http.StatusBadRequest, "Team ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if !h.requireMember(ctx, w, userID, req.TeamID) {
		return
	}

	messages, err := h.Messages.ListByTeam(ctx, req.TeamID)
	if err != nil {
		h.Log.Error("failed to list messages", "error", err, "team_id", req.TeamID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *MessageHandler) requireMember(ctx context.Context, w http.ResponseWriter, userID, teamID int64) bool {
	isMember, err := h.Teams.IsMember(ctx, userID, teamID)
	if err != nil {
		h.Log.Error("membership check failed", "error", err, "user_id", userID, "team_id", teamID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return false
	}
	if !isMember {
		h.Log.Warn("unauthorized message access attempt", "user_id", userID, "team_id", teamID)
		respondWithError(w, http.StatusUnauthorized, "You are unauthorized")
		return false
	}
	return true
}
