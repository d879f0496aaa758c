package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/middleware"
	"github.com/huddlechat/huddle/internal/store"
)

// InviteHandler serves invitation sending, listing, and resolution.
type InviteHandler struct {
	Invites store.InviteStore
	Teams   store.TeamStore
	Users   store.UserStore
	Log     *logger.Logger
}

// NewInviteHandler creates a new instance of InviteHandler.
func NewInviteHandler(invites store.InviteStore, teams store.TeamStore, users store.UserStore, log *logger.Logger) *InviteHandler {
	return &InviteHandler{Invites: invites, Teams: teams, Users: users, Log: log}
}

type sendInviteRequest struct {
	InviteeEmail string `json:"invitee_email"`
	TeamID       int64  `json:"teamId"`
}

type handleInviteRequest struct {
	InviteID int64  `json:"invite_id"`
	Action   string `json:"action"`
}

// SendInvite creates a pending invitation. The inviter must be a member of
// the team; the invitee is looked up by email.
func (h *InviteHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req sendInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.InviteeEmail == "" || req.TeamID == 0 {
		respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	canInvite, err := h.Teams.IsMember(ctx, userID, req.TeamID)
	if err != nil {
		h.Log.Error("membership check failed", "error", err, "user_id", userID, "team_id", req.TeamID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if !canInvite {
		respondWithError(w, http.StatusForbidden, "You are not authorized to send invitations for this team")
		return
	}

	invitee, err := h.Users.GetByEmail(ctx, req.InviteeEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusBadRequest, "User not found")
			return
		}
		h.Log.Error("failed to look up invitee", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	alreadyMember, err := h.Teams.IsMember(ctx, invitee.ID, req.TeamID)
	if err != nil {
		h.Log.Error("membership check failed", "error", err, "user_id", invitee.ID, "team_id", req.TeamID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if alreadyMember {
		respondWithError(w, http.StatusBadRequest, "User is already a member of this team")
		return
	}

	inviteID, err := h.Invites.Create(ctx, req.TeamID, userID, invitee.ID)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateInvite) {
			respondWithError(w, http.StatusBadRequest, "An invitation is already pending for this user")
			return
		}
		h.Log.Error("failed to create invite", "error", err, "team_id", req.TeamID)
		respondWithError(w, http.StatusBadRequest, "Failed to send invitation")
		return
	}

	h.Log.Info("invitation sent", "invite_id", inviteID, "team_id", req.TeamID, "inviter_id", userID, "invitee_id", invitee.ID)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Invitation sent"})
}

// GetNotifications lists the caller's pending invitations.
func (h *InviteHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	notifications, err := h.Invites.ListPendingForUser(ctx, userID)
	if err != nil {
		h.Log.Error("failed to list notifications", "error", err, "user_id", userID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong getting notifications")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// HandleInvite accepts or rejects a pending invitation addressed to the
// caller. A second resolution of the same invite fails: the accept/reject
// transition happens exactly once.
func (h *InviteHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req handleInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request parameters")
		return
	}
	if req.InviteID == 0 || (req.Action != "accept" && req.Action != "reject") {
		respondWithError(w, http.StatusBadRequest, "Invalid request parameters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	err := h.Invites.Resolve(ctx, req.InviteID, userID, req.Action == "accept")
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInviteResolved):
			respondWithError(w, http.StatusBadRequest, "Invitation has already been processed")
		case errors.Is(err, store.ErrNotFound):
			respondWithError(w, http.StatusBadRequest, "Invitation not found")
		default:
			h.Log.Error("failed to resolve invite", "error", err, "invite_id", req.InviteID)
			respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	h.Log.Info("invitation resolved", "invite_id", req.InviteID, "user_id", userID, "action", req.Action)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Successfully " + req.Action + "ed invitation"})
}
