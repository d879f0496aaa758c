package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/middleware"
	"github.com/huddlechat/huddle/internal/store"
)

// TeamHandler serves team creation, listing, participants, and leaving.
type TeamHandler struct {
	Teams store.TeamStore
	Log   *logger.Logger
}

// NewTeamHandler creates a new instance of TeamHandler.
func NewTeamHandler(teams store.TeamStore, log *logger.Logger) *TeamHandler {
	return &TeamHandler{Teams: teams, Log: log}
}

type createTeamRequest struct {
	TeamName string `json:"teamName"`
}

type teamIDRequest struct {
	TeamID int64 `json:"teamId"`
}

// CreateTeam inserts the team with the caller as first member, atomically.
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TeamName == "" {
		respondWithError(w, http.StatusBadRequest, "Team name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	teamID, err := h.Teams.CreateWithOwner(ctx, req.TeamName, userID)
	if err != nil {
		h.Log.Error("failed to create team", "error", err, "user_id", userID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.Log.Info("team created", "team_id", teamID, "user_id", userID)
	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Team Successfully Created"})
}

// GetTeams lists the caller's teams.
func (h *TeamHandler) GetTeams(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	teams, err := h.Teams.ListForUser(ctx, userID)
	if err != nil {
		h.Log.Error("failed to list teams", "error", err, "user_id", userID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "teams": teams})
}

// GetParticipants lists the members of a team the caller belongs to.
func (h *TeamHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
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

	participants, err := h.Teams.Participants(ctx, req.TeamID)
	if err != nil {
		h.Log.Error("failed to list participants", "error", err, "team_id", req.TeamID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"participants": participants})
}

// LeaveTeam removes the caller's membership row.
func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
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

	isMember, err := h.Teams.IsMember(ctx, userID, req.TeamID)
	if err != nil {
		h.Log.Error("membership check failed", "error", err, "user_id", userID, "team_id", req.TeamID)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if !isMember {
		respondWithError(w, http.StatusBadRequest, "You are not a member of this team")
		return
	}

	if err := h.Teams.RemoveMember(ctx, userID, req.TeamID); err != nil {
		h.Log.Error("failed to leave team", "error", err, "user_id", userID, "team_id", req.TeamID)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.Log.Info("user left team", "user_id", userID, "team_id", req.TeamID)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Left Team Successfully"})
}

// requireMember writes the response and returns false when the caller is not
// a member. A store failure counts as deny but is logged as an error.
func (h *TeamHandler) requireMember(ctx context.Context, w http.ResponseWriter, userID, teamID int64) bool {
	isMember, err := h.Teams.IsMember(ctx, userID, teamID)
	if err != nil {
		h.Log.Error("membership check failed", "error", err, "user_id", userID, "team_id", teamID)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
		return false
	}
	if !isMember {
		h.Log.Warn("unauthorized team access attempt", "user_id", userID, "team_id", teamID)
		respondWithError(w, http.StatusUnauthorized, "You are unauthorized")
		return false
	}
	return true
}
