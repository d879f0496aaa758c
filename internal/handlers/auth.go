package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/middleware"
	"github.com/huddlechat/huddle/internal/store"
)

// AuthHandler serves registration, login, logout, and the profile email
// endpoint.
type AuthHandler struct {
	Users    store.UserStore
	Sessions store.SessionStore
	Log      *logger.Logger
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(users store.UserStore, sessions store.SessionStore, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Users: users, Sessions: sessions, Log: log}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates the account, opens a session, and sets the cookie.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("failed to hash password", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	userID, err := h.Users.Create(ctx, req.Email, string(hash))
	if err != nil {
		h.Log.Error("failed to create user", "error", err, "email", req.Email)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	token, err := h.Sessions.Create(ctx, userID)
	if err != nil {
		h.Log.Error("failed to create session", "error", err, "user_id", userID)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	middleware.SetSessionCookie(w, token)
	h.Log.Info("user registered", "user_id", userID)
	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login verifies credentials, opens a session, and sets the cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.Log.Error("failed to look up user", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Sessions.Create(ctx, user.ID)
	if err != nil {
		h.Log.Error("failed to create session", "error", err, "user_id", user.ID)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	middleware.SetSessionCookie(w, token)
	h.Log.Info("user logged in", "user_id", user.ID)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Successful Login"})
}

// Logout deletes the session and clears the cookie. It does not sit behind
// the session middleware: a missing cookie is a plain 401, an invalid one
// still gets cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.CookieName)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := h.Sessions.Delete(ctx, cookie.Value); err != nil {
		h.Log.Error("failed to delete session", "error", err)
	}

	middleware.ClearSessionCookie(w)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Email returns the authenticated user's email and username.
func (h *AuthHandler) Email(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("failed to get user", "error", err, "user_id", userID)
		respondWithError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"email":    user.Email,
		"username": user.Username,
	})
}
