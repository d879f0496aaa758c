package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/store"
)

type contextKey string

// UserContextKey is where the session middleware stores the authenticated
// user's id.
const UserContextKey contextKey = "currentUser"

// CookieName is the session cookie. The value is an opaque lookup key into
// the session store, not a claims token.
const CookieName = "auth_token"

// CookieMaxAge matches the session TTL.
const CookieMaxAge = 3600

const verifyTimeout = 5 * time.Second

// SetSessionCookie writes the session cookie on a login or registration
// response.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// UserID extracts the authenticated user id set by the session middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserContextKey).(int64)
	return id, ok
}

// Session verifies the auth_token cookie against the session store and
// injects the user id into the request context. Missing, invalid, and expired
// tokens all get a 401 with the cookie cleared; a store failure is treated as
// unauthenticated but logged as an error so it can be told apart.
func Session(sessions store.SessionStore, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				log.Debug("session failure (no cookie)", "path", r.URL.Path)
				unauthorized(w)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), verifyTimeout)
			defer cancel()

			userID, err := sessions.Verify(ctx, cookie.Value)
			if err != nil {
				if errors.Is(err, store.ErrSessionInvalid) {
					log.Debug("session failure (invalid cookie)", "path", r.URL.Path)
				} else {
					log.Error("session store failure", "error", err, "path", r.URL.Path)
				}
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserContextKey, userID)))
		})
	}
}

// ResponseWrapper sets the JSON content type for every wrapped route.
func ResponseWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	ClearSessionCookie(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
}
