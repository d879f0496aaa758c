package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/huddlechat/huddle/internal/handlers"
	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/middleware"
	"github.com/huddlechat/huddle/internal/store"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Teams     *handlers.TeamHandler
	Invites   *handlers.InviteHandler
	Messages  *handlers.MessageHandler
	WebSocket *handlers.WebSocketHandler
}

// Register mounts all routes. Public routes sit at the top level, everything
// under /protected runs behind the session middleware, and /ws is registered
// outside it so cookieless connections are accepted (joins still are not).
func Register(h Handlers, sessions store.SessionStore, log *logger.Logger) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	router.HandleFunc("/logout", h.Auth.Logout).Methods(http.MethodPost)

	router.HandleFunc("/ws", h.WebSocket.HandleWebSocket).Methods(http.MethodGet)

	protected := router.PathPrefix("/protected").Subrouter()
	protected.Use(middleware.Session(sessions, log), middleware.ResponseWrapper)

	protected.HandleFunc("/email", h.Auth.Email).Methods(http.MethodGet)

	protected.HandleFunc("/create-team", h.Teams.CreateTeam).Methods(http.MethodPost)
	protected.HandleFunc("/get-teams", h.Teams.GetTeams).Methods(http.MethodGet)
	protected.HandleFunc("/get-participants-in-team", h.Teams.GetParticipants).Methods(http.MethodPost)
	protected.HandleFunc("/leave-team", h.Teams.LeaveTeam).Methods(http.MethodDelete)

	protected.HandleFunc("/send-invite", h.Invites.SendInvite).Methods(http.MethodPost)
	protected.HandleFunc("/get-notifications", h.Invites.GetNotifications).Methods(http.MethodGet)
	protected.HandleFunc("/handle-invite", h.Invites.HandleInvite).Methods(http.MethodPost)

	protected.HandleFunc("/send-message-in-team", h.Messages.SendMessage).Methods(http.MethodPost)
	protected.HandleFunc("/view-messages-in-team", h.Messages.ViewMessages).Methods(http.MethodGet, http.MethodPost)

	return router
}
