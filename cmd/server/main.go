package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huddlechat/huddle/internal/config"
	"github.com/huddlechat/huddle/internal/database"
	"github.com/huddlechat/huddle/internal/handlers"
	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/routes"
	"github.com/huddlechat/huddle/internal/store/mysql"
	"github.com/huddlechat/huddle/internal/ws"
)

func main() {
	log := logger.NewLogger("huddle")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()
	log.Info("database connected")

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mysql.ApplySchema(schemaCtx, db); err != nil {
		cancelSchema()
		log.Fatal("failed to apply schema", "error", err)
	}
	cancelSchema()

	users := mysql.NewUserStore(db)
	sessions := mysql.NewSessionStore(db, cfg.SessionTTL)
	teams := mysql.NewTeamStore(db)
	invites := mysql.NewInviteStore(db)
	messages := mysql.NewMessageStore(db)

	hub := ws.NewHub(logger.NewLogger("room-registry"))

	router := routes.Register(routes.Handlers{
		Auth:      handlers.NewAuthHandler(users, sessions, logger.NewLogger("auth")),
		Teams:     handlers.NewTeamHandler(teams, logger.NewLogger("teams")),
		Invites:   handlers.NewInviteHandler(invites, teams, users, logger.NewLogger("invites")),
		Messages:  handlers.NewMessageHandler(messages, teams, users, hub, logger.NewLogger("messages")),
		WebSocket: handlers.NewWebSocketHandler(hub, sessions, teams, logger.NewLogger("gateway")),
	}, sessions, logger.NewLogger("session-middleware"))

	// No read/write timeouts: websocket connections are long-lived and the
	// gateway manages its own deadlines.
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info("server running", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
