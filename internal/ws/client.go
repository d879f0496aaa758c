package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/store"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size allowed
	maxMessageSize = 512

	// Bound on session and membership lookups during a join
	joinTimeout = 5 * time.Second
)

// SessionVerifier resolves an opaque session token to a user id.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (int64, error)
}

// MembershipChecker is the team membership predicate consulted before a room
// join.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, teamID int64) (bool, error)
}

// Client represents one websocket connection. It starts unauthenticated: the
// session token captured at handshake time is re-verified on every join
// request, since the session can expire while the connection stays open.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// token comes from the handshake cookie and may be empty; a cookieless
	// connection is kept open but cannot join rooms.
	token  string
	userID int64

	sessions    SessionVerifier
	memberships MembershipChecker
	log         *logger.Logger
}

type joinTeamRequest struct {
	TeamID int64 `json:"teamId"`
}

type joinedTeamPayload struct {
	TeamID int64 `json:"teamId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, token string, sessions SessionVerifier, memberships MembershipChecker, log *logger.Logger) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		token:       token,
		sessions:    sessions,
		memberships: memberships,
		log:         log,
	}
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump reads inbound events until the connection drops. Its deferred
// cleanup is the one mandatory step on disconnect: the client leaves every
// room it joined, whatever the termination cause.
func (c *Client) readPump() {
	defer func() {
		c.hub.LeaveAll(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket closed unexpectedly", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.sendEvent("error", errorPayload{Message: "Malformed event"})
			continue
		}

		switch env.Event {
		case "joinTeam":
			var req joinTeamRequest
			if err := json.Unmarshal(env.Data, &req); err != nil || req.TeamID == 0 {
				c.sendEvent("error", errorPayload{Message: "Malformed event"})
				continue
			}
			c.handleJoin(req.TeamID)
		default:
			c.sendEvent("error", errorPayload{Message: "Unknown event"})
		}
	}
}

// handleJoin authenticates and authorizes a room join. The token is verified
// again here rather than trusting the handshake, and membership is checked
// against the durable relation; the hub is only updated when both pass.
func (c *Client) handleJoin(teamID int64) {
	if c.token == "" {
		c.log.Debug("join rejected (no cookie)", "team_id", teamID)
		c.sendEvent("error", errorPayload{Message: "Authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	userID, err := c.sessions.Verify(ctx, c.token)
	if err != nil {
		if errors.Is(err, store.ErrSessionInvalid) {
			c.log.Debug("join rejected (invalid session)", "team_id", teamID)
			c.sendEvent("error", errorPayload{Message: "Authentication required"})
		} else {
			c.log.Error("session verify failed during join", "error", err, "team_id", teamID)
			c.sendEvent("error", errorPayload{Message: "Server error while joining team"})
		}
		return
	}

	isMember, err := c.memberships.IsMember(ctx, userID, teamID)
	if err != nil {
		// Query failure is a deny, logged apart from a genuine non-member.
		c.log.Error("membership check failed during join", "error", err, "user_id", userID, "team_id", teamID)
		c.sendEvent("error", errorPayload{Message: "Server error while joining team"})
		return
	}
	if !isMember {
		c.log.Warn("unauthorized room join attempt", "user_id", userID, "team_id", teamID)
		c.sendEvent("error", errorPayload{Message: "Not authorized to join this team"})
		return
	}

	c.userID = userID
	c.hub.Join(c, teamID)
	c.sendEvent("joinedTeam", joinedTeamPayload{TeamID: teamID})
	c.log.Info("user joined team room", "user_id", userID, "team_id", teamID)
}

func (c *Client) sendEvent(event string, data interface{}) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		c.log.Error("failed to marshal event", "error", err, "event", event)
		return
	}
	select {
	case c.send <- payload:
	default:
		c.log.Warn("send buffer full, dropping event", "event", event)
	}
}

// writePump pumps queued events to the connection and keeps it alive with
// pings. It exits when a write fails, which also happens once the read pump
// has closed the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
