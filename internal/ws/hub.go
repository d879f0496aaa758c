// Package ws contains the websocket gateway: the room registry that tracks
// which connections are listening to which team, and the per-connection
// client that handles join requests and fan-out delivery.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/huddlechat/huddle/internal/logger"
)

// Envelope is the wire framing for every websocket event, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub is the in-memory room registry. It maps teams to connected clients and
// keeps the inverse map so a disconnect only touches the rooms the connection
// actually joined. It is not an authorization source: membership is checked
// before Join is ever called, and the hub only tracks who is listening now.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[int64]map[*Client]struct{}
	clientRooms map[*Client]map[int64]struct{}
	log         *logger.Logger
}

// NewHub creates an empty room registry.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms:       make(map[int64]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[int64]struct{}),
		log:         log,
	}
}

// Join registers the client in a team room. Joining twice is the same as
// joining once.
func (h *Hub) Join(c *Client, teamID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[teamID] == nil {
		h.rooms[teamID] = make(map[*Client]struct{})
	}
	h.rooms[teamID][c] = struct{}{}

	if h.clientRooms[c] == nil {
		h.clientRooms[c] = make(map[int64]struct{})
	}
	h.clientRooms[c][teamID] = struct{}{}
}

// Leave removes the client from one team room, pruning the room entry if it
// becomes empty.
func (h *Hub) Leave(c *Client, teamID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, teamID)
}

// LeaveAll removes the client from every room it joined. Called from the read
// pump's cleanup on every disconnect, normal or not.
func (h *Hub) LeaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for teamID := range h.clientRooms[c] {
		h.leaveLocked(c, teamID)
	}
}

func (h *Hub) leaveLocked(c *Client, teamID int64) {
	if clients, ok := h.rooms[teamID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, teamID)
		}
	}
	if teams, ok := h.clientRooms[c]; ok {
		delete(teams, teamID)
		if len(teams) == 0 {
			delete(h.clientRooms, c)
		}
	}
}

// BroadcastEvent delivers an event to every connection currently in the team
// room. Best-effort fan-out: clients whose send buffer is full are skipped,
// durability belongs to the message store.
func (h *Hub) BroadcastEvent(teamID int64, event string, data interface{}) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		h.log.Error("failed to marshal broadcast event", "error", err, "event", event)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[teamID] {
		select {
		case c.send <- payload:
		default:
			h.log.Warn("dropping event for slow client", "team_id", teamID, "event", event)
		}
	}
}

// RoomSize reports how many connections are in a team room.
func (h *Hub) RoomSize(teamID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[teamID])
}

func marshalEvent(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
