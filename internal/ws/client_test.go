package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddlechat/huddle/internal/logger"
	"github.com/huddlechat/huddle/internal/store"
)

type fakeSessions struct {
	userID int64
	err    error
}

func (f *fakeSessions) Verify(_ context.Context, token string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.userID, nil
}

type fakeMemberships struct {
	member bool
	err    error
}

func (f *fakeMemberships) IsMember(_ context.Context, userID, teamID int64) (bool, error) {
	return f.member, f.err
}

var testUpgrader = websocket.Upgrader{}

// dialGateway stands a gateway up around fake stores and returns the hub and
// a connected client side.
func dialGateway(t *testing.T, token string, sessions SessionVerifier, memberships MembershipChecker) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub(logger.NewLogger("test"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		NewClient(hub, conn, token, sessions, memberships, logger.NewLogger("test")).Start()
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

func sendJoin(t *testing.T, conn *websocket.Conn, teamID int64) {
	t.Helper()
	data, err := json.Marshal(map[string]int64{"teamId": teamID})
	require.NoError(t, err)
	payload, err := json.Marshal(Envelope{Event: "joinTeam", Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

func readEvent(t *testing.T, conn *websocket.Conn) (string, map[string]interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(message, &env))
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return env.Event, data
}

func TestJoinWithoutCookieIsRejectedButConnectionStaysOpen(t *testing.T) {
	hub, conn := dialGateway(t, "", &fakeSessions{userID: 1}, &fakeMemberships{member: true})

	sendJoin(t, conn, 1)
	event, data := readEvent(t, conn)
	assert.Equal(t, "error", event)
	assert.Equal(t, "Authentication required", data["message"])
	assert.Equal(t, 0, hub.RoomSize(1))

	// The connection is still usable after the rejection.
	sendJoin(t, conn, 1)
	event, _ = readEvent(t, conn)
	assert.Equal(t, "error", event)
}

func TestJoinWithExpiredSessionIsRejected(t *testing.T) {
	hub, conn := dialGateway(t, "stale-token",
		&fakeSessions{err: store.ErrSessionInvalid}, &fakeMemberships{member: true})

	sendJoin(t, conn, 1)
	event, data := readEvent(t, conn)
	assert.Equal(t, "error", event)
	assert.Equal(t, "Authentication required", data["message"])
	assert.Equal(t, 0, hub.RoomSize(1))
}

func TestJoinWithSessionStoreFailureIsAServerError(t *testing.T) {
	hub, conn := dialGateway(t, "token",
		&fakeSessions{err: errors.New("store unreachable")}, &fakeMemberships{member: true})

	sendJoin(t, conn, 1)
	event, data := readEvent(t, conn)
	assert.Equal(t, "error", event)
	assert.Equal(t, "Server error while joining team", data["message"])
	assert.Equal(t, 0, hub.RoomSize(1))
}

func TestJoinAsNonMemberIsRejected(t *testing.T) {
	hub, conn := dialGateway(t, "token", &fakeSessions{userID: 4}, &fakeMemberships{member: false})

	sendJoin(t, conn, 9)
	event, data := readEvent(t, conn)
	assert.Equal(t, "error", event)
	assert.Equal(t, "Not authorized to join this team", data["message"])
	assert.Equal(t, 0, hub.RoomSize(9))
}

func TestJoinWithMembershipQueryFailureDenies(t *testing.T) {
	hub, conn := dialGateway(t, "token",
		&fakeSessions{userID: 4}, &fakeMemberships{err: errors.New("query failed")})

	sendJoin(t, conn, 9)
	event, data := readEvent(t, conn)
	assert.Equal(t, "error", event)
	assert.Equal(t, "Server error while joining team", data["message"])
	assert.Equal(t, 0, hub.RoomSize(9))
}

func TestJoinAsMemberIsAcknowledgedAndRegistered(t *testing.T) {
	hub, conn := dialGateway(t, "token", &fakeSessions{userID: 4}, &fakeMemberships{member: true})

	sendJoin(t, conn, 9)
	event, data := readEvent(t, conn)
	assert.Equal(t, "joinedTeam", event)
	assert.Equal(t, float64(9), data["teamId"])
	assert.Equal(t, 1, hub.RoomSize(9))
}

func TestDisconnectLeavesAllRooms(t *testing.T) {
	hub, conn := dialGateway(t, "token", &fakeSessions{userID: 4}, &fakeMemberships{member: true})

	for teamID := int64(1); teamID <= 3; teamID++ {
		sendJoin(t, conn, teamID)
		event, _ := readEvent(t, conn)
		require.Equal(t, "joinedTeam", event)
	}

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.RoomSize(1) == 0 && hub.RoomSize(2) == 0 && hub.RoomSize(3) == 0
	}, 2*time.Second, 10*time.Millisecond, "cleanup must run on disconnect")
}

func TestMalformedEventGetsAnErrorNotAClose(t *testing.T) {
	_, conn := dialGateway(t, "token", &fakeSessions{userID: 4}, &fakeMemberships{member: true})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	event, data := readEvent(t, conn)
	assert.Equal(t, "error", event)
	assert.Equal(t, "Malformed event", data["message"])
}
