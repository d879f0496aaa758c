package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/huddlechat/huddle/internal/middleware"
	"github.com/huddlechat/huddle/internal/models"
	"github.com/huddlechat/huddle/internal/store"
)

type fakeUserStore struct {
	users     map[int64]*models.User
	createErr error
	nextID    int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUserStore) add(user models.User) *models.User {
	u := user
	f.users[u.ID] = &u
	return &u
}

func (f *fakeUserStore) Create(_ context.Context, email, passwordHash string) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return 0, store.ErrDuplicateEmail
		}
	}
	id := f.nextID
	f.nextID++
	f.users[id] = &models.User{ID: id, Email: email, Password: passwordHash}
	return id, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

type fakeSessionStore struct {
	tokens  map[string]int64
	nextTok int
	deleted []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{tokens: make(map[string]int64)}
}

func (f *fakeSessionStore) Create(_ context.Context, userID int64) (string, error) {
	f.nextTok++
	token := "tok-" + string(rune('a'+f.nextTok))
	f.tokens[token] = userID
	return token, nil
}

func (f *fakeSessionStore) Verify(_ context.Context, token string) (int64, error) {
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return 0, store.ErrSessionInvalid
}

func (f *fakeSessionStore) Delete(_ context.Context, token string) error {
	delete(f.tokens, token)
	f.deleted = append(f.deleted, token)
	return nil
}

type membershipKey struct{ userID, teamID int64 }

type fakeTeamStore struct {
	members      map[membershipKey]bool
	isMemberErr  error
	participants []models.Participant
	teams        []models.Team
	nextTeamID   int64
	removed      []membershipKey
}

func newFakeTeamStore() *fakeTeamStore {
	return &fakeTeamStore{members: make(map[membershipKey]bool), nextTeamID: 1}
}

func (f *fakeTeamStore) addMember(userID, teamID int64) {
	f.members[membershipKey{userID, teamID}] = true
}

func (f *fakeTeamStore) CreateWithOwner(_ context.Context, name string, ownerID int64) (int64, error) {
	id := f.nextTeamID
	f.nextTeamID++
	f.teams = append(f.teams, models.Team{ID: id, Name: name})
	f.addMember(ownerID, id)
	return id, nil
}

func (f *fakeTeamStore) ListForUser(_ context.Context, userID int64) ([]models.Team, error) {
	var out []models.Team
	for _, t := range f.teams {
		if f.members[membershipKey{userID, t.ID}] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTeamStore) IsMember(_ context.Context, userID, teamID int64) (bool, error) {
	if f.isMemberErr != nil {
		return false, f.isMemberErr
	}
	return f.members[membershipKey{userID, teamID}], nil
}

func (f *fakeTeamStore) Participants(_ context.Context, teamID int64) ([]models.Participant, error) {
	return f.participants, nil
}

func (f *fakeTeamStore) RemoveMember(_ context.Context, userID, teamID int64) error {
	key := membershipKey{userID, teamID}
	delete(f.members, key)
	f.removed = append(f.removed, key)
	return nil
}

type fakeInviteStore struct {
	invites map[int64]*models.Invitation
	teams   *fakeTeamStore
	created []models.Invitation
	nextID  int64
}

func newFakeInviteStore(teams *fakeTeamStore) *fakeInviteStore {
	return &fakeInviteStore{invites: make(map[int64]*models.Invitation), teams: teams, nextID: 1}
}

func (f *fakeInviteStore) Create(_ context.Context, teamID, inviterID, inviteeID int64) (int64, error) {
	for _, inv := range f.invites {
		if inv.TeamID == teamID && inv.InviteeID == inviteeID && inv.Status == models.InviteStatusPending {
			return 0, store.ErrDuplicateInvite
		}
	}
	id := f.nextID
	f.nextID++
	inv := models.Invitation{ID: id, TeamID: teamID, InviterID: inviterID, InviteeID: inviteeID, Status: models.InviteStatusPending}
	f.invites[id] = &inv
	f.created = append(f.created, inv)
	return id, nil
}

func (f *fakeInviteStore) ListPendingForUser(_ context.Context, userID int64) ([]models.Notification, error) {
	var out []models.Notification
	for _, inv := range f.invites {
		if inv.InviteeID == userID && inv.Status == models.InviteStatusPending {
			out = append(out, models.Notification{ID: inv.ID, TeamID: inv.TeamID, Status: inv.Status})
		}
	}
	return out, nil
}

func (f *fakeInviteStore) Resolve(_ context.Context, inviteID, inviteeID int64, accept bool) error {
	inv, ok := f.invites[inviteID]
	if !ok || inv.InviteeID != inviteeID {
		return store.ErrNotFound
	}
	if inv.Status != models.InviteStatusPending {
		return store.ErrInviteResolved
	}
	if accept {
		inv.Status = models.InviteStatusAccepted
		if f.teams != nil {
			f.teams.addMember(inviteeID, inv.TeamID)
		}
	} else {
		inv.Status = models.InviteStatusRejected
	}
	return nil
}

type appendedMessage struct {
	teamID, senderID int64
	content          string
}

type fakeMessageStore struct {
	appendErr error
	appended  []appendedMessage
	createdAt time.Time
	history   []models.Message
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{createdAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeMessageStore) Append(_ context.Context, teamID, senderID int64, content string) (time.Time, error) {
	if f.appendErr != nil {
		return time.Time{}, f.appendErr
	}
	f.appended = append(f.appended, appendedMessage{teamID, senderID, content})
	return f.createdAt, nil
}

func (f *fakeMessageStore) ListByTeam(_ context.Context, teamID int64) ([]models.Message, error) {
	return f.history, nil
}

type broadcastCall struct {
	teamID int64
	event  string
	data   interface{}
}

type fakeBroadcaster struct {
	calls []broadcastCall
}

func (f *fakeBroadcaster) BroadcastEvent(teamID int64, event string, data interface{}) {
	f.calls = append(f.calls, broadcastCall{teamID, event, data})
}

// authedRequest builds a JSON request carrying an authenticated user id, the
// way the session middleware would have.
func authedRequest(t *testing.T, method, target string, body interface{}, userID int64) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	return r.WithContext(context.WithValue(r.Context(), middleware.UserContextKey, userID))
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, target, &buf)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
