// Package store contains the persistence interfaces consumed by the HTTP
// handlers and the websocket gateway, plus the sentinel errors they translate
// into status codes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/huddlechat/huddle/internal/models"
)

var (
	// ErrSessionInvalid covers both unknown and expired session tokens.
	ErrSessionInvalid = errors.New("session invalid or expired")

	// ErrNotFound reports a missing row where the caller asked for a
	// specific entity.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail reports a registration against an existing email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInviteResolved reports an accept/reject against an invitation that
	// has already been accepted or rejected.
	ErrInviteResolved = errors.New("invitation already processed")

	// ErrDuplicateInvite reports a second pending invite for the same
	// invitee and team.
	ErrDuplicateInvite = errors.New("invitation already pending")

	// ErrAlreadyMember reports an invite aimed at an existing team member.
	ErrAlreadyMember = errors.New("user is already a team member")
)

// UserStore exposes account lookups and creation.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (int64, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionStore maps opaque tokens to user identities with a fixed TTL.
type SessionStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Verify(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}

// TeamStore exposes team records and the membership relation. IsMember is the
// sole authorization predicate: (false, nil) is the normal not-a-member
// outcome, a non-nil error is a store failure that callers treat as deny.
type TeamStore interface {
	CreateWithOwner(ctx context.Context, name string, ownerID int64) (int64, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Team, error)
	IsMember(ctx context.Context, userID, teamID int64) (bool, error)
	Participants(ctx context.Context, teamID int64) ([]models.Participant, error)
	RemoveMember(ctx context.Context, userID, teamID int64) error
}

// InviteStore exposes the invitation lifecycle.
type InviteStore interface {
	Create(ctx context.Context, teamID, inviterID, inviteeID int64) (int64, error)
	ListPendingForUser(ctx context.Context, userID int64) ([]models.Notification, error)
	Resolve(ctx context.Context, inviteID, inviteeID int64, accept bool) error
}

// MessageStore exposes durable, ordered chat history. A successful Append is
// the durability boundary: broadcast happens strictly after it returns.
type MessageStore interface {
	Append(ctx context.Context, teamID, senderID int64, content string) (time.Time, error)
	ListByTeam(ctx context.Context, teamID int64) ([]models.Message, error)
}
