package models

import "time"

// Invitation statuses. An invitation resolves pending -> accepted or
// pending -> rejected exactly once.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRejected = "rejected"
)

// Invitation represents a pending or resolved team invite.
type Invitation struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	InviterID int64     `json:"inviter_id"`
	InviteeID int64     `json:"invitee_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification is the invitee-facing view of a pending invitation.
type Notification struct {
	ID           int64     `json:"id"`
	TeamID       int64     `json:"team_id"`
	TeamName     string    `json:"team_name"`
	InviterEmail string    `json:"inviter_email"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
