package models

import "time"

// Message is one persisted chat message. Sender carries the sender's email,
// resolved at read time.
type Message struct {
	TeamID    int64     `json:"team_id"`
	SenderID  int64     `json:"-"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
