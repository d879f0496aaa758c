package models

// User represents a registered account. Password holds the bcrypt hash and is
// never serialized.
type User struct {
	ID       int64  `json:"user_id"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Username string `json:"username,omitempty"`
}

// Participant is a user's public identity inside a team.
type Participant struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}
