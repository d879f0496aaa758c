package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/huddlechat/huddle/internal/models"
	"github.com/huddlechat/huddle/internal/store"
)

// MessageStore persists chat messages. Once Append returns, the message is
// durable and retrievable by ListByTeam.
type MessageStore struct {
	DB *sql.DB
}

// NewMessageStore creates a message store on the given pool.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{DB: db}
}

// Append inserts a message and returns its stored creation timestamp.
func (s *MessageStore) Append(ctx context.Context, teamID, senderID int64, content string) (time.Time, error) {
	query := `INSERT INTO messages (team_id, sender_id, content) VALUES (?, ?, ?)`
	result, err := s.DB.ExecContext(ctx, query, teamID, senderID, content)
	if err != nil {
		return time.Time{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return time.Time{}, err
	}

	// Read back the server-assigned timestamp so HTTP response and broadcast
	// carry the same value ListByTeam will return.
	var createdAt time.Time
	err = s.DB.QueryRowContext(ctx, `SELECT created_at FROM messages WHERE id = ?`, id).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, store.ErrNotFound
		}
		return time.Time{}, err
	}
	return createdAt, nil
}

// ListByTeam returns the team's messages in ascending creation order.
// Unbounded: there is no pagination or retention policy yet.
func (s *MessageStore) ListByTeam(ctx context.Context, teamID int64) ([]models.Message, error) {
	query := `
		SELECT m.team_id, m.sender_id, u.email, m.content, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.team_id = ?
		ORDER BY m.created_at ASC`
	rows, err := s.DB.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.TeamID, &m.SenderID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
