package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/huddlechat/huddle/internal/models"
	"github.com/huddlechat/huddle/internal/store"
)

// InviteStore persists team invitations.
type InviteStore struct {
	DB *sql.DB
}

// NewInviteStore creates an invite store on the given pool.
func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{DB: db}
}

// Create inserts a pending invitation. A second pending invite for the same
// invitee and team is rejected.
func (s *InviteStore) Create(ctx context.Context, teamID, inviterID, inviteeID int64) (int64, error) {
	var existing int64
	dupQuery := `
		SELECT id FROM invitations
		WHERE team_id = ? AND invitee_id = ? AND status = ?`
	err := s.DB.QueryRowContext(ctx, dupQuery, teamID, inviteeID, models.InviteStatusPending).Scan(&existing)
	if err == nil {
		return 0, store.ErrDuplicateInvite
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	query := `
		INSERT INTO invitations (team_id, inviter_id, invitee_id, status)
		VALUES (?, ?, ?, ?)`
	result, err := s.DB.ExecContext(ctx, query, teamID, inviterID, inviteeID, models.InviteStatusPending)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListPendingForUser returns the user's pending invitations with team and
// inviter details for display.
func (s *InviteStore) ListPendingForUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	query := `
		SELECT i.id, i.team_id, t.name, u.email, i.status, i.created_at
		FROM invitations i
		JOIN teams t ON t.id = i.team_id
		JOIN users u ON u.id = i.inviter_id
		WHERE i.invitee_id = ? AND i.status = ?
		ORDER BY i.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID, models.InviteStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.TeamID, &n.TeamName, &n.InviterEmail, &n.Status, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// Resolve transitions a pending invitation to accepted or rejected, exactly
// once. Accepting inserts the membership row in the same transaction. The row
// is locked so concurrent resolutions cannot both pass the status check.
func (s *InviteStore) Resolve(ctx context.Context, inviteID, inviteeID int64, accept bool) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var teamID int64
	var status string
	query := `SELECT team_id, status FROM invitations WHERE id = ? AND invitee_id = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, inviteID, inviteeID).Scan(&teamID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	if status != models.InviteStatusPending {
		return store.ErrInviteResolved
	}

	newStatus := models.InviteStatusRejected
	if accept {
		newStatus = models.InviteStatusAccepted
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE invitations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newStatus, inviteID)
	if err != nil {
		return err
	}

	if accept {
		_, err = tx.ExecContext(ctx,
			`INSERT IGNORE INTO user_teams_link (user_id, team_id) VALUES (?, ?)`,
			inviteeID, teamID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
