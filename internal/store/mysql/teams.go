package mysql

import (
	"context"
	"database/sql"

	"github.com/huddlechat/huddle/internal/models"
)

// TeamStore persists teams and the membership relation.
type TeamStore struct {
	DB *sql.DB
}

// NewTeamStore creates a team store on the given pool.
func NewTeamStore(db *sql.DB) *TeamStore {
	return &TeamStore{DB: db}
}

// CreateWithOwner inserts the team and the creator's membership in a single
// transaction. A team with zero members is never observable.
func (s *TeamStore) CreateWithOwner(ctx context.Context, name string, ownerID int64) (int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	result, err := tx.ExecContext(ctx, `INSERT INTO teams (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}

	teamID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_teams_link (user_id, team_id) VALUES (?, ?)`, ownerID, teamID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return teamID, nil
}

// ListForUser returns every team the user belongs to.
func (s *TeamStore) ListForUser(ctx context.Context, userID int64) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name
		FROM teams t
		JOIN user_teams_link ut ON t.id = ut.team_id
		WHERE ut.user_id = ?`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// IsMember reports whether the user holds a membership row for the team.
// Nonexistent users and teams simply report false.
func (s *TeamStore) IsMember(ctx context.Context, userID, teamID int64) (bool, error) {
	var isMember bool
	query := `SELECT EXISTS(SELECT 1 FROM user_teams_link WHERE user_id = ? AND team_id = ?)`
	err := s.DB.QueryRowContext(ctx, query, userID, teamID).Scan(&isMember)
	if err != nil {
		return false, err
	}
	return isMember, nil
}

// Participants lists the members of a team.
func (s *TeamStore) Participants(ctx context.Context, teamID int64) ([]models.Participant, error) {
	query := `
		SELECT u.id, u.email, COALESCE(u.username, '')
		FROM users u
		JOIN user_teams_link ut ON u.id = ut.user_id
		WHERE ut.team_id = ?`
	rows, err := s.DB.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Email, &p.Username); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// RemoveMember deletes the user's membership row for the team.
func (s *TeamStore) RemoveMember(ctx context.Context, userID, teamID int64) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM user_teams_link WHERE user_id = ? AND team_id = ?`, userID, teamID)
	return err
}
