package mysql

import (
	"context"
	"database/sql"
	"errors"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/huddlechat/huddle/internal/models"
	"github.com/huddlechat/huddle/internal/store"
)

// UserStore persists user accounts.
type UserStore struct {
	DB *sql.DB
}

// NewUserStore creates a user store on the given pool.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{DB: db}
}

// Create inserts a new user and returns the generated id.
func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (int64, error) {
	query := `INSERT INTO users (email, password) VALUES (?, ?)`
	result, err := s.DB.ExecContext(ctx, query, email, passwordHash)
	if err != nil {
		var mysqlErr *gomysql.MySQLError
		// 1062 is ER_DUP_ENTRY; the unique index on email is the only one
		// this insert can trip.
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return 0, store.ErrDuplicateEmail
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetByEmail looks a user up by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password, COALESCE(username, '') FROM users WHERE email = ?`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email))
}

// GetByID looks a user up by id.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, password, COALESCE(username, '') FROM users WHERE id = ?`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, id))
}

func (s *UserStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Password, &user.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
