package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
)

func (q *queries) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO users (username, email, password_hash, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	err := q.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUser overwrites username, email and password hash of an existing user.
func (q *queries) UpdateUser(ctx context.Context, user *domain.User) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET username = $1, email = $2, password_hash = $3 WHERE id = $4`,
		user.Username, user.Email, user.PasswordHash, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	return expectAffected(res, ErrUserNotFound)
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return q.getUser(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`, email)
}

func (q *queries) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return q.getUser(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (q *queries) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := q.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
