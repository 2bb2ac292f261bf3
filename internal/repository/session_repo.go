package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/paperchat/paperchat/internal/domain"
)

// SessionRepository resolves session tokens to users. It stands in for an
// external identity provider: opening a session for an unknown email creates
// the account.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Open issues a session token for the given email, creating the user if needed
func (r *SessionRepository) Open(ctx context.Context, email string) (*domain.Session, error) {
	user, err := r.getUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &domain.User{
			ID:        uuid.New().String(),
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`,
			user.ID, user.Email, user.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	session := &domain.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		session.Token, session.UserID, session.CreatedAt)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Resolve returns the user a session token belongs to. Returns nil without
// error for an unknown token.
func (r *SessionRepository) Resolve(ctx context.Context, token string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?
	`, token).Scan(&user.ID, &user.Email, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *SessionRepository) getUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}
