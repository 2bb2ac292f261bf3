package domain

import "time"

// User represents an authenticated account
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session maps an opaque token to a user
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSessionRequest is the request to open a session
type CreateSessionRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateSessionResponse carries the issued session token
type CreateSessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}
