package domain

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a document's conversation. Messages are immutable
// once persisted; their order is created_at ascending with insertion order
// breaking ties.
type Message struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Role       string    `json:"role"` // user, assistant
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessagePage is one page of a document's conversation, newest first.
type MessagePage struct {
	Messages   []*Message `json:"messages"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Passage is a retrieved document chunk with its similarity score. Passages
// are produced per request and never persisted.
type Passage struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// SendMessageRequest is the request to send a chat message
type SendMessageRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Message    string `json:"message" binding:"required"`
}

// Stream chunk types
const (
	ChunkContent = "content"
	ChunkDone    = "done"
	ChunkError   = "error"
)

// StreamChunk is one unit of a streaming chat response
type StreamChunk struct {
	Type    string `json:"type"` // content, done, error
	Content string `json:"content,omitempty"`
}
