package service

import (
	"context"

	"github.com/paperchat/paperchat/internal/prompt"
)

// HistoryProvider produces the bounded conversation-history window used to
// ground a new prompt.
type HistoryProvider struct {
	messages MessageStore
	window   int
}

// NewHistoryProvider creates a new history provider
func NewHistoryProvider(messages MessageStore, window int) *HistoryProvider {
	return &HistoryProvider{messages: messages, window: window}
}

// Window returns the most recent turns for a document, oldest first, mapped
// to role-tagged prompt turns. A document with no messages yields an empty
// window.
func (p *HistoryProvider) Window(ctx context.Context, documentID string) ([]prompt.Turn, error) {
	messages, err := p.messages.ListRecent(ctx, documentID, p.window)
	if err != nil {
		return nil, err
	}

	turns := make([]prompt.Turn, len(messages))
	for i, msg := range messages {
		turns[i] = prompt.Turn{Role: msg.Role, Content: msg.Text}
	}

	return turns, nil
}
