package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperchat/paperchat/internal/domain"
)

func TestHistoryWindowBoundAndOrder(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 10; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		_, err := store.Insert(context.Background(), "doc1", role, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	provider := NewHistoryProvider(store, 6)
	turns, err := provider.Window(context.Background(), "doc1")
	require.NoError(t, err)

	require.Len(t, turns, 6)
	// Most recent six, oldest first.
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("msg-%d", i+4), turn.Content)
	}
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)
}

func TestHistoryWindowEmpty(t *testing.T) {
	provider := NewHistoryProvider(&fakeStore{}, 6)

	turns, err := provider.Window(context.Background(), "doc1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
