package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperchat/paperchat/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func seedDocument(t *testing.T, db *DB, docID string) {
	t.Helper()
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, email) VALUES (?, ?)`, "u1-"+docID, docID+"@example.com")
	require.NoError(t, err)

	docs := NewDocumentRepository(db)
	err = docs.Create(ctx, &domain.Document{
		ID:       docID,
		UserID:   "u1-" + docID,
		Name:     docID + ".txt",
		FileType: "txt",
	})
	require.NoError(t, err)
}

func TestMessageInsertAndListRecent(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, db, "doc1")
	repo := NewMessageRepository(db)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		_, err := repo.Insert(ctx, "doc1", role, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	recent, err := repo.ListRecent(ctx, "doc1", 6)
	require.NoError(t, err)

	// Never more than the window, oldest first.
	require.Len(t, recent, 6)
	for i, msg := range recent {
		assert.Equal(t, fmt.Sprintf("msg-%d", i+4), msg.Text)
	}
}

func TestMessageListRecentEmpty(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, db, "doc1")
	repo := NewMessageRepository(db)

	recent, err := repo.ListRecent(context.Background(), "doc1", 6)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestMessageListRecentInsertionOrderBreaksTies(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, db, "doc1")
	repo := NewMessageRepository(db)
	ctx := context.Background()

	// Burst inserts can share a created_at; seq must keep them stable.
	for i := 0; i < 4; i++ {
		_, err := repo.Insert(ctx, "doc1", domain.RoleUser, fmt.Sprintf("burst-%d", i))
		require.NoError(t, err)
	}

	recent, err := repo.ListRecent(ctx, "doc1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	for i, msg := range recent {
		assert.Equal(t, fmt.Sprintf("burst-%d", i), msg.Text)
	}
}

func TestMessageListPage(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, db, "doc1")
	repo := NewMessageRepository(db)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := repo.Insert(ctx, "doc1", domain.RoleUser, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	// First page, newest first.
	page, err := repo.ListPage(ctx, "doc1", "", 3)
	require.NoError(t, err)
	require.Len(t, page.Messages, 3)
	assert.Equal(t, "msg-6", page.Messages[0].Text)
	assert.Equal(t, "msg-4", page.Messages[2].Text)
	require.NotEmpty(t, page.NextCursor)

	// Second page continues where the first left off.
	page2, err := repo.ListPage(ctx, "doc1", page.NextCursor, 3)
	require.NoError(t, err)
	require.Len(t, page2.Messages, 3)
	assert.Equal(t, "msg-3", page2.Messages[0].Text)
	assert.Equal(t, "msg-1", page2.Messages[2].Text)

	// Final partial page has no cursor.
	page3, err := repo.ListPage(ctx, "doc1", page2.NextCursor, 3)
	require.NoError(t, err)
	require.Len(t, page3.Messages, 1)
	assert.Equal(t, "msg-0", page3.Messages[0].Text)
	assert.Empty(t, page3.NextCursor)
}

func TestMessageListPageUnknownCursor(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, db, "doc1")
	repo := NewMessageRepository(db)

	_, err := repo.ListPage(context.Background(), "doc1", "no-such-id", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentDeleteCascadesMessages(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, db, "doc1")
	docs := NewDocumentRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	_, err := repo.Insert(ctx, "doc1", domain.RoleUser, "hello")
	require.NoError(t, err)
	_, err = repo.Insert(ctx, "doc1", domain.RoleAssistant, "hi")
	require.NoError(t, err)

	require.NoError(t, docs.Delete(ctx, "doc1"))

	count, err := repo.CountForDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDocumentOwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, db, "doc1")
	docs := NewDocumentRepository(db)
	ctx := context.Background()

	owned, err := docs.GetForUser(ctx, "doc1", "u1-doc1")
	require.NoError(t, err)
	require.NotNil(t, owned)

	// Someone else's document is indistinguishable from a missing one.
	other, err := docs.GetForUser(ctx, "doc1", "intruder")
	require.NoError(t, err)
	assert.Nil(t, other)
}
