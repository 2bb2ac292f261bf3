package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/domain"
	"github.com/paperchat/paperchat/internal/index"
	"github.com/paperchat/paperchat/internal/repository"
	"github.com/paperchat/paperchat/internal/service"
)

type scriptedGenerator struct {
	fragments []string
	err       error
}

func (g *scriptedGenerator) Stream(_ context.Context, _ string, onFragment func(string)) (string, error) {
	var full strings.Builder
	for _, f := range g.fragments {
		full.WriteString(f)
		onFragment(f)
	}
	if g.err != nil {
		return "", g.err
	}
	return full.String(), nil
}

type testEnv struct {
	server    *httptest.Server
	token     string
	userID    string
	documents *repository.DocumentRepository
}

func newTestEnv(t *testing.T, gen service.GenerationBackend) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	messageRepo := repository.NewMessageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	ix, err := index.New("", func(context.Context, string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	})
	require.NoError(t, err)

	logger := zap.NewNop()

	chatService := service.NewChatService(
		messageRepo,
		service.NewHistoryProvider(messageRepo, 6),
		service.NewRetriever(ix, 4),
		gen,
		"system instruction",
		logger,
	)
	documentService := service.NewDocumentService(documentRepo, messageRepo, ix, logger)
	ingestService := service.NewIngestService(documentRepo, ix, service.NewChunker(1000, 200), logger)

	router := SetupRouter(chatService, documentService, ingestService, sessionRepo, logger, RouterConfig{
		AllowOrigins: []string{"*"},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	session, err := sessionRepo.Open(context.Background(), "tester@example.com")
	require.NoError(t, err)

	return &testEnv{
		server:    server,
		token:     session.Token,
		userID:    session.UserID,
		documents: documentRepo,
	}
}

func (e *testEnv) createDocument(t *testing.T, id string) {
	t.Helper()
	err := e.documents.Create(context.Background(), &domain.Document{
		ID:       id,
		UserID:   e.userID,
		Name:     id + ".txt",
		FileType: "txt",
		Status:   domain.DocumentStatusReady,
	})
	require.NoError(t, err)
}

func (e *testEnv) sendMessage(t *testing.T, documentID, message, token string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(map[string]string{
		"document_id": documentID,
		"message":     message,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/api/messages", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func newMultipart(t *testing.T, buf *bytes.Buffer, field, filename, content string) string {
	t.Helper()
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return w.FormDataContentType()
}

func TestSendMessageStreamsRawText(t *testing.T) {
	env := newTestEnv(t, &scriptedGenerator{fragments: []string{"Hel", "lo wor", "ld"}})
	env.createDocument(t, "doc1")

	resp := env.sendMessage(t, "doc1", "hi", env.token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(body))

	// Both turns are durable once the stream ended.
	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/documents/doc1/messages", nil)
	req.Header.Set("Authorization", "Bearer "+env.token)
	pageResp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer pageResp.Body.Close()
	require.Equal(t, http.StatusOK, pageResp.StatusCode)

	var page domain.MessagePage
	require.NoError(t, json.NewDecoder(pageResp.Body).Decode(&page))
	require.Len(t, page.Messages, 2)
	assert.Equal(t, domain.RoleAssistant, page.Messages[0].Role)
	assert.Equal(t, "Hello world", page.Messages[0].Text)
	assert.Equal(t, domain.RoleUser, page.Messages[1].Role)
	assert.Equal(t, "hi", page.Messages[1].Text)
}

func TestSendMessageGenerationFailureTruncatesBody(t *testing.T) {
	env := newTestEnv(t, &scriptedGenerator{
		fragments: []string{"Hel", "lo"},
		err:       errors.New("backend died"),
	})
	env.createDocument(t, "doc1")

	resp := env.sendMessage(t, "doc1", "hi", env.token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := io.ReadAll(resp.Body)
	assert.Error(t, err, "a severed stream must not read as a clean end")
}

func TestSendMessageUnauthorized(t *testing.T) {
	env := newTestEnv(t, &scriptedGenerator{fragments: []string{"x"}})
	env.createDocument(t, "doc1")

	resp := env.sendMessage(t, "doc1", "hi", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp2 := env.sendMessage(t, "doc1", "hi", "bogus-token")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestSendMessageUnknownDocument(t *testing.T) {
	env := newTestEnv(t, &scriptedGenerator{fragments: []string{"x"}})

	resp := env.sendMessage(t, "nope", "hi", env.token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadListAndDeleteDocument(t *testing.T) {
	env := newTestEnv(t, &scriptedGenerator{fragments: []string{"x"}})

	var buf bytes.Buffer
	mw := newMultipart(t, &buf, "file", "notes.txt", "alpha beta gamma\ndelta epsilon")

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/documents", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw)
	req.Header.Set("Authorization", "Bearer "+env.token)

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var doc domain.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, domain.DocumentStatusReady, doc.Status)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Greater(t, doc.ChunkCount, 0)

	// Listed for the owner
	listReq, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/documents", nil)
	listReq.Header.Set("Authorization", "Bearer "+env.token)
	listResp, err := env.server.Client().Do(listReq)
	require.NoError(t, err)
	defer listResp.Body.Close()

	var list domain.DocumentListResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)

	// And gone after delete
	delReq, _ := http.NewRequest(http.MethodDelete, env.server.URL+"/api/documents/"+doc.ID, nil)
	delReq.Header.Set("Authorization", "Bearer "+env.token)
	delResp, err := env.server.Client().Do(delReq)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	getReq, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/documents/"+doc.ID, nil)
	getReq.Header.Set("Authorization", "Bearer "+env.token)
	getResp, err := env.server.Client().Do(getReq)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}
