// Package client is the Go client for the PaperChat API. Besides plain
// request helpers it provides Conversation, a per-document view of the
// message log that applies optimistic updates while a send is streaming and
// rolls them back when it fails.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Message mirrors the server's message record
type Message struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Role       string    `json:"role"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessagePage is one page of a document's conversation, newest first
type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Client talks to a PaperChat server
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the given server. The session token authenticates
// every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// No client-side timeout: chat responses stream indefinitely.
		httpClient: &http.Client{},
	}
}

// SendMessage posts a chat message and returns the streaming response body.
// The body carries raw answer fragments in generation order; a clean EOF is
// the only success signal, any read error means the answer was truncated.
// The caller must close the body.
func (c *Client) SendMessage(ctx context.Context, documentID, message string) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string]string{
		"document_id": documentID,
		"message":     message,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}

	return resp.Body, nil
}

// Messages fetches one page of a document's conversation, newest first. An
// empty cursor starts from the newest message.
func (c *Client) Messages(ctx context.Context, documentID, cursor string, limit int) (*MessagePage, error) {
	endpoint := fmt.Sprintf("%s/api/documents/%s/messages", c.baseURL, url.PathEscape(documentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	q := req.URL.Query()
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var page MessagePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, err
	}

	return &page, nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)

	return &APIError{Status: resp.StatusCode, Message: body.Error}
}
