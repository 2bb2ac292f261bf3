package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PlaceholderID is the reserved id of the in-flight assistant record. No
// persisted message ever carries it.
const PlaceholderID = "ai-response"

// firstPageSize is how much history a settle refetch pulls back
const firstPageSize = 10

// State is the reconciliation state of a conversation
type State int

// Conversation states
const (
	StateClean State = iota
	StatePending
	StateStreaming
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrSendInFlight is returned when a send is attempted while another
	// one is still pending or streaming
	ErrSendInFlight = errors.New("a send is already in flight")
	// ErrEmptyComposer is returned when the composer has no text to send
	ErrEmptyComposer = errors.New("composer is empty")
)

// Conversation is the client-side view of one document's message log. It
// inserts the user's message optimistically on send, materializes the
// streaming answer into a single placeholder record, and restores the exact
// pre-send snapshot if anything fails. One send may be in flight at a time.
type Conversation struct {
	client     *Client
	documentID string

	mu       sync.Mutex
	state    State
	composer string
	backup   string
	view     []Message // newest first
	snapshot []Message

	// OnStateChange, if set, observes every state transition. Called with
	// the conversation lock held; it must not call back in.
	OnStateChange func(State)
}

// Conversation creates the reconciliation view for one document
func (c *Client) Conversation(documentID string) *Conversation {
	return &Conversation{
		client:     c,
		documentID: documentID,
		state:      StateClean,
	}
}

// State returns the current reconciliation state
func (v *Conversation) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// SetComposer replaces the composer text
func (v *Conversation) SetComposer(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.composer = text
}

// Composer returns the composer text
func (v *Conversation) Composer() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.composer
}

// Messages returns a copy of the conversation view, newest first
func (v *Conversation) Messages() []Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Message, len(v.view))
	copy(out, v.view)
	return out
}

// Refresh replaces the view with the newest page from the server
func (v *Conversation) Refresh(ctx context.Context) error {
	page, err := v.client.Messages(ctx, v.documentID, "", firstPageSize)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.view = page.Messages
	return nil
}

// Send submits the composer text and blocks until the answer finished
// streaming or the send failed.
//
// On submit the composer is cleared, its text kept aside for restoration, a
// snapshot of the view is captured, and the user message is inserted
// optimistically at the head. Each arriving fragment updates the single
// placeholder record with the cumulative text so far. On success the view is
// refetched so the optimistic records are replaced by their persisted
// counterparts. On any failure, before or mid-stream, the snapshot and the
// composer are restored in full.
func (v *Conversation) Send(ctx context.Context) error {
	v.mu.Lock()
	if v.state != StateClean {
		v.mu.Unlock()
		return ErrSendInFlight
	}
	message := v.composer
	if message == "" {
		v.mu.Unlock()
		return ErrEmptyComposer
	}

	// Everything needed to undo this send is captured before any of it
	// becomes visible.
	v.backup = message
	v.composer = ""
	v.snapshot = make([]Message, len(v.view))
	copy(v.snapshot, v.view)

	v.view = append([]Message{{
		ID:         uuid.New().String(),
		DocumentID: v.documentID,
		Role:       "user",
		Text:       message,
		CreatedAt:  time.Now(),
	}}, v.view...)
	v.setState(StatePending)
	v.mu.Unlock()

	body, err := v.client.SendMessage(ctx, v.documentID, message)
	if err != nil {
		v.rollback()
		return err
	}
	defer body.Close()

	var cumulative []byte
	buf := make([]byte, 512)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			cumulative = append(cumulative, buf[:n]...)
			v.applyFragment(string(cumulative))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// Truncated body: no partial credit for a partial answer.
			v.rollback()
			return fmt.Errorf("answer stream interrupted: %w", err)
		}
	}

	return v.settle(ctx)
}

// applyFragment folds the cumulative answer text into the placeholder
// record, creating it on the first fragment. Replaying the same cumulative
// value is a no-op.
func (v *Conversation) applyFragment(cumulative string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StatePending {
		v.setState(StateStreaming)
	}

	for i := range v.view {
		if v.view[i].ID == PlaceholderID {
			if v.view[i].Text != cumulative {
				v.view[i].Text = cumulative
			}
			return
		}
	}

	v.view = append([]Message{{
		ID:         PlaceholderID,
		DocumentID: v.documentID,
		Role:       "assistant",
		Text:       cumulative,
		CreatedAt:  time.Now(),
	}}, v.view...)
}

// settle swaps the optimistic records for their canonical persisted
// counterparts once the stream ended cleanly.
func (v *Conversation) settle(ctx context.Context) error {
	page, err := v.client.Messages(ctx, v.documentID, "", firstPageSize)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err == nil {
		v.view = page.Messages
	}
	// The answer is durable server-side either way; a failed refetch keeps
	// the locally materialized records until the next Refresh.
	v.backup = ""
	v.snapshot = nil
	v.setState(StateClean)

	return err
}

// rollback restores the exact pre-send snapshot and the composer text, then
// returns to clean. Concurrent unrelated view mutations are overwritten on
// purpose: the snapshot is the last state known consistent.
func (v *Conversation) rollback() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.view = v.snapshot
	v.snapshot = nil
	v.composer = v.backup
	v.backup = ""

	v.setState(StateRolledBack)
	v.setState(StateClean)
}

// setState transitions state; callers hold the lock
func (v *Conversation) setState(s State) {
	v.state = s
	if v.OnStateChange != nil {
		v.OnStateChange(s)
	}
}
