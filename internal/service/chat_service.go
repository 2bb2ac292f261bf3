package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paperchat/paperchat/internal/domain"
	"github.com/paperchat/paperchat/internal/prompt"
)

// MessageStore is the append-only message log consumed by the chat pipeline
type MessageStore interface {
	Insert(ctx context.Context, documentID, role, text string) (*domain.Message, error)
	ListRecent(ctx context.Context, documentID string, n int) ([]*domain.Message, error)
}

// PassageRetriever performs similarity search over a document's indexed chunks
type PassageRetriever interface {
	Retrieve(ctx context.Context, documentID, query string) ([]domain.Passage, error)
}

// GenerationBackend streams a completion for a prompt, invoking onFragment
// for each text fragment in generation order and returning the full text.
type GenerationBackend interface {
	Stream(ctx context.Context, prompt string, onFragment func(string)) (string, error)
}

// fragmentBuffer bounds how far generation can run ahead of a slow consumer
const fragmentBuffer = 16

// ChatService runs the retrieval-augmented streaming chat pipeline
type ChatService struct {
	messages          MessageStore
	history           *HistoryProvider
	retriever         PassageRetriever
	generator         GenerationBackend
	systemInstruction string
	logger            *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	messages MessageStore,
	history *HistoryProvider,
	retriever PassageRetriever,
	generator GenerationBackend,
	systemInstruction string,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		messages:          messages,
		history:           history,
		retriever:         retriever,
		generator:         generator,
		systemInstruction: systemInstruction,
		logger:            logger,
	}
}

// SendMessage runs one chat turn for an already-authorized document: persist
// the user message, gather the history window and the retrieved passages,
// assemble the prompt, and stream the generated answer.
//
// Errors before generation starts are returned directly. Once the returned
// channel exists, content fragments arrive in generation order, terminated by
// exactly one done or error chunk before the channel closes. On a done chunk
// the full answer has been persisted as an assistant message; on an error
// chunk nothing was persisted.
func (s *ChatService) SendMessage(ctx context.Context, doc *domain.Document, text string) (<-chan domain.StreamChunk, error) {
	var turns []prompt.Turn
	var passages []domain.Passage

	// The history window is read before the new user turn lands so the raw
	// input appears in the prompt exactly once. Retrieval has no ordering
	// dependency on either and runs alongside.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if turns, err = s.history.Window(gctx, doc.ID); err != nil {
			return err
		}
		_, err = s.messages.Insert(gctx, doc.ID, domain.RoleUser, text)
		return err
	})
	g.Go(func() error {
		var err error
		passages, err = s.retriever.Retrieve(gctx, doc.ID, text)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	promptText := prompt.Assemble(s.systemInstruction, turns, passages, text)

	ch := make(chan domain.StreamChunk, fragmentBuffer)
	// Generation and the completion write outlive the request: a client that
	// disconnects mid-stream abandons the delivery, not the answer.
	go s.stream(ctx, context.WithoutCancel(ctx), doc.ID, promptText, ch)

	return ch, nil
}

func (s *ChatService) stream(reqCtx, genCtx context.Context, documentID, promptText string, ch chan<- domain.StreamChunk) {
	defer close(ch)

	forward := func(fragment string) {
		select {
		case ch <- domain.StreamChunk{Type: domain.ChunkContent, Content: fragment}:
		case <-reqCtx.Done():
			// Consumer is gone; keep generating, stop forwarding.
		}
	}

	answer, err := s.generator.Stream(genCtx, promptText, forward)
	if err != nil {
		s.logger.Warn("generation failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		s.emit(reqCtx, ch, domain.StreamChunk{Type: domain.ChunkError, Content: domain.ErrGenerationFailed.Error()})
		return
	}

	if _, err := s.messages.Insert(genCtx, documentID, domain.RoleAssistant, answer); err != nil {
		s.logger.Error("failed to persist assistant message",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		s.emit(reqCtx, ch, domain.StreamChunk{Type: domain.ChunkError, Content: "failed to persist answer"})
		return
	}

	s.emit(reqCtx, ch, domain.StreamChunk{Type: domain.ChunkDone})
}

func (s *ChatService) emit(reqCtx context.Context, ch chan<- domain.StreamChunk, chunk domain.StreamChunk) {
	select {
	case ch <- chunk:
	case <-reqCtx.Done():
	}
}
