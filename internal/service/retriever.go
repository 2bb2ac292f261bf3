package service

import (
	"context"

	"github.com/paperchat/paperchat/internal/domain"
	"github.com/paperchat/paperchat/internal/index"
)

// Retriever fetches the passages most similar to a query from a document's
// index namespace.
type Retriever struct {
	index *index.Index
	topK  int
}

// NewRetriever creates a new retriever
func NewRetriever(ix *index.Index, topK int) *Retriever {
	return &Retriever{index: ix, topK: topK}
}

// Retrieve returns up to topK passages ordered by descending similarity. A
// document with no indexed chunks grounds the chat with zero passages instead
// of failing it.
func (r *Retriever) Retrieve(ctx context.Context, documentID, query string) ([]domain.Passage, error) {
	return r.index.Query(ctx, documentID, query, r.topK)
}
