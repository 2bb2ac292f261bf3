// Package index wraps a local vector store behind a per-document namespace
// interface: every document gets its own collection of embedded chunks, and
// similarity search is always scoped to exactly one namespace.
package index

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/paperchat/paperchat/internal/domain"
)

// EmbeddingFunc maps text to a fixed-dimension vector
type EmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

// Index is a nearest-neighbor index partitioned into per-document namespaces
type Index struct {
	db    *chromem.DB
	embed EmbeddingFunc
}

// New creates a vector index. With an empty persistPath the index lives in
// memory only.
func New(persistPath string, embed EmbeddingFunc) (*Index, error) {
	var db *chromem.DB
	var err error

	if persistPath != "" {
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("create persistent index: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &Index{db: db, embed: embed}, nil
}

// Add indexes chunks under a namespace, creating it if needed. Chunk ids are
// positional within the namespace.
func (ix *Index) Add(ctx context.Context, namespace string, chunks []string) error {
	collection, err := ix.db.GetOrCreateCollection(namespace, nil, chromem.EmbeddingFunc(ix.embed))
	if err != nil {
		return fmt.Errorf("create namespace %s: %w", namespace, err)
	}

	base := collection.Count()
	for i, chunk := range chunks {
		err := collection.AddDocument(ctx, chromem.Document{
			ID:      fmt.Sprintf("%s-%d", namespace, base+i),
			Content: chunk,
		})
		if err != nil {
			return fmt.Errorf("index chunk %d in %s: %w", base+i, namespace, err)
		}
	}

	return nil
}

// Query returns up to topK passages from a namespace ordered by descending
// similarity. A missing or under-populated namespace degrades to fewer or
// zero passages rather than an error.
func (ix *Index) Query(ctx context.Context, namespace, query string, topK int) ([]domain.Passage, error) {
	collection := ix.db.GetCollection(namespace, chromem.EmbeddingFunc(ix.embed))
	if collection == nil {
		return nil, nil
	}

	if n := collection.Count(); n < topK {
		topK = n
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query namespace %s: %w", namespace, err)
	}

	passages := make([]domain.Passage, len(results))
	for i, r := range results {
		passages[i] = domain.Passage{
			Text:  r.Content,
			Score: float64(r.Similarity),
		}
	}

	return passages, nil
}

// Count returns the number of indexed chunks in a namespace
func (ix *Index) Count(namespace string) int {
	collection := ix.db.GetCollection(namespace, chromem.EmbeddingFunc(ix.embed))
	if collection == nil {
		return 0
	}
	return collection.Count()
}

// DeleteNamespace drops a namespace and all its chunks. Dropping a namespace
// that does not exist is a no-op.
func (ix *Index) DeleteNamespace(namespace string) error {
	return ix.db.DeleteCollection(namespace)
}
