package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rag-gateway-be/pkg/embedding"
	"rag-gateway-be/pkg/vectorstore"
)

// ErrRetrievalUnavailable is returned when the embedding step or the search
// backend fails. It is never collapsed into an empty result set: an empty set
// means "no relevant documents", which is a valid grounding answer, while an
// unavailable backend means the caller must not ground at all.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// Snippet is one retrieved document fragment with its relevance score.
// Snippets only live for the duration of a single RAG request.
type Snippet struct {
	Text  string
	Score float32
}

// Retriever turns a raw query into ranked context snippets by embedding the
// query and running nearest-neighbour search against the vector backend.
type Retriever struct {
	embedder embedding.Provider
	store    vectorstore.VectorStore
	timeout  time.Duration
}

func NewRetriever(embedder embedding.Provider, store vectorstore.VectorStore, timeout time.Duration) *Retriever {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		timeout:  timeout,
	}
}

// Retrieve returns the top-k snippets for the query, preserving the
// backend's ranking order. k must be >= 1.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	if k < 1 {
		return nil, fmt.Errorf("retrieve: k must be >= 1, got %d", k)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrRetrievalUnavailable, err)
	}

	docs, err := r.store.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrRetrievalUnavailable, err)
	}

	// Do not re-sort: the backend's ranking and tie-break policy is
	// authoritative.
	snippets := make([]Snippet, 0, len(docs))
	for _, doc := range docs {
		snippets = append(snippets, Snippet{Text: doc.Text, Score: doc.Score})
	}
	return snippets, nil
}
