package vectorstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document id is absent from the index.
var ErrNotFound = errors.New("document not found")

// Document is one stored text with its embedding score relative to a query.
// Score is only meaningful on results returned by Search; listings and
// lookups leave it zero.
type Document struct {
	ID    string
	Text  string
	Score float32
}

// VectorStore is a technology-agnostic interface for the external document
// search backend. Implementations own durable storage of documents and
// embeddings; this service never stores documents itself.
type VectorStore interface {
	// Index stores one document with its embedding under the given id.
	Index(ctx context.Context, id string, vector []float32, text string) error

	// Search performs nearest-neighbour search and returns documents in the
	// backend's ranking order (descending relevance).
	Search(ctx context.Context, vector []float32, limit int) ([]Document, error)

	// Get fetches one document by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Document, error)

	// Delete removes one document by id. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// List returns up to limit stored documents, without scores.
	List(ctx context.Context, limit int) ([]Document, error)

	// Reset drops and recreates the underlying index.
	Reset(ctx context.Context) error

	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error

	// Close releases any resources held by the vector store.
	Close() error
}
