package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-gateway-be/internal/dto"
	"rag-gateway-be/pkg/retrieval"
	"rag-gateway-be/pkg/vectorstore"
)

type fakeEmbedder struct {
	failOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedder down")
	}
	return []float32{1, 0, 0}, nil
}

type fakeVectorStore struct {
	indexed    map[string]string
	failIndex  bool
	searchDocs []vectorstore.Document
	searchErr  error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{indexed: map[string]string{}}
}

func (f *fakeVectorStore) Index(ctx context.Context, id string, vector []float32, text string) error {
	if f.failIndex {
		return errors.New("backend down")
	}
	f.indexed[id] = text
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.Document, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchDocs, nil
}

func (f *fakeVectorStore) Get(ctx context.Context, id string) (*vectorstore.Document, error) {
	text, ok := f.indexed[id]
	if !ok {
		return nil, vectorstore.ErrNotFound
	}
	return &vectorstore.Document{ID: id, Text: text}, nil
}

func (f *fakeVectorStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.indexed[id]; !ok {
		return vectorstore.ErrNotFound
	}
	delete(f.indexed, id)
	return nil
}

func (f *fakeVectorStore) List(ctx context.Context, limit int) ([]vectorstore.Document, error) {
	docs := make([]vectorstore.Document, 0, len(f.indexed))
	for id, text := range f.indexed {
		docs = append(docs, vectorstore.Document{ID: id, Text: text})
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (f *fakeVectorStore) Reset(ctx context.Context) error {
	f.indexed = map[string]string{}
	return nil
}

func (f *fakeVectorStore) Health(ctx context.Context) error { return nil }
func (f *fakeVectorStore) Close() error                     { return nil }

func TestAddReportsPartialBatchFailure(t *testing.T) {
	store := newFakeVectorStore()
	svc := NewDocumentService(&fakeEmbedder{failOn: "poison"}, store, nil, noopLogger{})

	res, err := svc.Add(context.Background(), &dto.AddDocumentsRequest{
		Texts: []string{"fine one", "poison pill", "fine two"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Index)
	assert.Contains(t, res.Failed[0].Reason, "embed")
	assert.Len(t, store.indexed, 2)
}

func TestAddReportsIndexFailures(t *testing.T) {
	store := newFakeVectorStore()
	store.failIndex = true
	svc := NewDocumentService(&fakeEmbedder{}, store, nil, noopLogger{})

	res, err := svc.Add(context.Background(), &dto.AddDocumentsRequest{Texts: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	require.Len(t, res.Failed, 2)
	assert.Contains(t, res.Failed[0].Reason, "index")
}

func TestSearchMapsResults(t *testing.T) {
	store := newFakeVectorStore()
	store.searchDocs = []vectorstore.Document{
		{ID: "1", Text: "top", Score: 0.8},
		{ID: "2", Text: "next", Score: 0.4},
	}
	svc := NewDocumentService(&fakeEmbedder{}, store, nil, noopLogger{})

	res, err := svc.Search(context.Background(), &dto.SearchDocumentsRequest{Query: "q", TopK: 2})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "top", res.Results[0].Text)
	assert.InDelta(t, 0.8, res.Results[0].Score, 1e-6)
}

func TestSearchBackendFailure(t *testing.T) {
	store := newFakeVectorStore()
	store.searchErr = errors.New("backend down")
	svc := NewDocumentService(&fakeEmbedder{}, store, nil, noopLogger{})

	_, err := svc.Search(context.Background(), &dto.SearchDocumentsRequest{Query: "q"})
	assert.ErrorIs(t, err, retrieval.ErrRetrievalUnavailable)
}

func TestGetAndDeleteNotFound(t *testing.T) {
	svc := NewDocumentService(&fakeEmbedder{}, newFakeVectorStore(), nil, noopLogger{})

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, vectorstore.ErrNotFound)

	err = svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, vectorstore.ErrNotFound)
}

func TestDeleteRoundTrip(t *testing.T) {
	store := newFakeVectorStore()
	svc := NewDocumentService(&fakeEmbedder{}, store, nil, noopLogger{})

	res, err := svc.Add(context.Background(), &dto.AddDocumentsRequest{Texts: []string{"keep me"}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Added)

	list, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list.Documents, 1)

	require.NoError(t, svc.Delete(context.Background(), list.Documents[0].Id))

	list, err = svc.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list.Documents)
}
