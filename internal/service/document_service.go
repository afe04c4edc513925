package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"rag-gateway-be/internal/dto"
	"rag-gateway-be/internal/pkg/logger"
	"rag-gateway-be/pkg/embedding"
	"rag-gateway-be/pkg/events"
	"rag-gateway-be/pkg/retrieval"
	"rag-gateway-be/pkg/vectorstore"
)

// IDocumentService is the thin management surface over the vector backend.
// The gateway never stores documents itself; every operation passes through.
type IDocumentService interface {
	Add(ctx context.Context, req *dto.AddDocumentsRequest) (*dto.AddDocumentsResponse, error)
	Search(ctx context.Context, req *dto.SearchDocumentsRequest) (*dto.SearchDocumentsResponse, error)
	Get(ctx context.Context, id string) (*dto.GetDocumentResponse, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) (*dto.ListDocumentsResponse, error)
	Reset(ctx context.Context) error
	Health(ctx context.Context) error
}

type documentService struct {
	embedder  embedding.Provider
	store     vectorstore.VectorStore
	publisher message.Publisher
	logger    logger.ILogger
}

func NewDocumentService(
	embedder embedding.Provider,
	store vectorstore.VectorStore,
	publisher message.Publisher,
	sysLogger logger.ILogger,
) IDocumentService {
	return &documentService{
		embedder:  embedder,
		store:     store,
		publisher: publisher,
		logger:    sysLogger,
	}
}

// Add embeds and indexes each text under a fresh id. A failing text never
// aborts the batch and never disappears silently: every failure is reported
// back with its index.
func (d *documentService) Add(ctx context.Context, req *dto.AddDocumentsRequest) (*dto.AddDocumentsResponse, error) {
	res := &dto.AddDocumentsResponse{}

	for i, text := range req.Texts {
		vector, err := d.embedder.Embed(ctx, text)
		if err != nil {
			res.Failed = append(res.Failed, dto.FailedDocument{Index: i, Reason: fmt.Sprintf("embed: %v", err)})
			continue
		}

		id := uuid.NewString()
		if err := d.store.Index(ctx, id, vector, text); err != nil {
			res.Failed = append(res.Failed, dto.FailedDocument{Index: i, Reason: fmt.Sprintf("index: %v", err)})
			continue
		}

		res.Added++
		d.publishAudit(events.TypeDocumentIndexed, map[string]any{"document_id": id})
	}

	d.logger.Info("DOCS", "documents added", map[string]interface{}{
		"added":  res.Added,
		"failed": len(res.Failed),
	})
	return res, nil
}

func (d *documentService) Search(ctx context.Context, req *dto.SearchDocumentsRequest) (*dto.SearchDocumentsResponse, error) {
	topK := req.TopK
	if topK < 1 {
		topK = 5
	}

	vector, err := d.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", retrieval.ErrRetrievalUnavailable, err)
	}

	docs, err := d.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", retrieval.ErrRetrievalUnavailable, err)
	}

	results := make([]dto.DocumentResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, dto.DocumentResult{Id: doc.ID, Text: doc.Text, Score: doc.Score})
	}
	return &dto.SearchDocumentsResponse{Results: results}, nil
}

func (d *documentService) Get(ctx context.Context, id string) (*dto.GetDocumentResponse, error) {
	doc, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.GetDocumentResponse{Id: doc.ID, Content: doc.Text}, nil
}

func (d *documentService) Delete(ctx context.Context, id string) error {
	if err := d.store.Delete(ctx, id); err != nil {
		return err
	}
	d.logger.Info("DOCS", "document deleted", map[string]interface{}{"document_id": id})
	return nil
}

func (d *documentService) List(ctx context.Context, limit int) (*dto.ListDocumentsResponse, error) {
	if limit < 1 {
		limit = 100
	}

	docs, err := d.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, dto.DocumentSummary{Id: doc.ID, Text: doc.Text})
	}
	return &dto.ListDocumentsResponse{Documents: summaries}, nil
}

func (d *documentService) Reset(ctx context.Context) error {
	if err := d.store.Reset(ctx); err != nil {
		return err
	}
	d.publishAudit(events.TypeIndexReset, nil)
	d.logger.Warn("DOCS", "index reset", nil)
	return nil
}

func (d *documentService) Health(ctx context.Context) error {
	return d.store.Health(ctx)
}

func (d *documentService) publishAudit(eventType string, details map[string]any) {
	if d.publisher == nil {
		return
	}
	payload, err := json.Marshal(events.NewAuditEvent(eventType, details))
	if err != nil {
		return
	}
	if err := d.publisher.Publish(events.AuditTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		d.logger.Warn("DOCS", "audit publish failed", map[string]interface{}{"error": err.Error()})
	}
}
