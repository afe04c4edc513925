package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"rag-gateway-be/pkg/vectorstore"
)

const payloadContentKey = "content"

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g., "http://localhost:6334").
	URL string

	// CollectionName is the name of the collection holding the documents.
	CollectionName string

	// APIKey is optional API key for authentication.
	APIKey string

	// VectorDim is the embedding dimension used when (re)creating the
	// collection.
	VectorDim uint64
}

// Client implements vectorstore.VectorStore for Qdrant.
type Client struct {
	client         *qdrant.Client
	collectionName string
	vectorDim      uint64
}

// New creates a new Qdrant client and makes sure the collection exists.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.CollectionName == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "http://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	c := &Client{
		client:         qdrantClient,
		collectionName: cfg.CollectionName,
		vectorDim:      cfg.VectorDim,
	}

	if err := c.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureCollection(ctx context.Context) error {
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	return c.createCollection(ctx)
}

func (c *Client) createCollection(ctx context.Context) error {
	err := c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     c.vectorDim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Index implements vectorstore.VectorStore.
func (c *Client) Index(ctx context.Context, id string, vector []float32, text string) error {
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadContentKey: text,
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Search implements vectorstore.VectorStore. Results keep Qdrant's ranking
// order; ties are whatever the backend decided.
func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.Document, error) {
	limitUint64 := uint64(limit)
	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitUint64,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := make([]vectorstore.Document, 0, len(points))
	for _, point := range points {
		results = append(results, vectorstore.Document{
			ID:    pointID(point.Id),
			Text:  payloadContent(point.Payload),
			Score: point.Score,
		})
	}
	return results, nil
}

// Get implements vectorstore.VectorStore. Point ids are always uuids here, so
// anything else cannot exist and is reported as not found rather than pushed
// to the backend as an invalid point id.
func (c *Client) Get(ctx context.Context, id string) (*vectorstore.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, vectorstore.ErrNotFound
	}

	points, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.collectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant get failed: %w", err)
	}
	if len(points) == 0 {
		return nil, vectorstore.ErrNotFound
	}
	return &vectorstore.Document{
		ID:   pointID(points[0].Id),
		Text: payloadContent(points[0].Payload),
	}, nil
}

// Delete implements vectorstore.VectorStore.
func (c *Client) Delete(ctx context.Context, id string) error {
	// Qdrant deletes are idempotent, so look the point up first to give
	// callers a real not-found signal.
	if _, err := c.Get(ctx, id); err != nil {
		return err
	}

	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collectionName,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(id)),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

// List implements vectorstore.VectorStore.
func (c *Client) List(ctx context.Context, limit int) ([]vectorstore.Document, error) {
	limitUint32 := uint32(limit)
	points, err := c.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.collectionName,
		Limit:          &limitUint32,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll failed: %w", err)
	}

	docs := make([]vectorstore.Document, 0, len(points))
	for _, point := range points {
		docs = append(docs, vectorstore.Document{
			ID:   pointID(point.Id),
			Text: payloadContent(point.Payload),
		})
	}
	return docs, nil
}

// Reset implements vectorstore.VectorStore.
func (c *Client) Reset(ctx context.Context) error {
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		if err := c.client.DeleteCollection(ctx, c.collectionName); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
	}
	return c.createCollection(ctx)
}

// Health implements vectorstore.VectorStore.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Close implements vectorstore.VectorStore.
func (c *Client) Close() error {
	return c.client.Close()
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	if num := id.GetNum(); num != 0 {
		return fmt.Sprintf("%d", num)
	}
	return ""
}

func payloadContent(payload map[string]*qdrant.Value) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[payloadContentKey]; ok {
		return v.GetStringValue()
	}
	return ""
}

// Compile-time check that Client implements VectorStore.
var _ vectorstore.VectorStore = (*Client)(nil)
