package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"rag-gateway-be/internal/config"
	"rag-gateway-be/internal/controller"
	"rag-gateway-be/internal/pkg/logger"
	"rag-gateway-be/internal/service"
	"rag-gateway-be/pkg/chat/session"
	"rag-gateway-be/pkg/embedding"
	"rag-gateway-be/pkg/llm/ollama"
	"rag-gateway-be/pkg/retrieval"
	qdrantstore "rag-gateway-be/pkg/vectorstore/qdrant"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	AuditService service.IAuditService

	vectorStore *qdrantstore.Client
	pubSub      *gochannel.GoChannel
	sysLogger   logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Model Providers
	embeddingProvider := embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.EmbeddingTimeout,
	)
	log.Printf("[INFO] Using Embedding Model: %s", cfg.Ai.EmbeddingModel)

	llmProvider := ollama.NewProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.ChatModel,
		cfg.Ai.GenerateTimeout,
	)
	log.Printf("[INFO] Using Chat Model: %s", cfg.Ai.ChatModel)

	// 4. Vector Store
	vectorStore, err := qdrantstore.New(context.Background(), qdrantstore.Config{
		URL:            cfg.Vector.QdrantURL,
		CollectionName: cfg.Vector.Collection,
		APIKey:         cfg.Vector.APIKey,
		VectorDim:      uint64(cfg.Vector.Dimension),
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize vector store: %v", err)
	}

	retriever := retrieval.NewRetriever(embeddingProvider, vectorStore, cfg.Vector.RetrievalTimeout)

	// 5. In-Memory Session Storage
	sessionStore := session.NewStore()

	// 6. Services
	chatService := service.NewChatService(
		sessionStore,
		llmProvider,
		retriever,
		pubSub,
		sysLogger,
		cfg.Vector.DefaultTopK,
	)
	documentService := service.NewDocumentService(
		embeddingProvider,
		vectorStore,
		pubSub,
		sysLogger,
	)
	auditService := service.NewAuditService(pubSub, sysLogger)

	// 7. Controllers
	return &Container{
		ChatController:     controller.NewChatController(chatService),
		DocumentController: controller.NewDocumentController(documentService),

		AuditService: auditService,

		vectorStore: vectorStore,
		pubSub:      pubSub,
		sysLogger:   sysLogger,
	}
}

func (c *Container) Close() {
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if err := c.vectorStore.Close(); err != nil {
		log.Printf("[WARN] Failed to close vector store: %v", err)
	}
	_ = c.sysLogger.Sync()
}
