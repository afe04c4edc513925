package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"rag-gateway-be/internal/dto"
	"rag-gateway-be/internal/pkg/logger"
	"rag-gateway-be/pkg/chat/prompt"
	"rag-gateway-be/pkg/chat/session"
	"rag-gateway-be/pkg/events"
	"rag-gateway-be/pkg/llm"
	"rag-gateway-be/pkg/retrieval"
)

// ErrInvalidSession is the client-facing classification for a chat request
// whose session id is missing or unknown.
var ErrInvalidSession = errors.New("invalid session")

// NoContentSentinel is persisted and returned when the backend finished a
// call without producing any content. The user turn was real input, so the
// exchange is still recorded.
const NoContentSentinel = "[No content received from model]"

// Retriever is the narrow slice of the retrieval client the orchestrator
// needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]retrieval.Snippet, error)
}

type IChatService interface {
	StartSession(ctx context.Context) (*dto.StartChatResponse, error)
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	RagChat(ctx context.Context, req *dto.RagChatRequest) (*dto.RagChatResponse, error)
}

type chatService struct {
	sessions    *session.Store
	llmProvider llm.StreamProvider
	retriever   Retriever
	publisher   message.Publisher
	logger      logger.ILogger
	defaultTopK int
}

func NewChatService(
	sessions *session.Store,
	llmProvider llm.StreamProvider,
	retriever Retriever,
	publisher message.Publisher,
	sysLogger logger.ILogger,
	defaultTopK int,
) IChatService {
	if defaultTopK < 1 {
		defaultTopK = 3
	}
	return &chatService{
		sessions:    sessions,
		llmProvider: llmProvider,
		retriever:   retriever,
		publisher:   publisher,
		logger:      sysLogger,
		defaultTopK: defaultTopK,
	}
}

func (c *chatService) StartSession(ctx context.Context) (*dto.StartChatResponse, error) {
	id := c.sessions.Create()
	c.logger.Info("CHAT", "session started", map[string]interface{}{"session_id": id})
	return &dto.StartChatResponse{SessionId: id}, nil
}

// Chat replays the session transcript plus the new user message to the
// generation backend and persists the exchange.
//
// Persistence rules: a backend failure persists nothing; a complete or
// partial reply persists user then assistant as one atomic append; a reply
// with no content persists the user turn with a sentinel assistant turn.
func (c *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	transcript, err := c.sessions.Transcript(req.SessionId)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, req.SessionId)
	}

	userTurn := session.Turn{Role: session.RoleUser, Content: req.Message}
	messages := prompt.BuildPlain(append(transcript, userTurn))

	result, err := c.llmProvider.ChatStream(ctx, messages)
	if err != nil {
		c.logger.Error("CHAT", "generation failed", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("chat generation: %w", err)
	}

	// The caller may have gone away while the stream was running; an
	// abandoned call must not write a turn.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, assistantTurn := c.resolveExchange(result)
	if err := c.sessions.Append(req.SessionId, userTurn, assistantTurn); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, req.SessionId)
	}

	c.publishAudit(events.TypeChatExchange, map[string]any{
		"session_id": req.SessionId,
		"mode":       "plain",
		"outcome":    string(result.Outcome),
	})
	return res, nil
}

// RagChat grounds the query with retrieved snippets before generation. A
// retrieval failure is terminal for the call: answering without sources is
// treated as unsafe, not degraded, and the transcript stays untouched.
func (c *chatService) RagChat(ctx context.Context, req *dto.RagChatRequest) (*dto.RagChatResponse, error) {
	if !c.sessions.Exists(req.SessionId) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, req.SessionId)
	}

	topK := req.TopK
	if topK < 1 {
		topK = c.defaultTopK
	}

	snippets, err := c.retriever.Retrieve(ctx, req.Message, topK)
	if err != nil {
		c.logger.Error("CHAT", "retrieval failed", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("rag retrieval: %w", err)
	}

	documents := make([]string, len(snippets))
	for i, s := range snippets {
		documents[i] = s.Text
	}

	messages := prompt.BuildRAG(req.Message, snippets)
	result, err := c.llmProvider.ChatStream(ctx, messages)
	if err != nil {
		c.logger.Error("CHAT", "generation failed", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("rag generation: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chatRes, assistantTurn := c.resolveExchange(result)

	// Only the user message and the reply become turns; the synthesized
	// system message is query-specific and never persisted.
	userTurn := session.Turn{Role: session.RoleUser, Content: req.Message}
	if err := c.sessions.Append(req.SessionId, userTurn, assistantTurn); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, req.SessionId)
	}

	c.publishAudit(events.TypeChatExchange, map[string]any{
		"session_id": req.SessionId,
		"mode":       "rag",
		"outcome":    string(result.Outcome),
		"documents":  len(documents),
	})
	return &dto.RagChatResponse{
		Response:  strings.TrimSpace(chatRes.Response),
		Documents: documents,
		Partial:   chatRes.Partial,
	}, nil
}

// resolveExchange turns an aggregated stream result into the response body
// and the assistant turn to persist.
func (c *chatService) resolveExchange(result *llm.StreamResult) (*dto.ChatResponse, session.Turn) {
	if result.Outcome == llm.OutcomeNoContent {
		return &dto.ChatResponse{Response: NoContentSentinel},
			session.Turn{Role: session.RoleAssistant, Content: NoContentSentinel}
	}
	return &dto.ChatResponse{
			Response: result.Text,
			Partial:  result.Outcome == llm.OutcomePartial,
		},
		session.Turn{Role: session.RoleAssistant, Content: result.Text}
}

func (c *chatService) publishAudit(eventType string, details map[string]any) {
	if c.publisher == nil {
		return
	}
	payload, err := json.Marshal(events.NewAuditEvent(eventType, details))
	if err != nil {
		return
	}
	if err := c.publisher.Publish(events.AuditTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		c.logger.Warn("CHAT", "audit publish failed", map[string]interface{}{"error": err.Error()})
	}
}
