package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rag-gateway-be/pkg/llm"
)

const (
	chatEndpoint = "/api/chat"

	// DefaultTimeout bounds one full streaming call, model loading included.
	DefaultTimeout = 60 * time.Second

	// Scanner buffer sizing. Single NDJSON lines are small, but a model can
	// emit long fragments when the backend batches tokens.
	scanBufferInitial = 64 * 1024
	scanBufferMax     = 1024 * 1024
)

// Provider talks to an Ollama server and aggregates its streamed chat
// responses into a single result.
type Provider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure Provider implements StreamProvider
var _ llm.StreamProvider = &Provider{}

func NewProvider(baseURL, modelName string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Provider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaStreamChunk is one decoded NDJSON record of a streaming response.
type ollamaStreamChunk struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// lineResult is the decode outcome for a single stream line. Keeping this
// explicit makes the three terminal states of the aggregation loop
// (complete, partial, no content) reachable states of one small machine
// instead of scattered control flow.
type lineResult struct {
	fragment string
	done     bool
	ok       bool
}

func decodeLine(line []byte) lineResult {
	var chunk ollamaStreamChunk
	if err := json.Unmarshal(line, &chunk); err != nil {
		return lineResult{ok: false}
	}
	return lineResult{fragment: chunk.Message.Content, done: chunk.Done, ok: true}
}

// ChatStream issues one streaming chat call and reassembles the streamed
// fragments into a single reply.
//
// Aggregation contract:
//   - fragments are concatenated byte-for-byte, in delivery order
//   - malformed lines are skipped, they never fail the call
//   - a terminal marker stops consumption immediately
//   - a stream that closes without a terminal marker still yields the
//     accumulated text (OutcomePartial), unless nothing was received
//     (OutcomeNoContent)
func (o *Provider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.StreamResult, error) {
	options := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}

	// Map generic messages to Ollama messages
	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		ollamaMessages[i] = ollamaMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := ollamaChatRequest{
		Model:    model,
		Messages: ollamaMessages,
		Stream:   true,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
		},
	}
	if options.MaxTokens > 0 {
		reqPayload.Options.NumPredict = options.MaxTokens
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := o.BaseURL + chatEndpoint
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", llm.ErrBackendUnavailable, resp.StatusCode)
	}

	return o.consumeStream(resp)
}

func (o *Provider) consumeStream(resp *http.Response) (*llm.StreamResult, error) {
	var acc bytes.Buffer

	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, scanBufferInitial)
	scanner.Buffer(buf, scanBufferMax)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			// Heartbeat / keep-alive line, nothing to accumulate.
			continue
		}

		res := decodeLine(line)
		if !res.ok {
			// A single corrupt line must not lose the rest of the stream.
			continue
		}

		acc.WriteString(res.fragment)

		if res.done {
			return &llm.StreamResult{Text: acc.String(), Outcome: llm.OutcomeComplete}, nil
		}
	}

	if err := scanner.Err(); err != nil {
		if acc.Len() == 0 {
			// Broke before any content arrived.
			return nil, fmt.Errorf("%w: read stream: %v", llm.ErrBackendUnavailable, err)
		}
		// Best effort: a partial answer is more useful than none.
		return &llm.StreamResult{Text: acc.String(), Outcome: llm.OutcomePartial}, nil
	}

	// Clean close without a terminal marker.
	if acc.Len() == 0 {
		return &llm.StreamResult{Text: "", Outcome: llm.OutcomeNoContent}, nil
	}
	return &llm.StreamResult{Text: acc.String(), Outcome: llm.OutcomePartial}, nil
}
