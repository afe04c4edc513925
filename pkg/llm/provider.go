package llm

import (
	"context"
	"errors"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Outcome classifies how a streamed generation call terminated.
type Outcome string

const (
	// OutcomeComplete means the stream delivered a terminal marker.
	OutcomeComplete Outcome = "complete"
	// OutcomePartial means the stream ended (or failed mid-read) after some
	// content was received, without a terminal marker. The accumulated text
	// is still usable but callers must be able to tell it apart from a
	// complete reply.
	OutcomePartial Outcome = "partial"
	// OutcomeNoContent means the stream ended without delivering any content.
	OutcomeNoContent Outcome = "no_content"
)

// StreamResult is the aggregated output of one streaming generation call.
type StreamResult struct {
	Text    string
	Outcome Outcome
}

// ErrBackendUnavailable is returned when the generation backend cannot be
// reached at all (connect failure, timeout or non-OK status before any
// content was received). Nothing should be persisted for such a call.
var ErrBackendUnavailable = errors.New("generation backend unavailable")

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// StreamProvider defines the contract for a streaming LLM backend. The
// provider consumes the token stream itself and hands back one aggregated
// result, so callers never deal with the wire protocol.
type StreamProvider interface {
	ChatStream(ctx context.Context, history []Message, options ...Option) (*StreamResult, error)
}
