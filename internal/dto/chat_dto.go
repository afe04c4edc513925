package dto

type StartChatResponse struct {
	SessionId string `json:"session_id"`
}

type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionId string `json:"session_id" validate:"required"`
}

type ChatResponse struct {
	Response string `json:"response"`
	// Partial is set when the stream ended without a terminal marker and the
	// reply is best-effort rather than complete.
	Partial bool `json:"partial,omitempty"`
}

type RagChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionId string `json:"session_id" validate:"required"`
	TopK      int    `json:"top_k" validate:"omitempty,min=1,max=100"`
}

type RagChatResponse struct {
	Response  string   `json:"response"`
	Documents []string `json:"documents"`
	Partial   bool     `json:"partial,omitempty"`
}
