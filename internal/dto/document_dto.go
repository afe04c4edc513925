package dto

type AddDocumentsRequest struct {
	Texts []string `json:"texts" validate:"required,min=1,dive,required"`
}

// FailedDocument reports one text of a batch that could not be indexed.
// Partial batch failures are never silent.
type FailedDocument struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type AddDocumentsResponse struct {
	Added  int              `json:"added"`
	Failed []FailedDocument `json:"failed,omitempty"`
}

type SearchDocumentsRequest struct {
	Query string `json:"query" validate:"required,min=1"`
	TopK  int    `json:"top_k" validate:"omitempty,min=1,max=100"`
}

type DocumentResult struct {
	Id    string  `json:"id"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

type SearchDocumentsResponse struct {
	Results []DocumentResult `json:"results"`
}

type GetDocumentResponse struct {
	Id      string `json:"id"`
	Content string `json:"content"`
}

type DocumentSummary struct {
	Id   string `json:"id"`
	Text string `json:"text"`
}

type ListDocumentsResponse struct {
	Documents []DocumentSummary `json:"documents"`
}
