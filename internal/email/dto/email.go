package dto

// SearchEmailsRequest carries the query-string filters of GET /api/emails.
// All fields are optional; an empty request lists the newest emails.
type SearchEmailsRequest struct {
	Query     string `form:"q"`
	AccountID string `form:"account_id"`
	Folder    string `form:"folder"`
	Category  string `form:"category"`
	Limit     int    `form:"limit"`
}

// UpdateCategoryRequest sets a manual category override.
type UpdateCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// SuggestReplyResponse is the reply-suggestion payload.
type SuggestReplyResponse struct {
	Reply      string  `json:"reply"`
	Confidence float64 `json:"confidence"`
}
