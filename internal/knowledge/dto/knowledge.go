package dto

// CreateEntryRequest is the payload for adding a knowledge base entry.
type CreateEntryRequest struct {
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
}

// UpdateEntryRequest replaces an entry's content and category.
type UpdateEntryRequest struct {
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
}
