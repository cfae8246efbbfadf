package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Vector stores an embedding as a JSON array in a text column.
type Vector []float64

// Value implements driver.Valuer
func (v Vector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = Vector{}
		return nil
	}
	var bytes []byte
	switch raw := value.(type) {
	case []byte:
		bytes = raw
	case string:
		bytes = []byte(raw)
	default:
		return nil
	}
	if len(bytes) == 0 {
		*v = Vector{}
		return nil
	}
	return json.Unmarshal(bytes, v)
}

// KnowledgeEntry is a snippet of reference text used to ground reply
// generation. The embedding is regenerated whenever the content changes,
// so it is never stale relative to Content.
type KnowledgeEntry struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Category  string    `json:"category" gorm:"default:general"`
	Embedding Vector    `json:"-" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
