package domain

import (
	"fmt"
	"time"
)

// Category is the closed set of AI classification labels. Exactly one
// applies to a classified email.
type Category string

const (
	CategoryInterested    Category = "Interested"
	CategoryMeetingBooked Category = "Meeting Booked"
	CategoryNotInterested Category = "Not Interested"
	CategorySpam          Category = "Spam"
	CategoryOutOfOffice   Category = "Out of Office"
)

// Categories lists every valid label, in the order they are presented to
// the classifier.
func Categories() []Category {
	return []Category{
		CategoryInterested,
		CategoryMeetingBooked,
		CategoryNotInterested,
		CategorySpam,
		CategoryOutOfOffice,
	}
}

// ParseCategory validates a label returned by the classifier or supplied by
// a client. Anything outside the closed set is an error.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Email is one ingested message. The pair (MessageID, AccountID) is unique:
// re-ingesting the same message for the same account must return the
// existing record, never create a duplicate.
type Email struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	AccountID      string    `json:"account_id" gorm:"index:idx_account_message,unique;not null"`
	MessageID      string    `json:"message_id" gorm:"index:idx_account_message,unique;not null"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Subject        string    `json:"subject"`
	TextBody       string    `json:"text_body,omitempty" gorm:"type:text"`
	HTMLBody       string    `json:"html_body,omitempty" gorm:"type:text"`
	Folder         string    `json:"folder" gorm:"default:INBOX"`
	Category       Category  `json:"category,omitempty"`
	IsRead         bool      `json:"is_read" gorm:"default:false"`
	HasAttachments bool      `json:"has_attachments" gorm:"default:false"`
	ReceivedAt     time.Time `json:"received_at"`
	CreatedAt      time.Time `json:"created_at"`
}
