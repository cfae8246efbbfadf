package domain

import "time"

const DefaultIMAPPort = 993

// EmailAccount is one registered IMAP mailbox. An account exclusively owns
// its Email records; deleting it removes them as well.
type EmailAccount struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	IMAPHost     string     `json:"imap_host" gorm:"not null"`
	IMAPPort     int        `json:"imap_port" gorm:"not null;default:993"`
	IMAPUser     string     `json:"imap_user" gorm:"not null"`
	IMAPPassword string     `json:"-" gorm:"not null"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
