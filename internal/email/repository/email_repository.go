package repository

import (
	"errors"

	"gorm.io/gorm"

	emaildomain "unibox-backend/internal/email/domain"
)

// EmailRepository is the storage contract for ingested emails.
//
// Create is idempotent keyed on (MessageID, AccountID): a unique-constraint
// violation is resolved by re-reading and returning the existing record.
// The boolean reports whether a new row was actually inserted, so callers
// can keep side effects (indexing, notifications) at-most-once.
type EmailRepository interface {
	GetByID(id string) (*emaildomain.Email, error)
	GetByMessageID(accountID, messageID string) (*emaildomain.Email, error)
	GetByAccount(accountID string, limit, offset int) ([]*emaildomain.Email, error)
	Create(email *emaildomain.Email) (*emaildomain.Email, bool, error)
	UpdateCategory(id string, category emaildomain.Category) error
	MarkAsRead(id string) error
	DeleteByAccount(accountID string) error
}

// emailRepository implements EmailRepository on GORM
type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) GetByID(id string) (*emaildomain.Email, error) {
	var email emaildomain.Email
	err := r.db.Where("id = ?", id).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) GetByMessageID(accountID, messageID string) (*emaildomain.Email, error) {
	var email emaildomain.Email
	err := r.db.Where("account_id = ? AND message_id = ?", accountID, messageID).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) GetByAccount(accountID string, limit, offset int) ([]*emaildomain.Email, error) {
	var emails []*emaildomain.Email
	q := r.db.Where("account_id = ?", accountID).Order("received_at desc").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *emailRepository) Create(email *emaildomain.Email) (*emaildomain.Email, bool, error) {
	err := r.db.Create(email).Error
	if err == nil {
		return email, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}

	// Lost the race between the existence check and the insert; the unique
	// index on (account_id, message_id) is the second line of defense.
	// Resolve by re-reading the winner.
	existing, readErr := r.GetByMessageID(email.AccountID, email.MessageID)
	if readErr != nil {
		return nil, false, readErr
	}
	if existing == nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *emailRepository) UpdateCategory(id string, category emaildomain.Category) error {
	return r.db.Model(&emaildomain.Email{}).
		Where("id = ?", id).
		Update("category", category).Error
}

func (r *emailRepository) MarkAsRead(id string) error {
	return r.db.Model(&emaildomain.Email{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *emailRepository) DeleteByAccount(accountID string) error {
	return r.db.Where("account_id = ?", accountID).Delete(&emaildomain.Email{}).Error
}
