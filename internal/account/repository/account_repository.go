package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	accountdomain "unibox-backend/internal/account/domain"
)

// AccountRepository is the storage contract for email accounts. Lookup
// methods return (nil, nil) when no record matches.
type AccountRepository interface {
	Create(account *accountdomain.EmailAccount) error
	FindByID(id string) (*accountdomain.EmailAccount, error)
	FindByEmail(email string) (*accountdomain.EmailAccount, error)
	FindAll() ([]*accountdomain.EmailAccount, error)
	FindActive() ([]*accountdomain.EmailAccount, error)
	UpdateSyncTime(id string, syncedAt time.Time) error
	SetActive(id string, active bool) error
	Delete(id string) error
}

// accountRepository implements AccountRepository on GORM
type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(account *accountdomain.EmailAccount) error {
	return r.db.Create(account).Error
}

func (r *accountRepository) FindByID(id string) (*accountdomain.EmailAccount, error) {
	var account accountdomain.EmailAccount
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByEmail(email string) (*accountdomain.EmailAccount, error) {
	var account accountdomain.EmailAccount
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindAll() ([]*accountdomain.EmailAccount, error) {
	var accounts []*accountdomain.EmailAccount
	if err := r.db.Order("created_at asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) FindActive() ([]*accountdomain.EmailAccount, error) {
	var accounts []*accountdomain.EmailAccount
	if err := r.db.Where("is_active = ?", true).Order("created_at asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) UpdateSyncTime(id string, syncedAt time.Time) error {
	return r.db.Model(&accountdomain.EmailAccount{}).
		Where("id = ?", id).
		Update("last_synced_at", syncedAt).Error
}

func (r *accountRepository) SetActive(id string, active bool) error {
	return r.db.Model(&accountdomain.EmailAccount{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *accountRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&accountdomain.EmailAccount{}).Error
}
