package repository

import (
	"errors"

	"gorm.io/gorm"

	knowledgedomain "unibox-backend/internal/knowledge/domain"
)

// KnowledgeRepository is the storage contract for knowledge base entries.
type KnowledgeRepository interface {
	GetAll() ([]*knowledgedomain.KnowledgeEntry, error)
	GetByID(id string) (*knowledgedomain.KnowledgeEntry, error)
	Create(entry *knowledgedomain.KnowledgeEntry) error
	Update(entry *knowledgedomain.KnowledgeEntry) error
	Delete(id string) error
}

// knowledgeRepository implements KnowledgeRepository on GORM
type knowledgeRepository struct {
	db *gorm.DB
}

func NewKnowledgeRepository(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

func (r *knowledgeRepository) GetAll() ([]*knowledgedomain.KnowledgeEntry, error) {
	var entries []*knowledgedomain.KnowledgeEntry
	if err := r.db.Order("created_at asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *knowledgeRepository) GetByID(id string) (*knowledgedomain.KnowledgeEntry, error) {
	var entry knowledgedomain.KnowledgeEntry
	err := r.db.Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *knowledgeRepository) Create(entry *knowledgedomain.KnowledgeEntry) error {
	return r.db.Create(entry).Error
}

func (r *knowledgeRepository) Update(entry *knowledgedomain.KnowledgeEntry) error {
	return r.db.Save(entry).Error
}

func (r *knowledgeRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&knowledgedomain.KnowledgeEntry{}).Error
}
