package repository

import (
	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/domain"
)

// ShareRepository event share data access
type ShareRepository interface {
	WithTx(tx *gorm.DB) ShareRepository
	Create(share *domain.EventShare) error
	FindByEventAndUser(eventID, userID string) (*domain.EventShare, error)
	FindByEvent(eventID string) ([]*domain.EventShare, error)
	Update(share *domain.EventShare) error
	Delete(eventID, userID string) error
}

type shareRepository struct {
	db *gorm.DB
}

// NewShareRepository creates a new ShareRepository
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) WithTx(tx *gorm.DB) ShareRepository {
	return &shareRepository{db: tx}
}

func (r *shareRepository) Create(share *domain.EventShare) error {
	return r.db.Create(share).Error
}

func (r *shareRepository) FindByEventAndUser(eventID, userID string) (*domain.EventShare, error) {
	var share domain.EventShare
	err := r.db.Where("event_id = ? AND shared_with = ?", eventID, userID).First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *shareRepository) FindByEvent(eventID string) ([]*domain.EventShare, error) {
	var shares []*domain.EventShare
	err := r.db.Where("event_id = ?", eventID).Order("created_at ASC").Find(&shares).Error
	return shares, err
}

func (r *shareRepository) Update(share *domain.EventShare) error {
	return r.db.Save(share).Error
}

func (r *shareRepository) Delete(eventID, userID string) error {
	return r.db.Where("event_id = ? AND shared_with = ?", eventID, userID).Delete(&domain.EventShare{}).Error
}
