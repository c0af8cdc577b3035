package repository

import (
	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/domain"
)

// ParticipantRepository event participant data access
type ParticipantRepository interface {
	WithTx(tx *gorm.DB) ParticipantRepository
	Add(participant *domain.EventParticipant) error
	Remove(eventID, userID string) error
	Find(eventID, userID string) (*domain.EventParticipant, error)
	FindByEvent(eventID string) ([]*domain.EventParticipant, error)
	CountByEvent(eventID string) (int64, error)
}

type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) WithTx(tx *gorm.DB) ParticipantRepository {
	return &participantRepository{db: tx}
}

func (r *participantRepository) Add(participant *domain.EventParticipant) error {
	return r.db.Create(participant).Error
}

func (r *participantRepository) Remove(eventID, userID string) error {
	return r.db.
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&domain.EventParticipant{}).Error
}

func (r *participantRepository) Find(eventID, userID string) (*domain.EventParticipant, error) {
	var participant domain.EventParticipant
	err := r.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) FindByEvent(eventID string) ([]*domain.EventParticipant, error) {
	var participants []*domain.EventParticipant
	err := r.db.Where("event_id = ?", eventID).Order("joined_at ASC").Find(&participants).Error
	return participants, err
}

func (r *participantRepository) CountByEvent(eventID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.EventParticipant{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}
