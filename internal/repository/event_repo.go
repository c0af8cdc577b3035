package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/domain"
)

// EventListFilter narrows ListEvents results
type EventListFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *domain.EventStatus
	// UserID scopes the privacy filter: private events are only visible to
	// their creator or users holding a share.
	UserID         string
	IncludePrivate bool
}

// EventRepository event data access
type EventRepository interface {
	WithTx(tx *gorm.DB) EventRepository
	Create(event *domain.Event) error
	FindByID(id string) (*domain.Event, error)
	Update(event *domain.Event) error
	Delete(id string) error
	List(filter EventListFilter) ([]*domain.Event, error)
	FindOverlapping(event *domain.Event) ([]*domain.Event, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) WithTx(tx *gorm.DB) EventRepository {
	return &eventRepository{db: tx}
}

func (r *eventRepository) Create(event *domain.Event) error {
	return r.db.Create(event).Error
}

func (r *eventRepository) FindByID(id string) (*domain.Event, error) {
	var event domain.Event
	if err := r.db.Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Update(event *domain.Event) error {
	return r.db.Save(event).Error
}

func (r *eventRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.Event{}).Error
}

func (r *eventRepository) List(filter EventListFilter) ([]*domain.Event, error) {
	query := r.db.Model(&domain.Event{})

	if filter.StartDate != nil {
		query = query.Where("start_time >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("end_time <= ?", *filter.EndDate)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if !filter.IncludePrivate {
		query = query.Where(
			"is_private = ? OR created_by = ? OR id IN (?)",
			false,
			filter.UserID,
			r.db.Model(&domain.EventShare{}).Select("event_id").Where("shared_with = ?", filter.UserID),
		)
	}

	var events []*domain.Event
	err := query.Order("start_time ASC").Find(&events).Error
	return events, err
}

// FindOverlapping returns non-cancelled events whose interval overlaps the
// given event, excluding the event itself. The SQL predicate matches
// Event.Overlaps: a.start < b.end AND a.end > b.start.
func (r *eventRepository) FindOverlapping(event *domain.Event) ([]*domain.Event, error) {
	query := r.db.
		Where("status <> ?", domain.StatusCancelled).
		Where("start_time < ? AND end_time > ?", event.EndTime, event.StartTime)
	if event.ID != "" {
		query = query.Where("id <> ?", event.ID)
	}

	var candidates []*domain.Event
	if err := query.Find(&candidates).Error; err != nil {
		return nil, err
	}

	// Re-check in memory so the cancelled-event rule stays in one place.
	overlapping := make([]*domain.Event, 0, len(candidates))
	for _, candidate := range candidates {
		if event.Overlaps(candidate) {
			overlapping = append(overlapping, candidate)
		}
	}
	return overlapping, nil
}
