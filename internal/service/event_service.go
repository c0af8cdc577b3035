package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/common"
	"github.com/eventium/eventium-backend/internal/domain"
	"github.com/eventium/eventium-backend/internal/repository"
	"github.com/eventium/eventium-backend/pkg/logger"
)

// CreateEventInput carries the fields of a new event.
type CreateEventInput struct {
	Title                string
	Description          *string
	StartTime            time.Time
	EndTime              time.Time
	Location             *string
	MaxParticipants      *int
	IsPrivate            bool
	RecurrencePattern    domain.RecurrencePattern
	RecurrenceEndDate    *time.Time
	RecurrenceInterval   int
	RecurrenceDays       []string
	RecurrenceExceptions []string
	CreatedBy            string
}

// EventService orchestrates event mutations so that every accepted change is
// free of schedule conflicts, versioned, and atomic.
type EventService struct {
	db           *gorm.DB
	tx           TxManager
	events       repository.EventRepository
	shares       repository.ShareRepository
	participants repository.ParticipantRepository
	ledger       *VersionService
	changelog    *ChangelogService
	maxInstances int
}

// NewEventService creates a new EventService. maxInstances caps recurrence
// expansion; <= 0 means no cap.
func NewEventService(
	db *gorm.DB,
	events repository.EventRepository,
	shares repository.ShareRepository,
	participants repository.ParticipantRepository,
	ledger *VersionService,
	changelog *ChangelogService,
	maxInstances int,
) *EventService {
	return &EventService{
		db:           db,
		tx:           NewTxManager(db),
		events:       events,
		shares:       shares,
		participants: participants,
		ledger:       ledger,
		changelog:    changelog,
		maxInstances: maxInstances,
	}
}

// EventStateLoader builds a conflict-resolver state lookup backed by the
// event repository.
func EventStateLoader(events repository.EventRepository) StateLoader {
	return func(entityType, entityID string) (domain.StateDocument, error) {
		if entityType != domain.EntityTypeEvent {
			return nil, common.NewValidationError("entity_type", "unsupported entity type: "+entityType)
		}
		event, err := events.FindByID(entityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, common.ErrEventNotFound
			}
			return nil, common.WrapStorage("load event", err)
		}
		return event.Snapshot(), nil
	}
}

// CreateEvent builds the base event, expands recurrence into materialized
// instances, runs the schedule-conflict check on the base event, and persists
// everything plus the initial ledger entry in one transaction.
func (s *EventService) CreateEvent(input CreateEventInput) (*domain.Event, []*domain.Event, error) {
	event := &domain.Event{
		Title:                input.Title,
		Description:          input.Description,
		StartTime:            input.StartTime,
		EndTime:              input.EndTime,
		Location:             input.Location,
		MaxParticipants:      input.MaxParticipants,
		Status:               domain.StatusDraft,
		IsPrivate:            input.IsPrivate,
		RecurrencePattern:    input.RecurrencePattern,
		RecurrenceEndDate:    input.RecurrenceEndDate,
		RecurrenceInterval:   input.RecurrenceInterval,
		RecurrenceDays:       domain.StringList(input.RecurrenceDays),
		RecurrenceExceptions: domain.StringList(input.RecurrenceExceptions),
		CurrentVersion:       1,
		CreatedBy:            input.CreatedBy,
	}
	if event.RecurrencePattern == "" {
		event.RecurrencePattern = domain.RecurrenceNone
	}
	if event.RecurrenceInterval == 0 {
		event.RecurrenceInterval = 1
	}
	if err := event.Validate(); err != nil {
		return nil, nil, err
	}

	var instances []*domain.Event
	err := s.tx.Run(func(scope *Scope) error {
		if err := s.checkScheduleConflicts(scope.Tx(), event); err != nil {
			return err
		}

		events := s.events.WithTx(scope.Tx())
		if err := events.Create(event); err != nil {
			return common.WrapStorage("create event", err)
		}

		if event.RecurrencePattern != domain.RecurrenceNone {
			instances = event.RecurringInstances(s.maxInstances)
			for _, instance := range instances {
				if err := events.Create(instance); err != nil {
					return common.WrapStorage("create recurring instance", err)
				}
			}
		}

		snapshot := event.Snapshot()
		if _, err := s.ledger.WithTx(scope.Tx()).CreateVersion(
			domain.EntityTypeEvent, event.ID,
			snapshot, domain.StateDocument{}, snapshot,
			input.CreatedBy,
		); err != nil {
			return err
		}

		scope.Record("create_event", domain.EntityTypeEvent, event.ID, snapshot)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.GetLogger().Info().
		Str("event_id", event.ID).
		Int("instances", len(instances)).
		Msg("event created")
	return event, instances, nil
}

// UpdateEvent applies a change document to an event. The actor needs edit
// rights; the mutated event must not overlap any other non-cancelled event.
// Exactly one new version is recorded.
func (s *EventService) UpdateEvent(eventID string, updates domain.StateDocument, actorID string) (*domain.Event, error) {
	var updated *domain.Event
	err := s.tx.Run(func(scope *Scope) error {
		event, err := s.loadEvent(scope.Tx(), eventID)
		if err != nil {
			return err
		}
		if err := s.checkPermission(scope.Tx(), event, actorID, "edit"); err != nil {
			return err
		}

		previousState := event.Snapshot()
		if err := event.ApplyChanges(updates); err != nil {
			return err
		}
		if err := event.Validate(); err != nil {
			return err
		}
		if err := s.checkScheduleConflicts(scope.Tx(), event); err != nil {
			return err
		}

		event.CurrentVersion++
		version, err := s.ledger.WithTx(scope.Tx()).CreateVersion(
			domain.EntityTypeEvent, event.ID,
			updates, previousState, event.Snapshot(),
			actorID,
		)
		if err != nil {
			return err
		}
		event.CurrentVersion = version.VersionNumber

		if err := s.events.WithTx(scope.Tx()).Update(event); err != nil {
			return common.WrapStorage("update event", err)
		}

		scope.Record("update_event", domain.EntityTypeEvent, event.ID, updates)
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RollbackEvent restores an event to the state captured by an earlier
// version. History is never rewritten: the rollback is recorded as a new
// version whose change payload names the restored version number. A rollback
// that would reintroduce a schedule overlap is rejected.
func (s *EventService) RollbackEvent(eventID string, versionNumber int, actorID string) (*domain.Event, error) {
	var restored *domain.Event
	err := s.tx.Run(func(scope *Scope) error {
		event, err := s.loadEvent(scope.Tx(), eventID)
		if err != nil {
			return err
		}
		if err := s.checkPermission(scope.Tx(), event, actorID, "rollback"); err != nil {
			return err
		}

		target, err := s.ledger.WithTx(scope.Tx()).GetVersion(domain.EntityTypeEvent, eventID, versionNumber)
		if err != nil {
			return err
		}

		previousState := event.Snapshot()
		if err := event.ApplyChanges(target.CurrentState); err != nil {
			return err
		}
		if err := s.checkScheduleConflicts(scope.Tx(), event); err != nil {
			return err
		}

		event.CurrentVersion++
		version, err := s.ledger.WithTx(scope.Tx()).CreateVersion(
			domain.EntityTypeEvent, event.ID,
			domain.StateDocument{"rolled_back_to_version": versionNumber},
			previousState, event.Snapshot(),
			actorID,
		)
		if err != nil {
			return err
		}
		event.CurrentVersion = version.VersionNumber

		if err := s.events.WithTx(scope.Tx()).Update(event); err != nil {
			return common.WrapStorage("update event", err)
		}

		scope.Record("rollback_event", domain.EntityTypeEvent, event.ID,
			domain.StateDocument{"rolled_back_to_version": versionNumber})
		restored = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.GetLogger().Info().
		Str("event_id", eventID).
		Int("version", versionNumber).
		Msg("event rolled back")
	return restored, nil
}

// DeleteEvent removes an event. Deletion needs manage rights.
func (s *EventService) DeleteEvent(eventID, actorID string) error {
	return s.tx.Run(func(scope *Scope) error {
		event, err := s.loadEvent(scope.Tx(), eventID)
		if err != nil {
			return err
		}
		if err := s.checkPermission(scope.Tx(), event, actorID, "delete"); err != nil {
			return err
		}
		if err := s.events.WithTx(scope.Tx()).Delete(eventID); err != nil {
			return common.WrapStorage("delete event", err)
		}
		scope.Record("delete_event", domain.EntityTypeEvent, eventID, event.Snapshot())
		return nil
	})
}

// GetEvent returns an event the actor may view.
func (s *EventService) GetEvent(eventID, actorID string) (*domain.Event, error) {
	event, err := s.loadEvent(s.db, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(s.db, event, actorID, "view"); err != nil {
		return nil, err
	}
	return event, nil
}

// ListEvents returns events matching the filter, with private events limited
// to the actor's own and shared ones.
func (s *EventService) ListEvents(filter repository.EventListFilter) ([]*domain.Event, error) {
	events, err := s.events.List(filter)
	if err != nil {
		return nil, common.WrapStorage("list events", err)
	}
	return events, nil
}

// GetEventChangelog returns the event's versions in ascending order,
// optionally bounded to a creation-date window. Requires view permission.
func (s *EventService) GetEventChangelog(eventID, actorID string, startDate, endDate *time.Time) ([]*domain.Version, error) {
	event, err := s.loadEvent(s.db, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(s.db, event, actorID, "view"); err != nil {
		return nil, err
	}
	return s.ledger.GetEntityChangelog(domain.EntityTypeEvent, eventID, startDate, endDate)
}

// GetEventVersionDiff compares two versions of an event and renders the
// result as a unified diff with a change summary. Requires view permission.
func (s *EventService) GetEventVersionDiff(eventID string, fromVersion, toVersion int, actorID string) (*VersionDiff, error) {
	event, err := s.loadEvent(s.db, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(s.db, event, actorID, "view"); err != nil {
		return nil, err
	}
	return s.changelog.GetVisualChanges(domain.EntityTypeEvent, eventID, fromVersion, toVersion)
}

// ShareEvent grants another user access to an event. Managing shares needs
// manage rights (the owner always has them).
func (s *EventService) ShareEvent(
	eventID, actorID, targetUserID string,
	permission domain.SharePermission,
	expiresAt *time.Time,
) (*domain.EventShare, error) {
	event, err := s.loadEvent(s.db, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(s.db, event, actorID, "share"); err != nil {
		return nil, err
	}

	share := &domain.EventShare{
		EventID:    eventID,
		SharedBy:   actorID,
		SharedWith: targetUserID,
		Permission: permission,
		ExpiresAt:  expiresAt,
	}
	if err := s.shares.Create(share); err != nil {
		return nil, common.WrapStorage("create share", err)
	}
	return share, nil
}

// GetEventShares lists an event's shares. Requires manage rights.
func (s *EventService) GetEventShares(eventID, actorID string) ([]*domain.EventShare, error) {
	event, err := s.loadEvent(s.db, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(s.db, event, actorID, "share"); err != nil {
		return nil, err
	}
	shares, err := s.shares.FindByEvent(eventID)
	if err != nil {
		return nil, common.WrapStorage("list shares", err)
	}
	return shares, nil
}

// UpdateEventShare changes a user's permission level on an event.
func (s *EventService) UpdateEventShare(
	eventID, targetUserID string,
	permission domain.SharePermission,
	actorID string,
) (*domain.EventShare, error) {
	event, err := s.loadEvent(s.db, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(s.db, event, actorID, "share"); err != nil {
		return nil, err
	}

	share, err := s.shares.FindByEventAndUser(eventID, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrShareNotFound
		}
		return nil, common.WrapStorage("load share", err)
	}
	share.Permission = permission
	if err := s.shares.Update(share); err != nil {
		return nil, common.WrapStorage("update share", err)
	}
	return share, nil
}

// RemoveEventShare revokes a user's access to an event.
func (s *EventService) RemoveEventShare(eventID, targetUserID, actorID string) error {
	event, err := s.loadEvent(s.db, eventID)
	if err != nil {
		return err
	}
	if err := s.checkPermission(s.db, event, actorID, "share"); err != nil {
		return err
	}
	if _, err := s.shares.FindByEventAndUser(eventID, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrShareNotFound
		}
		return common.WrapStorage("load share", err)
	}
	if err := s.shares.Delete(eventID, targetUserID); err != nil {
		return common.WrapStorage("delete share", err)
	}
	return nil
}

// AddParticipant registers a user on an event, enforcing capacity.
func (s *EventService) AddParticipant(eventID, userID string) error {
	return s.tx.Run(func(scope *Scope) error {
		event, err := s.loadEvent(scope.Tx(), eventID)
		if err != nil {
			return err
		}

		participants := s.participants.WithTx(scope.Tx())
		if event.MaxParticipants != nil {
			count, err := participants.CountByEvent(eventID)
			if err != nil {
				return common.WrapStorage("count participants", err)
			}
			if count >= int64(*event.MaxParticipants) {
				return common.ErrEventFull
			}
		}
		if _, err := participants.Find(eventID, userID); err == nil {
			return common.ErrAlreadyParticipant
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return common.WrapStorage("load participant", err)
		}

		if err := participants.Add(&domain.EventParticipant{
			EventID: eventID,
			UserID:  userID,
			Role:    domain.RoleViewer,
		}); err != nil {
			return common.WrapStorage("add participant", err)
		}
		scope.Record("add_participant", domain.EntityTypeEvent, eventID,
			domain.StateDocument{"user_id": userID})
		return nil
	})
}

// RemoveParticipant unregisters a user from an event.
func (s *EventService) RemoveParticipant(eventID, userID string) error {
	return s.tx.Run(func(scope *Scope) error {
		if _, err := s.loadEvent(scope.Tx(), eventID); err != nil {
			return err
		}
		participants := s.participants.WithTx(scope.Tx())
		if _, err := participants.Find(eventID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotParticipant
			}
			return common.WrapStorage("load participant", err)
		}
		if err := participants.Remove(eventID, userID); err != nil {
			return common.WrapStorage("remove participant", err)
		}
		scope.Record("remove_participant", domain.EntityTypeEvent, eventID,
			domain.StateDocument{"user_id": userID})
		return nil
	})
}

// CheckEventConflicts returns the non-cancelled events overlapping the given
// event, excluding itself.
func (s *EventService) CheckEventConflicts(event *domain.Event) ([]*domain.Event, error) {
	overlapping, err := s.events.FindOverlapping(event)
	if err != nil {
		return nil, common.WrapStorage("conflict query", err)
	}
	return overlapping, nil
}

func (s *EventService) loadEvent(tx *gorm.DB, eventID string) (*domain.Event, error) {
	event, err := s.events.WithTx(tx).FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrEventNotFound
		}
		return nil, common.WrapStorage("load event", err)
	}
	return event, nil
}

// checkPermission grants the owner unconditionally; otherwise the actor needs
// a live share allowing the action. Denials reveal nothing beyond the denial.
func (s *EventService) checkPermission(tx *gorm.DB, event *domain.Event, actorID, action string) error {
	if event.CreatedBy == actorID {
		return nil
	}
	share, err := s.shares.WithTx(tx).FindByEventAndUser(event.ID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrPermissionDenied
		}
		return common.WrapStorage("load share", err)
	}
	if !share.Allows(action, time.Now()) {
		return common.ErrPermissionDenied
	}
	return nil
}

func (s *EventService) checkScheduleConflicts(tx *gorm.DB, event *domain.Event) error {
	overlapping, err := s.events.WithTx(tx).FindOverlapping(event)
	if err != nil {
		return common.WrapStorage("conflict query", err)
	}
	if len(overlapping) > 0 {
		ids := make([]string, len(overlapping))
		for i, e := range overlapping {
			ids[i] = e.ID
		}
		return &common.ScheduleConflictError{ConflictingIDs: ids}
	}
	return nil
}
