package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/common"
)

// EventStatus lifecycle state of an event
type EventStatus string

const (
	StatusDraft      EventStatus = "draft"
	StatusScheduled  EventStatus = "scheduled"
	StatusInProgress EventStatus = "in_progress"
	StatusCompleted  EventStatus = "completed"
	StatusCancelled  EventStatus = "cancelled"
)

// RecurrencePattern repeat period of a recurring event
type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = "none"
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
)

// Event represents a schedulable entity in the events table
type Event struct {
	ID                   string            `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Title                string            `gorm:"column:title;type:varchar(255);index" json:"title"`
	Description          *string           `gorm:"column:description;type:text" json:"description,omitempty"`
	StartTime            time.Time         `gorm:"column:start_time;index:ix_events_date_range" json:"start_time"`
	EndTime              time.Time         `gorm:"column:end_time;index:ix_events_date_range" json:"end_time"`
	Location             *string           `gorm:"column:location;type:varchar(255);index" json:"location,omitempty"`
	MaxParticipants      *int              `gorm:"column:max_participants" json:"max_participants,omitempty"`
	Status               EventStatus       `gorm:"column:status;type:enum('draft','scheduled','in_progress','completed','cancelled');default:'draft';index" json:"status"`
	IsPrivate            bool              `gorm:"column:is_private;default:false;index" json:"is_private"`
	RecurrencePattern    RecurrencePattern `gorm:"column:recurrence_pattern;type:enum('none','daily','weekly','monthly','yearly');default:'none'" json:"recurrence_pattern"`
	RecurrenceEndDate    *time.Time        `gorm:"column:recurrence_end_date" json:"recurrence_end_date,omitempty"`
	RecurrenceInterval   int               `gorm:"column:recurrence_interval;default:1" json:"recurrence_interval"`
	RecurrenceDays       StringList        `gorm:"column:recurrence_days;type:json" json:"recurrence_days,omitempty"`
	RecurrenceExceptions StringList        `gorm:"column:recurrence_exceptions;type:json" json:"recurrence_exceptions,omitempty"`
	CurrentVersion       int               `gorm:"column:current_version;default:1" json:"current_version"`
	CreatedBy            string            `gorm:"column:created_by;type:varchar(36);index" json:"created_by"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

// BeforeCreate assigns a UUID primary key when none is set
func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Validate checks the time range and recurrence descriptor.
func (e *Event) Validate() error {
	if e.Title == "" {
		return common.NewValidationError("title", "must not be empty")
	}
	if !e.StartTime.Before(e.EndTime) {
		return common.NewValidationError("start_time", "must be before end_time")
	}
	if e.RecurrencePattern != RecurrenceNone {
		if e.RecurrenceInterval < 1 {
			return common.NewValidationError("recurrence_interval", "must be at least 1")
		}
		if e.RecurrenceEndDate == nil {
			return common.NewValidationError("recurrence_end_date", "required for recurring events")
		}
	}
	return nil
}

// Overlaps reports a schedule conflict between two events. Cancelled events
// never conflict. The predicate is symmetric.
func (e *Event) Overlaps(other *Event) bool {
	if e.Status == StatusCancelled || other.Status == StatusCancelled {
		return false
	}
	return e.StartTime.Before(other.EndTime) && e.EndTime.After(other.StartTime)
}

// Snapshot renders the event as a state document for the version ledger.
func (e *Event) Snapshot() StateDocument {
	doc := StateDocument{
		"id":                    e.ID,
		"title":                 e.Title,
		"description":           nullableString(e.Description),
		"start_time":            e.StartTime.UTC().Format(time.RFC3339),
		"end_time":              e.EndTime.UTC().Format(time.RFC3339),
		"location":              nullableString(e.Location),
		"max_participants":      nullableInt(e.MaxParticipants),
		"status":                string(e.Status),
		"is_private":            e.IsPrivate,
		"recurrence_pattern":    string(e.RecurrencePattern),
		"recurrence_end_date":   nullableTime(e.RecurrenceEndDate),
		"recurrence_interval":   e.RecurrenceInterval,
		"recurrence_days":       stringListValue(e.RecurrenceDays),
		"recurrence_exceptions": stringListValue(e.RecurrenceExceptions),
		"current_version":       e.CurrentVersion,
		"created_by":            e.CreatedBy,
	}
	return doc
}

// ApplyChanges assigns known fields from a change document onto the event.
// Unknown keys are ignored, matching the ledger's opaque-document contract.
func (e *Event) ApplyChanges(changes StateDocument) error {
	for key, value := range changes {
		switch key {
		case "title":
			if s, ok := value.(string); ok {
				e.Title = s
			}
		case "description":
			e.Description = optionalString(value)
		case "location":
			e.Location = optionalString(value)
		case "start_time":
			t, err := parseTimeField(key, value)
			if err != nil {
				return err
			}
			if t != nil {
				e.StartTime = *t
			}
		case "end_time":
			t, err := parseTimeField(key, value)
			if err != nil {
				return err
			}
			if t != nil {
				e.EndTime = *t
			}
		case "max_participants":
			if value == nil {
				e.MaxParticipants = nil
			} else if n, ok := asNumber(value); ok {
				v := int(n)
				e.MaxParticipants = &v
			}
		case "status":
			if s, ok := value.(string); ok {
				e.Status = EventStatus(s)
			}
		case "is_private":
			if b, ok := value.(bool); ok {
				e.IsPrivate = b
			}
		case "recurrence_pattern":
			if s, ok := value.(string); ok {
				e.RecurrencePattern = RecurrencePattern(s)
			}
		case "recurrence_end_date":
			t, err := parseTimeField(key, value)
			if err != nil {
				return err
			}
			e.RecurrenceEndDate = t
		case "recurrence_interval":
			if n, ok := asNumber(value); ok {
				e.RecurrenceInterval = int(n)
			}
		case "recurrence_days":
			e.RecurrenceDays = toStringList(value)
		case "recurrence_exceptions":
			e.RecurrenceExceptions = toStringList(value)
		}
	}
	return nil
}

// RecurringInstances materializes the occurrences of a recurring event,
// starting at the base start time and stepping by the pattern period times
// the interval until the next occurrence would pass the recurrence end date.
// Occurrences whose date is listed in the exceptions are skipped. Instances
// carry fresh identities and are not themselves recurring. max caps the
// number of instances; max <= 0 means no cap.
func (e *Event) RecurringInstances(max int) []*Event {
	if e.RecurrencePattern == RecurrenceNone || e.RecurrenceEndDate == nil {
		return nil
	}

	interval := e.RecurrenceInterval
	if interval < 1 {
		interval = 1
	}
	duration := e.EndTime.Sub(e.StartTime)

	var instances []*Event
	for start := e.StartTime; !start.After(*e.RecurrenceEndDate); start = stepOccurrence(start, e.RecurrencePattern, interval) {
		if e.RecurrenceExceptions.Contains(start.UTC().Format("2006-01-02")) {
			continue
		}
		instances = append(instances, &Event{
			ID:                uuid.NewString(),
			Title:             e.Title,
			Description:       e.Description,
			StartTime:         start,
			EndTime:           start.Add(duration),
			Location:          e.Location,
			MaxParticipants:   e.MaxParticipants,
			Status:            e.Status,
			IsPrivate:         e.IsPrivate,
			RecurrencePattern: RecurrenceNone,
			CurrentVersion:    1,
			CreatedBy:         e.CreatedBy,
		})
		if max > 0 && len(instances) >= max {
			break
		}
	}
	return instances
}

func stepOccurrence(start time.Time, pattern RecurrencePattern, interval int) time.Time {
	switch pattern {
	case RecurrenceDaily:
		return start.AddDate(0, 0, interval)
	case RecurrenceWeekly:
		return start.AddDate(0, 0, 7*interval)
	case RecurrenceMonthly:
		return start.AddDate(0, 0, 30*interval)
	case RecurrenceYearly:
		return start.AddDate(0, 0, 365*interval)
	default:
		return start
	}
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func stringListValue(l StringList) any {
	if l == nil {
		return nil
	}
	out := make([]any, len(l))
	for i, s := range l {
		out[i] = s
	}
	return out
}

func optionalString(value any) *string {
	if s, ok := value.(string); ok {
		return &s
	}
	return nil
}

func toStringList(value any) StringList {
	switch typed := value.(type) {
	case nil:
		return nil
	case StringList:
		return typed
	case []string:
		return StringList(typed)
	case []any:
		out := make(StringList, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func parseTimeField(field string, value any) (*time.Time, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &typed, nil
	case string:
		t, err := time.Parse(time.RFC3339, typed)
		if err != nil {
			return nil, common.NewValidationError(field, "invalid RFC3339 timestamp")
		}
		return &t, nil
	default:
		return nil, common.NewValidationError(field, "invalid timestamp value")
	}
}
