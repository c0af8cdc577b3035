package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(start, end time.Time, status EventStatus) *Event {
	return &Event{
		ID:        "e-" + start.Format("150405"),
		Title:     "meeting",
		StartTime: start,
		EndTime:   end,
		Status:    status,
		CreatedBy: "user-1",
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		a      *Event
		b      *Event
		expect bool
	}{
		{
			name:   "partial overlap",
			a:      makeEvent(base, base.Add(time.Hour), StatusScheduled),
			b:      makeEvent(base.Add(30*time.Minute), base.Add(90*time.Minute), StatusScheduled),
			expect: true,
		},
		{
			name:   "containment",
			a:      makeEvent(base, base.Add(2*time.Hour), StatusScheduled),
			b:      makeEvent(base.Add(30*time.Minute), base.Add(time.Hour), StatusScheduled),
			expect: true,
		},
		{
			name:   "back to back",
			a:      makeEvent(base, base.Add(time.Hour), StatusScheduled),
			b:      makeEvent(base.Add(time.Hour), base.Add(2*time.Hour), StatusScheduled),
			expect: false,
		},
		{
			name:   "disjoint",
			a:      makeEvent(base, base.Add(time.Hour), StatusScheduled),
			b:      makeEvent(base.Add(3*time.Hour), base.Add(4*time.Hour), StatusScheduled),
			expect: false,
		},
		{
			name:   "cancelled never conflicts",
			a:      makeEvent(base, base.Add(time.Hour), StatusCancelled),
			b:      makeEvent(base.Add(30*time.Minute), base.Add(90*time.Minute), StatusScheduled),
			expect: false,
		},
		{
			name:   "other cancelled never conflicts",
			a:      makeEvent(base, base.Add(time.Hour), StatusScheduled),
			b:      makeEvent(base.Add(30*time.Minute), base.Add(90*time.Minute), StatusCancelled),
			expect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.a.Overlaps(tt.b))
			// The predicate is symmetric.
			assert.Equal(t, tt.expect, tt.b.Overlaps(tt.a))
		})
	}
}

func TestValidate(t *testing.T) {
	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	endDate := base.AddDate(0, 1, 0)

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{name: "valid", mutate: func(e *Event) {}},
		{name: "empty title", mutate: func(e *Event) { e.Title = "" }, wantErr: true},
		{name: "start equals end", mutate: func(e *Event) { e.EndTime = e.StartTime }, wantErr: true},
		{name: "start after end", mutate: func(e *Event) { e.EndTime = e.StartTime.Add(-time.Hour) }, wantErr: true},
		{
			name: "recurring without end date",
			mutate: func(e *Event) {
				e.RecurrencePattern = RecurrenceDaily
				e.RecurrenceEndDate = nil
			},
			wantErr: true,
		},
		{
			name: "recurring with zero interval",
			mutate: func(e *Event) {
				e.RecurrencePattern = RecurrenceDaily
				e.RecurrenceEndDate = &endDate
				e.RecurrenceInterval = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := makeEvent(base, base.Add(time.Hour), StatusDraft)
			event.RecurrenceInterval = 1
			tt.mutate(event)
			err := event.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecurringInstances(t *testing.T) {
	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	t.Run("daily expansion", func(t *testing.T) {
		end := base.AddDate(0, 0, 3)
		event := makeEvent(base, base.Add(time.Hour), StatusDraft)
		event.RecurrencePattern = RecurrenceDaily
		event.RecurrenceInterval = 1
		event.RecurrenceEndDate = &end

		instances := event.RecurringInstances(0)

		require.Len(t, instances, 4)
		for i, instance := range instances {
			assert.Equal(t, base.AddDate(0, 0, i), instance.StartTime)
			assert.Equal(t, time.Hour, instance.EndTime.Sub(instance.StartTime))
			assert.Equal(t, RecurrenceNone, instance.RecurrencePattern)
			assert.Equal(t, 1, instance.CurrentVersion)
			assert.NotEmpty(t, instance.ID)
			assert.NotEqual(t, event.ID, instance.ID)
		}
	})

	t.Run("exceptions are skipped", func(t *testing.T) {
		end := base.AddDate(0, 0, 3)
		event := makeEvent(base, base.Add(time.Hour), StatusDraft)
		event.RecurrencePattern = RecurrenceDaily
		event.RecurrenceInterval = 1
		event.RecurrenceEndDate = &end
		event.RecurrenceExceptions = StringList{"2025-01-11", "2025-01-13"}

		instances := event.RecurringInstances(0)

		require.Len(t, instances, 2)
		assert.Equal(t, base, instances[0].StartTime)
		assert.Equal(t, base.AddDate(0, 0, 2), instances[1].StartTime)
	})

	t.Run("weekly interval", func(t *testing.T) {
		end := base.AddDate(0, 0, 28)
		event := makeEvent(base, base.Add(time.Hour), StatusDraft)
		event.RecurrencePattern = RecurrenceWeekly
		event.RecurrenceInterval = 2
		event.RecurrenceEndDate = &end

		instances := event.RecurringInstances(0)

		require.Len(t, instances, 3)
		assert.Equal(t, base.AddDate(0, 0, 14), instances[1].StartTime)
		assert.Equal(t, base.AddDate(0, 0, 28), instances[2].StartTime)
	})

	t.Run("cap limits expansion", func(t *testing.T) {
		end := base.AddDate(1, 0, 0)
		event := makeEvent(base, base.Add(time.Hour), StatusDraft)
		event.RecurrencePattern = RecurrenceDaily
		event.RecurrenceInterval = 1
		event.RecurrenceEndDate = &end

		instances := event.RecurringInstances(10)

		assert.Len(t, instances, 10)
	})

	t.Run("non-recurring returns nothing", func(t *testing.T) {
		event := makeEvent(base, base.Add(time.Hour), StatusDraft)
		assert.Nil(t, event.RecurringInstances(0))
	})
}

func TestSnapshotApplyChanges(t *testing.T) {
	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	location := "room 4"
	capacity := 12

	event := makeEvent(base, base.Add(time.Hour), StatusScheduled)
	event.Location = &location
	event.MaxParticipants = &capacity
	event.CurrentVersion = 3

	snapshot := event.Snapshot()
	assert.Equal(t, "meeting", snapshot["title"])
	assert.Equal(t, "2025-01-10T10:00:00Z", snapshot["start_time"])
	assert.Equal(t, "room 4", snapshot["location"])
	assert.Equal(t, 12, snapshot["max_participants"])
	assert.Equal(t, "scheduled", snapshot["status"])
	assert.Equal(t, 3, snapshot["current_version"])
	assert.Nil(t, snapshot["description"])

	t.Run("snapshot round-trips through ApplyChanges", func(t *testing.T) {
		restored := &Event{ID: event.ID, CreatedBy: event.CreatedBy}
		require.NoError(t, restored.ApplyChanges(snapshot))

		assert.Equal(t, event.Title, restored.Title)
		assert.True(t, event.StartTime.Equal(restored.StartTime))
		assert.True(t, event.EndTime.Equal(restored.EndTime))
		assert.Equal(t, event.Status, restored.Status)
		require.NotNil(t, restored.Location)
		assert.Equal(t, location, *restored.Location)
		require.NotNil(t, restored.MaxParticipants)
		assert.Equal(t, capacity, *restored.MaxParticipants)
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		clone := makeEvent(base, base.Add(time.Hour), StatusDraft)
		require.NoError(t, clone.ApplyChanges(StateDocument{"rolled_back_to_version": 1}))
		assert.Equal(t, "meeting", clone.Title)
	})

	t.Run("bad timestamp fails validation", func(t *testing.T) {
		clone := makeEvent(base, base.Add(time.Hour), StatusDraft)
		err := clone.ApplyChanges(StateDocument{"start_time": "not-a-time"})
		assert.Error(t, err)
	})

	t.Run("null clears optional fields", func(t *testing.T) {
		clone := makeEvent(base, base.Add(time.Hour), StatusDraft)
		clone.Location = &location
		clone.MaxParticipants = &capacity
		require.NoError(t, clone.ApplyChanges(StateDocument{"location": nil, "max_participants": nil}))
		assert.Nil(t, clone.Location)
		assert.Nil(t, clone.MaxParticipants)
	})
}
