package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventium/eventium-backend/internal/common"
	"github.com/eventium/eventium-backend/internal/domain"
)

func TestComputeFieldDiff(t *testing.T) {
	svc := NewChangelogService(&memVersionRepo{})

	from := domain.StateDocument{"title": "A", "location": "X"}
	to := domain.StateDocument{"title": "B", "location": "X", "capacity": 5}

	changes := svc.ComputeFieldDiff(from, to)

	require.Len(t, changes, 2)
	assert.Equal(t, FieldChange{Type: ChangeModified, OldValue: "A", NewValue: "B"}, changes["title"])
	assert.Equal(t, FieldChange{Type: ChangeAdded, Value: 5}, changes["capacity"])

	t.Run("removed field", func(t *testing.T) {
		changes := svc.ComputeFieldDiff(
			domain.StateDocument{"location": "X"},
			domain.StateDocument{})
		require.Len(t, changes, 1)
		assert.Equal(t, FieldChange{Type: ChangeRemoved, Value: "X"}, changes["location"])
	})

	t.Run("numbers compare across json decoding", func(t *testing.T) {
		changes := svc.ComputeFieldDiff(
			domain.StateDocument{"capacity": 5},
			domain.StateDocument{"capacity": float64(5)})
		assert.Empty(t, changes)
	})
}

func TestGetChangesBetweenVersions(t *testing.T) {
	repo := &memVersionRepo{}
	ledger := NewVersionService(repo)
	svc := NewChangelogService(repo)

	states := []domain.StateDocument{
		{"title": "A", "location": "X"},
		{"title": "B", "location": "X"},
		{"title": "B", "location": "Y", "capacity": 5},
	}
	prev := domain.StateDocument{}
	for _, state := range states {
		_, err := ledger.CreateVersion("event", "e1", state, prev, state, "u")
		require.NoError(t, err)
		prev = state
	}

	t.Run("compares stored states", func(t *testing.T) {
		comparison, err := svc.GetChangesBetweenVersions("event", "e1", 1, 3)
		require.NoError(t, err)

		assert.Equal(t, 1, comparison.FromVersion.VersionNumber)
		assert.Equal(t, 3, comparison.ToVersion.VersionNumber)
		require.Len(t, comparison.Changes, 3)
		assert.Equal(t, ChangeModified, comparison.Changes["title"].Type)
		assert.Equal(t, ChangeModified, comparison.Changes["location"].Type)
		assert.Equal(t, ChangeAdded, comparison.Changes["capacity"].Type)
	})

	t.Run("reversed range is rejected", func(t *testing.T) {
		_, err := svc.GetChangesBetweenVersions("event", "e1", 3, 1)
		var validationErr *common.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("equal versions are rejected", func(t *testing.T) {
		_, err := svc.GetChangesBetweenVersions("event", "e1", 1, 1)
		var validationErr *common.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("missing version is rejected", func(t *testing.T) {
		_, err := svc.GetChangesBetweenVersions("event", "e1", 1, 42)
		var validationErr *common.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Reason, "42")
	})
}

func TestGenerateUnifiedDiff(t *testing.T) {
	svc := NewChangelogService(&memVersionRepo{})

	t.Run("identical states produce no output", func(t *testing.T) {
		state := domain.StateDocument{"title": "A"}
		assert.Empty(t, svc.GenerateUnifiedDiff(state, state, 3))
	})

	t.Run("labels and markers", func(t *testing.T) {
		diff := svc.GenerateUnifiedDiff(
			domain.StateDocument{"title": "A"},
			domain.StateDocument{"title": "B"},
			3)

		lines := strings.Split(diff, "\n")
		require.GreaterOrEqual(t, len(lines), 4)
		assert.Equal(t, "--- previous", lines[0])
		assert.Equal(t, "+++ current", lines[1])
		assert.True(t, strings.HasPrefix(lines[2], "@@ -"))
		assert.Contains(t, diff, `-  "title": "A"`)
		assert.Contains(t, diff, `+  "title": "B"`)
	})

	t.Run("unchanged keys appear as context", func(t *testing.T) {
		diff := svc.GenerateUnifiedDiff(
			domain.StateDocument{"location": "X", "title": "A"},
			domain.StateDocument{"location": "X", "title": "B"},
			3)

		assert.Contains(t, diff, `   "location": "X",`)
	})

	t.Run("distant changes split into hunks", func(t *testing.T) {
		from := domain.StateDocument{}
		to := domain.StateDocument{}
		for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
			from[key] = "same"
			to[key] = "same"
		}
		from["a"] = "old"
		to["a"] = "new"
		from["j"] = "old"
		to["j"] = "new"

		diff := svc.GenerateUnifiedDiff(from, to, 1)
		assert.Equal(t, 2, strings.Count(diff, "@@ -"))
	})
}

func TestGetVisualChanges(t *testing.T) {
	repo := &memVersionRepo{}
	ledger := NewVersionService(repo)
	svc := NewChangelogService(repo)

	first := domain.StateDocument{"title": "A", "location": "X"}
	second := domain.StateDocument{"title": "B", "capacity": 5}
	_, err := ledger.CreateVersion("event", "e1", first, domain.StateDocument{}, first, "u")
	require.NoError(t, err)
	_, err = ledger.CreateVersion("event", "e1", second, first, second, "u")
	require.NoError(t, err)

	diff, err := svc.GetVisualChanges("event", "e1", 1, 2)
	require.NoError(t, err)

	assert.Equal(t, ChangeSummary{Added: 1, Modified: 1, Removed: 1}, diff.Summary)
	assert.Contains(t, diff.UnifiedDiff, "--- previous")
	require.NotNil(t, diff.Comparison)
	assert.Equal(t, ChangeRemoved, diff.Comparison.Changes["location"].Type)
}

func TestSummarize(t *testing.T) {
	svc := NewChangelogService(&memVersionRepo{})

	summary := svc.Summarize(map[string]FieldChange{
		"a": {Type: ChangeAdded},
		"b": {Type: ChangeAdded},
		"c": {Type: ChangeModified},
		"d": {Type: ChangeRemoved},
	})

	assert.Equal(t, ChangeSummary{Added: 2, Modified: 1, Removed: 1}, summary)
}
