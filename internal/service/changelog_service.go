package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/common"
	"github.com/eventium/eventium-backend/internal/domain"
	"github.com/eventium/eventium-backend/internal/repository"
)

// Change types produced by ComputeFieldDiff
const (
	ChangeAdded    = "added"
	ChangeModified = "modified"
	ChangeRemoved  = "removed"
)

// FieldChange describes how one field differs between two states.
type FieldChange struct {
	Type     string `json:"type"`
	Value    any    `json:"value,omitempty"`
	OldValue any    `json:"old_value,omitempty"`
	NewValue any    `json:"new_value,omitempty"`
}

// ChangeSummary counts changes by type.
type ChangeSummary struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// VersionComparison is the detailed result of comparing two stored versions.
type VersionComparison struct {
	FromVersion *domain.Version        `json:"from_version"`
	ToVersion   *domain.Version        `json:"to_version"`
	Changes     map[string]FieldChange `json:"changes"`
}

// VersionDiff bundles a comparison with its rendered forms.
type VersionDiff struct {
	Comparison  *VersionComparison `json:"changes"`
	UnifiedDiff string             `json:"unified_diff"`
	Summary     ChangeSummary      `json:"summary"`
}

// ChangelogService computes and renders differences between stored states,
// independent of how they were produced.
type ChangelogService struct {
	versions repository.VersionRepository
}

// NewChangelogService creates a new ChangelogService
func NewChangelogService(versions repository.VersionRepository) *ChangelogService {
	return &ChangelogService{versions: versions}
}

// ComputeFieldDiff returns the field-level differences from one state to
// another. Equality is deep value equality; output key order is unspecified.
func (s *ChangelogService) ComputeFieldDiff(fromState, toState domain.StateDocument) map[string]FieldChange {
	changes := make(map[string]FieldChange)

	for key, toValue := range toState {
		fromValue, present := fromState[key]
		if !present {
			changes[key] = FieldChange{Type: ChangeAdded, Value: toValue}
		} else if !domain.EqualValue(fromValue, toValue) {
			changes[key] = FieldChange{Type: ChangeModified, OldValue: fromValue, NewValue: toValue}
		}
	}
	for key, fromValue := range fromState {
		if _, present := toState[key]; !present {
			changes[key] = FieldChange{Type: ChangeRemoved, Value: fromValue}
		}
	}

	return changes
}

// GetChangesBetweenVersions compares two stored versions of an entity.
// fromVersion must be strictly less than toVersion and both must exist.
func (s *ChangelogService) GetChangesBetweenVersions(
	entityType, entityID string,
	fromVersion, toVersion int,
) (*VersionComparison, error) {
	if fromVersion >= toVersion {
		return nil, common.NewValidationError("from_version", "must be less than to_version")
	}

	from, err := s.findVersion(entityType, entityID, fromVersion)
	if err != nil {
		return nil, err
	}
	to, err := s.findVersion(entityType, entityID, toVersion)
	if err != nil {
		return nil, err
	}

	return &VersionComparison{
		FromVersion: from,
		ToVersion:   to,
		Changes:     s.ComputeFieldDiff(from.CurrentState, to.CurrentState),
	}, nil
}

// GetVisualChanges compares two versions and renders the result as a unified
// diff plus a change-count summary.
func (s *ChangelogService) GetVisualChanges(
	entityType, entityID string,
	fromVersion, toVersion int,
) (*VersionDiff, error) {
	comparison, err := s.GetChangesBetweenVersions(entityType, entityID, fromVersion, toVersion)
	if err != nil {
		return nil, err
	}
	return &VersionDiff{
		Comparison:  comparison,
		UnifiedDiff: s.GenerateUnifiedDiff(comparison.FromVersion.CurrentState, comparison.ToVersion.CurrentState, 3),
		Summary:     s.Summarize(comparison.Changes),
	}, nil
}

// GenerateUnifiedDiff renders both states as canonical indented text with
// stable key ordering and produces a unified diff with the given number of
// context lines. Identical states produce an empty string.
func (s *ChangelogService) GenerateUnifiedDiff(fromState, toState domain.StateDocument, contextLines int) string {
	fromLines := canonicalLines(fromState)
	toLines := canonicalLines(toState)
	ops := diffLines(fromLines, toLines)
	return formatUnifiedDiff(ops, "previous", "current", contextLines)
}

// Summarize counts a field diff by change type.
func (s *ChangelogService) Summarize(changes map[string]FieldChange) ChangeSummary {
	var summary ChangeSummary
	for _, change := range changes {
		switch change.Type {
		case ChangeAdded:
			summary.Added++
		case ChangeModified:
			summary.Modified++
		case ChangeRemoved:
			summary.Removed++
		}
	}
	return summary
}

func (s *ChangelogService) findVersion(entityType, entityID string, number int) (*domain.Version, error) {
	version, err := s.versions.FindByEntityAndNumber(entityType, entityID, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewValidationError("version", fmt.Sprintf("version %d not found", number))
		}
		return nil, common.WrapStorage("load version", err)
	}
	return version, nil
}

// canonicalLines marshals a state document as two-space indented JSON.
// encoding/json sorts map keys, which keeps the rendering stable.
func canonicalLines(state domain.StateDocument) []string {
	if state == nil {
		state = domain.StateDocument{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil
	}
	return strings.Split(string(data), "\n")
}

type diffOp struct {
	prefix string
	line   string
}

// diffLines produces a minimal line-level edit script via the longest common
// subsequence of the two inputs.
func diffLines(base, target []string) []diffOp {
	m := len(base)
	n := len(target)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if base[i] == target[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	ops := make([]diffOp, 0, m+n)
	i, j := 0, 0
	for i < m && j < n {
		if base[i] == target[j] {
			ops = append(ops, diffOp{prefix: " ", line: base[i]})
			i++
			j++
			continue
		}
		if dp[i+1][j] >= dp[i][j+1] {
			ops = append(ops, diffOp{prefix: "-", line: base[i]})
			i++
		} else {
			ops = append(ops, diffOp{prefix: "+", line: target[j]})
			j++
		}
	}
	for i < m {
		ops = append(ops, diffOp{prefix: "-", line: base[i]})
		i++
	}
	for j < n {
		ops = append(ops, diffOp{prefix: "+", line: target[j]})
		j++
	}

	return ops
}

// formatUnifiedDiff groups an edit script into hunks with the requested
// number of context lines. Headers carry the fixed previous/current labels.
func formatUnifiedDiff(ops []diffOp, fromLabel, toLabel string, context int) string {
	var changed []int
	for i, op := range ops {
		if op.prefix != " " {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return ""
	}

	// Old/new line counts consumed before each op index.
	oldBefore := make([]int, len(ops)+1)
	newBefore := make([]int, len(ops)+1)
	for i, op := range ops {
		oldBefore[i+1] = oldBefore[i]
		newBefore[i+1] = newBefore[i]
		if op.prefix != "+" {
			oldBefore[i+1]++
		}
		if op.prefix != "-" {
			newBefore[i+1]++
		}
	}

	lines := []string{"--- " + fromLabel, "+++ " + toLabel}
	for i := 0; i < len(changed); {
		j := i
		for j+1 < len(changed) && changed[j+1]-changed[j] <= 2*context+1 {
			j++
		}
		start := changed[i] - context
		if start < 0 {
			start = 0
		}
		end := changed[j] + context + 1
		if end > len(ops) {
			end = len(ops)
		}

		oldCount := oldBefore[end] - oldBefore[start]
		newCount := newBefore[end] - newBefore[start]
		oldStart := oldBefore[start] + 1
		if oldCount == 0 {
			oldStart = oldBefore[start]
		}
		newStart := newBefore[start] + 1
		if newCount == 0 {
			newStart = newBefore[start]
		}

		lines = append(lines, fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount))
		for _, op := range ops[start:end] {
			lines = append(lines, op.prefix+op.line)
		}
		i = j + 1
	}

	return strings.Join(lines, "\n")
}
