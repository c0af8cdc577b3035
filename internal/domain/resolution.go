package domain

import (
	"sort"

	"github.com/eventium/eventium-backend/internal/common"
)

// Strategy names a conflict resolution algorithm.
type Strategy string

const (
	StrategyLastWriteWins Strategy = "last_write_wins"
	StrategyManual        Strategy = "manual"
	StrategyMerge         Strategy = "merge"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyLastWriteWins, StrategyManual, StrategyMerge:
		return Strategy(name), nil
	default:
		return "", common.NewValidationError("strategy", "unknown conflict resolution strategy: "+name)
	}
}

// Resolution is the outcome of applying a strategy. When Conflicts is empty
// the change set was fully resolved into State; otherwise State is the
// untouched current state and Conflicts lists the fields needing manual
// intervention.
type Resolution struct {
	State     StateDocument
	Conflicts []common.FieldConflict
}

// Resolved reports whether the strategy produced a merged state.
func (r Resolution) Resolved() bool {
	return len(r.Conflicts) == 0
}

// Resolve reconciles a current state with an incoming change set.
func Resolve(strategy Strategy, current, incoming StateDocument) Resolution {
	switch strategy {
	case StrategyLastWriteWins:
		return Resolution{State: incoming.Clone()}
	case StrategyManual:
		return resolveManual(current, incoming)
	default:
		return Resolution{State: mergeDocuments(current, incoming)}
	}
}

// resolveManual rejects the change set when any field present in both
// documents carries differing values.
func resolveManual(current, incoming StateDocument) Resolution {
	var conflicts []common.FieldConflict
	for key, currentValue := range current {
		incomingValue, shared := incoming[key]
		if shared && !EqualValue(currentValue, incomingValue) {
			conflicts = append(conflicts, common.FieldConflict{
				Field:         key,
				CurrentValue:  currentValue,
				IncomingValue: incomingValue,
			})
		}
	}
	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Field < conflicts[j].Field })
		return Resolution{State: current.Clone(), Conflicts: conflicts}
	}
	return Resolution{State: incoming.Clone()}
}

// mergeDocuments deep-merges incoming into current. Keys only in one side are
// kept; nested mappings merge recursively; sequences take the union preserving
// current order then appending unseen incoming elements; anything else takes
// the incoming value.
func mergeDocuments(current, incoming StateDocument) StateDocument {
	merged := current.Clone()
	if merged == nil {
		merged = StateDocument{}
	}
	for key, incomingValue := range incoming {
		currentValue, present := merged[key]
		if !present {
			merged[key] = cloneValue(incomingValue)
			continue
		}
		currentMap, currentIsMap := asMap(currentValue)
		incomingMap, incomingIsMap := asMap(incomingValue)
		if currentIsMap && incomingIsMap {
			merged[key] = map[string]any(mergeDocuments(StateDocument(currentMap), StateDocument(incomingMap)))
			continue
		}
		currentList, currentIsList := currentValue.([]any)
		incomingList, incomingIsList := incomingValue.([]any)
		if currentIsList && incomingIsList {
			merged[key] = mergeLists(currentList, incomingList)
			continue
		}
		merged[key] = cloneValue(incomingValue)
	}
	return merged
}

// mergeLists appends incoming elements not already present, keeping current
// order first and incoming order after.
func mergeLists(current, incoming []any) []any {
	result := make([]any, len(current))
	copy(result, current)
	for _, item := range incoming {
		seen := false
		for _, existing := range result {
			if EqualValue(existing, item) {
				seen = true
				break
			}
		}
		if !seen {
			result = append(result, cloneValue(item))
		}
	}
	return result
}
