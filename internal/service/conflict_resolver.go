package service

import (
	"github.com/eventium/eventium-backend/internal/common"
	"github.com/eventium/eventium-backend/internal/domain"
	"github.com/eventium/eventium-backend/pkg/logger"
)

// StateLoader fetches the current state document of an entity. The resolver
// does not know how entities are stored; the owner of the entity type injects
// the lookup.
type StateLoader func(entityType, entityID string) (domain.StateDocument, error)

// ConflictResolver reconciles a stored state with an incoming change set
// using a named strategy and records successful outcomes in the ledger.
type ConflictResolver struct {
	ledger    *VersionService
	loadState StateLoader
}

// NewConflictResolver creates a new ConflictResolver
func NewConflictResolver(ledger *VersionService, loadState StateLoader) *ConflictResolver {
	return &ConflictResolver{ledger: ledger, loadState: loadState}
}

// ResolveConflicts applies the named strategy to the entity's current state
// and the incoming changes.
//
// On success the resolved state is returned with a nil conflict list and a
// new Version is appended (changes = incoming, previous = current state,
// current = resolved state). When the manual strategy finds differing shared
// fields, the unchanged current state is returned alongside the conflicts and
// the ledger is left untouched. Unknown strategy names fail with a
// ValidationError; persistence failures are surfaced to the caller.
func (r *ConflictResolver) ResolveConflicts(
	entityType, entityID string,
	incomingChanges domain.StateDocument,
	strategyName string,
	actorID string,
) (domain.StateDocument, []common.FieldConflict, error) {
	strategy, err := domain.ParseStrategy(strategyName)
	if err != nil {
		return nil, nil, err
	}

	currentState, err := r.loadState(entityType, entityID)
	if err != nil {
		return nil, nil, err
	}

	resolution := domain.Resolve(strategy, currentState, incomingChanges)
	if !resolution.Resolved() {
		logger.GetLogger().Info().
			Str("entity_type", entityType).
			Str("entity_id", entityID).
			Int("conflicts", len(resolution.Conflicts)).
			Msg("manual conflict resolution required")
		return currentState, resolution.Conflicts, nil
	}

	if _, err := r.ledger.CreateVersion(
		entityType, entityID,
		incomingChanges, currentState, resolution.State,
		actorID,
	); err != nil {
		return nil, nil, err
	}

	return resolution.State, nil, nil
}
