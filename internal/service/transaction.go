package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/eventium/eventium-backend/internal/domain"
	"github.com/eventium/eventium-backend/pkg/logger"
)

// Operation is one step recorded inside a transaction scope.
type Operation struct {
	Type       string
	EntityType string
	EntityID   string
	Data       domain.StateDocument
	At         time.Time
}

// Scope collects the operations and compensating actions of one logical
// mutation. All writes made through Tx() plus every recorded operation become
// visible together on commit, or not at all.
type Scope struct {
	tx            *gorm.DB
	operations    []Operation
	compensations []func() error
}

// Tx returns the scoped database handle.
func (s *Scope) Tx() *gorm.DB {
	return s.tx
}

// Record appends an operation to the scope's log.
func (s *Scope) Record(opType, entityType, entityID string, data domain.StateDocument) {
	s.operations = append(s.operations, Operation{
		Type:       opType,
		EntityType: entityType,
		EntityID:   entityID,
		Data:       data,
		At:         time.Now().UTC(),
	})
}

// OnRollback registers a compensating action. Compensations run in reverse
// registration order when the scope fails.
func (s *Scope) OnRollback(fn func() error) {
	s.compensations = append(s.compensations, fn)
}

// Operations returns the operations recorded so far.
func (s *Scope) Operations() []Operation {
	return s.operations
}

// compensate executes the registered compensations in reverse order.
// Failures are logged, never raised: the original error must not be masked.
func (s *Scope) compensate(cause error) {
	for i := len(s.compensations) - 1; i >= 0; i-- {
		if err := s.compensations[i](); err != nil {
			logger.GetLogger().Error().
				Err(err).
				AnErr("cause", cause).
				Int("compensation", i).
				Msg("transaction compensation failed")
		}
	}
}

// TxManager opens transaction scopes. The gorm-backed implementation is the
// sole writer boundary for the entity store and the version ledger.
type TxManager interface {
	Run(fn func(scope *Scope) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager creates a TxManager over a gorm database handle
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) Run(fn func(scope *Scope) error) error {
	return RunInTransaction(m.db, fn)
}

// RunInTransaction opens a transaction scope around fn. When fn returns an
// error the compensations run in reverse order and the storage transaction is
// discarded; the error is re-raised unchanged.
func RunInTransaction(db *gorm.DB, fn func(scope *Scope) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		scope := &Scope{tx: tx}
		if err := fn(scope); err != nil {
			scope.compensate(err)
			logger.GetLogger().Debug().
				Err(err).
				Int("operations", len(scope.operations)).
				Msg("transaction rolled back")
			return err
		}
		logger.GetLogger().Debug().
			Int("operations", len(scope.operations)).
			Msg("transaction committed")
		return nil
	})
}
