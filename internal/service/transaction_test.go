package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventium/eventium-backend/internal/domain"
)

func TestScopeCompensateOrder(t *testing.T) {
	scope := &Scope{}
	var order []string
	scope.OnRollback(func() error {
		order = append(order, "first")
		return nil
	})
	scope.OnRollback(func() error {
		order = append(order, "second")
		return nil
	})
	scope.OnRollback(func() error {
		order = append(order, "third")
		return nil
	})

	scope.compensate(errors.New("boom"))

	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestScopeCompensateFailureDoesNotStop(t *testing.T) {
	scope := &Scope{}
	var order []string
	scope.OnRollback(func() error {
		order = append(order, "first")
		return nil
	})
	scope.OnRollback(func() error {
		return errors.New("compensation broke")
	})

	// The failing compensation is logged, not raised, and the rest still run.
	scope.compensate(errors.New("boom"))

	assert.Equal(t, []string{"first"}, order)
}

func TestScopeRecord(t *testing.T) {
	scope := &Scope{}
	scope.Record("create_event", domain.EntityTypeEvent, "e1", domain.StateDocument{"title": "A"})
	scope.Record("update_event", domain.EntityTypeEvent, "e1", domain.StateDocument{"title": "B"})

	ops := scope.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "create_event", ops[0].Type)
	assert.Equal(t, "update_event", ops[1].Type)
	assert.False(t, ops[0].At.IsZero())
	assert.False(t, ops[1].At.Before(ops[0].At))
}
