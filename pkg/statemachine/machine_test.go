package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable_Valid(t *testing.T) {
	table := statemachine.DefaultTable(statemachine.Actions{})
	require.NoError(t, table.Validate())
	assert.Nil(t, table[domain.StateOff].Action, "OFF has no action")
}

func TestMachine_CycleSequence(t *testing.T) {
	var calls []domain.State
	var m *statemachine.Machine
	record := func(ctx context.Context) error {
		calls = append(calls, m.Current())
		return nil
	}
	m = statemachine.New(statemachine.DefaultTable(statemachine.Actions{
		Initialise: record,
		Invoke:     record,
	}))
	ctx := context.Background()

	assert.Equal(t, domain.StateOff, m.Current())

	var visited []domain.State
	for i := 0; i < 8; i++ {
		require.NoError(t, m.Cycle(ctx))
		visited = append(visited, m.Current())
	}

	assert.Equal(t, []domain.State{
		domain.StateInit, domain.StateInput, domain.StateProcess, domain.StateOutput,
		domain.StateInput, domain.StateProcess, domain.StateOutput, domain.StateInput,
	}, visited)
	// OFF runs no action, so seven actions fired for eight cycles.
	assert.Equal(t, []domain.State{
		domain.StateInit, domain.StateInput, domain.StateProcess, domain.StateOutput,
		domain.StateInput, domain.StateProcess, domain.StateOutput,
	}, calls)
}

func TestMachine_UnknownState(t *testing.T) {
	bogus := domain.State("BOGUS")
	m := statemachine.New(statemachine.Table{
		domain.StateOff: {Next: bogus},
	})
	ctx := context.Background()

	require.NoError(t, m.Cycle(ctx))
	assert.Equal(t, bogus, m.Current())

	err := m.Cycle(ctx)
	assert.ErrorIs(t, err, domain.ErrUnknownState)
	assert.Equal(t, bogus, m.Current(), "state must not change on unknown state")
}

func TestMachine_ActionFailureKeepsState(t *testing.T) {
	boom := errors.New("boom")
	m := statemachine.New(statemachine.DefaultTable(statemachine.Actions{
		Initialise: func(ctx context.Context) error { return boom },
	}))
	ctx := context.Background()

	require.NoError(t, m.Cycle(ctx))
	err := m.Cycle(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.StateInit, m.Current())
}

func TestTable_Validate(t *testing.T) {
	t.Run("missing state", func(t *testing.T) {
		table := statemachine.DefaultTable(statemachine.Actions{})
		delete(table, domain.StateProcess)
		assert.ErrorIs(t, table.Validate(), domain.ErrUnknownState)
	})

	t.Run("dangling next", func(t *testing.T) {
		table := statemachine.DefaultTable(statemachine.Actions{})
		table[domain.StateOutput] = statemachine.Transition{Next: "NOWHERE"}
		assert.ErrorIs(t, table.Validate(), domain.ErrUnknownState)
	})
}

func TestMachine_Force(t *testing.T) {
	m := statemachine.New(statemachine.DefaultTable(statemachine.Actions{}))
	m.Force(domain.StateOutput)
	assert.Equal(t, domain.StateOutput, m.Current())
}
