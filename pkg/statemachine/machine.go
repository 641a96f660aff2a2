// Package statemachine implements the cyclic transition table driven by the container.
package statemachine

import (
	"context"
	"fmt"

	"github.com/aretw0/ntrode/pkg/domain"
)

// Action is bound to a state and runs when the machine cycles out of it.
type Action func(ctx context.Context) error

// Transition is the entry of a state in the table.
type Transition struct {
	Action Action // Optional
	Next   domain.State
}

// Table maps each state to its transition.
type Table map[domain.State]Transition

// Actions are the container operations bound into the default table.
type Actions struct {
	Initialise Action
	Invoke     Action
}

// DefaultTable builds OFF→INIT→INPUT→PROCESS→OUTPUT→INPUT.
func DefaultTable(a Actions) Table {
	return Table{
		domain.StateOff:     {Action: nil, Next: domain.StateInit},
		domain.StateInit:    {Action: a.Initialise, Next: domain.StateInput},
		domain.StateInput:   {Action: a.Invoke, Next: domain.StateProcess},
		domain.StateProcess: {Action: a.Invoke, Next: domain.StateOutput},
		domain.StateOutput:  {Action: a.Invoke, Next: domain.StateInput},
	}
}

// Validate checks that the table is total over the closed state set and that
// every next state has an entry of its own.
func (t Table) Validate() error {
	for _, s := range domain.States {
		if _, ok := t[s]; !ok {
			return fmt.Errorf("%w: no transition for %s", domain.ErrUnknownState, s)
		}
	}
	for s, tr := range t {
		if _, ok := t[tr.Next]; !ok {
			return fmt.Errorf("%w: %s leads to %s which has no transition", domain.ErrUnknownState, s, tr.Next)
		}
	}
	return nil
}

// Machine holds the current state and the table.
type Machine struct {
	current domain.State
	table   Table
}

// New creates a machine in the OFF state.
func New(table Table) *Machine {
	return &Machine{
		current: domain.StateOff,
		table:   table,
	}
}

// Current returns the current state.
func (m *Machine) Current() domain.State {
	return m.current
}

// Force sets the current state without running any action.
func (m *Machine) Force(s domain.State) {
	m.current = s
}

// Table returns the transition table.
func (m *Machine) Table() Table {
	return m.table
}

// Lookup returns the transition of the current state.
func (m *Machine) Lookup() (Transition, error) {
	tr, ok := m.table[m.current]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %q", domain.ErrUnknownState, m.current)
	}
	return tr, nil
}

// Cycle runs the action bound to the current state and advances to its next state.
// An unknown state returns domain.ErrUnknownState and leaves the state unchanged.
// A failing action is returned as is and the state is not advanced.
func (m *Machine) Cycle(ctx context.Context) error {
	tr, err := m.Lookup()
	if err != nil {
		return err
	}
	if tr.Action != nil {
		if err := tr.Action(ctx); err != nil {
			return err
		}
	}
	m.current = tr.Next
	return nil
}
