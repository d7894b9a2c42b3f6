package pipeline

import "fmt"

// State is the position of a run in the enumerate-preview-confirm-broadcast flow.
type State string

const (
	StateIdle                 State = "idle"
	StateEnumerating          State = "enumerating"
	StatePreviewing           State = "previewing"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateCancelled            State = "cancelled"
	StateBroadcasting         State = "broadcasting"
	StateSucceeded            State = "succeeded"
	StateFailed               State = "failed"
)

// States lists every state in flow order.
var States = []State{
	StateIdle,
	StateEnumerating,
	StatePreviewing,
	StateAwaitingConfirmation,
	StateCancelled,
	StateBroadcasting,
	StateSucceeded,
	StateFailed,
}

var transitions = map[State][]State{
	StateIdle:                 {StateEnumerating},
	StateEnumerating:          {StatePreviewing, StateSucceeded, StateFailed},
	StatePreviewing:           {StateAwaitingConfirmation, StateFailed},
	StateAwaitingConfirmation: {StateCancelled, StateBroadcasting},
	StateBroadcasting:         {StateSucceeded, StateFailed},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// machine tracks the current state and refuses any transition not in the table,
// which also rules out re-entering a state.
type machine struct {
	current State
	history []State
	onEnter func(State)
}

func newMachine(onEnter func(State)) *machine {
	m := &machine{current: StateIdle, history: []State{StateIdle}, onEnter: onEnter}
	if onEnter != nil {
		onEnter(StateIdle)
	}
	return m
}

func (m *machine) to(next State) error {
	for _, allowed := range transitions[m.current] {
		if allowed == next {
			m.current = next
			m.history = append(m.history, next)
			if m.onEnter != nil {
				m.onEnter(next)
			}
			return nil
		}
	}
	return fmt.Errorf("invalid state transition %s -> %s", m.current, next)
}
