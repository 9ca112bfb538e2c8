package appblock

import "fmt"

// State is the lifecycle position of an app block instance.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateReady || s == StateError
}

var transitions = map[State][]State{
	StateUninitialized: {StateLoading, StateReady, StateError},
	StateLoading:       {StateReady, StateError},
}

func canTransition(from, to State) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
