package orchestrator

import "fmt"

// State is a step of the attempt chain
type State int

const (
	StateGating State = iota
	StateEvaluating
	StateFallingBack
	StateValidating
	StateRepairing
	StateSucceeded
	StateExhausted
)

var stateNames = [...]string{
	StateGating:      "gating",
	StateEvaluating:  "evaluating",
	StateFallingBack: "falling_back",
	StateValidating:  "validating",
	StateRepairing:   "repairing",
	StateSucceeded:   "succeeded",
	StateExhausted:   "exhausted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted
}

var transitions = map[State][]State{
	StateGating:      {StateEvaluating, StateExhausted},
	StateEvaluating:  {StateValidating, StateFallingBack, StateRepairing},
	StateFallingBack: {StateValidating},
	StateValidating:  {StateSucceeded, StateRepairing},
	StateRepairing:   {StateGating, StateExhausted},
}

// CanTransition reports whether the machine may move from s to next
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
