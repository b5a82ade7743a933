package orchestrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateGating, StateEvaluating, true},
		{StateGating, StateExhausted, true},
		{StateGating, StateSucceeded, false},
		{StateEvaluating, StateValidating, true},
		{StateEvaluating, StateFallingBack, true},
		{StateEvaluating, StateRepairing, true},
		{StateFallingBack, StateValidating, true},
		{StateFallingBack, StateRepairing, false},
		{StateValidating, StateSucceeded, true},
		{StateValidating, StateRepairing, true},
		{StateRepairing, StateGating, true},
		{StateRepairing, StateExhausted, true},
		{StateRepairing, StateEvaluating, false},
		{StateSucceeded, StateGating, false},
		{StateExhausted, StateGating, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTerminalStates(t *testing.T) {
	for s := StateGating; s <= StateExhausted; s++ {
		assert.Equal(t, s.Terminal(), len(transitions[s]) == 0, s.String())
	}
	assert.Equal(t, "state(42)", State(42).String())
}

func TestIllegalTransitionPanics(t *testing.T) {
	r := &run{o: New(nil, nil, nil, nil, 3, zap.NewNop()), state: StateFallingBack}
	assert.Panics(t, func() { r.to(StateSucceeded) })
	assert.NotPanics(t, func() { r.to(StateValidating) })
	assert.Equal(t, StateValidating, r.state)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Kind: ErrRuntime, Message: MsgRuntimePrefix + "boom", Cause: cause}

	assert.ErrorIs(t, err, ErrRuntime)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRepairFailed)
	assert.False(t, err.Terminal())
	assert.Equal(t, "runtime_error", KindName(err))
	assert.Equal(t, "unknown", KindName(cause))

	bare := &Error{Kind: ErrBudgetExhausted, Message: MsgBudgetExhausted}
	assert.Equal(t, []error{ErrBudgetExhausted}, bare.Unwrap())
	assert.True(t, bare.Terminal())
}
