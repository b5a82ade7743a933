package orchestrator

import (
	"context"
	"time"
)

// Outcome classifies how one attempt ended
type Outcome string

const (
	OutcomeRecords      Outcome = "records"
	OutcomeEmpty        Outcome = "empty"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeRuntimeError Outcome = "runtime_error"
	OutcomeRejected     Outcome = "rejected"
)

// Attempt is the record of one pass through the chain
type Attempt struct {
	Index    int
	Code     string
	Outcome  Outcome
	Err      error
	Records  int
	Fidelity string
	Duration time.Duration
}

// Observer is told about every finished attempt
type Observer interface {
	OnAttempt(ctx context.Context, a Attempt)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, a Attempt)

func (f ObserverFunc) OnAttempt(ctx context.Context, a Attempt) { f(ctx, a) }
