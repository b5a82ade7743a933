// Package orchestrator runs generated code through the gate, the sandbox,
// the fallback ladder and the validator, repairing the code between
// attempts until it yields records or the retry budget is spent.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/domain/fallback"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/validate"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/sandbox/gate"
)

// DefaultMaxRetries bounds repair calls per execution
const DefaultMaxRetries = 3

// Gate screens code before evaluation
type Gate interface {
	Screen(code string) gate.Verdict
}

// Evaluator runs code in the sandbox and returns its raw output
type Evaluator interface {
	Evaluate(ctx context.Context, code, url string) (any, error)
}

// Ladder produces records when evaluation yields none
type Ladder interface {
	Run(ctx context.Context, url string, after fallback.Rank) ([]map[string]any, error)
}

// Repairer revises failing code given the failure text
type Repairer interface {
	Repair(ctx context.Context, code, errText, url string) (string, error)
}

var errNoRepairer = errors.New("no repairer configured")

// Orchestrator drives the attempt chain. It holds no per-call state and is
// safe for concurrent use.
type Orchestrator struct {
	gate       Gate
	evaluator  Evaluator
	ladder     Ladder
	repairer   Repairer
	maxRetries int
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// New creates an orchestrator. A nil ladder behaves as one whose tiers
// all come back empty; a nil repairer fails every repair.
func New(g Gate, e Evaluator, l Ladder, r Repairer, maxRetries int, logger *zap.Logger) *Orchestrator {
	if g == nil {
		g = gate.New()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gate:       g,
		evaluator:  e,
		ladder:     l,
		repairer:   r,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// WithMetrics attaches attempt and execution counters
func (o *Orchestrator) WithMetrics(m *monitoring.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

// MaxRetries returns the repair budget
func (o *Orchestrator) MaxRetries() int {
	return o.maxRetries
}

// Execute runs code against url. It returns a non-empty validated record
// list, or an *Error describing the last concrete failure.
func (o *Orchestrator) Execute(ctx context.Context, code, url string, observers ...Observer) ([]map[string]any, error) {
	r := &run{
		o:         o,
		code:      code,
		url:       url,
		state:     StateGating,
		observers: observers,
	}

	records, err := r.loop(ctx)

	if o.metrics != nil {
		if err != nil {
			o.metrics.RecordExecution(KindName(err), 0)
		} else {
			o.metrics.RecordExecution("succeeded", len(records))
		}
	}
	if err != nil {
		o.logger.Warn("execution failed",
			zap.String("url", url),
			zap.String("kind", KindName(err)),
			zap.Int("evaluations", r.evaluations),
			zap.Error(err))
	} else {
		o.logger.Info("execution succeeded",
			zap.String("url", url),
			zap.Int("records", len(records)),
			zap.Int("evaluations", r.evaluations))
	}
	return records, err
}

// run is the state of one Execute call
type run struct {
	o         *Orchestrator
	code      string
	url       string
	state     State
	observers []Observer

	attempt      int
	attemptStart time.Time
	evaluations  int

	raw      any
	fidelity string
	records  []map[string]any
	lastErr  *Error
}

func (r *run) loop(ctx context.Context) ([]map[string]any, error) {
	r.attemptStart = time.Now()

	for {
		switch r.state {
		case StateSucceeded:
			return r.records, nil
		case StateExhausted:
			if r.lastErr == nil {
				return nil, &Error{
					Kind:    ErrBudgetExhausted,
					Stage:   StateRepairing,
					Attempt: r.attempt,
					Message: MsgBudgetExhausted,
				}
			}
			return nil, r.lastErr
		}

		if err := ctx.Err(); err != nil {
			return nil, r.abort(err)
		}

		switch r.state {
		case StateGating:
			r.gating(ctx)
		case StateEvaluating:
			if err := r.evaluating(ctx); err != nil {
				return nil, err
			}
		case StateFallingBack:
			if err := r.fallingBack(ctx); err != nil {
				return nil, err
			}
		case StateValidating:
			r.validating(ctx)
		case StateRepairing:
			if err := r.repairing(ctx); err != nil {
				return nil, err
			}
		}
	}
}

func (r *run) gating(ctx context.Context) {
	verdict := r.o.gate.Screen(r.code)
	if verdict.Approved {
		r.to(StateEvaluating)
		return
	}

	if r.o.metrics != nil {
		r.o.metrics.RecordGateRejection(verdict.Capability)
	}
	r.lastErr = &Error{
		Kind:    ErrSafetyRejected,
		Stage:   StateGating,
		Attempt: r.attempt,
		Message: verdict.Reason,
	}
	r.finishAttempt(ctx, OutcomeRejected, 0)
	r.to(StateExhausted)
}

func (r *run) evaluating(ctx context.Context) error {
	if r.o.evaluator == nil {
		return r.abort(errors.New("no evaluator configured"))
	}

	r.evaluations++
	out, err := r.o.evaluator.Evaluate(ctx, r.code, r.url)
	if err != nil {
		if ctx.Err() != nil {
			return r.abort(ctx.Err())
		}
		r.lastErr = &Error{
			Kind:    ErrRuntime,
			Stage:   StateEvaluating,
			Attempt: r.attempt,
			Message: MsgRuntimePrefix + err.Error(),
			Cause:   err,
		}
		r.finishAttempt(ctx, OutcomeRuntimeError, 0)
		r.to(StateRepairing)
		return nil
	}

	if len(validate.Coerce(out)) == 0 {
		r.to(StateFallingBack)
		return nil
	}
	r.raw = out
	r.fidelity = fallback.RankPrimary.String()
	r.to(StateValidating)
	return nil
}

func (r *run) fallingBack(ctx context.Context) error {
	r.raw, r.fidelity = nil, ""
	if r.o.ladder != nil {
		records, err := r.o.ladder.Run(ctx, r.url, fallback.RankPrimary)
		if err != nil && ctx.Err() != nil {
			return r.abort(ctx.Err())
		}
		if len(records) > 0 {
			r.raw = records
			r.fidelity = "fallback"
		}
	}
	r.to(StateValidating)
	return nil
}

func (r *run) validating(ctx context.Context) {
	records := validate.Validate(r.raw)
	if len(records) > 0 {
		r.records = records
		r.finishAttempt(ctx, OutcomeRecords, len(records))
		r.to(StateSucceeded)
		return
	}

	if len(validate.Coerce(r.raw)) == 0 {
		r.lastErr = &Error{
			Kind:    ErrEmptyExtraction,
			Stage:   StateValidating,
			Attempt: r.attempt,
			Message: MsgEmptyExtraction,
			Cause:   fallback.ErrEmptyResult,
		}
		r.finishAttempt(ctx, OutcomeEmpty, 0)
	} else {
		r.lastErr = &Error{
			Kind:    ErrInvalidExtraction,
			Stage:   StateValidating,
			Attempt: r.attempt,
			Message: MsgInvalidExtraction,
		}
		r.finishAttempt(ctx, OutcomeInvalid, 0)
	}
	r.to(StateRepairing)
}

func (r *run) repairing(ctx context.Context) error {
	if r.attempt >= r.o.maxRetries {
		r.to(StateExhausted)
		return nil
	}

	repairer := r.o.repairer
	var (
		code string
		err  = errNoRepairer
	)
	if repairer != nil {
		r.o.logger.Info("repairing code",
			zap.Int("attempt", r.attempt),
			zap.String("error", r.lastErr.Message))
		code, err = repairer.Repair(ctx, r.code, r.lastErr.Message, r.url)
	}
	if err != nil {
		if ctx.Err() != nil {
			return r.abort(ctx.Err())
		}
		r.lastErr = &Error{
			Kind:    ErrRepairFailed,
			Stage:   StateRepairing,
			Attempt: r.attempt,
			Message: MsgRepairPrefix + err.Error(),
			Cause:   err,
		}
		r.to(StateExhausted)
		return nil
	}

	r.code = code
	r.raw, r.fidelity = nil, ""
	r.attempt++
	r.attemptStart = time.Now()
	r.to(StateGating)
	return nil
}

// to moves the machine, panicking on a transition the table does not allow
func (r *run) to(next State) {
	if !r.state.CanTransition(next) {
		panic(fmt.Sprintf("orchestrator: illegal transition %s -> %s", r.state, next))
	}
	r.o.logger.Debug("state transition",
		zap.Int("attempt", r.attempt),
		zap.Stringer("from", r.state),
		zap.Stringer("to", next))
	r.state = next
}

func (r *run) abort(err error) *Error {
	return &Error{
		Kind:    ErrRuntime,
		Stage:   r.state,
		Attempt: r.attempt,
		Message: "execution aborted: " + err.Error(),
		Cause:   err,
	}
}

func (r *run) finishAttempt(ctx context.Context, outcome Outcome, records int) {
	a := Attempt{
		Index:    r.attempt,
		Code:     r.code,
		Outcome:  outcome,
		Records:  records,
		Fidelity: r.fidelity,
		Duration: time.Since(r.attemptStart),
	}
	if outcome != OutcomeRecords && r.lastErr != nil {
		a.Err = r.lastErr
	}

	r.o.logger.Info("attempt finished",
		zap.Int("attempt", a.Index),
		zap.String("outcome", string(a.Outcome)),
		zap.Int("records", a.Records),
		zap.Duration("duration", a.Duration))
	if r.o.metrics != nil {
		r.o.metrics.RecordAttempt(string(outcome), a.Duration)
	}
	for _, obs := range r.observers {
		if obs != nil {
			obs.OnAttempt(ctx, a)
		}
	}
}
