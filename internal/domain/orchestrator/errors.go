package orchestrator

import (
	"errors"
)

// Error kinds. Match with errors.Is on the error returned by Execute.
var (
	ErrSafetyRejected    = errors.New("safety rejected")
	ErrRuntime           = errors.New("runtime error")
	ErrEmptyExtraction   = errors.New("empty extraction")
	ErrInvalidExtraction = errors.New("invalid extraction")
	ErrRepairFailed      = errors.New("repair failed")
	ErrBudgetExhausted   = errors.New("budget exhausted")
)

// Diagnostic texts handed to the repairer and returned to callers
const (
	MsgEmptyExtraction   = "No results extracted from the scraping code"
	MsgInvalidExtraction = "All extracted results were empty or invalid"
	MsgRuntimePrefix     = "Code execution failed: "
	MsgRepairPrefix      = "Code execution failed and could not be fixed: "
	MsgBudgetExhausted   = "Maximum retry attempts exceeded"
)

var kindNames = map[error]string{
	ErrSafetyRejected:    "safety_rejected",
	ErrRuntime:           "runtime_error",
	ErrEmptyExtraction:   "empty_extraction",
	ErrInvalidExtraction: "invalid_extraction",
	ErrRepairFailed:      "repair_failed",
	ErrBudgetExhausted:   "budget_exhausted",
}

// Error describes why an execution failed
type Error struct {
	Kind    error
	Stage   State
	Attempt int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Terminal reports whether the kind ends the attempt chain without repair
func (e *Error) Terminal() bool {
	switch e.Kind {
	case ErrSafetyRejected, ErrRepairFailed, ErrBudgetExhausted:
		return true
	}
	return false
}

// KindName returns a stable label for the kind of err, "unknown" for errors
// that did not come from Execute
func KindName(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "unknown"
	}
	if name, ok := kindNames[e.Kind]; ok {
		return name
	}
	return "unknown"
}
