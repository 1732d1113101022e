package strategy

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed task: missing steps, an unknown
// dependency id, or an unusable accumulation setup. It is always raised before
// any step runs.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StrategyError reports that a strategy could not be resolved, initialized, or
// given updated dependencies. It carries the strategy's name and cause.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %q: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// LeafExecutionError reports a failed tool or LLM call. Strategies convert it
// into a tagged failure result at the strategy boundary; it only escapes as a
// Go error when stop-on-failure semantics re-raise it.
type LeafExecutionError struct {
	Kind string // "tool", "prompt", or "fn"
	Name string
	Err  error
}

func (e *LeafExecutionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *LeafExecutionError) Unwrap() error { return e.Err }

// DepthExceededError reports recursive decomposition beyond the context's
// depth bound. It is fatal for the branch in which it occurs and never
// retried.
type DepthExceededError struct {
	Depth    int
	MaxDepth int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("recursion depth %d exceeds maximum %d", e.Depth, e.MaxDepth)
}

// StepFailedError wraps a failing step when stop-on-failure is in effect. The
// index is zero-based.
type StepFailedError struct {
	Index int
	Msg   string
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("step %d failed: %s", e.Index, e.Msg)
}

// TimeoutError reports that an execution exceeded its budget. The agent maps
// context deadline expiry onto it.
type TimeoutError struct {
	ExecutionID string
	Budget      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("execution %s timed out after %s", e.ExecutionID, e.Budget)
}
