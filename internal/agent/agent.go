// Package agent is the top-level orchestrator: it analyzes a task, selects
// and runs a strategy against a fresh execution context, and records the
// outcome for future recommendations.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weavelabs/taskweave/internal/analyzer"
	"github.com/weavelabs/taskweave/internal/execution"
	"github.com/weavelabs/taskweave/internal/progress"
	"github.com/weavelabs/taskweave/internal/strategy"
	"github.com/weavelabs/taskweave/internal/task"
)

// DefaultTimeout wraps each top-level execution when no timeout is set.
const DefaultTimeout = 5 * time.Minute

// Execution describes one finished or in-flight run.
type Execution struct {
	ID        string
	Task      *task.Task
	Analysis  *analyzer.Analysis
	Result    *execution.Result
	Err       error
	Cancelled bool
	Started   time.Time
	Duration  time.Duration
	History   []execution.HistoryEntry
}

// Agent coordinates analyzer, strategy manager, and execution contexts, and
// tracks active executions by id so they can be cancelled.
type Agent struct {
	manager  *strategy.Manager
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
	timeout  time.Duration
	maxDepth int

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

type Option func(*Agent)

// WithTimeout sets the per-execution budget.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxDepth bounds recursive decomposition for every execution the agent
// starts.
func WithMaxDepth(depth int) Option {
	return func(a *Agent) {
		if depth > 0 {
			a.maxDepth = depth
		}
	}
}

// WithLogger replaces the agent's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

func New(manager *strategy.Manager, an *analyzer.Analyzer, opts ...Option) *Agent {
	a := &Agent{
		manager:  manager,
		analyzer: an,
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
		maxDepth: execution.DefaultMaxDepth,
		active:   map[string]context.CancelFunc{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute runs one task end to end: analyze, dispatch through the selector,
// record the outcome. The returned Execution always carries the analysis and
// conversation history, even when the run failed.
func (a *Agent) Execute(ctx context.Context, t *task.Task) (*Execution, error) {
	if t == nil {
		return nil, errors.New("nil task")
	}

	exec := &Execution{
		ID:      uuid.NewString(),
		Task:    t,
		Started: time.Now(),
	}
	exec.Analysis = a.analyzer.AnalyzeTask(t)

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	a.track(exec.ID, cancel)
	defer a.untrack(exec.ID)
	defer cancel()

	deps := a.manager.Dependencies()
	var em progress.Emitter = progress.NopEmitter{}
	if deps.Progress != nil {
		em = deps.Progress
	}
	taskEm := em.CreateTaskEmitter(exec.ID)

	a.logger.Info("execution started",
		"executionId", exec.ID,
		"task", t.Label(),
		"strategy", exec.Analysis.Recommendation.Strategy,
		"confidence", exec.Analysis.Recommendation.Confidence)
	taskEm.Started(map[string]any{
		"task":     t.Label(),
		"strategy": exec.Analysis.Recommendation.Strategy,
	})

	ec := execution.NewContext(t.Label(),
		execution.WithSessionID(exec.ID),
		execution.WithMaxDepth(a.maxDepth),
	)

	res, err := a.manager.Selector().Dispatch(runCtx, t, ec)
	exec.Duration = time.Since(exec.Started)
	exec.History = ec.History()

	if err != nil {
		err = a.mapContextError(runCtx, exec, err)
		exec.Err = err
		a.recordOutcome(exec, false)
		a.logger.Error("execution failed",
			"executionId", exec.ID, "duration", exec.Duration, "error", err)
		taskEm.Failed(map[string]any{"error": err.Error()})
		return exec, err
	}

	exec.Result = res
	a.recordOutcome(exec, res.Success)
	a.logger.Info("execution complete",
		"executionId", exec.ID, "duration", exec.Duration, "success", res.Success)
	taskEm.Completed(map[string]any{"success": res.Success})
	return exec, nil
}

// Cancel stops the execution with the given id. Cancellation is best-effort:
// leaf calls already issued may still complete.
func (a *Agent) Cancel(executionID string) bool {
	a.mu.Lock()
	cancel, ok := a.active[executionID]
	a.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// ActiveExecutions returns the ids of executions still in flight.
func (a *Agent) ActiveExecutions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.active))
	for id := range a.active {
		out = append(out, id)
	}
	return out
}

// Analyzer exposes the agent's analyzer for diagnostics.
func (a *Agent) Analyzer() *analyzer.Analyzer {
	return a.analyzer
}

func (a *Agent) track(id string, cancel context.CancelFunc) {
	a.mu.Lock()
	a.active[id] = cancel
	a.mu.Unlock()
}

func (a *Agent) untrack(id string) {
	a.mu.Lock()
	delete(a.active, id)
	a.mu.Unlock()
}

// mapContextError rewrites context expiry into the runtime's own error types
// so callers see the budget, not a bare deadline message. The run context is
// consulted directly because a leaf call hitting the deadline surfaces as a
// step failure, not as a wrapped deadline error.
func (a *Agent) mapContextError(ctx context.Context, exec *Execution, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &strategy.TimeoutError{ExecutionID: exec.ID, Budget: a.timeout}
	case errors.Is(ctx.Err(), context.Canceled):
		exec.Cancelled = true
		return fmt.Errorf("execution %s cancelled: %w", exec.ID, context.Canceled)
	default:
		return err
	}
}

func (a *Agent) recordOutcome(exec *Execution, success bool) {
	a.analyzer.RecordPerformance(exec.Analysis.Recommendation.Strategy, exec.Analysis, analyzer.Outcome{
		Success:  success,
		Duration: exec.Duration,
	})
}
