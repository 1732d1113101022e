package strategy

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/weavelabs/taskweave/internal/execution"
	"github.com/weavelabs/taskweave/internal/progress"
	"github.com/weavelabs/taskweave/internal/task"
)

// Parallel executes independent subtasks concurrently under a bounded worker
// limit and merges their contexts back into the parent. A failing subtask
// never cancels siblings already in flight; failures are collected and
// resolved after every branch completes. Accumulation is indexed by each
// subtask's position in the list, so results are deterministic regardless of
// completion order.
type Parallel struct {
	deps Dependencies
}

func NewParallel() *Parallel {
	return &Parallel{}
}

func (p *Parallel) Name() string { return "parallel" }

func (p *Parallel) Initialize(deps Dependencies) error {
	p.deps = deps
	return nil
}

func (p *Parallel) UpdateDependencies(deps Dependencies) error {
	p.deps = deps
	return nil
}

func (p *Parallel) CanHandle(t *task.Task) bool {
	return t.Parallel || task.HasUnorderedSubtasks(t)
}

func (p *Parallel) EstimateComplexity(t *task.Task) float64 {
	return float64(len(task.ExtractSteps(t))) * 1.5
}

func (p *Parallel) maxConcurrency(t *task.Task) int {
	if t.MaxConcurrency > 0 {
		return t.MaxConcurrency
	}
	if p.deps.MaxConcurrency > 0 {
		return p.deps.MaxConcurrency
	}
	return DefaultMaxConcurrency
}

func (p *Parallel) Execute(ctx context.Context, t *task.Task, ec *execution.Context) (*execution.Result, error) {
	if p.deps.Selector == nil {
		return nil, &StrategyError{Strategy: p.Name(), Err: fmt.Errorf("no selector configured")}
	}
	if err := task.ValidateDependencies(t); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	subtasks := task.ExtractSteps(t)
	if len(subtasks) == 0 {
		return nil, validationErrorf("no subtasks found in task %q", t.Label())
	}

	acc, err := newAccumulator(t)
	if err != nil {
		return nil, err
	}

	em := p.deps.emitter().CreateTaskEmitter(executionID(ec, t))
	em.Custom(progress.EventParallelStart, map[string]any{
		"task": t.Label(), "subtasks": len(subtasks), "maxConcurrency": p.maxConcurrency(t),
	})

	// One child context per subtask, created up front so merge order matches
	// list order no matter which branch finishes first.
	children := make([]*execution.Context, len(subtasks))
	for i, st := range subtasks {
		children[i] = ec.CreateChild(task.StepID(st, i))
	}

	results := make([]*execution.Result, len(subtasks))
	var g errgroup.Group
	g.SetLimit(p.maxConcurrency(t))

	for i, st := range subtasks {
		g.Go(func() error {
			res, err := p.deps.Selector.Dispatch(ctx, st, children[i])
			if err != nil {
				// Fatal branch conditions (depth, validation) fail this branch
				// without aborting siblings.
				results[i] = execution.Fail(err.Error())
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// Goroutines only ever return nil; Wait is used for joining.
	_ = g.Wait()

	completed, failed := 0, 0
	firstFailed := -1
	for i, res := range results {
		stepID := task.StepID(subtasks[i], i)
		if res == nil {
			res = execution.Fail("subtask did not run")
			results[i] = res
		}
		if res.Success {
			completed++
			recordStepResult(ec, children[i], subtasks[i], stepID, res.Value)
			em.Custom(progress.EventStepComplete, map[string]any{"step": i, "id": stepID})
		} else {
			failed++
			if firstFailed < 0 {
				firstFailed = i
			}
			// Artifacts a failed branch produced before failing stay visible.
			ec.MergeChild(children[i])
			em.Custom(progress.EventStepFailed, map[string]any{"step": i, "id": stepID, "error": res.Error})
		}
	}

	if failed > 0 && t.ShouldStopOnFailure() {
		em.Custom(progress.EventParallelComplete, map[string]any{
			"task": t.Label(), "completed": completed, "failed": failed,
		})
		return nil, &StepFailedError{Index: firstFailed, Msg: results[firstFailed].Error}
	}

	// Fold in position order for deterministic accumulation.
	accumulate := t.ShouldAccumulate()
	var raw []any
	for _, res := range results {
		entry := res.Value
		if !res.Success {
			entry = map[string]any{"error": res.Error}
		}
		if accumulate {
			if addErr := acc.add(entry); addErr != nil {
				return nil, addErr
			}
		} else {
			raw = append(raw, entry)
		}
	}

	em.Custom(progress.EventParallelComplete, map[string]any{
		"task": t.Label(), "completed": completed, "failed": failed,
	})

	value := acc.value()
	if !accumulate {
		value = raw
	}
	return execution.Succeed(value).
		WithMeta("completedSteps", completed).
		WithMeta("failedSteps", failed), nil
}
