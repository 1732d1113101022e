package strategy

import (
	"context"
	"fmt"

	"github.com/weavelabs/taskweave/internal/execution"
	"github.com/weavelabs/taskweave/internal/progress"
	"github.com/weavelabs/taskweave/internal/task"
)

// Sequential executes an ordered list of steps, threading each step's result
// into the next and folding results under the task's accumulation policy.
// Step n+1 never starts before step n's result (or failure handling) is
// resolved.
type Sequential struct {
	deps Dependencies
}

func NewSequential() *Sequential {
	return &Sequential{}
}

func (s *Sequential) Name() string { return "sequential" }

func (s *Sequential) Initialize(deps Dependencies) error {
	s.deps = deps
	return nil
}

func (s *Sequential) UpdateDependencies(deps Dependencies) error {
	s.deps = deps
	return nil
}

func (s *Sequential) CanHandle(t *task.Task) bool {
	return t.Sequential || task.HasOrderedSteps(t)
}

func (s *Sequential) EstimateComplexity(t *task.Task) float64 {
	steps := task.ExtractSteps(t)
	total := float64(len(steps))
	for _, step := range steps {
		if len(task.ExtractSteps(step)) > 0 {
			total += 2
		}
	}
	return total
}

func (s *Sequential) Execute(ctx context.Context, t *task.Task, ec *execution.Context) (*execution.Result, error) {
	if s.deps.Selector == nil {
		return nil, &StrategyError{Strategy: s.Name(), Err: fmt.Errorf("no selector configured")}
	}
	if err := task.ValidateDependencies(t); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	steps := task.ExtractSteps(t)
	if len(steps) == 0 {
		return nil, validationErrorf("no steps found in task %q", t.Label())
	}

	acc, err := newAccumulator(t)
	if err != nil {
		return nil, err
	}
	accumulate := t.ShouldAccumulate()
	stopOnFailure := t.ShouldStopOnFailure()

	em := s.deps.emitter().CreateTaskEmitter(executionID(ec, t))
	em.Custom(progress.EventSequentialStart, map[string]any{"task": t.Label(), "steps": len(steps)})

	var raw []any
	completed, failed := 0, 0
	cur := ec

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stepID := task.StepID(step, i)
		em.Custom(progress.EventStepStart, map[string]any{"step": i, "id": stepID})

		child := cur.CreateChild(stepID)
		res, err := s.deps.Selector.Dispatch(ctx, step, child)

		if err != nil || !res.Success {
			msg := failureMessage(res, err)
			em.Custom(progress.EventStepFailed, map[string]any{"step": i, "id": stepID, "error": msg})
			if stopOnFailure {
				em.Custom(progress.EventSequentialFailed, map[string]any{
					"task": t.Label(), "failedStep": i, "completed": completed,
				})
				return nil, &StepFailedError{Index: i, Msg: msg}
			}
			failed++
			placeholder := map[string]any{"error": msg}
			if accumulate {
				if addErr := acc.add(placeholder); addErr != nil {
					return nil, addErr
				}
			} else {
				raw = append(raw, placeholder)
			}
			// Later steps must not receive error data as previousResult.
			cur = cur.WithResult("")
			continue
		}

		recordStepResult(cur, child, step, stepID, res.Value)
		cur = cur.WithResult(res.Value)
		completed++

		if accumulate {
			if addErr := acc.add(res.Value); addErr != nil {
				return nil, addErr
			}
		} else {
			raw = append(raw, res.Value)
		}

		em.Custom(progress.EventStepComplete, map[string]any{"step": i, "id": stepID})
		em.Progress(float64(i+1)/float64(len(steps))*100, map[string]any{"step": i})
	}

	em.Custom(progress.EventSequentialComplete, map[string]any{
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

// failureMessage normalizes a failed dispatch into one message, whether the
// sub-strategy returned a tagged failure or raised an error.
func failureMessage(res *execution.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if res != nil && res.Error != "" {
		return res.Error
	}
	return "step failed"
}

// executionID picks the identifier progress events carry: the session id when
// the context has one, otherwise the task label.
func executionID(ec *execution.Context, t *task.Task) string {
	if ec.SessionID != "" {
		return ec.SessionID
	}
	return t.Label()
}
