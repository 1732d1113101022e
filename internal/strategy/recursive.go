package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/weavelabs/taskweave/internal/execution"
	"github.com/weavelabs/taskweave/internal/llm"
	"github.com/weavelabs/taskweave/internal/task"
)

// decompositionPrompt asks the planner for a machine-readable subtask list.
// The response must be a JSON array of subtask objects, or an object with a
// "subtasks" array and an optional "parallel" flag.
const decompositionPrompt = `You are a task planner. Break the following task into concrete subtasks.

Task: %s

Respond with JSON only: either an array of subtask objects, or an object
{"parallel": true|false, "subtasks": [...]}. Each subtask object may carry
"id", "description", "tool", "params", and "prompt" fields. Reference earlier
subtask outputs in params as "@<subtask-id>".`

// Recursive handles tasks that are not directly executable by decomposing
// them into a subtask tree via the LLM planner and dispatching each subtask
// back through strategy selection. Depth is bounded by the execution context;
// exceeding the bound is fatal for the branch, never retried, which
// guarantees termination.
type Recursive struct {
	deps Dependencies
}

func NewRecursive() *Recursive {
	return &Recursive{}
}

func (r *Recursive) Name() string { return "recursive" }

func (r *Recursive) Initialize(deps Dependencies) error {
	r.deps = deps
	return nil
}

func (r *Recursive) UpdateDependencies(deps Dependencies) error {
	r.deps = deps
	return nil
}

// CanHandle claims tasks with a description but no leaf field and no step
// shape - tasks that must be planned before they can run.
func (r *Recursive) CanHandle(t *task.Task) bool {
	return t.Description != "" && !t.IsLeaf() && len(task.ExtractSteps(t)) == 0
}

func (r *Recursive) EstimateComplexity(t *task.Task) float64 {
	// Planning plus at least one dispatch round.
	return 8
}

func (r *Recursive) Execute(ctx context.Context, t *task.Task, ec *execution.Context) (*execution.Result, error) {
	if ec.Depth >= ec.MaxDepth {
		return nil, &DepthExceededError{Depth: ec.Depth, MaxDepth: ec.MaxDepth}
	}
	if r.deps.Selector == nil {
		return nil, &StrategyError{Strategy: r.Name(), Err: errors.New("no selector configured")}
	}
	if r.deps.LLM == nil {
		return nil, &StrategyError{Strategy: r.Name(), Err: errors.New("llm client not configured")}
	}

	subtasks, parallel, err := r.decompose(ctx, t)
	if err != nil {
		// A failed or unusable plan is a leaf-level failure: the branch is
		// reported, siblings keep running.
		return execution.Fail((&LeafExecutionError{Kind: "prompt", Name: t.Label(), Err: err}).Error()), nil
	}

	ec.AppendHistory("assistant", fmt.Sprintf("decomposed %q into %d subtasks (parallel=%v)", t.Label(), len(subtasks), parallel))

	// Re-dispatch through strategy selection via a wrapper task so the
	// sequential/parallel machinery (accumulation, events, merging) applies
	// uniformly to the decomposed tree.
	wrapper := &task.Task{
		ID:               t.ID,
		Description:      t.Description,
		AccumulationType: t.EffectiveAccumulation(),
		Accumulate:       t.Accumulate,
		StopOnFailure:    t.StopOnFailure,
		MaxConcurrency:   t.MaxConcurrency,
	}
	if parallel {
		wrapper.Parallel = true
		wrapper.Subtasks = subtasks
	} else {
		wrapper.Steps = subtasks
	}

	res, err := r.deps.Selector.Dispatch(ctx, wrapper, ec)
	if err != nil {
		return nil, err
	}
	ec.AppendHistory("assistant", fmt.Sprintf("finished %q: success=%v", t.Label(), res.Success))
	return res, nil
}

// decompose asks the planner for a subtask list and parses it.
func (r *Recursive) decompose(ctx context.Context, t *task.Task) ([]*task.Task, bool, error) {
	prompt := fmt.Sprintf(decompositionPrompt, t.Description)
	resp, err := r.deps.LLM.Complete(ctx, llm.PromptRequest(prompt))
	if err != nil {
		return nil, false, fmt.Errorf("decomposition call failed: %w", err)
	}
	subtasks, parallel, err := parsePlan(resp.Content)
	if err != nil {
		return nil, false, fmt.Errorf("decomposition unparseable: %w", err)
	}
	if len(subtasks) == 0 {
		return nil, false, errors.New("decomposition produced no subtasks")
	}
	return subtasks, parallel, nil
}

// parsePlan accepts either a bare JSON array of subtasks or an object with a
// "subtasks" array and optional "parallel" flag. Code fences around the JSON
// are tolerated.
func parsePlan(content string) ([]*task.Task, bool, error) {
	payload := stripFences(content)

	var envelope struct {
		Parallel bool  `json:"parallel"`
		Subtasks []any `json:"subtasks"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err == nil && len(envelope.Subtasks) > 0 {
		subtasks, err := decodeSubtasks(envelope.Subtasks)
		return subtasks, envelope.Parallel, err
	}

	var list []any
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		return nil, false, fmt.Errorf("plan is neither a subtask array nor an envelope: %w", err)
	}
	subtasks, err := decodeSubtasks(list)
	return subtasks, false, err
}

func decodeSubtasks(raw []any) ([]*task.Task, error) {
	out := make([]*task.Task, 0, len(raw))
	for i, entry := range raw {
		switch v := entry.(type) {
		case map[string]any:
			st, err := task.FromMap(v)
			if err != nil {
				return nil, fmt.Errorf("subtask %d: %w", i, err)
			}
			out = append(out, st)
		case string:
			out = append(out, &task.Task{Description: v})
		default:
			return nil, fmt.Errorf("subtask %d has unsupported shape %T", i, entry)
		}
	}
	return out, nil
}

// stripFences removes a markdown code fence wrapping a JSON payload, then
// trims to the outermost JSON bracket pair.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '[' {
		end = strings.LastIndex(s, "]")
	} else {
		end = strings.LastIndex(s, "}")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}
