package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/weavelabs/taskweave/internal/execution"
	"github.com/weavelabs/taskweave/internal/llm"
	"github.com/weavelabs/taskweave/internal/task"
)

// Atomic executes exactly one leaf action - an inline function, a named tool
// invocation, a single LLM completion, or a literal value - and normalizes the
// result. It is the recursion's leaf: resolution and call failures become
// tagged failure results, never Go errors, so parent strategies decide whether
// to stop or continue.
type Atomic struct {
	deps Dependencies
}

func NewAtomic() *Atomic {
	return &Atomic{}
}

func (a *Atomic) Name() string { return "atomic" }

func (a *Atomic) Initialize(deps Dependencies) error {
	a.deps = deps
	return nil
}

func (a *Atomic) UpdateDependencies(deps Dependencies) error {
	a.deps = deps
	return nil
}

func (a *Atomic) CanHandle(t *task.Task) bool {
	return t.IsLeaf()
}

func (a *Atomic) EstimateComplexity(t *task.Task) float64 {
	return 1
}

func (a *Atomic) Execute(ctx context.Context, t *task.Task, ec *execution.Context) (*execution.Result, error) {
	// Leaf kind priority: explicit function, then tool, then prompt, then
	// literal data/value.
	switch {
	case t.Fn != nil:
		return a.executeFn(ctx, t, ec), nil
	case t.LeafTool() != "":
		return a.executeTool(ctx, t, ec), nil
	case t.Prompt != "":
		return a.executePrompt(ctx, t, ec), nil
	case t.Data != nil:
		return execution.Succeed(t.Data), nil
	case t.Value != nil:
		return execution.Succeed(t.Value), nil
	default:
		return execution.Fail(fmt.Sprintf("task %q carries no executable leaf", t.Label())), nil
	}
}

func (a *Atomic) executeFn(ctx context.Context, t *task.Task, ec *execution.Context) *execution.Result {
	params, err := resolveInputs(t.Params, ec)
	if err != nil {
		return execution.Fail((&LeafExecutionError{Kind: "fn", Name: t.Label(), Err: err}).Error())
	}
	value, err := t.Fn(ctx, params)
	if err != nil {
		return execution.Fail((&LeafExecutionError{Kind: "fn", Name: t.Label(), Err: err}).Error())
	}
	return execution.Succeed(value)
}

func (a *Atomic) executeTool(ctx context.Context, t *task.Task, ec *execution.Context) *execution.Result {
	name := t.LeafTool()
	if a.deps.Tools == nil {
		return execution.Fail((&LeafExecutionError{Kind: "tool", Name: name, Err: errors.New("tool registry not configured")}).Error())
	}
	tool, err := a.deps.Tools.Resolve(name)
	if err != nil {
		return execution.Fail((&LeafExecutionError{Kind: "tool", Name: name, Err: err}).Error())
	}
	params, err := resolveInputs(t.Params, ec)
	if err != nil {
		return execution.Fail((&LeafExecutionError{Kind: "tool", Name: name, Err: err}).Error())
	}
	value, err := tool.Execute(ctx, params)
	if err != nil {
		return execution.Fail((&LeafExecutionError{Kind: "tool", Name: name, Err: err}).Error())
	}
	return execution.Succeed(value)
}

func (a *Atomic) executePrompt(ctx context.Context, t *task.Task, ec *execution.Context) *execution.Result {
	if a.deps.LLM == nil {
		return execution.Fail((&LeafExecutionError{Kind: "prompt", Name: t.Label(), Err: errors.New("llm client not configured")}).Error())
	}
	prompt := injectPrompt(t.Prompt, ec)
	resp, err := a.deps.LLM.Complete(ctx, llm.PromptRequest(prompt))
	if err != nil {
		return execution.Fail((&LeafExecutionError{Kind: "prompt", Name: t.Label(), Err: err}).Error())
	}
	return execution.Succeed(resp.Content)
}
