// Package strategy implements the pluggable execution policies of the
// runtime: atomic, sequential, parallel, and recursive, plus the ordered
// selector that routes tasks to them and the manager that owns their
// lifecycle.
package strategy

import (
	"context"
	"errors"

	"github.com/weavelabs/taskweave/internal/execution"
	"github.com/weavelabs/taskweave/internal/llm"
	"github.com/weavelabs/taskweave/internal/progress"
	"github.com/weavelabs/taskweave/internal/task"
	"github.com/weavelabs/taskweave/internal/toolreg"
)

// DefaultMaxConcurrency bounds parallel fan-out when neither the task nor the
// injected dependencies set a limit.
const DefaultMaxConcurrency = 4

// Dependencies carries the collaborators injected into strategies. Zero-value
// fields fall back to the manager's global dependencies when a strategy is
// initialized with overrides.
type Dependencies struct {
	Tools          toolreg.Registry
	LLM            llm.Client
	Progress       progress.Emitter
	Selector       *Selector
	MaxConcurrency int
}

// merged returns a copy of d with non-zero override fields applied.
func (d Dependencies) merged(override *Dependencies) Dependencies {
	if override == nil {
		return d
	}
	out := d
	if override.Tools != nil {
		out.Tools = override.Tools
	}
	if override.LLM != nil {
		out.LLM = override.LLM
	}
	if override.Progress != nil {
		out.Progress = override.Progress
	}
	if override.Selector != nil {
		out.Selector = override.Selector
	}
	if override.MaxConcurrency > 0 {
		out.MaxConcurrency = override.MaxConcurrency
	}
	return out
}

// emitter returns the injected progress emitter or a nop fallback.
func (d Dependencies) emitter() progress.Emitter {
	if d.Progress != nil {
		return d.Progress
	}
	return progress.NopEmitter{}
}

// Strategy is one execution policy. Execute returns a tagged failure result
// for leaf failures; Go errors are reserved for validation, depth, and
// stop-on-failure conditions the caller must treat as fatal.
type Strategy interface {
	Name() string
	CanHandle(t *task.Task) bool
	Execute(ctx context.Context, t *task.Task, ec *execution.Context) (*execution.Result, error)
	EstimateComplexity(t *task.Task) float64
}

// Initializer is the optional initialization hook the manager invokes when a
// strategy is first wired.
type Initializer interface {
	Initialize(deps Dependencies) error
}

// DependencyUpdater is the optional hook for live dependency replacement in
// long-running processes.
type DependencyUpdater interface {
	UpdateDependencies(deps Dependencies) error
}

// Predicate decides whether a strategy claims a task.
type Predicate func(t *task.Task) bool

type selectorEntry struct {
	predicate Predicate
	strategy  Strategy
}

// Selector is an explicit, ordered registry of (predicate, strategy) pairs.
// The first matching entry wins, so registration order encodes dispatch
// priority.
type Selector struct {
	entries []selectorEntry
}

func NewSelector() *Selector {
	return &Selector{}
}

// Register appends a (predicate, strategy) pair.
func (s *Selector) Register(p Predicate, st Strategy) {
	s.entries = append(s.entries, selectorEntry{predicate: p, strategy: st})
}

// Select returns the first strategy whose predicate claims the task.
func (s *Selector) Select(t *task.Task) (Strategy, error) {
	for _, e := range s.entries {
		if e.predicate(t) {
			return e.strategy, nil
		}
	}
	return nil, &StrategyError{Strategy: "selector", Err: errors.New("no strategy can handle task " + t.Label())}
}

// Dispatch selects a strategy for the task and executes it against the given
// context.
func (s *Selector) Dispatch(ctx context.Context, t *task.Task, ec *execution.Context) (*execution.Result, error) {
	st, err := s.Select(t)
	if err != nil {
		return nil, err
	}
	return st.Execute(ctx, t, ec)
}

// recordStepResult registers a completed step's value as an artifact in the
// child context, with provenance pointing at any artifacts the step's params
// referenced, and then merges the child into the parent.
func recordStepResult(parent, child *execution.Context, step *task.Task, stepID string, value any) {
	child.AddArtifact(stepID, execution.Artifact{
		Type:        artifactType(value),
		Value:       value,
		Description: step.Description,
		Metadata:    execution.ArtifactMetadata{InputArtifacts: artifactRefs(step.Params)},
	})
	parent.MergeChild(child)
}

func artifactType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, float32, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "value"
	}
}

// artifactRefs collects the "@name" references found in a params map.
func artifactRefs(params map[string]any) []string {
	var refs []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			if name, ok := artifactRef(val); ok {
				refs = append(refs, name)
			}
		case map[string]any:
			for _, nested := range val {
				walk(nested)
			}
		case []any:
			for _, nested := range val {
				walk(nested)
			}
		}
	}
	walk(params)
	return refs
}
