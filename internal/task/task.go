// Package task defines the task model consumed by the execution runtime.
//
// A Task is an immutable description of work: a single leaf action (tool call,
// LLM prompt, inline function, or literal value), an ordered or unordered list
// of child tasks, or a bare description that must be decomposed before it can
// run. The runtime never mutates a Task.
package task

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Accumulation selects the policy used to combine multiple step results into
// one final value.
type Accumulation string

const (
	AccumulationArray    Accumulation = "array"
	AccumulationObject   Accumulation = "object"
	AccumulationSum      Accumulation = "sum"
	AccumulationConcat   Accumulation = "concat"
	AccumulationLast     Accumulation = "last"
	AccumulationFirst    Accumulation = "first"
	AccumulationPipeline Accumulation = "pipeline"
	AccumulationCustom   Accumulation = "custom"
)

// Reducer is a user-supplied accumulation function. It receives the value
// accumulated so far (nil on the first call) and the current step result, and
// returns the new accumulated value.
type Reducer func(accumulated, result any) (any, error)

// Fn is a host-provided inline function executed by the atomic strategy.
type Fn func(ctx context.Context, params map[string]any) (any, error)

// Task is the unit of work. All fields are optional except an identifying
// description; which fields are set determines which strategy can handle it.
type Task struct {
	ID          string `mapstructure:"id"`
	Description string `mapstructure:"description"`

	// Leaf fields. Tool and ToolName are synonyms; Fn is host-only and never
	// decoded from a document.
	Tool     string         `mapstructure:"tool"`
	ToolName string         `mapstructure:"toolName"`
	Params   map[string]any `mapstructure:"params"`
	Prompt   string         `mapstructure:"prompt"`
	Data     any            `mapstructure:"data"`
	Value    any            `mapstructure:"value"`
	Fn       Fn             `mapstructure:"-"`

	// Child-task lists. The five shapes are mutually recognized; ExtractSteps
	// normalizes them into a single ordered list.
	Steps    []*Task `mapstructure:"steps"`
	Sequence []*Task `mapstructure:"sequence"`
	Subtasks []*Task `mapstructure:"subtasks"`
	Pipeline []*Task `mapstructure:"pipeline"`
	Workflow []*Task `mapstructure:"workflow"`

	// Execution markers.
	Sequential bool `mapstructure:"sequential"`
	Parallel   bool `mapstructure:"parallel"`
	Ordered    bool `mapstructure:"ordered"`

	// Dependencies is a declarative map from step id to prerequisite step ids.
	// It is validated before execution but not auto-scheduled.
	Dependencies map[string][]string `mapstructure:"dependencies"`

	AccumulationType  Accumulation `mapstructure:"accumulationType"`
	Accumulate        Reducer      `mapstructure:"-"`
	AccumulateResults *bool        `mapstructure:"accumulateResults"`
	StopOnFailure     *bool        `mapstructure:"stopOnFailure"`

	MaxConcurrency int `mapstructure:"maxConcurrency"`
	MaxDepth       int `mapstructure:"maxDepth"`
}

// LeafTool returns the effective tool name, honoring both spellings.
func (t *Task) LeafTool() string {
	if t.Tool != "" {
		return t.Tool
	}
	return t.ToolName
}

// IsLeaf reports whether the task carries any directly executable leaf field.
func (t *Task) IsLeaf() bool {
	return t.Fn != nil || t.LeafTool() != "" || t.Prompt != "" || t.Data != nil || t.Value != nil
}

// ShouldStopOnFailure returns the stop-on-failure setting, defaulting to true.
func (t *Task) ShouldStopOnFailure() bool {
	if t.StopOnFailure == nil {
		return true
	}
	return *t.StopOnFailure
}

// ShouldAccumulate returns the accumulate-results setting, defaulting to true.
func (t *Task) ShouldAccumulate() bool {
	if t.AccumulateResults == nil {
		return true
	}
	return *t.AccumulateResults
}

// EffectiveAccumulation returns the accumulation policy, defaulting to array.
func (t *Task) EffectiveAccumulation() Accumulation {
	if t.AccumulationType == "" {
		return AccumulationArray
	}
	return t.AccumulationType
}

// Label returns a short human-readable identifier for logs and events.
func (t *Task) Label() string {
	if t.ID != "" {
		return t.ID
	}
	if t.Description != "" {
		return t.Description
	}
	if tool := t.LeafTool(); tool != "" {
		return tool
	}
	return "task"
}

// StepID returns the identifier of a step at the given zero-based position,
// defaulting to "step-<index>" when the step has no explicit id.
func StepID(step *Task, index int) string {
	if step != nil && step.ID != "" {
		return step.ID
	}
	return fmt.Sprintf("step-%d", index)
}

// FromMap decodes a JSON-shaped task document (map[string]any) into a Task,
// including nested step lists. Unknown keys are ignored so documents can carry
// annotations the runtime does not interpret.
func FromMap(doc map[string]any) (*Task, error) {
	var t Task
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &t,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building task decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding task document: %w", err)
	}
	return &t, nil
}
