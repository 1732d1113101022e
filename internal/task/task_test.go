package task

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractSteps_Shapes(t *testing.T) {
	a := &Task{ID: "a"}
	b := &Task{ID: "b"}

	t.Run("steps", func(t *testing.T) {
		steps := ExtractSteps(&Task{Steps: []*Task{a, b}})
		require.Equal(t, []*Task{a, b}, steps)
	})

	t.Run("sequence", func(t *testing.T) {
		steps := ExtractSteps(&Task{Sequence: []*Task{a}})
		require.Equal(t, []*Task{a}, steps)
	})

	t.Run("subtasks", func(t *testing.T) {
		steps := ExtractSteps(&Task{Subtasks: []*Task{b}})
		require.Equal(t, []*Task{b}, steps)
	})

	t.Run("pipeline", func(t *testing.T) {
		steps := ExtractSteps(&Task{Pipeline: []*Task{a, b}})
		require.Len(t, steps, 2)
	})

	t.Run("workflow", func(t *testing.T) {
		steps := ExtractSteps(&Task{Workflow: []*Task{a}})
		require.Len(t, steps, 1)
	})

	t.Run("first non-empty shape wins", func(t *testing.T) {
		steps := ExtractSteps(&Task{
			Steps:    []*Task{a},
			Subtasks: []*Task{b, b},
		})
		require.Equal(t, []*Task{a}, steps)
	})

	t.Run("never nil", func(t *testing.T) {
		steps := ExtractSteps(&Task{Description: "empty"})
		require.NotNil(t, steps)
		require.Empty(t, steps)
	})
}

func TestHasOrderedSteps(t *testing.T) {
	a := &Task{ID: "a"}

	require.True(t, HasOrderedSteps(&Task{Steps: []*Task{a}}))
	require.True(t, HasOrderedSteps(&Task{Pipeline: []*Task{a}}))
	require.False(t, HasOrderedSteps(&Task{Subtasks: []*Task{a}}))
	require.True(t, HasOrderedSteps(&Task{Subtasks: []*Task{a}, Ordered: true}))
}

func TestHasUnorderedSubtasks(t *testing.T) {
	a := &Task{ID: "a"}

	require.True(t, HasUnorderedSubtasks(&Task{Subtasks: []*Task{a}}))
	require.False(t, HasUnorderedSubtasks(&Task{Subtasks: []*Task{a}, Ordered: true}))
	require.False(t, HasUnorderedSubtasks(&Task{Steps: []*Task{a}}))
}

func TestTask_Defaults(t *testing.T) {
	var trueVal, falseVal = true, false

	t.Run("stopOnFailure defaults to true", func(t *testing.T) {
		require.True(t, (&Task{}).ShouldStopOnFailure())
		require.True(t, (&Task{StopOnFailure: &trueVal}).ShouldStopOnFailure())
		require.False(t, (&Task{StopOnFailure: &falseVal}).ShouldStopOnFailure())
	})

	t.Run("accumulateResults defaults to true", func(t *testing.T) {
		require.True(t, (&Task{}).ShouldAccumulate())
		require.False(t, (&Task{AccumulateResults: &falseVal}).ShouldAccumulate())
	})

	t.Run("accumulation defaults to array", func(t *testing.T) {
		require.Equal(t, AccumulationArray, (&Task{}).EffectiveAccumulation())
		require.Equal(t, AccumulationSum, (&Task{AccumulationType: AccumulationSum}).EffectiveAccumulation())
	})
}

func TestTask_Label(t *testing.T) {
	require.Equal(t, "my-id", (&Task{ID: "my-id", Description: "desc"}).Label())
	require.Equal(t, "desc", (&Task{Description: "desc"}).Label())
	require.Equal(t, "echo", (&Task{Tool: "echo"}).Label())
	require.Equal(t, "task", (&Task{}).Label())
}

func TestTask_LeafTool(t *testing.T) {
	require.Equal(t, "a", (&Task{Tool: "a", ToolName: "b"}).LeafTool())
	require.Equal(t, "b", (&Task{ToolName: "b"}).LeafTool())
	require.Equal(t, "", (&Task{}).LeafTool())
}

func TestStepID(t *testing.T) {
	require.Equal(t, "fetch", StepID(&Task{ID: "fetch"}, 3))
	require.Equal(t, "step-0", StepID(&Task{}, 0))
	require.Equal(t, "step-7", StepID(nil, 7))
}

func TestFromMap(t *testing.T) {
	t.Run("nested steps decode", func(t *testing.T) {
		doc := map[string]any{
			"id":          "root",
			"description": "pipeline",
			"steps": []any{
				map[string]any{"tool": "echo", "params": map[string]any{"value": "hi"}},
				map[string]any{"id": "second", "prompt": "summarize {previousResult}"},
			},
			"accumulationType": "last",
			"stopOnFailure":    false,
		}

		tk, err := FromMap(doc)
		require.NoError(t, err)
		require.Equal(t, "root", tk.ID)
		require.Len(t, tk.Steps, 2)
		require.Equal(t, "echo", tk.Steps[0].LeafTool())
		require.Equal(t, "second", tk.Steps[1].ID)
		require.Equal(t, AccumulationLast, tk.AccumulationType)
		require.NotNil(t, tk.StopOnFailure)
		require.False(t, *tk.StopOnFailure)
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		tk, err := FromMap(map[string]any{"description": "d", "x-annotation": "keep"})
		require.NoError(t, err)
		require.Equal(t, "d", tk.Description)
	})

	t.Run("weakly typed numbers", func(t *testing.T) {
		tk, err := FromMap(map[string]any{"maxConcurrency": "3", "maxDepth": float64(2)})
		require.NoError(t, err)
		require.Equal(t, 3, tk.MaxConcurrency)
		require.Equal(t, 2, tk.MaxDepth)
	})
}

func TestValidateDependencies(t *testing.T) {
	base := &Task{
		Steps: []*Task{
			{ID: "fetch"},
			{}, // step-1
			{ID: "render"},
		},
	}

	t.Run("no dependencies is valid", func(t *testing.T) {
		require.NoError(t, ValidateDependencies(base))
	})

	t.Run("known ids are valid", func(t *testing.T) {
		tk := *base
		tk.Dependencies = map[string][]string{
			"render": {"fetch", "step-1"},
		}
		require.NoError(t, ValidateDependencies(&tk))
	})

	t.Run("unknown prerequisite is rejected", func(t *testing.T) {
		tk := *base
		tk.Dependencies = map[string][]string{
			"render": {"missing"},
		}
		err := ValidateDependencies(&tk)
		require.Error(t, err)
		require.Contains(t, err.Error(), `"missing"`)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		tk := *base
		tk.Dependencies = map[string][]string{
			"ghost": {"fetch"},
		}
		err := ValidateDependencies(&tk)
		require.Error(t, err)
		require.Contains(t, err.Error(), `"ghost"`)
	})
}
