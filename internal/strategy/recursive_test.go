package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weavelabs/taskweave/internal/execution"
	"github.com/weavelabs/taskweave/internal/llm"
	"github.com/weavelabs/taskweave/internal/task"
	"github.com/weavelabs/taskweave/internal/toolreg"
)

func TestRecursive_CanHandle(t *testing.T) {
	r := NewRecursive()
	require.True(t, r.CanHandle(&task.Task{Description: "do a thing"}))
	require.False(t, r.CanHandle(&task.Task{Description: "leaf", Tool: "echo"}))
	require.False(t, r.CanHandle(&task.Task{Description: "steps", Steps: []*task.Task{{Data: "x"}}}))
	require.False(t, r.CanHandle(&task.Task{}))
}

func TestRecursive_DepthExceeded(t *testing.T) {
	client := llm.NewScripted(`[{"description": "never used"}]`)
	m := newTestManager(t, Dependencies{LLM: client})
	r, ok := m.Strategy("recursive")
	require.True(t, ok)

	ec := execution.NewContext("root", execution.WithMaxDepth(2))
	deep := ec.CreateChild("a").CreateChild("b")

	_, err := r.Execute(context.Background(), &task.Task{Description: "too deep"}, deep)
	var dee *DepthExceededError
	require.ErrorAs(t, err, &dee)
	require.Equal(t, 2, dee.Depth)
	require.Equal(t, 2, dee.MaxDepth)
	require.Empty(t, client.Calls())
}

func TestRecursive_DecomposesArrayPlan(t *testing.T) {
	client := llm.NewScripted(
		`[{"tool": "echo", "params": {"value": "one"}}, {"tool": "echo", "params": {"value": "two"}}]`,
	)
	m := newTestManager(t, Dependencies{LLM: client, Tools: toolreg.Builtin()})
	ec := execution.NewContext("root")

	res, err := m.Selector().Dispatch(context.Background(),
		&task.Task{Description: "produce two echoes"}, ec)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, []any{"one", "two"}, res.Value)

	// The decomposition narrative lands in the shared history.
	history := ec.History()
	require.NotEmpty(t, history)
	require.Contains(t, history[0].Content, "2 subtasks")
}

func TestRecursive_DecomposesEnvelopePlan(t *testing.T) {
	client := llm.NewScripted("```json\n" +
		`{"parallel": true, "subtasks": [{"data": "a"}, {"data": "b"}]}` +
		"\n```")
	m := newTestManager(t, Dependencies{LLM: client})

	res, err := m.Selector().Dispatch(context.Background(),
		&task.Task{Description: "fan out"}, execution.NewContext("root"))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, []any{"a", "b"}, res.Value)
}

func TestRecursive_StringEntriesBecomeSubtasks(t *testing.T) {
	client := llm.NewScripted(
		`["investigate the bug", "write the fix"]`,
		`[{"data": "investigated"}]`,
		`[{"data": "fixed"}]`,
	)
	m := newTestManager(t, Dependencies{LLM: client})

	res, err := m.Selector().Dispatch(context.Background(),
		&task.Task{Description: "fix the bug"}, execution.NewContext("root"))
	require.NoError(t, err)
	require.True(t, res.Success)
	// Each bare string decomposed again, one level deeper.
	require.Equal(t, []any{[]any{"investigated"}, []any{"fixed"}}, res.Value)
}

func TestRecursive_BadPlansAreTaggedFailures(t *testing.T) {
	t.Run("unparseable plan", func(t *testing.T) {
		client := llm.NewScripted("I would rather chat about the weather.")
		m := newTestManager(t, Dependencies{LLM: client})

		res, err := m.Selector().Dispatch(context.Background(),
			&task.Task{Description: "plan"}, execution.NewContext("root"))
		require.NoError(t, err)
		require.False(t, res.Success)
		require.Contains(t, res.Error, "unparseable")
	})

	t.Run("empty plan", func(t *testing.T) {
		client := llm.NewScripted(`{"subtasks": []}`)
		m := newTestManager(t, Dependencies{LLM: client})

		res, err := m.Selector().Dispatch(context.Background(),
			&task.Task{Description: "plan"}, execution.NewContext("root"))
		require.NoError(t, err)
		require.False(t, res.Success)
		require.Contains(t, res.Error, "no subtasks")
	})

	t.Run("llm call failure", func(t *testing.T) {
		client := llm.NewScripted() // exhausted immediately
		m := newTestManager(t, Dependencies{LLM: client})

		res, err := m.Selector().Dispatch(context.Background(),
			&task.Task{Description: "plan"}, execution.NewContext("root"))
		require.NoError(t, err)
		require.False(t, res.Success)
		require.Contains(t, res.Error, "decomposition call failed")
	})
}

func TestRecursive_NoLLMIsFatal(t *testing.T) {
	m := newTestManager(t, Dependencies{})

	_, err := m.Selector().Dispatch(context.Background(),
		&task.Task{Description: "plan"}, execution.NewContext("root"))
	var se *StrategyError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "recursive", se.Strategy)
}

func TestParsePlan(t *testing.T) {
	t.Run("fenced array", func(t *testing.T) {
		subs, parallel, err := parsePlan("```\n[{\"data\": 1}]\n```")
		require.NoError(t, err)
		require.False(t, parallel)
		require.Len(t, subs, 1)
	})

	t.Run("prose around the payload", func(t *testing.T) {
		subs, _, err := parsePlan(`Here is the plan: [{"data": 1}, {"data": 2}] Good luck!`)
		require.NoError(t, err)
		require.Len(t, subs, 2)
	})

	t.Run("envelope with parallel flag", func(t *testing.T) {
		subs, parallel, err := parsePlan(`{"parallel": true, "subtasks": [{"data": 1}]}`)
		require.NoError(t, err)
		require.True(t, parallel)
		require.Len(t, subs, 1)
	})

	t.Run("unsupported entry shape", func(t *testing.T) {
		_, _, err := parsePlan(`[42]`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported shape")
	})
}
