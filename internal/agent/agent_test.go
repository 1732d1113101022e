package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weavelabs/taskweave/internal/analyzer"
	"github.com/weavelabs/taskweave/internal/llm"
	"github.com/weavelabs/taskweave/internal/progress"
	"github.com/weavelabs/taskweave/internal/strategy"
	"github.com/weavelabs/taskweave/internal/task"
	"github.com/weavelabs/taskweave/internal/toolreg"
)

func newTestAgent(t *testing.T, deps strategy.Dependencies, opts ...Option) *Agent {
	t.Helper()
	m, err := strategy.NewDefaultManager(deps)
	require.NoError(t, err)
	return New(m, analyzer.New(), opts...)
}

func TestAgent_SequentialEndToEnd(t *testing.T) {
	ag := newTestAgent(t, strategy.Dependencies{Tools: toolreg.Builtin()})

	tk := &task.Task{
		ID: "letters",
		Steps: []*task.Task{
			{Data: "a"}, {Data: "b"}, {Data: "c"},
		},
	}

	exec, err := ag.Execute(context.Background(), tk)
	require.NoError(t, err)
	require.True(t, exec.Result.Success)
	require.Equal(t, []any{"a", "b", "c"}, exec.Result.Value)
	require.NotEmpty(t, exec.ID)
	require.NotNil(t, exec.Analysis)
	require.Equal(t, "sequential", exec.Analysis.Recommendation.Strategy)

	// The outcome is recorded for future recommendations.
	history := ag.Analyzer().History()
	require.Len(t, history, 1)
	require.Equal(t, "sequential", history[0].Strategy)
	require.True(t, history[0].Outcome.Success)
}

func TestAgent_ObjectAccumulationEndToEnd(t *testing.T) {
	ag := newTestAgent(t, strategy.Dependencies{Tools: toolreg.Builtin()})

	tk := &task.Task{
		AccumulationType: task.AccumulationObject,
		Steps: []*task.Task{
			{Data: map[string]any{"host": "example.com"}},
			{Data: map[string]any{"port": 443}},
		},
	}

	exec, err := ag.Execute(context.Background(), tk)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"host": "example.com", "port": 443}, exec.Result.Value)
}

func TestAgent_RecursiveEndToEnd(t *testing.T) {
	client := llm.NewScripted(`[{"tool": "uppercase", "params": {"value": "hi"}}]`)
	ag := newTestAgent(t, strategy.Dependencies{
		Tools: toolreg.Builtin(),
		LLM:   client,
	})

	exec, err := ag.Execute(context.Background(), &task.Task{Description: "shout a greeting"})
	require.NoError(t, err)
	require.True(t, exec.Result.Success)
	require.Equal(t, []any{"HI"}, exec.Result.Value)
	require.NotEmpty(t, exec.History)
}

func TestAgent_TaggedFailureIsNotAnError(t *testing.T) {
	ag := newTestAgent(t, strategy.Dependencies{})

	exec, err := ag.Execute(context.Background(), &task.Task{Tool: "ghost"})
	require.NoError(t, err)
	require.False(t, exec.Result.Success)

	history := ag.Analyzer().History()
	require.Len(t, history, 1)
	require.False(t, history[0].Outcome.Success)
}

func TestAgent_Timeout(t *testing.T) {
	reg := toolreg.Builtin()
	ag := newTestAgent(t, strategy.Dependencies{Tools: reg}, WithTimeout(30*time.Millisecond))

	tk := &task.Task{Steps: []*task.Task{
		{Tool: "sleep", Params: map[string]any{"ms": 5_000}},
	}}

	exec, err := ag.Execute(context.Background(), tk)
	require.Error(t, err)
	var te *strategy.TimeoutError
	require.ErrorAs(t, err, &te)
	require.Equal(t, exec.ID, te.ExecutionID)
	require.Equal(t, 30*time.Millisecond, te.Budget)
}

func TestAgent_Cancel(t *testing.T) {
	ag := newTestAgent(t, strategy.Dependencies{Tools: toolreg.Builtin()})

	started := make(chan string, 1)
	done := make(chan struct{})

	var exec *Execution
	var execErr error
	go func() {
		defer close(done)
		tk := &task.Task{Steps: []*task.Task{
			{Fn: func(ctx context.Context, _ map[string]any) (any, error) {
				started <- ag.ActiveExecutions()[0]
				<-ctx.Done()
				return nil, ctx.Err()
			}},
		}}
		exec, execErr = ag.Execute(context.Background(), tk)
	}()

	id := <-started
	require.True(t, ag.Cancel(id))
	<-done

	require.Error(t, execErr)
	require.True(t, exec.Cancelled)
	require.Empty(t, ag.ActiveExecutions())

	t.Run("unknown id reports false", func(t *testing.T) {
		require.False(t, ag.Cancel("no-such-execution"))
	})
}

func TestAgent_ProgressEvents(t *testing.T) {
	collector := progress.NewCollector()
	ag := newTestAgent(t, strategy.Dependencies{
		Tools:    toolreg.Builtin(),
		Progress: collector,
	})

	exec, err := ag.Execute(context.Background(), &task.Task{Steps: []*task.Task{{Data: "x"}}})
	require.NoError(t, err)

	startedEvents := collector.Named(progress.EventExecutionStarted)
	require.Len(t, startedEvents, 1)
	require.Equal(t, exec.ID, startedEvents[0].ExecutionID)
	require.Len(t, collector.Named(progress.EventExecutionComplete), 1)
}

func TestAgent_NilTask(t *testing.T) {
	ag := newTestAgent(t, strategy.Dependencies{})
	_, err := ag.Execute(context.Background(), nil)
	require.Error(t, err)
}
