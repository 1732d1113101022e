package analyzer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weavelabs/taskweave/internal/task"
)

func TestAnalyzeTask_Recommendations(t *testing.T) {
	a := New()

	tests := []struct {
		name     string
		task     *task.Task
		strategy string
	}{
		{"leaf tool", &task.Task{Tool: "echo"}, "atomic"},
		{"leaf data", &task.Task{Data: 1}, "atomic"},
		{"parallel flag", &task.Task{Parallel: true, Subtasks: []*task.Task{{Data: 1}}}, "parallel"},
		{"unordered subtasks", &task.Task{Subtasks: []*task.Task{{Data: 1}}}, "parallel"},
		{"ordered steps", &task.Task{Steps: []*task.Task{{Data: 1}}}, "sequential"},
		{"bare description", &task.Task{Description: "abstract work"}, "recursive"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			analysis := a.AnalyzeTask(tc.task)
			require.Equal(t, tc.strategy, analysis.Recommendation.Strategy)
			require.NotEmpty(t, analysis.AnalysisID)
			require.GreaterOrEqual(t, analysis.Recommendation.Confidence, 0.0)
			require.LessOrEqual(t, analysis.Recommendation.Confidence, 1.0)
		})
	}
}

func TestAnalyzeTask_FreshIDs(t *testing.T) {
	a := New()
	tk := &task.Task{Tool: "echo"}
	first := a.AnalyzeTask(tk)
	second := a.AnalyzeTask(tk)
	require.NotEqual(t, first.AnalysisID, second.AnalysisID)
}

func TestAnalyzeTask_Complexity(t *testing.T) {
	tk := &task.Task{
		Steps: []*task.Task{
			{ID: "a"},
			{ID: "b", Steps: []*task.Task{{ID: "b1"}, {ID: "b2"}}},
		},
		Dependencies: map[string][]string{"b": {"a"}},
	}

	analysis := New().AnalyzeTask(tk)
	require.Equal(t, 4, analysis.Complexity.SubtaskCount)
	require.Equal(t, 2, analysis.Complexity.MaxNesting)
	require.Equal(t, 1, analysis.Complexity.DependencyCount)
	require.Equal(t, 1, analysis.Dependencies.Count)
	require.Greater(t, analysis.Complexity.Overall, 0.0)
}

func TestRecordPerformance_BoundedHistory(t *testing.T) {
	a := New(WithMaxHistorySize(3))

	for i := 0; i < 5; i++ {
		analysis := &Analysis{AnalysisID: fmt.Sprintf("id-%d", i)}
		a.RecordPerformance("atomic", analysis, Outcome{Success: true, Duration: time.Millisecond})
	}

	history := a.History()
	require.Len(t, history, 3)
	// Oldest evicted first.
	require.Equal(t, "id-2", history[0].Analysis.AnalysisID)
	require.Equal(t, "id-4", history[2].Analysis.AnalysisID)
}

func TestConfidence_DoesNotCollapseWithSuccesses(t *testing.T) {
	a := New()
	tk := &task.Task{Tool: "echo"}

	baseline := a.AnalyzeTask(tk).Recommendation.Confidence

	last := baseline
	for i := 0; i < 20; i++ {
		analysis := a.AnalyzeTask(tk)
		a.RecordPerformance(analysis.Recommendation.Strategy, analysis, Outcome{Success: true})
		last = analysis.Recommendation.Confidence
	}

	// Repeated successes trend stable or improving, never collapsing.
	require.GreaterOrEqual(t, last, baseline-0.05)
	final := a.AnalyzeTask(tk).Recommendation.Confidence
	require.GreaterOrEqual(t, final, baseline)
}

func TestConfidence_FailuresLowerItGently(t *testing.T) {
	a := New()
	tk := &task.Task{Tool: "echo"}
	baseline := a.AnalyzeTask(tk).Recommendation.Confidence

	for i := 0; i < 10; i++ {
		analysis := a.AnalyzeTask(tk)
		a.RecordPerformance(analysis.Recommendation.Strategy, analysis, Outcome{Success: false})
	}

	lowered := a.AnalyzeTask(tk).Recommendation.Confidence
	require.Less(t, lowered, baseline)
	require.GreaterOrEqual(t, lowered, 0.3)
}

func TestConfidence_PerStrategyHistory(t *testing.T) {
	a := New()

	// Failures recorded for sequential must not drag atomic's confidence.
	for i := 0; i < 10; i++ {
		a.RecordPerformance("sequential", &Analysis{}, Outcome{Success: false})
	}

	atomicConf := a.AnalyzeTask(&task.Task{Tool: "echo"}).Recommendation.Confidence
	seqConf := a.AnalyzeTask(&task.Task{Steps: []*task.Task{{Data: 1}}}).Recommendation.Confidence
	require.Greater(t, atomicConf, seqConf)
}
