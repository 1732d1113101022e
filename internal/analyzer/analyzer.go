// Package analyzer scores task complexity, recommends an execution strategy
// with a confidence value, and refines future recommendations from recorded
// outcomes.
package analyzer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weavelabs/taskweave/internal/task"
)

// DefaultMaxHistorySize bounds the learning history when no size is given.
const DefaultMaxHistorySize = 100

// Complexity is the structural score of a task.
type Complexity struct {
	Overall         float64 `json:"overallComplexity"`
	SubtaskCount    int     `json:"subtaskCount"`
	MaxNesting      int     `json:"maxNesting"`
	DependencyCount int     `json:"dependencyCount"`
}

// Recommendation names the strategy the analyzer proposes and how confident
// it is, in [0,1].
type Recommendation struct {
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence"`
}

// Analysis is the immutable product of one AnalyzeTask call.
type Analysis struct {
	AnalysisID     string         `json:"analysisId"`
	Complexity     Complexity     `json:"complexity"`
	Dependencies   Dependencies   `json:"dependencies"`
	Recommendation Recommendation `json:"recommendation"`
}

// Dependencies summarizes the task's declared step dependencies.
type Dependencies struct {
	Count int `json:"count"`
}

// Outcome is what the caller reports back after an execution finishes.
type Outcome struct {
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
}

// PerformanceRecord is one entry in the learning history.
type PerformanceRecord struct {
	Strategy string   `json:"strategy"`
	Analysis Analysis `json:"analysis"`
	Outcome  Outcome  `json:"outcome"`
}

// Analyzer recommends strategies and learns from outcomes. The learning
// history is a bounded ring; the mutex allows agents to share one analyzer
// without serializing RecordPerformance themselves.
type Analyzer struct {
	mu      sync.Mutex
	history []PerformanceRecord
	maxSize int
}

type Option func(*Analyzer)

// WithMaxHistorySize bounds the learning history. Sizes below 1 are ignored.
func WithMaxHistorySize(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxSize = n
		}
	}
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{maxSize: DefaultMaxHistorySize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeTask scores the task and recommends a strategy. It never mutates the
// task and returns a fresh analysis tagged with a unique id.
func (a *Analyzer) AnalyzeTask(t *task.Task) *Analysis {
	c := scoreComplexity(t)
	depCount := countDependencies(t)
	strategy := recommendStrategy(t)

	return &Analysis{
		AnalysisID:   uuid.NewString(),
		Complexity:   c,
		Dependencies: Dependencies{Count: depCount},
		Recommendation: Recommendation{
			Strategy:   strategy,
			Confidence: a.confidence(strategy, c),
		},
	}
}

// RecordPerformance appends an outcome to the learning history, evicting the
// oldest entry when the bound is reached.
func (a *Analyzer) RecordPerformance(strategy string, analysis *Analysis, outcome Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := PerformanceRecord{Strategy: strategy, Outcome: outcome}
	if analysis != nil {
		rec.Analysis = *analysis
	}
	a.history = append(a.history, rec)
	if len(a.history) > a.maxSize {
		a.history = a.history[len(a.history)-a.maxSize:]
	}
}

// History returns a snapshot of the learning history, oldest first.
func (a *Analyzer) History() []PerformanceRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]PerformanceRecord, len(a.history))
	copy(out, a.history)
	return out
}

// confidence blends a structural prior with the observed success rate for the
// recommended strategy. Laplace smoothing keeps early estimates near the
// prior, and the observed term can only pull confidence up or hold it steady
// as evidence accumulates, so more data never collapses the score.
func (a *Analyzer) confidence(strategy string, c Complexity) float64 {
	prior := 0.9 - 0.05*c.Overall
	prior = clamp(prior, 0.5, 0.9)

	a.mu.Lock()
	successes, total := 0, 0
	for _, rec := range a.history {
		if rec.Strategy != strategy {
			continue
		}
		total++
		if rec.Outcome.Success {
			successes++
		}
	}
	a.mu.Unlock()

	if total == 0 {
		return prior
	}
	observed := (float64(successes) + 1) / (float64(total) + 2)
	if observed < prior {
		// Weight evidence lightly when it disagrees with the prior so a few
		// failures do not swing recommendations wildly.
		return clamp(prior*0.8+observed*0.2, 0.3, 0.99)
	}
	return clamp(prior*0.4+observed*0.6, 0.3, 0.99)
}

// recommendStrategy mirrors dispatch priority: leaves are atomic, explicit
// parallel or unordered subtask sets are parallel, ordered step lists are
// sequential, and everything else needs decomposition.
func recommendStrategy(t *task.Task) string {
	switch {
	case t.IsLeaf():
		return "atomic"
	case t.Parallel || task.HasUnorderedSubtasks(t):
		return "parallel"
	case t.Sequential || task.HasOrderedSteps(t):
		return "sequential"
	default:
		return "recursive"
	}
}

func scoreComplexity(t *task.Task) Complexity {
	subtasks := countSubtasks(t)
	nesting := maxNesting(t)
	deps := countDependencies(t)

	overall := float64(subtasks)*0.5 + float64(nesting)*1.5 + float64(deps)*0.75
	if t.Prompt != "" || (t.Description != "" && t.IsLeaf() == false && subtasks == 0) {
		overall += 2
	}
	return Complexity{
		Overall:         overall,
		SubtaskCount:    subtasks,
		MaxNesting:      nesting,
		DependencyCount: deps,
	}
}

func countSubtasks(t *task.Task) int {
	steps := task.ExtractSteps(t)
	n := len(steps)
	for _, st := range steps {
		n += countSubtasks(st)
	}
	return n
}

func maxNesting(t *task.Task) int {
	steps := task.ExtractSteps(t)
	if len(steps) == 0 {
		return 0
	}
	deepest := 0
	for _, st := range steps {
		if d := maxNesting(st); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

func countDependencies(t *task.Task) int {
	n := 0
	for _, prereqs := range t.Dependencies {
		n += len(prereqs)
	}
	for _, st := range task.ExtractSteps(t) {
		n += countDependencies(st)
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
