// Package progress defines the event stream the runtime emits for external
// UIs and observability collaborators.
package progress

import (
	"sync"
	"time"
)

// Canonical event names produced by the strategies and the agent.
const (
	EventSequentialStart    = "sequential_start"
	EventStepStart          = "step_start"
	EventStepComplete       = "step_complete"
	EventStepFailed         = "step_failed"
	EventSequentialComplete = "sequential_complete"
	EventSequentialFailed   = "sequential_failed"

	EventParallelStart    = "parallel_start"
	EventParallelComplete = "parallel_complete"

	EventExecutionStarted  = "execution_started"
	EventTaskProgress      = "task_progress"
	EventExecutionComplete = "execution_complete"
	EventExecutionError    = "execution_error"
)

// Event is one progress update. Every payload carries at minimum an execution
// identifier and a timestamp.
type Event struct {
	Name        string         `json:"name"`
	ExecutionID string         `json:"execution_id"`
	Timestamp   time.Time      `json:"timestamp"`
	Percent     float64        `json:"percent,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// TaskEmitter receives progress updates for one execution.
type TaskEmitter interface {
	Started(meta map[string]any)
	Progress(pct float64, meta map[string]any)
	Custom(name string, meta map[string]any)
	Completed(meta map[string]any)
	Failed(meta map[string]any)
	Retrying(meta map[string]any)
}

// Emitter creates per-execution task emitters.
type Emitter interface {
	CreateTaskEmitter(executionID string) TaskEmitter
}

// NopEmitter discards all events. It is the default when no emitter is
// injected.
type NopEmitter struct{}

func (NopEmitter) CreateTaskEmitter(string) TaskEmitter { return nopTaskEmitter{} }

type nopTaskEmitter struct{}

func (nopTaskEmitter) Started(map[string]any)           {}
func (nopTaskEmitter) Progress(float64, map[string]any) {}
func (nopTaskEmitter) Custom(string, map[string]any)    {}
func (nopTaskEmitter) Completed(map[string]any)         {}
func (nopTaskEmitter) Failed(map[string]any)            {}
func (nopTaskEmitter) Retrying(map[string]any)          {}

// Listener receives every event a Collector records.
type Listener func(Event)

// Collector is a thread-safe emitter that records events in arrival order and
// optionally fans them out to listeners. Tests and the transcript writer use
// it.
type Collector struct {
	mu        sync.Mutex
	events    []Event
	listeners []Listener
}

func NewCollector() *Collector {
	return &Collector{}
}

// OnEvent registers a listener invoked for every recorded event.
func (c *Collector) OnEvent(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Events returns a snapshot of everything recorded so far.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Named returns recorded events matching the given name, in arrival order.
func (c *Collector) Named(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (c *Collector) record(e Event) {
	e.Timestamp = time.Now()
	c.mu.Lock()
	c.events = append(c.events, e)
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l(e)
	}
}

func (c *Collector) CreateTaskEmitter(executionID string) TaskEmitter {
	return &collectorTaskEmitter{collector: c, executionID: executionID}
}

type collectorTaskEmitter struct {
	collector   *Collector
	executionID string
}

func (e *collectorTaskEmitter) Started(meta map[string]any) {
	e.collector.record(Event{Name: EventExecutionStarted, ExecutionID: e.executionID, Meta: meta})
}

func (e *collectorTaskEmitter) Progress(pct float64, meta map[string]any) {
	e.collector.record(Event{Name: EventTaskProgress, ExecutionID: e.executionID, Percent: pct, Meta: meta})
}

func (e *collectorTaskEmitter) Custom(name string, meta map[string]any) {
	e.collector.record(Event{Name: name, ExecutionID: e.executionID, Meta: meta})
}

func (e *collectorTaskEmitter) Completed(meta map[string]any) {
	e.collector.record(Event{Name: EventExecutionComplete, ExecutionID: e.executionID, Percent: 100, Meta: meta})
}

func (e *collectorTaskEmitter) Failed(meta map[string]any) {
	e.collector.record(Event{Name: EventExecutionError, ExecutionID: e.executionID, Meta: meta})
}

func (e *collectorTaskEmitter) Retrying(meta map[string]any) {
	e.collector.record(Event{Name: "retrying", ExecutionID: e.executionID, Meta: meta})
}
