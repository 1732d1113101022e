package progress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsInOrder(t *testing.T) {
	c := NewCollector()
	em := c.CreateTaskEmitter("exec-1")

	em.Started(map[string]any{"task": "t"})
	em.Custom(EventStepStart, map[string]any{"step": 0})
	em.Custom(EventStepComplete, map[string]any{"step": 0})
	em.Progress(50, nil)
	em.Completed(nil)

	events := c.Events()
	require.Len(t, events, 5)
	require.Equal(t, EventExecutionStarted, events[0].Name)
	require.Equal(t, EventStepStart, events[1].Name)
	require.Equal(t, EventTaskProgress, events[3].Name)
	require.Equal(t, 50.0, events[3].Percent)
	require.Equal(t, EventExecutionComplete, events[4].Name)
	for _, e := range events {
		require.Equal(t, "exec-1", e.ExecutionID)
		require.False(t, e.Timestamp.IsZero())
	}
}

func TestCollector_Named(t *testing.T) {
	c := NewCollector()
	em := c.CreateTaskEmitter("exec-1")
	em.Custom(EventStepComplete, map[string]any{"step": 0})
	em.Custom(EventStepFailed, map[string]any{"step": 1})
	em.Custom(EventStepComplete, map[string]any{"step": 2})

	completed := c.Named(EventStepComplete)
	require.Len(t, completed, 2)
	require.Equal(t, 0, completed[0].Meta["step"])
	require.Equal(t, 2, completed[1].Meta["step"])
	require.Empty(t, c.Named("no_such_event"))
}

func TestCollector_Listeners(t *testing.T) {
	c := NewCollector()
	var got []string
	c.OnEvent(func(e Event) { got = append(got, e.Name) })

	em := c.CreateTaskEmitter("exec-1")
	em.Started(nil)
	em.Failed(nil)

	require.Equal(t, []string{EventExecutionStarted, EventExecutionError}, got)
}

func TestCollector_ConcurrentEmitters(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			em := c.CreateTaskEmitter("exec")
			for j := 0; j < 25; j++ {
				em.Custom(EventStepComplete, nil)
			}
		}()
	}
	wg.Wait()

	require.Len(t, c.Events(), 200)
}

func TestConsoleEmitter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsoleEmitter(&buf)
	em := console.CreateTaskEmitter("exec-1")

	em.Started(map[string]any{"task": "t"})
	em.Progress(25, map[string]any{"step": 0})
	em.Completed(nil)
	em.Failed(nil)

	out := buf.String()
	require.Contains(t, out, "exec-1 started")
	require.Contains(t, out, "25%")
	// Non-TTY output uses plain markers.
	require.Contains(t, out, "[ok] exec-1 completed")
	require.Contains(t, out, "[fail] exec-1 failed")
}

func TestConsoleEmitter_Emit(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsoleEmitter(&buf)

	console.Emit(Event{Name: EventExecutionStarted, ExecutionID: "e"})
	console.Emit(Event{Name: EventStepComplete, ExecutionID: "e", Meta: map[string]any{"step": 1}})
	console.Emit(Event{Name: EventTaskProgress, ExecutionID: "e", Percent: 75})
	console.Emit(Event{Name: EventExecutionError, ExecutionID: "e"})

	out := buf.String()
	require.Contains(t, out, "e started")
	require.Contains(t, out, "step_complete (step 1)")
	require.Contains(t, out, "75%")
	require.Contains(t, out, "[fail] e failed")
}
