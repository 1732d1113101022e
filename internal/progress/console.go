package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ConsoleEmitter prints human-readable progress lines. When the destination is
// a terminal, step events are prefixed with a spinner-style glyph; otherwise
// the output stays plain so logs remain grep-friendly.
type ConsoleEmitter struct {
	mu    sync.Mutex
	out   io.Writer
	isTTY bool
}

// NewConsoleEmitter writes progress to w. Pass os.Stderr for CLI use.
func NewConsoleEmitter(w io.Writer) *ConsoleEmitter {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &ConsoleEmitter{out: w, isTTY: isTTY}
}

func (c *ConsoleEmitter) CreateTaskEmitter(executionID string) TaskEmitter {
	return &consoleTaskEmitter{console: c, executionID: executionID}
}

func (c *ConsoleEmitter) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *ConsoleEmitter) glyph(ok bool) string {
	if !c.isTTY {
		if ok {
			return "[ok]"
		}
		return "[fail]"
	}
	if ok {
		return "✓"
	}
	return "✗"
}

// Emit prints one already-recorded event. Collector listeners use it to relay
// events to the console.
func (c *ConsoleEmitter) Emit(e Event) {
	switch e.Name {
	case EventExecutionStarted:
		c.printf("▶ %s started %s\n", e.ExecutionID, metaSuffix(e.Meta))
	case EventExecutionComplete:
		c.printf("%s %s completed %s\n", c.glyph(true), e.ExecutionID, metaSuffix(e.Meta))
	case EventExecutionError:
		c.printf("%s %s failed %s\n", c.glyph(false), e.ExecutionID, metaSuffix(e.Meta))
	case EventTaskProgress:
		c.printf("  %s %.0f%% %s\n", e.ExecutionID, e.Percent, metaSuffix(e.Meta))
	default:
		c.printf("  %s %s %s\n", e.ExecutionID, e.Name, metaSuffix(e.Meta))
	}
}

type consoleTaskEmitter struct {
	console     *ConsoleEmitter
	executionID string
}

func (e *consoleTaskEmitter) Started(meta map[string]any) {
	e.console.printf("▶ %s started %s\n", e.executionID, metaSuffix(meta))
}

func (e *consoleTaskEmitter) Progress(pct float64, meta map[string]any) {
	e.console.printf("  %s %.0f%% %s\n", e.executionID, pct, metaSuffix(meta))
}

func (e *consoleTaskEmitter) Custom(name string, meta map[string]any) {
	e.console.printf("  %s %s %s\n", e.executionID, name, metaSuffix(meta))
}

func (e *consoleTaskEmitter) Completed(meta map[string]any) {
	e.console.printf("%s %s completed %s\n", e.console.glyph(true), e.executionID, metaSuffix(meta))
}

func (e *consoleTaskEmitter) Failed(meta map[string]any) {
	e.console.printf("%s %s failed %s\n", e.console.glyph(false), e.executionID, metaSuffix(meta))
}

func (e *consoleTaskEmitter) Retrying(meta map[string]any) {
	e.console.printf("  %s retrying %s\n", e.executionID, metaSuffix(meta))
}

func metaSuffix(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}
	if v, ok := meta["step"]; ok {
		return fmt.Sprintf("(step %v)", v)
	}
	if v, ok := meta["message"]; ok {
		return fmt.Sprintf("(%v)", v)
	}
	return fmt.Sprintf("(%d fields)", len(meta))
}
