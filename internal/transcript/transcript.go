// Package transcript persists an execution's event stream and conversation
// history to disk, one file per execution.
package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/weavelabs/taskweave/internal/execution"
	"github.com/weavelabs/taskweave/internal/progress"
)

// sanitize replaces characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Filename returns the transcript filename for an execution.
func Filename(executionID string, ts time.Time, compress bool) string {
	ext := ".jsonl"
	if compress {
		ext = ".jsonl.zst"
	}
	return fmt.Sprintf("%s-%s%s", sanitizeName(executionID), ts.Format("20060102-150405"), ext)
}

// Writer streams transcript lines to one file. Each line is a self-describing
// JSON object with a "kind" field ("event", "history", or "summary").
type Writer struct {
	mu   sync.Mutex
	file *os.File
	out  io.Writer
	zw   *zstd.Encoder
	path string
}

// Line is one entry in the transcript stream.
type Line struct {
	Kind      string                  `json:"kind"`
	Timestamp time.Time               `json:"timestamp"`
	Event     *progress.Event         `json:"event,omitempty"`
	History   *execution.HistoryEntry `json:"history,omitempty"`
	Summary   map[string]any          `json:"summary,omitempty"`
}

// NewWriter creates the transcript file under dir. With compress set, the
// stream is zstd-encoded.
func NewWriter(dir, executionID string, compress bool) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}

	path := filepath.Join(dir, Filename(executionID, time.Now(), compress))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript: %w", err)
	}

	w := &Writer{file: f, out: f, path: path}
	if compress {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		w.zw = zw
		w.out = zw
	}
	return w, nil
}

// Path returns the transcript file path.
func (w *Writer) Path() string { return w.path }

// WriteEvent appends one progress event.
func (w *Writer) WriteEvent(e progress.Event) error {
	return w.writeLine(Line{Kind: "event", Timestamp: e.Timestamp, Event: &e})
}

// WriteHistory appends the execution's conversation history, one line per
// entry.
func (w *Writer) WriteHistory(entries []execution.HistoryEntry) error {
	for i := range entries {
		if err := w.writeLine(Line{Kind: "history", Timestamp: entries[i].Timestamp, History: &entries[i]}); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary appends the terminal summary line.
func (w *Writer) WriteSummary(summary map[string]any) error {
	return w.writeLine(Line{Kind: "summary", Timestamp: time.Now(), Summary: summary})
}

func (w *Writer) writeLine(l Line) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal transcript line: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Close flushes and closes the transcript file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			w.file.Close()
			return fmt.Errorf("close zstd writer: %w", err)
		}
	}
	return w.file.Close()
}

// Attach subscribes the writer to a collector so every recorded event lands
// in the transcript. Write errors are dropped; the transcript is advisory.
func (w *Writer) Attach(c *progress.Collector) {
	c.OnEvent(func(e progress.Event) {
		_ = w.WriteEvent(e)
	})
}

// Read loads a transcript back, transparently decoding zstd files.
func Read(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var lines []Line
	for _, raw := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var l Line
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("parse transcript line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}
