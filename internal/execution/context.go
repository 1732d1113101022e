package execution

import (
	"sync"
	"time"
)

// HistoryEntry is one line of the append-only conversation log.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// historyLog is shared by every context in one execution tree and owned by the
// root. Parallel branches may append concurrently, so it carries its own lock.
type historyLog struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

func (l *historyLog) append(role, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, HistoryEntry{Role: role, Content: content, Timestamp: time.Now()})
}

func (l *historyLog) snapshot() []HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Context is one node of the execution tree. Artifact writes are local to the
// node; reads fall back through the parent chain. Children become visible to
// the parent only through an explicit merge.
type Context struct {
	TaskID    string
	SessionID string
	Depth     int
	MaxDepth  int

	parent     *Context
	artifacts  *ArtifactRegistry
	log        *historyLog
	prevResult any
	hasPrev    bool
}

// ContextOption configures a root Context.
type ContextOption func(*Context)

// WithSessionID sets the session identifier carried by the whole tree.
func WithSessionID(id string) ContextOption {
	return func(c *Context) { c.SessionID = id }
}

// WithMaxDepth bounds recursive decomposition for the whole tree.
func WithMaxDepth(depth int) ContextOption {
	return func(c *Context) { c.MaxDepth = depth }
}

// DefaultMaxDepth bounds recursive decomposition when the caller does not set
// a limit.
const DefaultMaxDepth = 5

// NewContext creates the root context for one task invocation.
func NewContext(taskID string, opts ...ContextOption) *Context {
	c := &Context{
		TaskID:    taskID,
		MaxDepth:  DefaultMaxDepth,
		artifacts: NewArtifactRegistry(),
		log:       &historyLog{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateChild returns a new context for a substep or subtask. The child reads
// artifacts through the parent chain but its writes stay local until merged.
func (c *Context) CreateChild(id string) *Context {
	return &Context{
		TaskID:     id,
		SessionID:  c.SessionID,
		Depth:      c.Depth + 1,
		MaxDepth:   c.MaxDepth,
		parent:     c,
		artifacts:  NewArtifactRegistry(),
		log:        c.log,
		prevResult: c.prevResult,
		hasPrev:    c.hasPrev,
	}
}

// WithResult returns a copy of the context carrying the most recent step's
// result. The original context is not mutated; artifacts and history are
// shared.
func (c *Context) WithResult(result any) *Context {
	cp := *c
	cp.prevResult = result
	cp.hasPrev = true
	return &cp
}

// PreviousResult returns the most recent step result, if any.
func (c *Context) PreviousResult() (any, bool) {
	return c.prevResult, c.hasPrev
}

// AddArtifact registers an artifact in this context's local registry.
func (c *Context) AddArtifact(name string, a Artifact) {
	c.artifacts.Add(name, a)
}

// LookupArtifact finds an artifact by name, consulting this context first and
// then walking up the parent chain.
func (c *Context) LookupArtifact(name string) (Artifact, bool) {
	for node := c; node != nil; node = node.parent {
		if a, ok := node.artifacts.Get(name); ok {
			return a, true
		}
	}
	return Artifact{}, false
}

// ArtifactValue returns the value of a named artifact reachable from this
// context, or an error naming the missing artifact.
func (c *Context) ArtifactValue(name string) (any, error) {
	if a, ok := c.LookupArtifact(name); ok {
		return a.Value, nil
	}
	// Delegate to the local registry for the canonical not-found error.
	return c.artifacts.Value(name)
}

// Artifacts returns this context's local registry.
func (c *Context) Artifacts() *ArtifactRegistry {
	return c.artifacts
}

// MergeChild copies the child's local artifacts into this context, preserving
// the child's insertion order. Last write wins on name collisions.
func (c *Context) MergeChild(child *Context) {
	for _, na := range child.artifacts.List() {
		c.artifacts.Add(na.Name, na.Artifact)
	}
}

// MergeParallelResults merges each child's artifacts into this context in
// subtask-list order, so the outcome is deterministic regardless of which
// branch finished first.
func (c *Context) MergeParallelResults(children []*Context) {
	for _, child := range children {
		if child != nil {
			c.MergeChild(child)
		}
	}
}

// AppendHistory adds an entry to the execution tree's shared conversation log.
func (c *Context) AppendHistory(role, content string) {
	c.log.append(role, content)
}

// History returns a snapshot of the conversation log accumulated so far.
func (c *Context) History() []HistoryEntry {
	return c.log.snapshot()
}
