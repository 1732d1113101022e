// Package execution holds the per-invocation runtime state: the artifact
// registry, the hierarchical execution context, and the result type strategies
// return.
package execution

import (
	"fmt"
	"time"
)

// ArtifactMetadata records provenance for an artifact. InputArtifacts is
// informational only; it is never enforced.
type ArtifactMetadata struct {
	InputArtifacts []string `json:"input_artifacts,omitempty"`
}

// Artifact is a named, typed value produced during execution.
type Artifact struct {
	Type        string           `json:"type"`
	Value       any              `json:"value"`
	Description string           `json:"description,omitempty"`
	Purpose     string           `json:"purpose,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	Metadata    ArtifactMetadata `json:"metadata,omitempty"`
}

// NamedArtifact pairs an artifact with its registry name for ordered listings.
type NamedArtifact struct {
	Name     string
	Artifact Artifact
}

// ArtifactRegistry is an insertion-ordered store of named artifacts. A name
// maps to exactly one record; re-registering overwrites the record but keeps
// the name's original position.
type ArtifactRegistry struct {
	order   []string
	records map[string]Artifact
}

func NewArtifactRegistry() *ArtifactRegistry {
	return &ArtifactRegistry{records: make(map[string]Artifact)}
}

// Add registers or overwrites an artifact. A zero timestamp is stamped with
// the current time.
func (r *ArtifactRegistry) Add(name string, a Artifact) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	if _, exists := r.records[name]; !exists {
		r.order = append(r.order, name)
	}
	r.records[name] = a
}

// Get returns the artifact record for name.
func (r *ArtifactRegistry) Get(name string) (Artifact, bool) {
	a, ok := r.records[name]
	return a, ok
}

// Value returns the stored value for name, or an error naming the missing
// artifact.
func (r *ArtifactRegistry) Value(name string) (any, error) {
	a, ok := r.records[name]
	if !ok {
		return nil, fmt.Errorf("artifact %q not found", name)
	}
	return a.Value, nil
}

// List returns all artifacts in insertion order.
func (r *ArtifactRegistry) List() []NamedArtifact {
	out := make([]NamedArtifact, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, NamedArtifact{Name: name, Artifact: r.records[name]})
	}
	return out
}

// Len returns the number of registered artifacts.
func (r *ArtifactRegistry) Len() int {
	return len(r.order)
}
