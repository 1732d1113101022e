package strategy

import (
	"errors"
	"fmt"
	"sync"
)

// HealthReport describes the structural readiness of a registered strategy:
// whether it is wired into the selector and whether the dependencies its work
// requires are present.
type HealthReport struct {
	Strategy   string   `json:"strategy"`
	Registered bool     `json:"registered"`
	Healthy    bool     `json:"healthy"`
	Missing    []string `json:"missing,omitempty"`
}

// Manager owns strategy lifecycle: registration, initialization with injected
// dependencies, live dependency replacement, and health reporting. All
// strategies share the manager's base dependencies unless initialized with
// per-strategy overrides.
type Manager struct {
	mu         sync.RWMutex
	deps       Dependencies
	selector   *Selector
	strategies map[string]Strategy
	order      []string
}

// NewManager returns an empty manager carrying the given base dependencies.
// The manager's selector is injected into every strategy it initializes, so
// strategies re-enter dispatch through it.
func NewManager(deps Dependencies) *Manager {
	m := &Manager{
		deps:       deps,
		selector:   NewSelector(),
		strategies: map[string]Strategy{},
	}
	m.deps.Selector = m.selector
	return m
}

// NewDefaultManager wires the four built-in strategies in dispatch priority
// order: atomic claims leaves, parallel claims unordered subtask sets,
// sequential claims ordered step lists, recursive claims whatever is left
// that carries a description.
func NewDefaultManager(deps Dependencies) (*Manager, error) {
	m := NewManager(deps)
	for _, st := range []Strategy{NewAtomic(), NewParallel(), NewSequential(), NewRecursive()} {
		if err := m.RegisterStrategy(st, nil); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterStrategy initializes a strategy with the manager's dependencies
// (merged with any overrides) and registers it with the selector under its
// own CanHandle predicate. Registration order is dispatch order.
func (m *Manager) RegisterStrategy(st Strategy, overrides *Dependencies) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := st.Name()
	if _, exists := m.strategies[name]; exists {
		return &StrategyError{Strategy: name, Err: errors.New("already registered")}
	}
	if err := initialize(st, m.deps.merged(overrides)); err != nil {
		return err
	}
	m.strategies[name] = st
	m.order = append(m.order, name)
	m.selector.Register(st.CanHandle, st)
	return nil
}

// InitializeStrategy re-runs a registered strategy's initialization with the
// base dependencies merged with overrides. It is how a caller swaps in a
// different tool registry or LLM client for one strategy only.
func (m *Manager) InitializeStrategy(name string, overrides *Dependencies) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.strategies[name]
	if !ok {
		return &StrategyError{Strategy: name, Err: errors.New("not registered")}
	}
	return initialize(st, m.deps.merged(overrides))
}

// UpdateDependencies replaces the manager's base dependencies and pushes the
// new set to every registered strategy that accepts live updates. Strategies
// without an update hook keep the dependencies they were initialized with.
func (m *Manager) UpdateDependencies(deps Dependencies) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	deps.Selector = m.selector
	m.deps = deps
	for _, name := range m.order {
		if u, ok := m.strategies[name].(DependencyUpdater); ok {
			if err := u.UpdateDependencies(deps); err != nil {
				return &StrategyError{Strategy: name, Err: fmt.Errorf("update dependencies: %w", err)}
			}
		}
	}
	return nil
}

// ValidateStrategyHealth reports, per strategy, whether the dependencies its
// execution path needs are wired. The check is structural only; it performs
// no calls.
func (m *Manager) ValidateStrategyHealth() []HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reports := make([]HealthReport, 0, len(m.order))
	for _, name := range m.order {
		r := HealthReport{Strategy: name, Registered: true}
		switch name {
		case "atomic":
			if m.deps.Tools == nil {
				r.Missing = append(r.Missing, "tools")
			}
			if m.deps.LLM == nil {
				r.Missing = append(r.Missing, "llm")
			}
		case "sequential", "parallel":
			if m.deps.Selector == nil {
				r.Missing = append(r.Missing, "selector")
			}
		case "recursive":
			if m.deps.LLM == nil {
				r.Missing = append(r.Missing, "llm")
			}
			if m.deps.Selector == nil {
				r.Missing = append(r.Missing, "selector")
			}
		}
		r.Healthy = len(r.Missing) == 0
		reports = append(reports, r)
	}
	return reports
}

// Strategy returns a registered strategy by name.
func (m *Manager) Strategy(name string) (Strategy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.strategies[name]
	return st, ok
}

// Names returns the registered strategy names in dispatch order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Selector exposes the manager's dispatch selector.
func (m *Manager) Selector() *Selector {
	return m.selector
}

// Dependencies returns a copy of the manager's base dependencies.
func (m *Manager) Dependencies() Dependencies {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deps
}

func initialize(st Strategy, deps Dependencies) error {
	if init, ok := st.(Initializer); ok {
		if err := init.Initialize(deps); err != nil {
			return &StrategyError{Strategy: st.Name(), Err: fmt.Errorf("initialize: %w", err)}
		}
	}
	return nil
}
