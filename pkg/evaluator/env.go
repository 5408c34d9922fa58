package evaluator

import (
	"fmt"
	"sort"

	"github.com/thomasrohde/lambda/pkg/diagnostics"
)

// Env is a scoped environment for name bindings.
// It supports parent-chained lookup for lexical scoping. A child never
// writes into its parent.
type Env struct {
	bindings map[string]Value
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]Value),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Get looks up a name, traversing parent scopes.
func (e *Env) Get(name string) (Value, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if val, ok := scope.bindings[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// Lookup is Get with a NameError when the name is bound nowhere in the chain.
func (e *Env) Lookup(name string) (Value, error) {
	if val, ok := e.Get(name); ok {
		return val, nil
	}
	return nil, &RuntimeError{
		Code:    diagnostics.EName,
		Message: fmt.Sprintf("undefined name '%s'", name),
	}
}

// Bind binds a name in this scope, replacing any existing local binding.
func (e *Env) Bind(name string, val Value) {
	e.bindings[name] = val
}

// Has checks whether a name is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Names returns the names bound directly in this scope, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
