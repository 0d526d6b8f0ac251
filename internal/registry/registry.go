package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/zclconf/go-cty/cty"
)

// Request is one plan step handed to a backend, with its inputs resolved as
// far as upstream results allow. Inputs whose producer has not run yet are
// unknown values.
type Request struct {
	Graph  string
	Step   *plan.Step
	Inputs map[string]cty.Value
}

// Result is what a backend reports for one step. Outputs are matched
// against the step's declared outputs by key.
type Result struct {
	Outputs map[string]cty.Value
}

// Backend executes plan steps.
type Backend interface {
	Name() string
	Execute(ctx context.Context, req Request) (Result, error)
}

// Module is implemented by packages that contribute backends.
type Module interface {
	Register(r *Registry)
}

// Registry holds the backends available to one application instance.
type Registry struct {
	backends map[string]Backend
}

// New creates a registry and lets every module register into it.
func New(modules ...Module) *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a backend. Registering a name twice is a programming error
// and panics.
func (r *Registry) Register(b Backend) {
	if _, exists := r.backends[b.Name()]; exists {
		panic(fmt.Sprintf("backend with name '%s' already registered", b.Name()))
	}
	r.backends[b.Name()] = b
}

// Backend returns the backend registered under name.
func (r *Registry) Backend(ctx context.Context, name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		ctxlog.FromContext(ctx).Debug("Backend lookup failed.", "name", name, "available", r.Names())
		return nil, fmt.Errorf("no backend named %q (available: %v)", name, r.Names())
	}
	return b, nil
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.backends))
}
