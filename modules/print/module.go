package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/specialistvlad/tast/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Name is the backend name the module registers.
const Name = "print"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed steps; nil means standard output.
	Out io.Writer
}

// Register registers the print backend.
func (m *Module) Register(r *registry.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	r.Register(&Backend{out: out})
}

// Backend prints each step instead of executing it. Every declared output
// is answered with a placeholder naming its producer (`Node.key`), so data
// flow through a plan can be followed without touching any real system.
type Backend struct {
	out io.Writer
}

func (b *Backend) Name() string { return Name }

// Execute prints the step and returns placeholder outputs.
func (b *Backend) Execute(ctx context.Context, req registry.Request) (registry.Result, error) {
	s := req.Step
	ctxlog.FromContext(ctx).Info("Printing step", "node", s.Node)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] %s\n", s.Order, s.Node)
	for _, group := range [][]*plan.Action{s.Preconditions, s.Actions, s.Assertions} {
		for _, a := range group {
			fmt.Fprintf(&sb, "      %s %s\n", a.Keyword, a.Text)
		}
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(req.Inputs))
	for k := range req.Inputs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "      input %s = %s\n", k, ast.FormatValue(req.Inputs[k]))
	}

	if _, err := io.WriteString(b.out, sb.String()); err != nil {
		return registry.Result{}, fmt.Errorf("print step %s: %w", s.Node, err)
	}

	res := registry.Result{Outputs: make(map[string]cty.Value, len(s.Outputs))}
	for _, o := range s.Outputs {
		res.Outputs[o.Key] = cty.StringVal(s.Node + "." + o.Key)
	}
	return res, nil
}
