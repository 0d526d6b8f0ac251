package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/specialistvlad/tast/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Status is the outcome of one step.
type Status string

const (
	Passed  Status = "passed"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// StepReport records what happened to one plan step.
type StepReport struct {
	Order  int
	Node   string
	Status Status
	// Err is the backend error for Failed, the reason for Skipped.
	Err      error
	Inputs   map[string]cty.Value
	Outputs  map[string]cty.Value
	Duration time.Duration
}

// Report is the outcome of a run, one entry per plan step in plan order.
type Report struct {
	Plan    string
	Backend string
	Steps   []*StepReport
}

// Step returns the report of a node.
func (r *Report) Step(node string) (*StepReport, bool) {
	for _, s := range r.Steps {
		if s.Node == node {
			return s, true
		}
	}
	return nil, false
}

// Count returns how many steps ended with status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

var pending = cty.UnknownVal(cty.DynamicPseudoType)

// Run dispatches every step of p to b. It returns the full report and, when
// any step failed, an error naming the failed nodes and wrapping the first
// failure.
func Run(ctx context.Context, p *plan.Plan, b registry.Backend) (*Report, error) {
	logger := ctxlog.FromContext(ctx).With("plan", p.Name, "backend", b.Name())
	logger.Debug("Run: starting.", "steps", len(p.Steps))

	report := &Report{Plan: p.Name, Backend: b.Name()}
	done := make(map[string]*StepReport, len(p.Steps))

	for _, s := range p.Steps {
		sr := &StepReport{Order: s.Order, Node: s.Node}
		report.Steps = append(report.Steps, sr)
		done[s.Node] = sr

		if err := ctx.Err(); err != nil {
			logger.Warn("Context canceled, skipping step.", "node", s.Node)
			sr.Status, sr.Err = Skipped, err
			continue
		}
		if dep, ok := brokenDependency(s, done); ok {
			logger.Warn("Skipping dependent step due to upstream failure.", "node", s.Node, "dependency", dep)
			sr.Status = Skipped
			sr.Err = fmt.Errorf("skipped due to upstream failure of '%s'", dep)
			continue
		}

		sr.Inputs = resolveInputs(s, done)
		start := time.Now()
		res, err := b.Execute(ctx, registry.Request{Graph: p.Name, Step: s, Inputs: sr.Inputs})
		sr.Duration = time.Since(start)
		if err != nil {
			logger.Error("Step execution failed.", "node", s.Node, "error", err)
			sr.Status, sr.Err = Failed, err
			continue
		}
		sr.Status = Passed
		sr.Outputs = collectOutputs(s, res)
		logger.Debug("Step passed.", "node", s.Node, "duration", sr.Duration)
	}

	var failed []string
	var rootCause error
	for _, sr := range report.Steps {
		if sr.Status == Failed {
			failed = append(failed, sr.Node)
			if rootCause == nil {
				rootCause = sr.Err
			}
		}
	}
	logger.Debug("Run: finished.", "passed", report.Count(Passed), "failed", len(failed), "skipped", report.Count(Skipped))
	if rootCause != nil {
		return report, fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return report, nil
}

// brokenDependency returns the first dependency of s that failed or was
// skipped.
func brokenDependency(s *plan.Step, done map[string]*StepReport) (string, bool) {
	for _, dep := range s.DependsOn {
		if sr, ok := done[dep]; ok && sr.Status != Passed {
			return dep, true
		}
	}
	return "", false
}

func resolveInputs(s *plan.Step, done map[string]*StepReport) map[string]cty.Value {
	inputs := make(map[string]cty.Value, len(s.Inputs))
	for _, in := range s.Inputs {
		inputs[in.Key] = pending
		if in.Source == plan.SourceStatic {
			inputs[in.Key] = in.Value
			continue
		}
		from, ok := in.From()
		if !ok {
			continue
		}
		if sr, ok := done[from]; ok {
			if v, ok := sr.Outputs[in.Key]; ok {
				inputs[in.Key] = v
			}
		}
	}
	return inputs
}

// collectOutputs keeps every value the backend returned and marks declared
// outputs it did not return as still pending.
func collectOutputs(s *plan.Step, res registry.Result) map[string]cty.Value {
	out := make(map[string]cty.Value, len(s.Outputs)+len(res.Outputs))
	for _, o := range s.Outputs {
		out[o.Key] = pending
	}
	for k, v := range res.Outputs {
		out[k] = v
	}
	return out
}
