package plan

import (
	"github.com/specialistvlad/tast/internal/ast"
)

// Document is the plain-data projection of a Plan that serializers encode.
// Field order and omission rules are fixed, and maps are encoded with sorted
// keys by both encoding/json and yaml.v3, so equal plans encode to equal
// bytes.
type Document struct {
	Name     string         `json:"name" yaml:"name"`
	Strategy string         `json:"strategy" yaml:"strategy"`
	Root     string         `json:"root,omitempty" yaml:"root,omitempty"`
	Target   string         `json:"target,omitempty" yaml:"target,omitempty"`
	Filter   string         `json:"filter,omitempty" yaml:"filter,omitempty"`
	Subset   []string       `json:"subset,omitempty" yaml:"subset,omitempty"`
	Totals   TotalsDocument `json:"totals" yaml:"totals"`
	Steps    []StepDocument `json:"steps" yaml:"steps"`
	Edges    []EdgeDocument `json:"edges,omitempty" yaml:"edges,omitempty"`
}

type TotalsDocument struct {
	Nodes int `json:"nodes" yaml:"nodes"`
	Edges int `json:"edges" yaml:"edges"`
}

type StepDocument struct {
	Order         int                      `json:"order" yaml:"order"`
	Node          string                   `json:"node" yaml:"node"`
	Description   string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags          []string                 `json:"tags,omitempty" yaml:"tags,omitempty"`
	DependsOn     []string                 `json:"depends_on" yaml:"depends_on"`
	Preconditions []ActionDocument         `json:"preconditions,omitempty" yaml:"preconditions,omitempty"`
	Actions       []ActionDocument         `json:"actions,omitempty" yaml:"actions,omitempty"`
	Assertions    []ActionDocument         `json:"assertions,omitempty" yaml:"assertions,omitempty"`
	Inputs        map[string]InputDocument `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs       map[string]any           `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

type ActionDocument struct {
	Kind    string            `json:"kind" yaml:"kind"`
	Keyword string            `json:"keyword" yaml:"keyword"`
	Text    string            `json:"text" yaml:"text"`
	Data    map[string]any    `json:"data,omitempty" yaml:"data,omitempty"`
	Args    []any             `json:"args,omitempty" yaml:"args,omitempty"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

type InputDocument struct {
	Source string `json:"source" yaml:"source"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty"`
}

type EdgeDocument struct {
	From   string   `json:"from" yaml:"from"`
	To     string   `json:"to" yaml:"to"`
	Passes []string `json:"passes,omitempty" yaml:"passes,omitempty"`
}

// Document projects p into plain data.
func (p *Plan) Document() *Document {
	doc := &Document{
		Name:     p.Name,
		Strategy: string(p.Strategy),
		Root:     p.Root,
		Target:   p.Target,
		Filter:   p.FilterExpr,
		Subset:   p.Subset,
		Totals:   TotalsDocument{Nodes: p.Totals.Nodes, Edges: p.Totals.Edges},
		Steps:    make([]StepDocument, 0, len(p.Steps)),
	}
	for _, s := range p.Steps {
		doc.Steps = append(doc.Steps, stepDocument(s))
	}
	for _, e := range p.Edges {
		doc.Edges = append(doc.Edges, EdgeDocument{From: e.From, To: e.To, Passes: e.Passes})
	}
	return doc
}

func stepDocument(s *Step) StepDocument {
	sd := StepDocument{
		Order:         s.Order,
		Node:          s.Node,
		Description:   s.Description,
		Tags:          s.Tags,
		DependsOn:     append([]string{}, s.DependsOn...),
		Preconditions: actionDocuments(s.Preconditions),
		Actions:       actionDocuments(s.Actions),
		Assertions:    actionDocuments(s.Assertions),
	}
	if len(s.Inputs) > 0 {
		sd.Inputs = make(map[string]InputDocument, len(s.Inputs))
		for _, in := range s.Inputs {
			id := InputDocument{Source: in.Source}
			if in.Source == SourceStatic {
				id.Value = ast.Native(in.Value)
			}
			sd.Inputs[in.Key] = id
		}
	}
	if len(s.Outputs) > 0 {
		sd.Outputs = make(map[string]any, len(s.Outputs))
		for _, out := range s.Outputs {
			if out.Status == OutputPending {
				sd.Outputs[out.Key] = OutputPending
			} else {
				sd.Outputs[out.Key] = ast.Native(out.Value)
			}
		}
	}
	return sd
}

func actionDocuments(actions []*Action) []ActionDocument {
	var out []ActionDocument
	for _, a := range actions {
		ad := ActionDocument{Kind: a.Kind.String(), Keyword: a.Keyword.String(), Text: a.Text}
		if len(a.Data) > 0 {
			ad.Data = make(map[string]any, len(a.Data))
			for _, f := range a.Data {
				ad.Data[f.Key] = ast.Native(f.Value)
			}
		}
		for _, v := range a.Args {
			ad.Args = append(ad.Args, ast.Native(v))
		}
		if len(a.Params) > 0 {
			ad.Params = make(map[string]string, len(a.Params))
			for _, pm := range a.Params {
				ad.Params[pm.Name] = pm.Source
			}
		}
		out = append(out, ad)
	}
	return out
}
