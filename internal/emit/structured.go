package emit

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/specialistvlad/tast/internal/plan"
	"gopkg.in/yaml.v3"
)

// YAMLEncoder writes the plan document as YAML.
type YAMLEncoder struct{}

func (YAMLEncoder) Name() Format { return YAML }

func (YAMLEncoder) EncodePlan(w io.Writer, p *plan.Plan) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p.Document()); err != nil {
		return fmt.Errorf("encode plan %q as yaml: %w", p.Name, err)
	}
	return enc.Close()
}

// JSONEncoder writes the plan document as JSON. An empty Indent writes one
// line.
type JSONEncoder struct {
	Indent string
}

func (JSONEncoder) Name() Format { return JSON }

func (e JSONEncoder) EncodePlan(w io.Writer, p *plan.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", e.Indent)
	if err := enc.Encode(p.Document()); err != nil {
		return fmt.Errorf("encode plan %q as json: %w", p.Name, err)
	}
	return nil
}
