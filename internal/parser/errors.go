package parser

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ParseError is a structural grammar violation. Parsing stops at the first
// one; the message names the expected construct and the token found.
type ParseError struct {
	Message string
	Range   hcl.Range
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Range.String(), e.Message)
}

// Diagnostics renders the error for an hcl diagnostic writer.
func (e *ParseError) Diagnostics() hcl.Diagnostics {
	rng := e.Range
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Syntax error",
		Detail:   e.Message,
		Subject:  &rng,
	}}
}
