package lexer

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// LexError reports a malformed token. It is fatal for the file being read.
type LexError struct {
	Message string
	Range   hcl.Range
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Range.String(), e.Message)
}

// Diagnostics renders the error for an hcl diagnostic writer.
func (e *LexError) Diagnostics() hcl.Diagnostics {
	rng := e.Range
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid token",
		Detail:   e.Message,
		Subject:  &rng,
	}}
}
