// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches one identifier segment.
var segmentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse creates a new Address by parsing `Node` or `Graph.Node`.
func Parse(raw string) (*Address, error) {
	if raw == "" {
		return nil, fmt.Errorf("node reference cannot be empty")
	}

	segments := strings.Split(raw, ".")
	if len(segments) > 2 {
		return nil, fmt.Errorf("node reference %q has %d segments; expected Node or Graph.Node", raw, len(segments))
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("node reference %q contains an empty segment", raw)
		}
		if !segmentRegex.MatchString(s) {
			return nil, fmt.Errorf("invalid segment %q in node reference %q", s, raw)
		}
	}

	if len(segments) == 1 {
		return New(segments[0]), nil
	}
	return NewQualified(segments[0], segments[1]), nil
}

// MustParse is Parse for references known to be well formed.
func MustParse(raw string) *Address {
	a, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return a
}
