package plan

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"lukechampine.com/blake3"
)

// Fingerprint returns the hex BLAKE3 hash of the plan's JSON projection.
// Two compilations of the same source with the same options have the same
// fingerprint.
func Fingerprint(p *Plan) (string, error) {
	data, err := json.Marshal(p.Document())
	if err != nil {
		return "", fmt.Errorf("fingerprint plan %q: %w", p.Name, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
