// internal/nodeid/parser_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name         string
		rawID        string
		expectErr    bool
		expectedAddr *Address
	}{
		{name: "bare name", rawID: "Register", expectedAddr: New("Register")},
		{name: "qualified name", rawID: "Auth.Login", expectedAddr: NewQualified("Auth", "Login")},
		{name: "underscores and digits", rawID: "G_1.step_2", expectedAddr: NewQualified("G_1", "step_2")},
		{name: "error - empty string", rawID: "", expectErr: true},
		{name: "error - empty segment", rawID: "Auth.", expectErr: true},
		{name: "error - leading dot", rawID: ".Login", expectErr: true},
		{name: "error - too many segments", rawID: "a.b.c", expectErr: true},
		{name: "error - leading digit", rawID: "1abc", expectErr: true},
		{name: "error - hyphen", rawID: "http-client", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Parse(tc.rawID)

			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, addr)
			assert.True(t, tc.expectedAddr.Equal(addr), "parsed address does not match expected address")
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a..b") })
}
