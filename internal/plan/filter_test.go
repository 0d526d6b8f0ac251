package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	testCases := []struct {
		expr      string
		canonical string
		match     [][]string
		reject    [][]string
	}{
		{
			expr:      "smoke",
			canonical: "smoke",
			match:     [][]string{{"smoke"}, {"api", "smoke"}},
			reject:    [][]string{nil, {"slow"}},
		},
		{
			expr:      "NOT slow",
			canonical: "NOT slow",
			match:     [][]string{nil, {"smoke"}},
			reject:    [][]string{{"slow"}},
		},
		{
			expr:      "smoke and not slow",
			canonical: "smoke AND NOT slow",
			match:     [][]string{{"smoke"}},
			reject:    [][]string{{"smoke", "slow"}, {"api"}},
		},
		{
			expr:      "smoke, critical",
			canonical: "smoke OR critical",
			match:     [][]string{{"smoke"}, {"critical"}},
			reject:    [][]string{{"api"}},
		},
		{
			expr:      "(smoke OR api) AND NOT flaky",
			canonical: "(smoke OR api) AND NOT flaky",
			match:     [][]string{{"api"}, {"smoke", "ui"}},
			reject:    [][]string{{"api", "flaky"}, {"ui"}},
		},
		{
			expr:      "smoke OR api AND slow",
			canonical: "smoke OR api AND slow",
			match:     [][]string{{"smoke"}, {"api", "slow"}},
			reject:    [][]string{{"api"}},
		},
		{
			expr:      "NOT (a AND b)",
			canonical: "NOT (a AND b)",
			match:     [][]string{{"a"}, {"b"}},
			reject:    [][]string{{"a", "b"}},
		},
		{
			expr:      `"needs db" AND "and"`,
			canonical: `"needs db" AND "and"`,
			match:     [][]string{{"needs db", "and"}},
			reject:    [][]string{{"needs db"}},
		},
		{
			expr:      "team:payments",
			canonical: "team:payments",
			match:     [][]string{{"team:payments"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			pred, err := ParseFilter(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.canonical, pred.String())

			for _, tags := range tc.match {
				assert.True(t, pred.Match(tags), "%v", tags)
			}
			for _, tags := range tc.reject {
				assert.False(t, pred.Match(tags), "%v", tags)
			}

			// The canonical form parses back to the same predicate.
			again, err := ParseFilter(pred.String())
			require.NoError(t, err)
			assert.Equal(t, pred, again)
		})
	}
}

func TestParseFilter_Errors(t *testing.T) {
	testCases := []struct {
		expr string
		msg  string
	}{
		{expr: "", msg: "empty tag filter"},
		{expr: "   ", msg: "empty tag filter"},
		{expr: "smoke AND", msg: "expected a tag, found end of input"},
		{expr: "AND smoke", msg: `expected a tag, found "AND"`},
		{expr: "(smoke", msg: "expected ')'"},
		{expr: "smoke)", msg: `unexpected ")"`},
		{expr: "smoke slow", msg: `unexpected tag "slow"`},
		{expr: "smoke & slow", msg: "unexpected character '&'"},
		{expr: `"open`, msg: "unterminated quoted tag"},
	}

	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			_, err := ParseFilter(tc.expr)
			assert.ErrorContains(t, err, tc.msg)
		})
	}
}
