package lexer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_Structural(t *testing.T) {
	src := `graph Auth {
  node Register { tags [smoke, critical] }
  Register -> Login { passes { user_id } }
}`
	toks, err := Tokenize("auth.tast", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []Kind{
		Graph, Ident, LBrace,
		Node, Ident, LBrace, Tags, LBracket, Ident, Comma, Ident, RBracket, RBrace,
		Ident, Arrow, Ident, LBrace, Passes, LBrace, Ident, RBrace, RBrace,
		RBrace, EOF,
	}, kinds(toks))
	assert.Equal(t, "Auth", toks[1].Text)
}

func TestTokenize_StepKeywordAsKey(t *testing.T) {
	toks, err := Tokenize("f.tast", []byte(`{ when: "x", given	: 1 }`))
	require.NoError(t, err)
	assert.Equal(t, []Kind{
		LBrace, When, Colon, String, Comma, Given, Colon, Number, RBrace, EOF,
	}, kinds(toks))
}

func TestTokenize_Spans(t *testing.T) {
	toks, err := Tokenize("f.tast", []byte("graph G {\n  node A {}\n}"))
	require.NoError(t, err)

	node := toks[3]
	require.Equal(t, Node, node.Kind)
	assert.Equal(t, "f.tast", node.Range.Filename)
	assert.Equal(t, 2, node.Range.Start.Line)
	assert.Equal(t, 3, node.Range.Start.Column)
	assert.Equal(t, 2, node.Range.End.Line)
	assert.Equal(t, 7, node.Range.End.Column)
	assert.Equal(t, 12, node.Range.Start.Byte)
}

func TestTokenize_FreeText(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []Token
	}{
		{
			name: "runs to end of line",
			src:  "given a registered user\nwhen it logs in",
			want: []Token{
				{Kind: Given, Text: "given"},
				{Kind: FreeText, Text: "a registered user"},
				{Kind: When, Text: "when"},
				{Kind: FreeText, Text: "it logs in"},
				{Kind: EOF},
			},
		},
		{
			name: "stops at brace and trims",
			src:  `given a user with   { email: "x" }`,
			want: []Token{
				{Kind: Given, Text: "given"},
				{Kind: FreeText, Text: "a user with"},
				{Kind: LBrace, Text: "{"},
				{Kind: Ident, Text: "email"},
				{Kind: Colon, Text: ":"},
				{Kind: String, Text: "x"},
				{Kind: RBrace, Text: "}"},
				{Kind: EOF},
			},
		},
		{
			name: "braces inside quotes stay in the text",
			src:  `then the body is "{ok}"`,
			want: []Token{
				{Kind: Then, Text: "then"},
				{Kind: FreeText, Text: `the body is "{ok}"`},
				{Kind: EOF},
			},
		},
		{
			name: "hash and params are kept verbatim",
			src:  "when user #1 sends <message>",
			want: []Token{
				{Kind: When, Text: "when"},
				{Kind: FreeText, Text: "user #1 sends <message>"},
				{Kind: EOF},
			},
		},
		{
			name: "keyword with no text",
			src:  "and\n}",
			want: []Token{
				{Kind: And, Text: "and"},
				{Kind: RBrace, Text: "}"},
				{Kind: EOF},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Tokenize("t.tast", []byte(tc.src))
			require.NoError(t, err)
			require.Len(t, toks, len(tc.want))
			for i := range tc.want {
				assert.Equal(t, tc.want[i].Kind, toks[i].Kind, "token %d", i)
				assert.Equal(t, tc.want[i].Text, toks[i].Text, "token %d", i)
			}
		})
	}
}

func TestTokenize_Literals(t *testing.T) {
	src := `"a\"b\\c\n" 42 -7 3.14 500ms 5s 2m 1h 10µs`
	toks, err := Tokenize("t.tast", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []Kind{String, Number, Number, Number, Duration, Duration, Duration, Duration, Duration, EOF}, kinds(toks))
	assert.Equal(t, "a\"b\\c\n", toks[0].Text)
	assert.Equal(t, "-7", toks[2].Text)
	assert.Equal(t, "3.14", toks[3].Text)
	assert.Equal(t, "500ms", toks[4].Text)
	assert.Equal(t, "10µs", toks[8].Text)
}

func TestTokenize_CommentsSkipped(t *testing.T) {
	src := "# header\ngraph G { # trailing\n}\n"
	toks, err := Tokenize("t.tast", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []Kind{Graph, Ident, LBrace, RBrace, EOF}, kinds(toks))
}

func TestTokenize_QualifiedName(t *testing.T) {
	toks, err := Tokenize("t.tast", []byte("Auth.Login -> Home"))
	require.NoError(t, err)
	assert.Equal(t, []Kind{Ident, Dot, Ident, Arrow, Ident, EOF}, kinds(toks))
}

func TestTokenize_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		contains string
		line     int
		column   int
	}{
		{name: "unterminated string", src: `node A { describe "oops`, contains: "unterminated string", line: 1, column: 19},
		{name: "string across lines", src: "\"a\nb\"", contains: "unterminated string", line: 1, column: 1},
		{name: "unterminated string in free text", src: "given a \"user\n", contains: "unterminated string", line: 1, column: 9},
		{name: "invalid character", src: "graph G { @ }", contains: "unexpected character '@'", line: 1, column: 11},
		{name: "lone dash", src: "A - B", contains: "did you mean '->'", line: 1, column: 3},
		{name: "bad number suffix", src: "12abc", contains: "invalid number literal", line: 1, column: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tokenize("t.tast", []byte(tc.src))
			require.Error(t, err)

			var lexErr *LexError
			require.True(t, errors.As(err, &lexErr))
			assert.Contains(t, lexErr.Message, tc.contains)
			assert.Equal(t, tc.line, lexErr.Range.Start.Line)
			assert.Equal(t, tc.column, lexErr.Range.Start.Column)

			diags := lexErr.Diagnostics()
			require.Len(t, diags, 1)
			assert.True(t, diags.HasErrors())
		})
	}
}

func TestLexer_Restartable(t *testing.T) {
	l := New("t.tast", []byte("graph G {}"))

	first, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, Graph, first.Kind)

	var fromAll []Kind
	for tok, err := range l.All() {
		require.NoError(t, err)
		fromAll = append(fromAll, tok.Kind)
	}
	assert.Equal(t, []Kind{Graph, Ident, LBrace, RBrace, EOF}, fromAll)

	// All does not disturb the lexer's own cursor.
	next, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, Ident, next.Kind)

	l.Reset()
	again, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, Graph, again.Kind)
}

func TestLexer_EOFIsSticky(t *testing.T) {
	l := New("t.tast", nil)
	for range 3 {
		tok, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, EOF, tok.Kind)
	}
}
