package parser

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/specialistvlad/tast/internal/ast"
	"github.com/zclconf/go-cty/cty"
)

// noiseWords are dropped from step text before extraction and comparison.
var noiseWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"some": true, "any": true,
}

// bindingVerbs connect a key to the literal that follows it.
var bindingVerbs = map[string]bool{
	"is": true, "has": true, "with": true, "having": true, "contains": true,
}

// Prose is what the prose layer finds in one step's free text.
type Prose struct {
	// Normalized is the lowercased text with noise words dropped and binding
	// verbs rewritten to "with".
	Normalized string
	Bindings   []ast.Binding
	Args       []cty.Value
	Params     []string
	// Fixture is the name in a `from fixture Name` phrase, if any.
	Fixture string
}

type wordKind int

const (
	wordPlain wordKind = iota
	wordNoise
	wordVerb
	wordString
	wordNumber
	wordDuration
	wordParam
	wordSymbol
)

type word struct {
	kind wordKind
	text string // as written, or the decoded value for strings
}

func (w word) literal() bool {
	return w.kind == wordString || w.kind == wordNumber || w.kind == wordDuration
}

func (w word) value() cty.Value {
	switch w.kind {
	case wordNumber:
		if v, err := cty.ParseNumberVal(w.text); err == nil {
			return v
		}
	}
	return cty.StringVal(w.text)
}

// Analyze runs the prose layer over a step's free text.
//
// A literal is bound to the nearest preceding unclaimed plain word, either
// directly (`email "x"`) or across one binding verb (`status is "x"`,
// `with email "x"`). Noise words are transparent. Literals with no key are
// kept as anonymous arguments.
func Analyze(text string) Prose {
	words := splitProse(text)
	var out Prose

	// `from fixture Name` is pulled out first so its words never bind.
	skip := make([]bool, len(words))
	for i := 0; i+2 < len(words); i++ {
		if words[i].kind == wordPlain && strings.EqualFold(words[i].text, "from") &&
			words[i+1].kind == wordPlain && strings.EqualFold(words[i+1].text, "fixture") &&
			words[i+2].kind == wordPlain {
			out.Fixture = words[i+2].text
			skip[i], skip[i+1], skip[i+2] = true, true, true
			break
		}
	}

	claimed := make([]bool, len(words))
	// prev walks back over noise words to the previous meaningful word.
	prev := func(i int) int {
		for i--; i >= 0; i-- {
			if words[i].kind != wordNoise {
				return i
			}
		}
		return -1
	}
	keyFor := func(i int) int {
		j := prev(i)
		if j < 0 || skip[j] {
			return -1
		}
		if words[j].kind == wordVerb {
			j = prev(j)
			if j < 0 || skip[j] {
				return -1
			}
		}
		if words[j].kind != wordPlain || claimed[j] {
			return -1
		}
		return j
	}

	var norm []string
	for i, w := range words {
		switch w.kind {
		case wordNoise:
			continue
		case wordVerb:
			norm = append(norm, "with")
		case wordString:
			norm = append(norm, strconv.Quote(w.text))
		case wordParam:
			norm = append(norm, "<"+w.text+">")
			if !slices.Contains(out.Params, w.text) {
				out.Params = append(out.Params, w.text)
			}
		case wordPlain:
			norm = append(norm, strings.ToLower(w.text))
		default:
			norm = append(norm, w.text)
		}

		if !w.literal() || skip[i] {
			continue
		}
		if k := keyFor(i); k >= 0 {
			claimed[k] = true
			out.Bindings = bind(out.Bindings, strings.ToLower(words[k].text), w.value())
			continue
		}
		out.Args = append(out.Args, w.value())
	}
	out.Normalized = strings.Join(norm, " ")
	return out
}

// Normalize returns only the normalized form of text.
func Normalize(text string) string {
	return Analyze(text).Normalized
}

// bind sets key, replacing an earlier binding of the same key in place.
func bind(bs []ast.Binding, key string, v cty.Value) []ast.Binding {
	for i := range bs {
		if bs[i].Key == key {
			bs[i].Value = v
			return bs
		}
	}
	return append(bs, ast.Binding{Key: key, Value: v})
}

// splitProse is the finite-state scanner behind Analyze.
func splitProse(text string) []word {
	var words []word
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r):
			i += size

		case r == '"':
			val, n := scanQuoted(text[i:])
			words = append(words, word{kind: wordString, text: val})
			i += n

		case r == '<':
			if name, n, ok := scanParam(text[i:]); ok {
				words = append(words, word{kind: wordParam, text: name})
				i += n
				continue
			}
			n := scanSymbol(text[i:])
			words = append(words, word{kind: wordSymbol, text: text[i : i+n]})
			i += n

		case isDigit(r) || (r == '-' && i+1 < len(text) && isDigit(rune(text[i+1]))):
			w, n := scanNumber(text[i:])
			words = append(words, w)
			i += n

		case isWordRune(r):
			n := scanWord(text[i:])
			w := text[i : i+n]
			lower := strings.ToLower(w)
			kind := wordPlain
			if noiseWords[lower] {
				kind = wordNoise
			} else if bindingVerbs[lower] {
				kind = wordVerb
			}
			words = append(words, word{kind: kind, text: w})
			i += n

		default:
			n := scanSymbol(text[i:])
			words = append(words, word{kind: wordSymbol, text: text[i : i+n]})
			i += n
		}
	}
	return words
}

// scanQuoted decodes a quoted segment. The lexer has already rejected
// unterminated strings, so running off the end just stops.
func scanQuoted(s string) (string, int) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '"':
			return sb.String(), i + 1
		case '\\':
			if i+1 < len(s) {
				switch s[i+1] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case '"', '\\':
					sb.WriteByte(s[i+1])
				default:
					sb.WriteByte('\\')
					sb.WriteByte(s[i+1])
				}
				i += 2
				continue
			}
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String(), i
}

func scanParam(s string) (string, int, bool) {
	end := strings.IndexByte(s, '>')
	if end < 2 {
		return "", 0, false
	}
	name := s[1:end]
	for i, r := range name {
		if !(r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r))) {
			return "", 0, false
		}
	}
	return name, end + 1, true
}

// scanNumber reads `-?digits(.digits)?` and an optional unit. A valid time
// unit makes a duration; any other trailing letters make the run a word.
func scanNumber(s string) (word, int) {
	i := 0
	if s[0] == '-' {
		i++
	}
	for i < len(s) && isDigit(rune(s[i])) {
		i++
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(rune(s[i+1])) {
		i++
		for i < len(s) && isDigit(rune(s[i])) {
			i++
		}
	}
	numEnd := i
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isWordRune(r) {
			break
		}
		i += size
	}
	if i == numEnd {
		return word{kind: wordNumber, text: s[:i]}, i
	}
	if _, err := time.ParseDuration(s[:i]); err == nil && !strings.ContainsRune(s[numEnd:i], '_') {
		return word{kind: wordDuration, text: s[:i]}, i
	}
	return word{kind: wordPlain, text: s[:i]}, i
}

func scanWord(s string) int {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isWordRune(r) && !(i > 0 && (r == '-' || r == '\'')) {
			break
		}
		i += size
	}
	return i
}

func scanSymbol(s string) int {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) || r == '"' || isWordRune(r) || (i > 0 && r == '<') {
			break
		}
		i += size
	}
	if i == 0 {
		_, i = utf8.DecodeRuneInString(s)
	}
	return i
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
