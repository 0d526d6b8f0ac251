// Package lexer turns `.tast` source text into a stream of tokens.
//
// The lexer knows nothing about meaning. It recognizes structural keywords,
// punctuation, quoted strings, numbers (optionally with a time-unit suffix),
// identifiers, and free text: everything after a step keyword up to the end
// of the line or the next brace is handed to the parser as one opaque span.
package lexer

import (
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
)

// durationUnits are the suffixes accepted directly after a number.
var durationUnits = map[string]bool{
	"ns": true, "us": true, "µs": true, "ms": true, "s": true, "m": true, "h": true,
}

// Lexer produces tokens lazily. It is restartable: Reset rewinds it to the
// beginning of the source, and All always starts from the beginning.
type Lexer struct {
	filename string
	src      []byte

	pos hcl.Pos
	// afterStep is set right after a step keyword, so the next call scans
	// free text instead of tokens.
	afterStep bool
	done      bool
}

// New returns a lexer over src. filename is only used in token ranges.
func New(filename string, src []byte) *Lexer {
	l := &Lexer{filename: filename, src: src}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the start of its input.
func (l *Lexer) Reset() {
	l.pos = hcl.InitialPos
	l.afterStep = false
	l.done = false
}

// All yields every token up to and including EOF, or stops at the first
// error. Each call starts a fresh scan.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		scan := New(l.filename, l.src)
		for {
			tok, err := scan.Next()
			if !yield(tok, err) || err != nil || tok.Kind == EOF {
				return
			}
		}
	}
}

// Tokenize scans the whole input eagerly.
func Tokenize(filename string, src []byte) ([]Token, error) {
	var toks []Token
	for tok, err := range New(filename, src).All() {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// Next returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) Next() (Token, error) {
	if l.done {
		return l.token(EOF, "", l.pos), nil
	}
	if l.afterStep {
		l.afterStep = false
		if tok, ok, err := l.freeText(); err != nil || ok {
			return tok, err
		}
	}

	l.skipTrivia()
	if l.pos.Byte >= len(l.src) {
		l.done = true
		return l.token(EOF, "", l.pos), nil
	}

	start := l.pos
	r, _ := l.peek()
	switch {
	case r == '{':
		return l.single(LBrace), nil
	case r == '}':
		return l.single(RBrace), nil
	case r == '[':
		return l.single(LBracket), nil
	case r == ']':
		return l.single(RBracket), nil
	case r == ':':
		return l.single(Colon), nil
	case r == ',':
		return l.single(Comma), nil
	case r == '.':
		return l.single(Dot), nil
	case r == '"':
		return l.quoted()
	case r == '-':
		next, _ := l.peekAt(l.pos.Byte + 1)
		if next == '>' {
			l.advance()
			l.advance()
			return l.token(Arrow, "->", start), nil
		}
		if isDigit(next) {
			return l.number()
		}
		l.advance()
		return Token{}, l.errorf(start, "unexpected character '-'; did you mean '->'?")
	case isDigit(r):
		return l.number()
	case isIdentStart(r):
		word := l.word()
		kind, ok := keywords[word]
		if !ok {
			kind = Ident
		}
		// A step keyword followed by ':' is a data block key.
		if kind.IsStep() && !l.colonFollows() {
			l.afterStep = true
		}
		return l.token(kind, word, start), nil
	default:
		l.advance()
		return Token{}, l.errorf(start, "unexpected character %q", r)
	}
}

// skipTrivia consumes whitespace and `#` comments.
func (l *Lexer) skipTrivia() {
	for l.pos.Byte < len(l.src) {
		r, _ := l.peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '#':
			for l.pos.Byte < len(l.src) {
				if c, _ := l.peek(); c == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

// freeText scans the prose after a step keyword. Quoted segments are
// skipped over as a unit, so braces inside them do not end the text, but
// an unterminated quote is still an error.
func (l *Lexer) freeText() (Token, bool, error) {
	for l.pos.Byte < len(l.src) {
		if r, _ := l.peek(); r != ' ' && r != '\t' {
			break
		}
		l.advance()
	}

	start := l.pos
	end := l.pos
	for l.pos.Byte < len(l.src) {
		r, _ := l.peek()
		if r == '\n' || r == '\r' || r == '{' || r == '}' {
			break
		}
		if r == '"' {
			if _, err := l.quoted(); err != nil {
				return Token{}, false, err
			}
			end = l.pos
			continue
		}
		l.advance()
		if r != ' ' && r != '\t' {
			end = l.pos
		}
	}

	if end.Byte == start.Byte {
		return Token{}, false, nil
	}
	text := string(l.src[start.Byte:end.Byte])
	return Token{Kind: FreeText, Text: text, Range: l.rangeOf(start, end)}, true, nil
}

// quoted scans a double-quoted string. Strings may not span lines.
func (l *Lexer) quoted() (Token, error) {
	start := l.pos
	l.advance() // opening quote

	var sb strings.Builder
	for {
		if l.pos.Byte >= len(l.src) {
			return Token{}, l.errorSpan(start, l.pos, "unterminated string literal")
		}
		r, _ := l.peek()
		switch r {
		case '\n':
			return Token{}, l.errorSpan(start, l.pos, "unterminated string literal")
		case '"':
			l.advance()
			return l.token(String, sb.String(), start), nil
		case '\\':
			l.advance()
			if l.pos.Byte >= len(l.src) {
				return Token{}, l.errorSpan(start, l.pos, "unterminated string literal")
			}
			esc, _ := l.peek()
			l.advance()
			switch esc {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune('\\')
				sb.WriteRune(esc)
			}
		default:
			l.advance()
			sb.WriteRune(r)
		}
	}
}

// number scans `-?digits(.digits)?` with an optional duration unit.
func (l *Lexer) number() (Token, error) {
	start := l.pos
	if r, _ := l.peek(); r == '-' {
		l.advance()
	}
	l.digits()
	if r, _ := l.peek(); r == '.' {
		if next, _ := l.peekAt(l.pos.Byte + 1); isDigit(next) {
			l.advance()
			l.digits()
		}
	}
	numEnd := l.pos

	if r, _ := l.peek(); isIdentStart(r) || r == 'µ' {
		unitStart := l.pos
		for l.pos.Byte < len(l.src) {
			c, _ := l.peek()
			if !isIdentPart(c) && c != 'µ' {
				break
			}
			l.advance()
		}
		unit := string(l.src[unitStart.Byte:l.pos.Byte])
		if !durationUnits[unit] {
			return Token{}, l.errorSpan(start, l.pos, fmt.Sprintf("invalid number literal %q", string(l.src[start.Byte:l.pos.Byte])))
		}
		return l.token(Duration, string(l.src[start.Byte:l.pos.Byte]), start), nil
	}
	return l.token(Number, string(l.src[start.Byte:numEnd.Byte]), start), nil
}

func (l *Lexer) digits() {
	for l.pos.Byte < len(l.src) {
		if r, _ := l.peek(); !isDigit(r) {
			return
		}
		l.advance()
	}
}

func (l *Lexer) word() string {
	start := l.pos.Byte
	for l.pos.Byte < len(l.src) {
		if r, _ := l.peek(); !isIdentPart(r) {
			break
		}
		l.advance()
	}
	return string(l.src[start:l.pos.Byte])
}

func (l *Lexer) single(kind Kind) Token {
	start := l.pos
	l.advance()
	return l.token(kind, string(l.src[start.Byte:l.pos.Byte]), start)
}

func (l *Lexer) token(kind Kind, text string, start hcl.Pos) Token {
	return Token{Kind: kind, Text: text, Range: l.rangeOf(start, l.pos)}
}

// colonFollows reports whether the next rune after spaces and tabs on the
// current line is ':'.
func (l *Lexer) colonFollows() bool {
	for off := l.pos.Byte; ; {
		r, size := l.peekAt(off)
		switch r {
		case ' ', '\t':
			off += size
		case ':':
			return true
		default:
			return false
		}
	}
}

func (l *Lexer) peek() (rune, int) {
	return l.peekAt(l.pos.Byte)
}

func (l *Lexer) peekAt(offset int) (rune, int) {
	if offset >= len(l.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRune(l.src[offset:])
}

// advance consumes one rune and keeps line and column current.
func (l *Lexer) advance() {
	r, size := l.peek()
	if size == 0 {
		return
	}
	l.pos.Byte += size
	if r == '\n' {
		l.pos.Line++
		l.pos.Column = 1
		return
	}
	l.pos.Column++
}

func (l *Lexer) rangeOf(start, end hcl.Pos) hcl.Range {
	return hcl.Range{Filename: l.filename, Start: start, End: end}
}

func (l *Lexer) errorf(start hcl.Pos, format string, args ...any) *LexError {
	return l.errorSpan(start, l.pos, fmt.Sprintf(format, args...))
}

func (l *Lexer) errorSpan(start, end hcl.Pos, msg string) *LexError {
	l.done = true
	return &LexError{Message: msg, Range: l.rangeOf(start, end)}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool { return isIdentStart(r) || isDigit(r) }
