package css

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Tokenizer turns a decoded character stream into CSS tokens.
// The sequence is finite and non-restartable: once TokenEOF is produced every
// further Next call produces TokenEOF again. The tokenizer never hard-fails
// except for an unterminated comment at end of input, reported through Err.
type Tokenizer struct {
	log   *zap.Logger
	input []rune
	pos   int
	err   error

	// Warnings collects recoverable tokenization problems (bad strings,
	// bad urls) in input order.
	Warnings []string
}

// newlines folds CR, CRLF and FF into LF, the preprocessing the token
// grammar assumes. Without it a carriage return would tokenize as a delim.
var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n")

// NewTokenizer creates a tokenizer over the given input.
func NewTokenizer(input string, log *zap.Logger) *Tokenizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tokenizer{
		log:   log.Named("css-tokenizer"),
		input: []rune(newlines.Replace(input)),
	}
}

// Err reports a fatal tokenizer error, currently only an unterminated
// comment at end of input. It is set no later than the first TokenEOF.
func (t *Tokenizer) Err() error {
	return t.err
}

func (t *Tokenizer) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.Warnings = append(t.Warnings, msg)
	t.log.Debug("CSS tokenization error", zap.String("detail", msg))
}

func (t *Tokenizer) peek() rune {
	return t.peekN(0)
}

func (t *Tokenizer) peekN(n int) rune {
	pos := t.pos + n
	if pos < 0 || pos >= len(t.input) {
		return -1
	}
	return t.input[pos]
}

func (t *Tokenizer) consume() rune {
	if t.pos >= len(t.input) {
		return -1
	}
	r := t.input[t.pos]
	t.pos++
	return r
}

func (t *Tokenizer) reconsume() {
	if t.pos > 0 {
		t.pos--
	}
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNameStart(r rune) bool {
	return isLetter(r) || r >= 0x80 || r == '_'
}

func isName(r rune) bool {
	return isNameStart(r) || isDigit(r) || r == '-'
}

func isNonPrintable(r rune) bool {
	return (r >= 0 && r <= 0x08) || r == 0x0B || (r >= 0x0E && r <= 0x1F) || r == 0x7F
}

// validEscapeAt reports whether the two code points at offset form a valid
// escape (backslash not followed by a newline).
func (t *Tokenizer) validEscapeAt(offset int) bool {
	return t.peekN(offset) == '\\' && t.peekN(offset+1) != '\n'
}

// startsIdentifierAt reports whether the code points at offset would start
// an identifier.
func (t *Tokenizer) startsIdentifierAt(offset int) bool {
	first := t.peekN(offset)
	switch {
	case isNameStart(first):
		return true
	case first == '-':
		second := t.peekN(offset + 1)
		return isNameStart(second) || second == '-' || t.validEscapeAt(offset+1)
	case first == '\\':
		return t.validEscapeAt(offset)
	default:
		return false
	}
}

// startsNumber reports whether the next code points would start a number.
func (t *Tokenizer) startsNumber() bool {
	first := t.peek()
	switch {
	case isDigit(first):
		return true
	case first == '+' || first == '-':
		second := t.peekN(1)
		return isDigit(second) || (second == '.' && isDigit(t.peekN(2)))
	case first == '.':
		return isDigit(t.peekN(1))
	default:
		return false
	}
}

// consumeEscape consumes an escape sequence after the backslash.
// Hex escapes consume the digits and optional trailing whitespace but are not
// decoded into code points; the replacement character stands in for them.
func (t *Tokenizer) consumeEscape() rune {
	r := t.consume()
	if r == -1 {
		return '�'
	}
	if isHexDigit(r) {
		for i := 0; i < 5 && isHexDigit(t.peek()); i++ {
			t.consume()
		}
		if isWhitespace(t.peek()) {
			t.consume()
		}
		return '�'
	}
	return r
}

func (t *Tokenizer) consumeName() string {
	var b strings.Builder
	for {
		r := t.consume()
		switch {
		case isName(r):
			b.WriteRune(r)
		case r == '\\' && t.peek() != '\n':
			b.WriteRune(t.consumeEscape())
		default:
			if r != -1 {
				t.reconsume()
			}
			return b.String()
		}
	}
}

// consumeNumber consumes a number per the grammar: optional sign, digit run,
// optional dot gated on a digit following it, optional exponent with a
// mandatory digit. The representation decides Integer vs Number.
func (t *Tokenizer) consumeNumber() (float64, NumberType) {
	var repr strings.Builder
	numType := NumberInteger

	if t.peek() == '+' || t.peek() == '-' {
		repr.WriteRune(t.consume())
	}
	for isDigit(t.peek()) {
		repr.WriteRune(t.consume())
	}
	if t.peek() == '.' && isDigit(t.peekN(1)) {
		repr.WriteRune(t.consume())
		numType = NumberNumber
		for isDigit(t.peek()) {
			repr.WriteRune(t.consume())
		}
	}
	if t.peek() == 'e' || t.peek() == 'E' {
		next := t.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(t.peekN(2))) {
			repr.WriteRune(t.consume())
			numType = NumberNumber
			if t.peek() == '+' || t.peek() == '-' {
				repr.WriteRune(t.consume())
			}
			for isDigit(t.peek()) {
				repr.WriteRune(t.consume())
			}
		}
	}

	val, _ := strconv.ParseFloat(repr.String(), 64)
	return val, numType
}

func (t *Tokenizer) consumeNumericToken() Token {
	val, numType := t.consumeNumber()

	if t.startsIdentifierAt(0) {
		return Token{Type: TokenDimension, NumValue: val, NumType: numType, Unit: t.consumeName()}
	}
	if t.peek() == '%' {
		t.consume()
		return Token{Type: TokenPercentage, NumValue: val, NumType: numType}
	}
	return Token{Type: TokenNumber, NumValue: val, NumType: numType}
}

func (t *Tokenizer) consumeString(quote rune) Token {
	var b strings.Builder
	for {
		r := t.consume()
		switch {
		case r == quote:
			return Token{Type: TokenString, Value: b.String()}
		case r == -1:
			t.warn("unterminated string at end of input")
			return Token{Type: TokenString, Value: b.String()}
		case r == '\n':
			// Raw newline inside a string is a parse error.
			t.reconsume()
			t.warn("newline in string")
			return Token{Type: TokenBadString}
		case r == '\\':
			next := t.peek()
			switch {
			case next == -1:
				// Backslash at end of input, drop it.
			case next == '\n':
				// Line continuation, dropped.
				t.consume()
			default:
				b.WriteRune(t.consumeEscape())
			}
		default:
			b.WriteRune(r)
		}
	}
}

// consumeURL consumes an unquoted url token; whitespace, quotes, parens and
// control characters inside force a BadURL sentinel and a synchronized skip
// to the next ')' or end of input.
func (t *Tokenizer) consumeURL() Token {
	var b strings.Builder
	for isWhitespace(t.peek()) {
		t.consume()
	}
	for {
		r := t.consume()
		switch {
		case r == ')':
			return Token{Type: TokenURL, Value: b.String()}
		case r == -1:
			t.warn("unterminated url at end of input")
			return Token{Type: TokenURL, Value: b.String()}
		case isWhitespace(r):
			for isWhitespace(t.peek()) {
				t.consume()
			}
			if t.peek() == ')' {
				t.consume()
				return Token{Type: TokenURL, Value: b.String()}
			}
			if t.peek() == -1 {
				t.warn("unterminated url at end of input")
				return Token{Type: TokenURL, Value: b.String()}
			}
			t.warn("whitespace inside url")
			t.skipBadURL()
			return Token{Type: TokenBadURL}
		case r == '"' || r == '\'' || r == '(' || isNonPrintable(r):
			t.warn("invalid character %q inside url", string(r))
			t.skipBadURL()
			return Token{Type: TokenBadURL}
		case r == '\\':
			if t.peek() != '\n' {
				b.WriteRune(t.consumeEscape())
			} else {
				t.warn("escaped newline inside url")
				t.skipBadURL()
				return Token{Type: TokenBadURL}
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (t *Tokenizer) skipBadURL() {
	for {
		r := t.consume()
		if r == ')' || r == -1 {
			return
		}
		if r == '\\' && t.peek() != '\n' && t.peek() != -1 {
			t.consume()
		}
	}
}

func (t *Tokenizer) consumeIdentLike() Token {
	name := t.consumeName()

	if strings.EqualFold(name, "url") && t.peek() == '(' {
		t.consume()
		// A quoted argument means a later stage parses this as an ordinary
		// function; only the raw form becomes a url token.
		ws := 0
		for isWhitespace(t.peekN(ws)) {
			ws++
		}
		if q := t.peekN(ws); q == '"' || q == '\'' {
			return Token{Type: TokenFunction, Value: name}
		}
		return t.consumeURL()
	}

	if t.peek() == '(' {
		t.consume()
		return Token{Type: TokenFunction, Value: name}
	}
	return Token{Type: TokenIdent, Value: name}
}

// skipComment consumes "/*...*/". An unterminated comment at end of input is
// a fatal tokenizer error.
func (t *Tokenizer) skipComment() bool {
	t.consume() // '/'
	t.consume() // '*'
	for {
		r := t.consume()
		if r == -1 {
			t.err = fmt.Errorf("unterminated comment at end of input")
			t.log.Warn("CSS tokenizer failed", zap.Error(t.err))
			return false
		}
		if r == '*' && t.peek() == '/' {
			t.consume()
			return true
		}
	}
}

// Next produces the next token. After TokenEOF has been produced it keeps
// returning TokenEOF.
func (t *Tokenizer) Next() Token {
	for t.peek() == '/' && t.peekN(1) == '*' {
		if !t.skipComment() {
			return Token{Type: TokenEOF}
		}
	}

	r := t.consume()
	switch {
	case r == -1:
		return Token{Type: TokenEOF}

	case isWhitespace(r):
		for isWhitespace(t.peek()) {
			t.consume()
		}
		return Token{Type: TokenWhitespace}

	case r == '"' || r == '\'':
		return t.consumeString(r)

	case r == '#':
		if isName(t.peek()) || t.validEscapeAt(0) {
			hashType := HashUnrestricted
			if t.startsIdentifierAt(0) {
				hashType = HashID
			}
			return Token{Type: TokenHash, Value: t.consumeName(), HashType: hashType}
		}
		return Token{Type: TokenDelim, Delim: r}

	case r == '(':
		return Token{Type: TokenOpenParen}
	case r == ')':
		return Token{Type: TokenCloseParen}
	case r == '[':
		return Token{Type: TokenOpenSquare}
	case r == ']':
		return Token{Type: TokenCloseSquare}
	case r == '{':
		return Token{Type: TokenOpenCurly}
	case r == '}':
		return Token{Type: TokenCloseCurly}
	case r == ',':
		return Token{Type: TokenComma}
	case r == ':':
		return Token{Type: TokenColon}
	case r == ';':
		return Token{Type: TokenSemicolon}

	case r == '+':
		if t.reconsume(); t.startsNumber() {
			return t.consumeNumericToken()
		}
		t.consume()
		return Token{Type: TokenDelim, Delim: r}

	case r == '-':
		t.reconsume()
		if t.startsNumber() {
			return t.consumeNumericToken()
		}
		if t.peekN(1) == '-' && t.peekN(2) == '>' {
			t.consume()
			t.consume()
			t.consume()
			return Token{Type: TokenCDC}
		}
		if t.startsIdentifierAt(0) {
			return t.consumeIdentLike()
		}
		t.consume()
		return Token{Type: TokenDelim, Delim: r}

	case r == '.':
		if t.reconsume(); t.startsNumber() {
			return t.consumeNumericToken()
		}
		t.consume()
		return Token{Type: TokenDelim, Delim: r}

	case r == '<':
		if t.peek() == '!' && t.peekN(1) == '-' && t.peekN(2) == '-' {
			t.consume()
			t.consume()
			t.consume()
			return Token{Type: TokenCDO}
		}
		return Token{Type: TokenDelim, Delim: r}

	case r == '@':
		if t.startsIdentifierAt(0) {
			return Token{Type: TokenAtKeyword, Value: t.consumeName()}
		}
		return Token{Type: TokenDelim, Delim: r}

	case r == '\\':
		if t.peek() != '\n' {
			t.reconsume()
			return t.consumeIdentLike()
		}
		t.warn("stray backslash before newline")
		return Token{Type: TokenDelim, Delim: r}

	case isDigit(r):
		t.reconsume()
		return t.consumeNumericToken()

	case isNameStart(r):
		t.reconsume()
		return t.consumeIdentLike()

	default:
		return Token{Type: TokenDelim, Delim: r}
	}
}
