package html

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"weft/dom"
)

// Tokenizer turns a decoded character stream into HTML tokens. It has two
// states: Data, and a RawText state the tree builder switches on externally
// for elements whose content must not be parsed as markup.
type Tokenizer struct {
	log    *zap.Logger
	input  []rune
	pos    int
	rawTag string // non-empty while in the RawText state

	// Warnings collects recoverable tokenization problems in input order.
	Warnings []string
}

// newlines folds CR and CRLF into LF before tokenization so carriage
// returns never reach text nodes or attribute values.
var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NewTokenizer creates a tokenizer over the given input.
func NewTokenizer(input string, log *zap.Logger) *Tokenizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tokenizer{
		log:   log.Named("html-tokenizer"),
		input: []rune(newlines.Replace(input)),
	}
}

// StartRawText switches the tokenizer into the RawText state until the end
// tag matching the given name is seen.
func (t *Tokenizer) StartRawText(tag string) {
	t.rawTag = strings.ToLower(tag)
}

func (t *Tokenizer) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.Warnings = append(t.Warnings, msg)
	t.log.Debug("HTML tokenization error", zap.String("detail", msg))
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

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// matchFold reports whether the input at offset matches s case-insensitively.
func (t *Tokenizer) matchFold(offset int, s string) bool {
	for i, r := range s {
		in := t.peekN(offset + i)
		if in == -1 {
			return false
		}
		if in >= 'A' && in <= 'Z' {
			in += 'a' - 'A'
		}
		if in != r {
			return false
		}
	}
	return true
}

// namedEntities is the supported character-reference set. Numeric references
// are a recognized gap and pass through as raw text.
var namedEntities = map[string]rune{
	"amp":  '&',
	"lt":   '<',
	"gt":   '>',
	"quot": '"',
	"apos": '\'',
	"nbsp": ' ',
}

// decodeEntities expands supported named character references in s.
func (t *Tokenizer) decodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '&' {
			sb.WriteByte(s[i])
			i++
			continue
		}
		if end := strings.IndexByte(s[i:], ';'); end > 1 && end <= 8 {
			name := s[i+1 : i+end]
			if r, ok := namedEntities[name]; ok {
				sb.WriteRune(r)
				i += end + 1
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

// Next produces the next token. After EOF has been produced it keeps
// returning EOF.
func (t *Tokenizer) Next() Token {
	if t.rawTag != "" {
		return t.nextRawText()
	}
	if t.pos >= len(t.input) {
		return Token{Type: TokenEOF}
	}
	if t.peek() == '<' {
		if tok, ok := t.consumeMarkup(); ok {
			return tok
		}
	}
	return t.consumeText()
}

// consumeText accumulates character data up to the next markup opener.
func (t *Tokenizer) consumeText() Token {
	var b strings.Builder
	b.WriteRune(t.consume())
	for {
		r := t.peek()
		if r == -1 || r == '<' {
			return Token{Type: TokenCharacter, Data: t.decodeEntities(b.String())}
		}
		b.WriteRune(t.consume())
	}
}

// nextRawText scans for the end tag matching the raw element, returning the
// accumulated text first and the end tag on the following call.
func (t *Tokenizer) nextRawText() Token {
	var b strings.Builder
	for {
		r := t.peek()
		if r == -1 {
			t.warn("end of input inside raw text of <%s>", t.rawTag)
			t.rawTag = ""
			if b.Len() > 0 {
				return Token{Type: TokenCharacter, Data: b.String()}
			}
			return Token{Type: TokenEOF}
		}
		if r == '<' && t.peekN(1) == '/' && t.matchFold(2, t.rawTag) {
			after := t.peekN(2 + len(t.rawTag))
			if after == '>' || after == -1 || isSpace(after) {
				// Leave the cursor on the end tag: the next Data-state call
				// consumes it.
				t.rawTag = ""
				if b.Len() > 0 {
					return Token{Type: TokenCharacter, Data: b.String()}
				}
				tok, _ := t.consumeMarkup()
				return tok
			}
		}
		b.WriteRune(t.consume())
	}
}

// consumeMarkup handles input starting with '<'. It reports ok=false when
// the '<' turns out to be plain text.
func (t *Tokenizer) consumeMarkup() (Token, bool) {
	switch {
	case t.peekN(1) == '/':
		return t.consumeEndTag(), true
	case t.peekN(1) == '!':
		return t.consumeDeclaration(), true
	case isASCIILetter(t.peekN(1)):
		return t.consumeStartTag(), true
	default:
		return Token{}, false
	}
}

func (t *Tokenizer) consumeTagName() string {
	var b strings.Builder
	for {
		r := t.peek()
		if r == -1 || isSpace(r) || r == '>' || r == '/' {
			return strings.ToLower(b.String())
		}
		b.WriteRune(t.consume())
	}
}

func (t *Tokenizer) consumeEndTag() Token {
	t.consume() // '<'
	t.consume() // '/'
	if !isASCIILetter(t.peek()) {
		// Bogus comment per the recovery rules.
		t.warn("malformed end tag")
		var b strings.Builder
		for {
			r := t.consume()
			if r == -1 || r == '>' {
				return Token{Type: TokenComment, Data: b.String()}
			}
			b.WriteRune(r)
		}
	}
	tok := Token{Type: TokenEndTag, Name: t.consumeTagName()}
	// Attributes on an end tag are a parse error and are dropped.
	t.skipPast('>')
	return tok
}

func (t *Tokenizer) consumeStartTag() Token {
	t.consume() // '<'
	tok := Token{Type: TokenStartTag, Name: t.consumeTagName()}
	for {
		for isSpace(t.peek()) {
			t.consume()
		}
		switch r := t.peek(); {
		case r == -1:
			t.warn("end of input inside tag <%s>", tok.Name)
			return tok
		case r == '>':
			t.consume()
			return tok
		case r == '/' && t.peekN(1) == '>':
			t.consume()
			t.consume()
			tok.SelfClosing = true
			return tok
		default:
			name, value := t.consumeAttribute()
			if name != "" {
				tok.Attributes = append(tok.Attributes, dom.Attribute{Name: name, Value: value})
			}
		}
	}
}

// consumeAttribute reads one attribute with an optional double-quoted,
// single-quoted or unquoted value.
func (t *Tokenizer) consumeAttribute() (string, string) {
	var name strings.Builder
	for {
		r := t.peek()
		if r == -1 || isSpace(r) || r == '=' || r == '>' || r == '/' {
			break
		}
		name.WriteRune(t.consume())
	}
	for isSpace(t.peek()) {
		t.consume()
	}
	if t.peek() != '=' {
		return strings.ToLower(name.String()), ""
	}
	t.consume()
	for isSpace(t.peek()) {
		t.consume()
	}

	var value strings.Builder
	switch q := t.peek(); q {
	case '"', '\'':
		t.consume()
		for {
			r := t.consume()
			if r == -1 {
				t.warn("end of input inside attribute value")
				break
			}
			if r == q {
				break
			}
			value.WriteRune(r)
		}
	default:
		for {
			r := t.peek()
			if r == -1 || isSpace(r) || r == '>' {
				break
			}
			value.WriteRune(t.consume())
		}
	}
	return strings.ToLower(name.String()), t.decodeEntities(value.String())
}

// consumeDeclaration handles "<!": comments, doctype, or a bogus comment.
func (t *Tokenizer) consumeDeclaration() Token {
	t.consume() // '<'
	t.consume() // '!'
	switch {
	case t.peek() == '-' && t.peekN(1) == '-':
		t.consume()
		t.consume()
		return t.consumeComment()
	case t.matchFold(0, "doctype"):
		for range "doctype" {
			t.consume()
		}
		return t.consumeDoctype()
	default:
		t.warn("bogus markup declaration")
		var b strings.Builder
		for {
			r := t.consume()
			if r == -1 || r == '>' {
				return Token{Type: TokenComment, Data: b.String()}
			}
			b.WriteRune(r)
		}
	}
}

func (t *Tokenizer) consumeComment() Token {
	var b strings.Builder
	for {
		r := t.consume()
		if r == -1 {
			t.warn("end of input inside comment")
			return Token{Type: TokenComment, Data: b.String()}
		}
		if r == '-' && t.peek() == '-' && t.peekN(1) == '>' {
			t.consume()
			t.consume()
			return Token{Type: TokenComment, Data: b.String()}
		}
		b.WriteRune(r)
	}
}

func (t *Tokenizer) consumeDoctype() Token {
	tok := Token{Type: TokenDoctype}
	for isSpace(t.peek()) {
		t.consume()
	}
	var name strings.Builder
	for {
		r := t.peek()
		if r == -1 || isSpace(r) || r == '>' {
			break
		}
		name.WriteRune(t.consume())
	}
	tok.Name = strings.ToLower(name.String())

	for isSpace(t.peek()) {
		t.consume()
	}
	switch {
	case t.peek() == '>':
		t.consume()
		return tok
	case t.peek() == -1:
		t.warn("end of input inside doctype")
		tok.ForceQuirks = true
		return tok
	case t.matchFold(0, "public"):
		for range "public" {
			t.consume()
		}
		tok.PublicID, tok.HasPublicID = t.consumeQuotedID()
		for isSpace(t.peek()) {
			t.consume()
		}
		if t.peek() == '"' || t.peek() == '\'' {
			tok.SystemID, tok.HasSystemID = t.consumeQuotedID()
		}
	case t.matchFold(0, "system"):
		for range "system" {
			t.consume()
		}
		tok.SystemID, tok.HasSystemID = t.consumeQuotedID()
	default:
		t.warn("unexpected content in doctype")
		tok.ForceQuirks = true
	}
	t.skipPast('>')
	return tok
}

func (t *Tokenizer) consumeQuotedID() (string, bool) {
	for isSpace(t.peek()) {
		t.consume()
	}
	q := t.peek()
	if q != '"' && q != '\'' {
		return "", false
	}
	t.consume()
	var b strings.Builder
	for {
		r := t.consume()
		if r == -1 || r == q {
			return b.String(), true
		}
		if r == '>' {
			t.warn("unterminated identifier in doctype")
			t.pos--
			return b.String(), true
		}
		b.WriteRune(r)
	}
}

func (t *Tokenizer) skipPast(end rune) {
	for {
		r := t.consume()
		if r == -1 || r == end {
			return
		}
	}
}
