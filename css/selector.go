package css

import (
	"fmt"
	"strings"
)

// Combinator relates two simple-selector sequences in a complex selector.
type Combinator int

const (
	Descendant        Combinator = iota // whitespace
	Child                               // >
	NextSibling                         // +
	SubsequentSibling                   // ~
)

func (c Combinator) String() string {
	switch c {
	case Child:
		return " > "
	case NextSibling:
		return " + "
	case SubsequentSibling:
		return " ~ "
	default:
		return " "
	}
}

// AttrOp is an attribute selector operator.
type AttrOp int

const (
	AttrPresent   AttrOp = iota // [attr]
	AttrExact                   // =
	AttrIncludes                // ~=
	AttrDashMatch               // |=
	AttrPrefix                  // ^=
	AttrSuffix                  // $=
	AttrSubstring               // *=
)

func (op AttrOp) String() string {
	switch op {
	case AttrExact:
		return "="
	case AttrIncludes:
		return "~="
	case AttrDashMatch:
		return "|="
	case AttrPrefix:
		return "^="
	case AttrSuffix:
		return "$="
	case AttrSubstring:
		return "*="
	default:
		return ""
	}
}

// SimpleSelector is one constituent of a compound selector.
type SimpleSelector interface {
	simpleSelector()
	String() string
}

// TypeSelector matches elements by tag name, optionally namespace qualified.
type TypeSelector struct {
	Namespace string
	HasNS     bool
	Name      string
}

// UniversalSelector matches any element, optionally namespace qualified.
type UniversalSelector struct {
	Namespace string
	HasNS     bool
}

// AttributeSelector matches on attribute presence or value.
type AttributeSelector struct {
	Namespace string
	HasNS     bool
	Name      string
	Op        AttrOp
	Value     string
}

// ClassSelector matches elements carrying the class.
type ClassSelector struct {
	Name string
}

// IDSelector matches the element with the given id attribute.
type IDSelector struct {
	Name string
}

// PseudoClassSelector is parsed and counted for specificity but its matching
// semantics are an unimplemented gap: it never matches.
type PseudoClassSelector struct {
	Name string
}

func (TypeSelector) simpleSelector()        {}
func (UniversalSelector) simpleSelector()   {}
func (AttributeSelector) simpleSelector()   {}
func (ClassSelector) simpleSelector()       {}
func (IDSelector) simpleSelector()          {}
func (PseudoClassSelector) simpleSelector() {}

func nsPrefix(ns string, has bool) string {
	if !has {
		return ""
	}
	return ns + "|"
}

func (s TypeSelector) String() string { return nsPrefix(s.Namespace, s.HasNS) + s.Name }

func (s UniversalSelector) String() string { return nsPrefix(s.Namespace, s.HasNS) + "*" }

func (s AttributeSelector) String() string {
	if s.Op == AttrPresent {
		return "[" + nsPrefix(s.Namespace, s.HasNS) + s.Name + "]"
	}
	return fmt.Sprintf("[%s%s%s%q]", nsPrefix(s.Namespace, s.HasNS), s.Name, s.Op, s.Value)
}

func (s ClassSelector) String() string { return "." + s.Name }

func (s IDSelector) String() string { return "#" + s.Name }

func (s PseudoClassSelector) String() string { return ":" + s.Name }

// Specificity is a selector's priority weight (id, class-like, type counts),
// compared lexicographically.
type Specificity [3]int

// Compare returns -1, 0 or 1 ordering s against other.
func (s Specificity) Compare(other Specificity) int {
	for i := range s {
		switch {
		case s[i] < other[i]:
			return -1
		case s[i] > other[i]:
			return 1
		}
	}
	return 0
}

// Add returns the component-wise sum.
func (s Specificity) Add(other Specificity) Specificity {
	return Specificity{s[0] + other[0], s[1] + other[1], s[2] + other[2]}
}

// Selector is either a compound (sequence of simple selectors) or a complex
// selector. Complex selectors are right-associative: the left operand is
// always a compound, the right operand nests the rest of the chain.
type Selector interface {
	selector()
	Specificity() Specificity
	String() string
}

// CompoundSelector is a simple-selector sequence matched against one element.
type CompoundSelector struct {
	Parts []SimpleSelector
}

func (CompoundSelector) selector() {}

func (s CompoundSelector) Specificity() Specificity {
	var sp Specificity
	for _, part := range s.Parts {
		switch part.(type) {
		case IDSelector:
			sp[0]++
		case ClassSelector, AttributeSelector, PseudoClassSelector:
			sp[1]++
		case TypeSelector:
			sp[2]++
		}
	}
	return sp
}

func (s CompoundSelector) String() string {
	var sb strings.Builder
	for _, part := range s.Parts {
		sb.WriteString(part.String())
	}
	return sb.String()
}

// ComplexSelector relates a compound selector to the rest of the chain
// through a combinator.
type ComplexSelector struct {
	Left  CompoundSelector
	Comb  Combinator
	Right Selector
}

func (ComplexSelector) selector() {}

// Specificity of a complex selector is the component-wise sum of its sides.
func (s ComplexSelector) Specificity() Specificity {
	return s.Left.Specificity().Add(s.Right.Specificity())
}

func (s ComplexSelector) String() string {
	return s.Left.String() + s.Comb.String() + s.Right.String()
}

// SelectorError is a structural failure: the selector grammar is not
// forgiving, so any bad token fails the whole rule's selector parse.
type SelectorError struct {
	Prelude string
	Detail  string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %s", e.Prelude, e.Detail)
}

// selReader walks a prelude's component values as a selector token stream.
type selReader struct {
	prelude []ComponentValue
	pos     int
}

// peekToken returns the next component value without consuming it, or nil at
// the end of the prelude.
func (r *selReader) peekCV() ComponentValue {
	if r.pos >= len(r.prelude) {
		return nil
	}
	return r.prelude[r.pos]
}

func (r *selReader) nextCV() ComponentValue {
	cv := r.peekCV()
	if cv != nil {
		r.pos++
	}
	return cv
}

// peekTok returns the preserved token ahead, if the next component value is
// one; blocks and functions yield a zero EOF token with ok=false.
func (r *selReader) peekTok() (Token, bool) {
	if pt, ok := r.peekCV().(PreservedToken); ok {
		return pt.Token, true
	}
	return Token{}, false
}

func (r *selReader) peekTokAt(offset int) (Token, bool) {
	if r.pos+offset >= len(r.prelude) {
		return Token{}, false
	}
	if pt, ok := r.prelude[r.pos+offset].(PreservedToken); ok {
		return pt.Token, true
	}
	return Token{}, false
}

// skipWhitespace consumes whitespace tokens, reporting whether any were seen.
func (r *selReader) skipWhitespace() bool {
	seen := false
	for {
		tok, ok := r.peekTok()
		if !ok || tok.Type != TokenWhitespace {
			return seen
		}
		r.nextCV()
		seen = true
	}
}

func (r *selReader) atEnd() bool {
	return r.pos >= len(r.prelude)
}

// ParseSelectors parses a rule prelude into its ordered selector list:
// selectors_group = selector (',' selector)*. Any unexpected token aborts
// the entire rule's selector parse.
func ParseSelectors(prelude []ComponentValue) ([]Selector, error) {
	r := &selReader{prelude: prelude}
	fail := func(detail string) ([]Selector, error) {
		return nil, &SelectorError{Prelude: Rule{Prelude: prelude}.PreludeText(), Detail: detail}
	}

	var selectors []Selector
	for {
		r.skipWhitespace()
		sel, err := r.parseSelector()
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
		r.skipWhitespace()
		if r.atEnd() {
			return selectors, nil
		}
		tok, ok := r.peekTok()
		if !ok || tok.Type != TokenComma {
			return fail(fmt.Sprintf("expected ',' between selectors, got %s", r.peekCV()))
		}
		r.nextCV()
	}
}

// parseSelector parses one selector: a compound followed by zero or more
// (combinator, compound) pairs, folded right-associatively.
func (r *selReader) parseSelector() (Selector, error) {
	first, err := r.parseCompound()
	if err != nil {
		return nil, err
	}
	compounds := []CompoundSelector{first}
	var combinators []Combinator

	for {
		comb, ok, err := r.parseCombinator()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		next, err := r.parseCompound()
		if err != nil {
			return nil, err
		}
		combinators = append(combinators, comb)
		compounds = append(compounds, next)
	}

	// Fold right-associatively: the left operand of every complex node is a
	// compound, the rest of the chain nests into the right operand.
	result := Selector(compounds[len(compounds)-1])
	for i := len(combinators) - 1; i >= 0; i-- {
		result = ComplexSelector{Left: compounds[i], Comb: combinators[i], Right: result}
	}
	return result, nil
}

// parseCombinator detects the combinator between two compounds. Whitespace
// with no explicit combinator character is the descendant combinator; no
// whitespace and no symbol ends the chain.
func (r *selReader) parseCombinator() (Combinator, bool, error) {
	sawWS := r.skipWhitespace()
	tok, ok := r.peekTok()
	if ok && tok.Type == TokenDelim {
		var comb Combinator
		switch tok.Delim {
		case '+':
			comb = NextSibling
		case '>':
			comb = Child
		case '~':
			comb = SubsequentSibling
		default:
			ok = false
		}
		if ok {
			r.nextCV()
			r.skipWhitespace()
			return comb, true, nil
		}
	}
	if !sawWS {
		return 0, false, nil
	}
	// Whitespace was consumed: descendant, unless the selector simply ended.
	if r.atEnd() {
		return 0, false, nil
	}
	if tok, ok := r.peekTok(); ok && tok.Type == TokenComma {
		return 0, false, nil
	}
	return Descendant, true, nil
}

// parseCompound parses a simple-selector sequence. A sequence beginning with
// an id/class/attribute qualifier has no type selector; otherwise an optional
// namespace prefix and a type name or '*' come first.
func (r *selReader) parseCompound() (CompoundSelector, error) {
	var compound CompoundSelector
	fail := func(detail string) (CompoundSelector, error) {
		return compound, &SelectorError{Prelude: Rule{Prelude: r.prelude}.PreludeText(), Detail: detail}
	}

	if r.startsQualifier() {
		for r.startsQualifier() {
			q, err := r.parseQualifier()
			if err != nil {
				return compound, err
			}
			compound.Parts = append(compound.Parts, q)
		}
		return compound, nil
	}

	ns, hasNS, err := r.parseNamespacePrefix()
	if err != nil {
		return compound, err
	}

	tok, ok := r.peekTok()
	switch {
	case ok && tok.Type == TokenIdent:
		r.nextCV()
		compound.Parts = append(compound.Parts, TypeSelector{Namespace: ns, HasNS: hasNS, Name: tok.Value})
	case ok && tok.Type == TokenDelim && tok.Delim == '*':
		r.nextCV()
		compound.Parts = append(compound.Parts, UniversalSelector{Namespace: ns, HasNS: hasNS})
	default:
		if cv := r.peekCV(); cv != nil {
			return fail(fmt.Sprintf("unexpected %s at start of simple selector", cv))
		}
		return fail("empty selector")
	}

	for r.startsQualifier() {
		q, err := r.parseQualifier()
		if err != nil {
			return compound, err
		}
		compound.Parts = append(compound.Parts, q)
	}
	return compound, nil
}

// parseNamespacePrefix recognizes "(ident | '*')? '|'" by lookahead for the
// following '|'.
func (r *selReader) parseNamespacePrefix() (string, bool, error) {
	tok, ok := r.peekTok()
	if !ok {
		return "", false, nil
	}
	switch {
	case tok.Type == TokenIdent || (tok.Type == TokenDelim && tok.Delim == '*'):
		next, nok := r.peekTokAt(1)
		if !nok || next.Type != TokenDelim || next.Delim != '|' {
			return "", false, nil
		}
		ns := "*"
		if tok.Type == TokenIdent {
			ns = tok.Value
		}
		r.nextCV()
		r.nextCV()
		return ns, true, nil
	case tok.Type == TokenDelim && tok.Delim == '|':
		// No-namespace prefix.
		r.nextCV()
		return "", true, nil
	default:
		return "", false, nil
	}
}

// startsQualifier reports whether an id, class, attribute or pseudo-class
// qualifier begins at the cursor.
func (r *selReader) startsQualifier() bool {
	if blk, ok := r.peekCV().(SimpleBlock); ok {
		return blk.Open == TokenOpenSquare
	}
	tok, ok := r.peekTok()
	if !ok {
		return false
	}
	switch tok.Type {
	case TokenHash, TokenColon:
		return true
	case TokenDelim:
		return tok.Delim == '.'
	default:
		return false
	}
}

func (r *selReader) parseQualifier() (SimpleSelector, error) {
	fail := func(detail string) (SimpleSelector, error) {
		return nil, &SelectorError{Prelude: Rule{Prelude: r.prelude}.PreludeText(), Detail: detail}
	}

	if blk, ok := r.peekCV().(SimpleBlock); ok {
		r.nextCV()
		return parseAttributeBlock(blk, r.prelude)
	}

	tok, _ := r.peekTok()
	switch {
	case tok.Type == TokenHash:
		if tok.HashType != HashID {
			return fail(fmt.Sprintf("hash %q is not a valid id selector", tok.Value))
		}
		r.nextCV()
		return IDSelector{Name: tok.Value}, nil
	case tok.Type == TokenDelim && tok.Delim == '.':
		r.nextCV()
		name, ok := r.peekTok()
		if !ok || name.Type != TokenIdent {
			return fail("expected identifier after '.'")
		}
		r.nextCV()
		return ClassSelector{Name: name.Value}, nil
	case tok.Type == TokenColon:
		r.nextCV()
		name, ok := r.peekTok()
		if !ok || name.Type != TokenIdent {
			return fail("expected identifier after ':'")
		}
		r.nextCV()
		return PseudoClassSelector{Name: name.Value}, nil
	default:
		return fail(fmt.Sprintf("unexpected token %s in simple selector", tok))
	}
}

// parseAttributeBlock parses the contents of a '[...]' block: an optional
// namespace prefix, the attribute name, then an optional operator and an
// identifier or string value.
func parseAttributeBlock(blk SimpleBlock, prelude []ComponentValue) (SimpleSelector, error) {
	inner := &selReader{prelude: blk.Values}
	fail := func(detail string) (SimpleSelector, error) {
		return nil, &SelectorError{Prelude: Rule{Prelude: prelude}.PreludeText(), Detail: detail}
	}

	inner.skipWhitespace()
	ns, hasNS, err := inner.parseNamespacePrefix()
	if err != nil {
		return nil, err
	}

	tok, ok := inner.peekTok()
	if !ok || tok.Type != TokenIdent {
		return fail("expected attribute name")
	}
	inner.nextCV()
	attr := AttributeSelector{Namespace: ns, HasNS: hasNS, Name: tok.Value}

	inner.skipWhitespace()
	if inner.atEnd() {
		return attr, nil
	}

	tok, ok = inner.peekTok()
	if !ok || tok.Type != TokenDelim {
		return fail(fmt.Sprintf("expected attribute operator, got %s", inner.peekCV()))
	}
	switch tok.Delim {
	case '=':
		attr.Op = AttrExact
		inner.nextCV()
	case '~', '|', '^', '$', '*':
		eq, eok := inner.peekTokAt(1)
		if !eok || eq.Type != TokenDelim || eq.Delim != '=' {
			return fail(fmt.Sprintf("expected '=' after %q in attribute operator", string(tok.Delim)))
		}
		switch tok.Delim {
		case '~':
			attr.Op = AttrIncludes
		case '|':
			attr.Op = AttrDashMatch
		case '^':
			attr.Op = AttrPrefix
		case '$':
			attr.Op = AttrSuffix
		case '*':
			attr.Op = AttrSubstring
		}
		inner.nextCV()
		inner.nextCV()
	default:
		return fail(fmt.Sprintf("unexpected %q in attribute selector", string(tok.Delim)))
	}

	inner.skipWhitespace()
	tok, ok = inner.peekTok()
	if !ok || (tok.Type != TokenIdent && tok.Type != TokenString) {
		return fail("expected identifier or string as attribute value")
	}
	inner.nextCV()
	attr.Value = tok.Value

	inner.skipWhitespace()
	if !inner.atEnd() {
		return fail(fmt.Sprintf("trailing %s in attribute selector", inner.peekCV()))
	}
	return attr, nil
}
