package css

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ComponentValue is a CSS syntactic unit used before properties are
// semantically interpreted: a preserved token, a function call, or a
// bracketed block.
type ComponentValue interface {
	componentValue()
	String() string
}

// PreservedToken wraps a single token as a component value.
type PreservedToken struct {
	Token Token
}

func (PreservedToken) componentValue() {}

func (p PreservedToken) String() string {
	switch p.Token.Type {
	case TokenIdent, TokenString, TokenURL:
		return p.Token.Value
	case TokenDelim:
		return string(p.Token.Delim)
	case TokenWhitespace:
		return " "
	case TokenNumber:
		return strconv.FormatFloat(p.Token.NumValue, 'g', -1, 64)
	case TokenPercentage:
		return strconv.FormatFloat(p.Token.NumValue, 'g', -1, 64) + "%"
	case TokenDimension:
		return strconv.FormatFloat(p.Token.NumValue, 'g', -1, 64) + p.Token.Unit
	case TokenHash:
		return "#" + p.Token.Value
	case TokenColon:
		return ":"
	case TokenSemicolon:
		return ";"
	case TokenComma:
		return ","
	default:
		return p.Token.String()
	}
}

// Function is a named function call with its argument component values.
type Function struct {
	Name   string
	Values []ComponentValue
}

func (Function) componentValue() {}

func (f Function) String() string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	for _, v := range f.Values {
		sb.WriteString(v.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// SimpleBlock is a bracketed run of component values. Open records which
// bracket kind opened the block; its closer must match.
type SimpleBlock struct {
	Open   TokenType
	Values []ComponentValue
}

func (SimpleBlock) componentValue() {}

func (b SimpleBlock) String() string {
	var opener, closer string
	switch b.Open {
	case TokenOpenCurly:
		opener, closer = "{", "}"
	case TokenOpenSquare:
		opener, closer = "[", "]"
	case TokenOpenParen:
		opener, closer = "(", ")"
	}
	var sb strings.Builder
	sb.WriteString(opener)
	for _, v := range b.Values {
		sb.WriteString(v.String())
	}
	sb.WriteString(closer)
	return sb.String()
}

// Declaration is a property name with its value component values.
// Trailing whitespace is trimmed; a trailing "!important" pair is recognized
// and flagged but not honored by the cascade.
type Declaration struct {
	Name      string
	Value     []ComponentValue
	Important bool
}

// RawValue returns the declaration value serialized back to CSS text.
func (d Declaration) RawValue() string {
	var sb strings.Builder
	for _, v := range d.Value {
		sb.WriteString(v.String())
	}
	return strings.TrimSpace(sb.String())
}

// Rule is a qualified rule: a selector prelude and a declaration block.
// At-rules are recognized by the parser but intentionally unimplemented.
type Rule struct {
	Prelude      []ComponentValue
	Declarations []Declaration
}

// PreludeText returns the raw prelude serialized back to CSS text.
func (r Rule) PreludeText() string {
	var sb strings.Builder
	for _, v := range r.Prelude {
		sb.WriteString(v.String())
	}
	return strings.TrimSpace(sb.String())
}

// Stylesheet is an ordered sequence of rules. Order is significant: the
// cascade breaks specificity ties in favor of the later rule.
type Stylesheet struct {
	Rules    []Rule
	Warnings []string
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i := range s.Rules {
		rule := &s.Rules[i]
		n, err := fmt.Fprintf(w, "%s {\n", rule.PreludeText())
		total += int64(n)
		if err != nil {
			return total, err
		}
		for _, d := range rule.Declarations {
			bang := ""
			if d.Important {
				bang = " !important"
			}
			n, err = fmt.Fprintf(w, "  %s: %s%s;\n", d.Name, d.RawValue(), bang)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err = fmt.Fprint(w, "}\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
		if i < len(s.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// Value is a declaration value reduced to the shape property computation
// works with: a numeric component with an optional unit, or a keyword,
// plus the raw CSS text.
type Value struct {
	Raw     string  // original CSS value text
	Value   float64 // numeric component if applicable
	Unit    string  // "em", "px", "%", "pt", ... if applicable
	Keyword string  // "bold", "italic", "auto", ... if applicable
}

// IsNumeric returns true if the value has a numeric component, including
// explicit zeroes like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Keyword != "" || v.Raw == "" {
		return false
	}
	c := v.Raw[0]
	return c == '.' || c == '-' || c == '+' || (c >= '0' && c <= '9')
}

// IsKeyword returns true if the value is a bare keyword.
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// ValueOf reduces a declaration to a Value. Single-token values become
// typed numeric or keyword values; anything longer keeps its raw text as
// the keyword.
func ValueOf(d Declaration) Value {
	val := Value{Raw: d.RawValue()}
	if len(d.Value) == 1 {
		if pt, ok := d.Value[0].(PreservedToken); ok {
			switch pt.Token.Type {
			case TokenDimension:
				val.Value = pt.Token.NumValue
				val.Unit = strings.ToLower(pt.Token.Unit)
				return val
			case TokenPercentage:
				val.Value = pt.Token.NumValue
				val.Unit = "%"
				return val
			case TokenNumber:
				val.Value = pt.Token.NumValue
				return val
			case TokenIdent:
				val.Keyword = strings.ToLower(pt.Token.Value)
				return val
			case TokenString:
				val.Keyword = pt.Token.Value
				return val
			case TokenHash:
				val.Keyword = "#" + pt.Token.Value
				return val
			}
		}
	}
	val.Keyword = val.Raw
	return val
}
