package html

import (
	"fmt"
	"strings"

	"weft/dom"
)

// TokenType identifies an HTML token produced by the Tokenizer.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenCharacter
	TokenComment
	TokenDoctype
	TokenStartTag
	TokenEndTag
)

// Token is a single HTML token. Data carries character and comment payloads;
// Name is the tag or doctype name, always lower-cased.
type Token struct {
	Type        TokenType
	Data        string
	Name        string
	Attributes  []dom.Attribute
	SelfClosing bool

	PublicID    string
	HasPublicID bool
	SystemID    string
	HasSystemID bool
	ForceQuirks bool
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "<eof>"
	case TokenCharacter:
		return fmt.Sprintf("<chars %q>", t.Data)
	case TokenComment:
		return fmt.Sprintf("<comment %q>", t.Data)
	case TokenDoctype:
		return fmt.Sprintf("<doctype %q>", t.Name)
	case TokenStartTag:
		var sb strings.Builder
		sb.WriteByte('<')
		sb.WriteString(t.Name)
		for _, a := range t.Attributes {
			fmt.Fprintf(&sb, " %s=%q", a.Name, a.Value)
		}
		if t.SelfClosing {
			sb.WriteByte('/')
		}
		sb.WriteByte('>')
		return sb.String()
	case TokenEndTag:
		return "</" + t.Name + ">"
	default:
		return fmt.Sprintf("<unknown %d>", t.Type)
	}
}
