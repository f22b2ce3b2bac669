package css

import (
	"fmt"
	"strconv"
)

// TokenType identifies a CSS token produced by the Tokenizer.
// The set follows CSS Syntax Module Level 3 §4.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenFunction
	TokenAtKeyword
	TokenHash
	TokenString
	TokenBadString
	TokenURL
	TokenBadURL
	TokenDelim
	TokenNumber
	TokenPercentage
	TokenDimension
	TokenWhitespace
	TokenCDO // <!--
	TokenCDC // -->
	TokenColon
	TokenSemicolon
	TokenComma
	TokenOpenSquare  // [
	TokenCloseSquare // ]
	TokenOpenParen   // (
	TokenCloseParen  // )
	TokenOpenCurly   // {
	TokenCloseCurly  // }
)

// HashType distinguishes hash tokens that would be valid identifiers
// from unrestricted ones (e.g. "#12345").
type HashType int

const (
	HashUnrestricted HashType = iota
	HashID
)

// NumberType records which optional parts of the number grammar were present.
type NumberType int

const (
	NumberInteger NumberType = iota
	NumberNumber
)

// Token is a single CSS token. Value carries the textual payload for
// ident-like, string and url tokens; numeric tokens use NumValue/NumType,
// dimensions additionally carry Unit.
type Token struct {
	Type     TokenType
	Value    string
	NumValue float64
	NumType  NumberType
	Unit     string
	HashType HashType
	Delim    rune
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "<eof>"
	case TokenIdent:
		return fmt.Sprintf("<ident %q>", t.Value)
	case TokenFunction:
		return fmt.Sprintf("<function %q>", t.Value)
	case TokenAtKeyword:
		return fmt.Sprintf("<at-keyword %q>", t.Value)
	case TokenHash:
		if t.HashType == HashID {
			return fmt.Sprintf("<hash id %q>", t.Value)
		}
		return fmt.Sprintf("<hash %q>", t.Value)
	case TokenString:
		return fmt.Sprintf("<string %q>", t.Value)
	case TokenBadString:
		return "<bad-string>"
	case TokenURL:
		return fmt.Sprintf("<url %q>", t.Value)
	case TokenBadURL:
		return "<bad-url>"
	case TokenDelim:
		return fmt.Sprintf("<delim %q>", string(t.Delim))
	case TokenNumber:
		if t.NumType == NumberInteger {
			return fmt.Sprintf("<number int %s>", strconv.FormatFloat(t.NumValue, 'g', -1, 64))
		}
		return fmt.Sprintf("<number %s>", strconv.FormatFloat(t.NumValue, 'g', -1, 64))
	case TokenPercentage:
		return fmt.Sprintf("<percentage %s%%>", strconv.FormatFloat(t.NumValue, 'g', -1, 64))
	case TokenDimension:
		return fmt.Sprintf("<dimension %s%s>", strconv.FormatFloat(t.NumValue, 'g', -1, 64), t.Unit)
	case TokenWhitespace:
		return "<whitespace>"
	case TokenCDO:
		return "<cdo>"
	case TokenCDC:
		return "<cdc>"
	case TokenColon:
		return "<colon>"
	case TokenSemicolon:
		return "<semicolon>"
	case TokenComma:
		return "<comma>"
	case TokenOpenSquare:
		return "<[>"
	case TokenCloseSquare:
		return "<]>"
	case TokenOpenParen:
		return "<(>"
	case TokenCloseParen:
		return "<)>"
	case TokenOpenCurly:
		return "<{>"
	case TokenCloseCurly:
		return "<}>"
	default:
		return fmt.Sprintf("<unknown %d>", t.Type)
	}
}

// closerFor maps an opening bracket token type to its matching closer.
func closerFor(open TokenType) (TokenType, bool) {
	switch open {
	case TokenOpenCurly:
		return TokenCloseCurly, true
	case TokenOpenSquare:
		return TokenCloseSquare, true
	case TokenOpenParen:
		return TokenCloseParen, true
	default:
		return TokenEOF, false
	}
}
