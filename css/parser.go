package css

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrAtRulesUnsupported is returned when a stylesheet contains an at-rule.
// At-rule parsing is a recognized gap: it fails the enclosing parse loudly
// instead of silently dropping the rule.
var ErrAtRulesUnsupported = errors.New("at-rules are not supported")

// ErrCommentMarkersUnsupported is returned for top-level CDO/CDC tokens.
// The tokens are recognized but handling them is intentionally unimplemented.
var ErrCommentMarkersUnsupported = errors.New("CDO/CDC comment markers are not supported")

// SyntaxError is a structural CSS failure: a malformed rule the grammar
// cannot recover from. It carries the offending token.
type SyntaxError struct {
	Token  Token
	Detail string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("css syntax error at %s: %s", e.Token, e.Detail)
}

// Parser consumes the token sequence of a Tokenizer and produces a
// Stylesheet. A single one-token reconsume flag provides pushback; it is
// never nested more than one level.
type Parser struct {
	log       *zap.Logger
	tz        *Tokenizer
	cur       Token
	reconsume bool
	sheet     *Stylesheet
}

// NewParser creates a parser over the given CSS input.
func NewParser(input string, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("css-parser")
	return &Parser{
		log: log,
		tz:  NewTokenizer(input, log),
	}
}

func (p *Parser) next() Token {
	if p.reconsume {
		p.reconsume = false
		return p.cur
	}
	p.cur = p.tz.Next()
	return p.cur
}

// pushback arranges for the current token to be delivered again.
func (p *Parser) pushback() {
	p.reconsume = true
}

func (p *Parser) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.sheet.Warnings = append(p.sheet.Warnings, msg)
	p.log.Debug("CSS parse error", zap.String("detail", msg))
}

// ParseStylesheet consumes a top-level list of rules. Whitespace between
// rules is skipped; CDO/CDC and at-rules fail the parse loudly.
func (p *Parser) ParseStylesheet() (*Stylesheet, error) {
	p.sheet = &Stylesheet{}

	for {
		tok := p.next()
		switch tok.Type {
		case TokenEOF:
			if err := p.tz.Err(); err != nil {
				return nil, err
			}
			p.sheet.Warnings = append(p.sheet.Warnings, p.tz.Warnings...)
			return p.sheet, nil
		case TokenWhitespace:
			// skip
		case TokenCDO, TokenCDC:
			return nil, ErrCommentMarkersUnsupported
		case TokenAtKeyword:
			return nil, fmt.Errorf("%w: @%s", ErrAtRulesUnsupported, tok.Value)
		default:
			p.pushback()
			rule, err := p.consumeQualifiedRule()
			if err != nil {
				return nil, err
			}
			p.sheet.Rules = append(p.sheet.Rules, rule)
		}
	}
}

// consumeQualifiedRule accumulates prelude component values until '{', then
// parses the declaration block until the matching '}'.
func (p *Parser) consumeQualifiedRule() (Rule, error) {
	var rule Rule
	for {
		tok := p.next()
		switch tok.Type {
		case TokenEOF:
			return rule, &SyntaxError{Token: tok, Detail: "end of input in qualified rule prelude"}
		case TokenCloseCurly, TokenCloseSquare, TokenCloseParen:
			return rule, &SyntaxError{Token: tok, Detail: "unmatched closing bracket in rule prelude"}
		case TokenOpenCurly:
			rule.Declarations = p.consumeDeclarations(TokenCloseCurly)
			return rule, nil
		default:
			p.pushback()
			rule.Prelude = append(rule.Prelude, p.consumeComponentValue())
		}
	}
}

// consumeDeclarations parses a declaration list until the given closing
// bracket. A malformed declaration drops only itself, with a logged error.
func (p *Parser) consumeDeclarations(closer TokenType) []Declaration {
	var decls []Declaration
	for {
		tok := p.next()
		switch tok.Type {
		case closer:
			return decls
		case TokenEOF:
			p.warn("end of input in declaration block")
			return decls
		case TokenWhitespace, TokenSemicolon:
			// skip
		case TokenIdent:
			if d, ok := p.consumeDeclaration(tok.Value, closer); ok {
				decls = append(decls, d)
			}
		default:
			p.warn("unexpected token %s in declaration block", tok)
			p.skipDeclaration(closer)
		}
	}
}

// consumeDeclaration parses one declaration after its leading name.
func (p *Parser) consumeDeclaration(name string, closer TokenType) (Declaration, bool) {
	d := Declaration{Name: name}

	tok := p.next()
	for tok.Type == TokenWhitespace {
		tok = p.next()
	}
	if tok.Type != TokenColon {
		p.warn("expected ':' after declaration name %q, got %s", name, tok)
		p.pushback()
		p.skipDeclaration(closer)
		return d, false
	}
	for {
		tok = p.next()
		if tok.Type != TokenWhitespace {
			break
		}
	}

	// Value tokens up to the next top-level ';', the block closer or EOF.
	for {
		switch tok.Type {
		case TokenSemicolon, TokenEOF:
			return p.finishDeclaration(d), true
		case closer:
			p.pushback()
			return p.finishDeclaration(d), true
		default:
			p.pushback()
			d.Value = append(d.Value, p.consumeComponentValue())
		}
		tok = p.next()
	}
}

// finishDeclaration trims trailing whitespace and strips a trailing
// "!important" pair, flagging the declaration. The flag is not honored by
// the cascade yet.
func (p *Parser) finishDeclaration(d Declaration) Declaration {
	trim := func() {
		for len(d.Value) > 0 {
			pt, ok := d.Value[len(d.Value)-1].(PreservedToken)
			if !ok || pt.Token.Type != TokenWhitespace {
				return
			}
			d.Value = d.Value[:len(d.Value)-1]
		}
	}
	trim()

	if len(d.Value) >= 2 {
		last, lok := d.Value[len(d.Value)-1].(PreservedToken)
		if lok && last.Token.Type == TokenIdent && strings.EqualFold(last.Token.Value, "important") {
			i := len(d.Value) - 2
			for i >= 0 {
				pt, ok := d.Value[i].(PreservedToken)
				if ok && pt.Token.Type == TokenWhitespace {
					i--
					continue
				}
				break
			}
			if i >= 0 {
				if pt, ok := d.Value[i].(PreservedToken); ok && pt.Token.Type == TokenDelim && pt.Token.Delim == '!' {
					d.Value = d.Value[:i]
					d.Important = true
					trim()
				}
			}
		}
	}
	return d
}

// skipDeclaration synchronizes to the next ';' or the block closer.
func (p *Parser) skipDeclaration(closer TokenType) {
	for {
		tok := p.next()
		switch tok.Type {
		case TokenSemicolon, TokenEOF:
			return
		case closer:
			p.pushback()
			return
		}
	}
}

// consumeComponentValue builds a component value: an open bracket starts a
// simple block, a function token starts a function, anything else is
// preserved as-is.
func (p *Parser) consumeComponentValue() ComponentValue {
	tok := p.next()
	switch tok.Type {
	case TokenOpenCurly, TokenOpenSquare, TokenOpenParen:
		return p.consumeSimpleBlock(tok.Type)
	case TokenFunction:
		return p.consumeFunction(tok.Value)
	default:
		return PreservedToken{Token: tok}
	}
}

// consumeSimpleBlock walks until the closer matching the opening bracket.
// Premature EOF is logged and the partial block returned.
func (p *Parser) consumeSimpleBlock(open TokenType) ComponentValue {
	block := SimpleBlock{Open: open}
	closer, _ := closerFor(open)
	for {
		tok := p.next()
		switch tok.Type {
		case closer:
			return block
		case TokenEOF:
			p.warn("end of input inside block")
			return block
		default:
			p.pushback()
			block.Values = append(block.Values, p.consumeComponentValue())
		}
	}
}

func (p *Parser) consumeFunction(name string) ComponentValue {
	fn := Function{Name: name}
	for {
		tok := p.next()
		switch tok.Type {
		case TokenCloseParen:
			return fn
		case TokenEOF:
			p.warn("end of input inside function %q", name)
			return fn
		default:
			p.pushback()
			fn.Values = append(fn.Values, p.consumeComponentValue())
		}
	}
}
