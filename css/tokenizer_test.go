package css_test

import (
	"testing"

	"go.uber.org/zap"

	"weft/css"
)

// collect drains the tokenizer, dropping whitespace when trim is set.
func collect(t *testing.T, input string, trim bool) []css.Token {
	t.Helper()
	tz := css.NewTokenizer(input, zap.NewNop())
	var toks []css.Token
	for {
		tok := tz.Next()
		if tok.Type == css.TokenEOF {
			return toks
		}
		if trim && tok.Type == css.TokenWhitespace {
			continue
		}
		toks = append(toks, tok)
	}
}

func TestTokenizer_Numbers(t *testing.T) {
	toks := collect(t, "12345.67890", false)
	if len(toks) != 1 {
		t.Fatalf("expected 1 token, got %d: %v", len(toks), toks)
	}
	if toks[0].Type != css.TokenNumber || toks[0].NumValue != 12345.6789 || toks[0].NumType != css.NumberNumber {
		t.Errorf("unexpected token: %s", toks[0])
	}

	toks = collect(t, "12345 67890", false)
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(toks), toks)
	}
	if toks[0].Type != css.TokenNumber || toks[0].NumValue != 12345 || toks[0].NumType != css.NumberInteger {
		t.Errorf("unexpected first token: %s", toks[0])
	}
	if toks[1].Type != css.TokenWhitespace {
		t.Errorf("expected whitespace, got %s", toks[1])
	}
	if toks[2].Type != css.TokenNumber || toks[2].NumValue != 67890 {
		t.Errorf("unexpected last token: %s", toks[2])
	}
}

func TestTokenizer_NumericForms(t *testing.T) {
	cases := []struct {
		input string
		typ   css.TokenType
		num   float64
		unit  string
	}{
		{"42", css.TokenNumber, 42, ""},
		{"-7", css.TokenNumber, -7, ""},
		{"+.5", css.TokenNumber, 0.5, ""},
		{"3e2", css.TokenNumber, 300, ""},
		{"1.5E-1", css.TokenNumber, 0.15, ""},
		{"12px", css.TokenDimension, 12, "px"},
		{"1.2em", css.TokenDimension, 1.2, "em"},
		{"50%", css.TokenPercentage, 50, ""},
	}
	for _, c := range cases {
		toks := collect(t, c.input, false)
		if len(toks) != 1 {
			t.Errorf("%q: expected 1 token, got %v", c.input, toks)
			continue
		}
		tok := toks[0]
		if tok.Type != c.typ || tok.NumValue != c.num || tok.Unit != c.unit {
			t.Errorf("%q: unexpected token %s", c.input, tok)
		}
	}
}

func TestTokenizer_HashTypes(t *testing.T) {
	toks := collect(t, "#main #12345", true)
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %v", toks)
	}
	if toks[0].Type != css.TokenHash || toks[0].HashType != css.HashID || toks[0].Value != "main" {
		t.Errorf("unexpected id hash: %s", toks[0])
	}
	if toks[1].Type != css.TokenHash || toks[1].HashType != css.HashUnrestricted || toks[1].Value != "12345" {
		t.Errorf("expected unrestricted hash, got %s", toks[1])
	}
}

func TestTokenizer_Strings(t *testing.T) {
	toks := collect(t, `"hello" 'world'`, true)
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %v", toks)
	}
	if toks[0].Type != css.TokenString || toks[0].Value != "hello" {
		t.Errorf("unexpected token: %s", toks[0])
	}
	if toks[1].Type != css.TokenString || toks[1].Value != "world" {
		t.Errorf("unexpected token: %s", toks[1])
	}

	// An escaped newline continues the string without a line break.
	toks = collect(t, "\"split\\\nline\"", false)
	if len(toks) != 1 || toks[0].Type != css.TokenString || toks[0].Value != "splitline" {
		t.Errorf("expected continued string, got %v", toks)
	}

	// A raw newline aborts the string.
	toks = collect(t, "\"broken\nrest", true)
	if len(toks) == 0 || toks[0].Type != css.TokenBadString {
		t.Errorf("expected bad-string, got %v", toks)
	}
}

func TestTokenizer_URL(t *testing.T) {
	toks := collect(t, "url(image.png)", false)
	if len(toks) != 1 || toks[0].Type != css.TokenURL || toks[0].Value != "image.png" {
		t.Fatalf("expected url token, got %v", toks)
	}

	// Quoted argument makes url() an ordinary function token.
	toks = collect(t, `url("image.png")`, false)
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %v", toks)
	}
	if toks[0].Type != css.TokenFunction || toks[0].Value != "url" {
		t.Errorf("expected function token, got %s", toks[0])
	}
	if toks[1].Type != css.TokenString || toks[1].Value != "image.png" {
		t.Errorf("expected string argument, got %s", toks[1])
	}
	if toks[2].Type != css.TokenCloseParen {
		t.Errorf("expected close paren, got %s", toks[2])
	}
}

func TestTokenizer_CommentMarkers(t *testing.T) {
	toks := collect(t, "<!-- -->", true)
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %v", toks)
	}
	if toks[0].Type != css.TokenCDO || toks[1].Type != css.TokenCDC {
		t.Errorf("expected CDO then CDC, got %s %s", toks[0], toks[1])
	}
}

func TestTokenizer_IdentsAndAtKeywords(t *testing.T) {
	toks := collect(t, "-webkit-thing @media --custom", true)
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %v", toks)
	}
	if toks[0].Type != css.TokenIdent || toks[0].Value != "-webkit-thing" {
		t.Errorf("unexpected token: %s", toks[0])
	}
	if toks[1].Type != css.TokenAtKeyword || toks[1].Value != "media" {
		t.Errorf("unexpected token: %s", toks[1])
	}
	if toks[2].Type != css.TokenIdent || toks[2].Value != "--custom" {
		t.Errorf("unexpected token: %s", toks[2])
	}
}

func TestTokenizer_CommentsSkipped(t *testing.T) {
	toks := collect(t, "a/* comment */b", false)
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %v", toks)
	}
	if toks[0].Value != "a" || toks[1].Value != "b" {
		t.Errorf("unexpected tokens: %v", toks)
	}

	tz := css.NewTokenizer("a /* never closed", zap.NewNop())
	for tz.Next().Type != css.TokenEOF {
	}
	if tz.Err() == nil {
		t.Error("expected error for unterminated comment")
	}
}

func TestTokenizer_EOFIdempotent(t *testing.T) {
	tz := css.NewTokenizer("a", zap.NewNop())
	if tok := tz.Next(); tok.Type != css.TokenIdent {
		t.Fatalf("unexpected token: %s", tok)
	}
	for i := 0; i < 3; i++ {
		if tok := tz.Next(); tok.Type != css.TokenEOF {
			t.Fatalf("call %d past end: expected EOF, got %s", i, tok)
		}
	}
}

func TestTokenizer_NewlineForms(t *testing.T) {
	// CR, CRLF and FF fold into LF, so they coalesce as whitespace instead
	// of surfacing as delim tokens.
	toks := collect(t, "a\r\n\fb", false)
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(toks), toks)
	}
	if toks[0].Type != css.TokenIdent || toks[0].Value != "a" {
		t.Errorf("unexpected first token: %s", toks[0])
	}
	if toks[1].Type != css.TokenWhitespace {
		t.Errorf("expected whitespace, got %s", toks[1])
	}
	if toks[2].Type != css.TokenIdent || toks[2].Value != "b" {
		t.Errorf("unexpected last token: %s", toks[2])
	}
}
