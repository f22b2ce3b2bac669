package css_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"weft/css"
)

func parse(t *testing.T, input string) *css.Stylesheet {
	t.Helper()
	sheet, err := css.NewParser(input, zap.NewNop()).ParseStylesheet()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return sheet
}

func TestParser_SimpleRule(t *testing.T) {
	sheet := parse(t, "h1 { margin: auto; font-size: 12px }")
	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	rule := sheet.Rules[0]
	if got := rule.PreludeText(); got != "h1" {
		t.Errorf("unexpected prelude %q", got)
	}
	if len(rule.Declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(rule.Declarations))
	}
	if rule.Declarations[0].Name != "margin" || rule.Declarations[0].RawValue() != "auto" {
		t.Errorf("unexpected declaration: %+v", rule.Declarations[0])
	}
	v := css.ValueOf(rule.Declarations[1])
	if v.Value != 12 || v.Unit != "px" {
		t.Errorf("unexpected value: %+v", v)
	}
}

func TestParser_MultipleRulesKeepOrder(t *testing.T) {
	sheet := parse(t, "a { color: red }\nb { color: blue }\na { color: green }")
	if len(sheet.Rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(sheet.Rules))
	}
	want := []string{"a", "b", "a"}
	for i, rule := range sheet.Rules {
		if got := rule.PreludeText(); got != want[i] {
			t.Errorf("rule %d: expected prelude %q, got %q", i, want[i], got)
		}
	}
}

func TestParser_ImportantFlagged(t *testing.T) {
	sheet := parse(t, "p { color: red !important; margin: 0 }")
	decls := sheet.Rules[0].Declarations
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if !decls[0].Important || decls[0].RawValue() != "red" {
		t.Errorf("expected flagged important declaration, got %+v", decls[0])
	}
	if decls[1].Important {
		t.Errorf("margin should not be important: %+v", decls[1])
	}
}

func TestParser_MalformedDeclarationDropsOnlyItself(t *testing.T) {
	sheet := parse(t, "p { color red; margin: 0; 42: nope; padding: 1em }")
	decls := sheet.Rules[0].Declarations
	if len(decls) != 2 {
		t.Fatalf("expected 2 surviving declarations, got %d: %+v", len(decls), decls)
	}
	if decls[0].Name != "margin" || decls[1].Name != "padding" {
		t.Errorf("unexpected declarations: %+v", decls)
	}
	if len(sheet.Warnings) < 2 {
		t.Errorf("expected warnings for the dropped declarations, got %v", sheet.Warnings)
	}
}

func TestParser_NestedBlocksInValue(t *testing.T) {
	sheet := parse(t, "p { font: calc(1em + 2px) }")
	decls := sheet.Rules[0].Declarations
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	if len(decls[0].Value) != 1 {
		t.Fatalf("expected a single component value, got %+v", decls[0].Value)
	}
	fn, ok := decls[0].Value[0].(css.Function)
	if !ok {
		t.Fatalf("expected function component value, got %T", decls[0].Value[0])
	}
	if fn.Name != "calc" {
		t.Errorf("unexpected function name %q", fn.Name)
	}
}

func TestParser_AtRuleFailsLoudly(t *testing.T) {
	_, err := css.NewParser("@media screen { p { color: red } }", nil).ParseStylesheet()
	if !errors.Is(err, css.ErrAtRulesUnsupported) {
		t.Fatalf("expected at-rule error, got %v", err)
	}
}

func TestParser_CommentMarkersFailLoudly(t *testing.T) {
	_, err := css.NewParser("<!-- p { color: red } -->", nil).ParseStylesheet()
	if !errors.Is(err, css.ErrCommentMarkersUnsupported) {
		t.Fatalf("expected CDO/CDC error, got %v", err)
	}
}

func TestParser_UnmatchedCloserIsSyntaxError(t *testing.T) {
	_, err := css.NewParser("} p { color: red }", nil).ParseStylesheet()
	var serr *css.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestParser_EOFInPrelude(t *testing.T) {
	_, err := css.NewParser("p.cls ", nil).ParseStylesheet()
	var serr *css.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected syntax error for rule without block, got %v", err)
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	sheet := parse(t, "h1,h2{margin:0;padding:1em !important}")
	var sb strings.Builder
	if _, err := sheet.WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"h1,h2 {", "margin: 0;", "padding: 1em !important;"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParser_CRLFInput(t *testing.T) {
	sheet := parse(t, "p {\r\n\tcolor: red;\r\n}\r\n")
	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	if len(sheet.Rules[0].Declarations) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(sheet.Rules[0].Declarations))
	}
	if len(sheet.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sheet.Warnings)
	}
}
