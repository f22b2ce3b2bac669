package style_test

import (
	"testing"

	"go.uber.org/zap"

	"weft/css"
	"weft/dom"
	"weft/html"
	"weft/style"
)

// styledDoc parses a full document and cascades its embedded stylesheets.
func styledDoc(t *testing.T, input string) *style.StyledNode {
	t.Helper()
	root, sheets, err := html.Parse(input, zap.NewNop())
	if err != nil {
		t.Fatalf("html parse failed: %v", err)
	}
	tree, err := style.BuildTree(root, sheets, zap.NewNop())
	if err != nil {
		t.Fatalf("style build failed: %v", err)
	}
	return tree
}

// findStyled locates the styled node for the first element with the tag.
func findStyled(sn *style.StyledNode, tag string) *style.StyledNode {
	if sn.Node.Type == dom.ElementNode && sn.Node.TagName == tag {
		return sn
	}
	for _, c := range sn.Children {
		if found := findStyled(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func doc(body, sheet string) string {
	return "<!DOCTYPE html><html><head><style>" + sheet + "</style></head><body>" +
		body + "</body></html>"
}

func keyword(t *testing.T, sn *style.StyledNode, prop string) string {
	t.Helper()
	v, ok := sn.Value(prop)
	if !ok {
		t.Fatalf("property %q not resolved", prop)
	}
	return v.Keyword
}

func TestCascade_SpecificityBeatsOrder(t *testing.T) {
	// The class rule outranks the type rule no matter the declaration order.
	for _, sheet := range []string{
		".hot { color: red } p { color: blue }",
		"p { color: blue } .hot { color: red }",
	} {
		tree := styledDoc(t, doc(`<p class="hot">x</p>`, sheet))
		p := findStyled(tree, "p")
		if got := keyword(t, p, "color"); got != "red" {
			t.Errorf("sheet %q: got color %q, want red", sheet, got)
		}
	}
}

func TestCascade_TieBreaksToLaterRule(t *testing.T) {
	sheet := "p { color: blue; margin: 1px } p { color: green }"
	tree := styledDoc(t, doc("<p>x</p>", sheet))
	p := findStyled(tree, "p")
	if got := keyword(t, p, "color"); got != "green" {
		t.Errorf("got color %q, want green", got)
	}
	// The earlier rule still contributes properties the later one left unset.
	if v, _ := p.Value("margin"); v.Value != 1 || v.Unit != "px" {
		t.Errorf("got margin %+v, want 1px", v)
	}
}

func TestCascade_LaterDuplicateInRuleWins(t *testing.T) {
	tree := styledDoc(t, doc("<p>x</p>", "p { color: blue; color: red }"))
	if got := keyword(t, findStyled(tree, "p"), "color"); got != "red" {
		t.Errorf("got color %q, want red", got)
	}
}

func TestCascade_InheritanceAndInitial(t *testing.T) {
	tree := styledDoc(t, doc("<p><em>x</em></p>", "p { color: red; margin: 4px }"))
	em := findStyled(tree, "em")
	// color inherits, margin resets to its initial value.
	if got := keyword(t, em, "color"); got != "red" {
		t.Errorf("got inherited color %q, want red", got)
	}
	if v, _ := em.Value("margin"); v.Raw != "0" {
		t.Errorf("got margin %+v, want initial 0", v)
	}
	if got := em.Display(); got != "inline" {
		t.Errorf("got display %q, want initial inline", got)
	}
}

func TestCascade_BadSelectorFailsBuild(t *testing.T) {
	root, sheets, err := html.Parse(doc("<p>x</p>", "p, { color: red }"), zap.NewNop())
	if err != nil {
		t.Fatalf("html parse failed: %v", err)
	}
	if _, err := style.BuildTree(root, sheets, nil); err == nil {
		t.Fatal("expected selector error to fail the build")
	}
}

func TestMatches_Combinators(t *testing.T) {
	input := doc(`<div id="a"><p>one</p><p class="x y">two</p><span data-k="a-b">three</span></div>`, "")
	tree := styledDoc(t, input)
	span := findStyled(tree, "span").Node
	secondP := findStyled(tree, "div").Node.ChildElements()[1]

	cases := []struct {
		sel   string
		node  *dom.Node
		match bool
	}{
		{"div span", span, true},
		{"body span", span, true},
		{"p span", span, false},
		{"div > span", span, true},
		{"body > span", span, false},
		{"p + span", span, true},
		{"p ~ span", span, true},
		{"span ~ span", span, false},
		{"p + p", secondP, true},
		{"#a > p.x", secondP, true},
		{".y", secondP, true},
		{".z", secondP, false},
		{"*", span, true},
		{"span:hover", span, false},
		{`span[data-k]`, span, true},
		{`span[data-k=a-b]`, span, true},
		{`span[data-k|=a]`, span, true},
		{`span[data-k^=a]`, span, true},
		{`span[data-k$=b]`, span, true},
		{`span[data-k*="-"]`, span, true},
		{`p[class~=y]`, secondP, true},
		{`p[class~=x-y]`, secondP, false},
	}
	for _, c := range cases {
		sels := parseSelector(t, c.sel)
		if got := style.Matches(c.node, sels[0]); got != c.match {
			t.Errorf("%q against <%s>: got %v, want %v", c.sel, c.node.TagName, got, c.match)
		}
	}
}

func parseSelector(t *testing.T, sel string) []css.Selector {
	t.Helper()
	sheet, err := css.NewParser(sel+" { }", zap.NewNop()).ParseStylesheet()
	if err != nil {
		t.Fatalf("%q: %v", sel, err)
	}
	sels, err := css.ParseSelectors(sheet.Rules[0].Prelude)
	if err != nil {
		t.Fatalf("%q: %v", sel, err)
	}
	return sels
}

func TestResolveLength(t *testing.T) {
	vp := style.Viewport{Width: 800, Height: 600}
	cases := []struct {
		value float64
		unit  string
		want  float64
	}{
		{10, "px", 10},
		{2, "em", 32},
		{2, "rem", 32},
		{72, "pt", 96},
		{1, "in", 96},
		{2.54, "cm", 96},
		{25.4, "mm", 96},
		{50, "vw", 400},
		{50, "vh", 300},
		{10, "vmin", 60},
		{10, "vmax", 80},
	}
	for _, c := range cases {
		v := css.Value{Value: c.value, Unit: c.unit}
		if got := style.ResolveLength(v, style.DefaultFontSize, vp); got != c.want {
			t.Errorf("%g%s: got %g, want %g", c.value, c.unit, got, c.want)
		}
	}
}

func TestStyledNode_FontSizeChain(t *testing.T) {
	sheet := "body { font-size: 20px } p { font-size: 150% } em { font-size: 2em; margin: 1em }"
	tree := styledDoc(t, doc("<p><em>x</em></p>", sheet))
	vp := style.Viewport{Width: 800, Height: 600}

	if got := findStyled(tree, "body").FontSize(vp); got != 20 {
		t.Errorf("body font size %g, want 20", got)
	}
	if got := findStyled(tree, "p").FontSize(vp); got != 30 {
		t.Errorf("p font size %g, want 30", got)
	}
	em := findStyled(tree, "em")
	if got := em.FontSize(vp); got != 60 {
		t.Errorf("em font size %g, want 60", got)
	}
	// margin's em reference is the element's own font size.
	if px, ok := em.Length("margin", vp); !ok || px != 60 {
		t.Errorf("em margin length %g %v", px, ok)
	}
}

func TestMatches_BacktracksPastNearestCandidate(t *testing.T) {
	// The innermost span cannot carry the chain (its parent is b), the
	// outer one can.
	tree := styledDoc(t, doc(`<div><span><b><span><em>x</em></span></b></span></div>`, ""))
	em := findStyled(tree, "em").Node
	if !style.Matches(em, parseSelector(t, "div > span em")[0]) {
		t.Error("descendant step did not back off to the outer span")
	}

	// The nearest preceding .b sibling has no .a immediately before it,
	// the earlier .b does.
	tree = styledDoc(t, doc(`<ul><li class="a"></li><li class="b"></li><li class="b"></li><li class="c">x</li></ul>`, ""))
	lis := findStyled(tree, "ul").Node.ChildElements()
	last := lis[len(lis)-1]
	if !style.Matches(last, parseSelector(t, ".a + .b ~ .c")[0]) {
		t.Error("sibling step did not back off to the earlier .b")
	}
}
