// Package style matches stylesheet rules against a document tree and runs
// the cascade, producing a styled tree with a resolved property map per
// element.
package style

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"weft/css"
	"weft/dom"
)

// PropertyDefault is a property's initial value and inheritance flag.
type PropertyDefault struct {
	InitialValue string
	Inherited    bool
}

// PropertyDefaults is the supported property set with its CSS-defined
// initial values.
var PropertyDefaults = map[string]PropertyDefault{
	// Box model
	"display":    {InitialValue: "inline"},
	"position":   {InitialValue: "static"},
	"float":      {InitialValue: "none"},
	"clear":      {InitialValue: "none"},
	"overflow":   {InitialValue: "visible"},
	"visibility": {InitialValue: "visible", Inherited: true},
	"z-index":    {InitialValue: "auto"},
	"box-sizing": {InitialValue: "content-box"},

	// Dimensions
	"width":      {InitialValue: "auto"},
	"height":     {InitialValue: "auto"},
	"min-width":  {InitialValue: "0"},
	"min-height": {InitialValue: "0"},
	"max-width":  {InitialValue: "none"},
	"max-height": {InitialValue: "none"},

	// Margins and padding
	"margin":         {InitialValue: "0"},
	"margin-top":     {InitialValue: "0"},
	"margin-right":   {InitialValue: "0"},
	"margin-bottom":  {InitialValue: "0"},
	"margin-left":    {InitialValue: "0"},
	"padding":        {InitialValue: "0"},
	"padding-top":    {InitialValue: "0"},
	"padding-right":  {InitialValue: "0"},
	"padding-bottom": {InitialValue: "0"},
	"padding-left":   {InitialValue: "0"},

	// Borders
	"border-width": {InitialValue: "medium"},
	"border-style": {InitialValue: "none"},
	"border-color": {InitialValue: "currentcolor"},

	// Positioning offsets
	"top":    {InitialValue: "auto"},
	"right":  {InitialValue: "auto"},
	"bottom": {InitialValue: "auto"},
	"left":   {InitialValue: "auto"},

	// Text
	"color":           {InitialValue: "black", Inherited: true},
	"font-family":     {InitialValue: "serif", Inherited: true},
	"font-size":       {InitialValue: "medium", Inherited: true},
	"font-style":      {InitialValue: "normal", Inherited: true},
	"font-weight":     {InitialValue: "normal", Inherited: true},
	"line-height":     {InitialValue: "normal", Inherited: true},
	"letter-spacing":  {InitialValue: "normal", Inherited: true},
	"word-spacing":    {InitialValue: "normal", Inherited: true},
	"text-align":      {InitialValue: "start", Inherited: true},
	"text-decoration": {InitialValue: "none"},
	"text-transform":  {InitialValue: "none", Inherited: true},
	"text-indent":     {InitialValue: "0", Inherited: true},
	"white-space":     {InitialValue: "normal", Inherited: true},
	"vertical-align":  {InitialValue: "baseline"},
	"direction":       {InitialValue: "ltr", Inherited: true},

	// Background
	"background-color": {InitialValue: "transparent"},
	"background-image": {InitialValue: "none"},

	// Lists
	"list-style-type":     {InitialValue: "disc", Inherited: true},
	"list-style-position": {InitialValue: "outside", Inherited: true},
}

// StyledNode pairs a document node with its resolved property values.
// Values is nil for non-element nodes.
type StyledNode struct {
	Node     *dom.Node
	Parent   *StyledNode
	Values   map[string]css.Value
	Children []*StyledNode
}

// Value returns the resolved value of a property.
func (sn *StyledNode) Value(name string) (css.Value, bool) {
	v, ok := sn.Values[name]
	return v, ok
}

// Display returns the node's display keyword.
func (sn *StyledNode) Display() string {
	if v, ok := sn.Values["display"]; ok && v.Keyword != "" {
		return v.Keyword
	}
	return "inline"
}

// compiledRule is a rule with its selectors parsed and its global source
// position recorded for cascade tie-breaking.
type compiledRule struct {
	selectors    []css.Selector
	declarations []css.Declaration
	order        int
}

// match records one rule that applied to an element.
type match struct {
	rule        *compiledRule
	specificity css.Specificity
}

type builder struct {
	log   *zap.Logger
	rules []compiledRule
}

// BuildTree matches the stylesheets against the document and resolves the
// cascade in a single top-down pass. A selector that fails to parse fails
// the whole build.
func BuildTree(root *dom.Node, sheets []*css.Stylesheet, log *zap.Logger) (*StyledNode, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{log: log.Named("cascade")}

	order := 0
	for _, sheet := range sheets {
		for i := range sheet.Rules {
			rule := &sheet.Rules[i]
			sels, err := css.ParseSelectors(rule.Prelude)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", order, err)
			}
			b.rules = append(b.rules, compiledRule{
				selectors:    sels,
				declarations: rule.Declarations,
				order:        order,
			})
			order++
		}
	}
	b.log.Debug("compiled stylesheet rules", zap.Int("rules", len(b.rules)))

	return b.buildNode(root, nil), nil
}

func (b *builder) buildNode(n *dom.Node, parent *StyledNode) *StyledNode {
	sn := &StyledNode{Node: n, Parent: parent}
	if n.Type == dom.ElementNode {
		sn.Values = b.cascade(n, parent)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sn.Children = append(sn.Children, b.buildNode(c, sn))
	}
	return sn
}

// cascade resolves the element's property map: matching rules sorted by
// descending (specificity, source order) with the first writer winning,
// then inheritance and initial values for everything undeclared.
func (b *builder) cascade(n *dom.Node, parent *StyledNode) map[string]css.Value {
	var matches []match
	for i := range b.rules {
		rule := &b.rules[i]
		best, found := css.Specificity{}, false
		for _, sel := range rule.selectors {
			if !Matches(n, sel) {
				continue
			}
			if sp := sel.Specificity(); !found || best.Compare(sp) < 0 {
				best, found = sp, true
			}
		}
		if found {
			matches = append(matches, match{rule: rule, specificity: best})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if c := matches[i].specificity.Compare(matches[j].specificity); c != 0 {
			return c > 0
		}
		return matches[i].rule.order > matches[j].rule.order
	})

	values := make(map[string]css.Value, len(PropertyDefaults))
	for _, m := range matches {
		decls := m.rule.declarations
		// Within one rule the later duplicate wins, so walk in reverse.
		for i := len(decls) - 1; i >= 0; i-- {
			d := decls[i]
			if _, done := values[d.Name]; done {
				continue
			}
			values[d.Name] = css.ValueOf(d)
		}
	}

	for prop, def := range PropertyDefaults {
		if _, done := values[prop]; done {
			continue
		}
		if def.Inherited && parent != nil && parent.Values != nil {
			if v, ok := parent.Values[prop]; ok {
				values[prop] = v
				continue
			}
		}
		values[prop] = css.Value{Raw: def.InitialValue, Keyword: def.InitialValue}
	}
	return values
}
