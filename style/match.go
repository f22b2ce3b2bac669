package style

import (
	"strings"

	"weft/css"
	"weft/dom"
)

// Matches reports whether the selector matches the element. Complex
// selectors are evaluated right to left from the element; descendant and
// subsequent-sibling steps try every candidate until one carries the rest
// of the chain, since the nearest candidate is not necessarily the right
// one.
func Matches(n *dom.Node, sel css.Selector) bool {
	if n.Type != dom.ElementNode {
		return false
	}
	compounds, combs := flatten(sel)
	return matchChain(n, compounds, combs, len(compounds)-1)
}

// matchChain matches compounds[:i+1] with compounds[i] anchored at n,
// recursing leftward through combs. Depth is bounded by the selector
// length times the tree height.
func matchChain(n *dom.Node, compounds []css.CompoundSelector, combs []css.Combinator, i int) bool {
	if !matchCompound(n, compounds[i]) {
		return false
	}
	if i == 0 {
		return true
	}
	switch combs[i-1] {
	case css.Child:
		p := n.Parent
		return p != nil && p.Type == dom.ElementNode && matchChain(p, compounds, combs, i-1)
	case css.NextSibling:
		s := n.PrevElementSibling()
		return s != nil && matchChain(s, compounds, combs, i-1)
	case css.Descendant:
		for p := n.Parent; p != nil && p.Type == dom.ElementNode; p = p.Parent {
			if matchChain(p, compounds, combs, i-1) {
				return true
			}
		}
		return false
	case css.SubsequentSibling:
		for s := n.PrevElementSibling(); s != nil; s = s.PrevElementSibling() {
			if matchChain(s, compounds, combs, i-1) {
				return true
			}
		}
		return false
	}
	return false
}

// flatten unrolls the right-associative selector chain into compounds and
// the combinators between them, left to right.
func flatten(sel css.Selector) ([]css.CompoundSelector, []css.Combinator) {
	var compounds []css.CompoundSelector
	var combs []css.Combinator
	for {
		switch s := sel.(type) {
		case css.CompoundSelector:
			return append(compounds, s), combs
		case css.ComplexSelector:
			compounds = append(compounds, s.Left)
			combs = append(combs, s.Comb)
			sel = s.Right
		default:
			return compounds, combs
		}
	}
}

func matchCompound(n *dom.Node, c css.CompoundSelector) bool {
	for _, part := range c.Parts {
		if !matchSimple(n, part) {
			return false
		}
	}
	return true
}

// matchSimple tests one simple selector. Namespace prefixes are parsed but
// the document tree carries no namespace information, so only the
// any-namespace and absent forms can match. Pseudo-classes never match:
// their semantics are the declared gap.
func matchSimple(n *dom.Node, s css.SimpleSelector) bool {
	switch s := s.(type) {
	case css.TypeSelector:
		if s.HasNS && s.Namespace != "*" {
			return false
		}
		return n.TagName == s.Name
	case css.UniversalSelector:
		return !s.HasNS || s.Namespace == "*"
	case css.IDSelector:
		return n.ID() == s.Name
	case css.ClassSelector:
		return n.HasClass(s.Name)
	case css.AttributeSelector:
		return matchAttribute(n, s)
	case css.PseudoClassSelector:
		return false
	default:
		return false
	}
}

func matchAttribute(n *dom.Node, s css.AttributeSelector) bool {
	if s.HasNS && s.Namespace != "*" {
		return false
	}
	val, ok := n.Attr(s.Name)
	if !ok {
		return false
	}
	switch s.Op {
	case css.AttrPresent:
		return true
	case css.AttrExact:
		return val == s.Value
	case css.AttrIncludes:
		for _, f := range strings.Fields(val) {
			if f == s.Value {
				return true
			}
		}
		return false
	case css.AttrDashMatch:
		return val == s.Value || strings.HasPrefix(val, s.Value+"-")
	case css.AttrPrefix:
		return s.Value != "" && strings.HasPrefix(val, s.Value)
	case css.AttrSuffix:
		return s.Value != "" && strings.HasSuffix(val, s.Value)
	case css.AttrSubstring:
		return s.Value != "" && strings.Contains(val, s.Value)
	default:
		return false
	}
}
