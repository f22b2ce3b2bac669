// Package debug renders engine data structures into stable textual forms
// for diagnostics and tests.
package debug

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"weft/dom"
	"weft/style"
)

// TreeWriter builds an indented textual tree representation.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	for i := 0; i < depth; i++ {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	for i := 0; i < depth; i++ {
		tw.w.WriteString("  ")
	}
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}

// DumpDOM renders a document tree, one node per line, indented by depth.
func DumpDOM(root *dom.Node) string {
	tw := NewTreeWriter()
	dumpNode(tw, root, 0)
	return tw.String()
}

func dumpNode(tw *TreeWriter, n *dom.Node, depth int) {
	switch n.Type {
	case dom.DocumentNode:
		tw.Line(depth, "document")
	case dom.DoctypeNode:
		tw.Line(depth, "doctype %s", n.Data)
	case dom.ElementNode:
		var attrs strings.Builder
		for _, a := range n.Attributes {
			fmt.Fprintf(&attrs, " %s=%q", a.Name, a.Value)
		}
		tw.Line(depth, "element <%s%s>", n.TagName, attrs.String())
	case dom.TextNode:
		tw.TextBlock(depth, "text", n.Data)
	case dom.CommentNode:
		tw.TextBlock(depth, "comment", n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dumpNode(tw, c, depth+1)
	}
}

// DumpStyledTree renders a styled tree with each element's declared
// properties. Only values differing from the property's initial value are
// listed, keeping the dump readable.
func DumpStyledTree(root *style.StyledNode) string {
	tw := NewTreeWriter()
	dumpStyled(tw, root, 0)
	return tw.String()
}

func dumpStyled(tw *TreeWriter, sn *style.StyledNode, depth int) {
	switch sn.Node.Type {
	case dom.ElementNode:
		tw.Line(depth, "element <%s>", sn.Node.TagName)
		for _, prop := range sortedProperties(sn) {
			tw.Line(depth+1, "%s: %s", prop, sn.Values[prop].Raw)
		}
	case dom.TextNode:
		tw.TextBlock(depth, "text", sn.Node.Data)
	default:
		dumpNode(tw, &dom.Node{Type: sn.Node.Type, Data: sn.Node.Data}, depth)
	}
	for _, c := range sn.Children {
		dumpStyled(tw, c, depth+1)
	}
}

func sortedProperties(sn *style.StyledNode) []string {
	var props []string
	for prop, v := range sn.Values {
		if def, ok := style.PropertyDefaults[prop]; ok && v.Raw == def.InitialValue {
			continue
		}
		props = append(props, prop)
	}
	sort.Strings(props)
	return props
}

// DOMToXML serializes a document tree into indented XML for external
// inspection. Comments and the doctype are preserved as directives.
func DOMToXML(root *dom.Node) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		xmlNode(&doc.Element, c)
	}
	doc.Indent(2)
	return doc.WriteToString()
}

func xmlNode(parent *etree.Element, n *dom.Node) {
	switch n.Type {
	case dom.DoctypeNode:
		parent.CreateDirective("DOCTYPE " + n.Data)
	case dom.CommentNode:
		parent.CreateComment(n.Data)
	case dom.TextNode:
		parent.CreateText(n.Data)
	case dom.ElementNode:
		el := parent.CreateElement(n.TagName)
		for _, a := range n.Attributes {
			el.CreateAttr(a.Name, a.Value)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			xmlNode(el, c)
		}
	}
}
