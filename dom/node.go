// Package dom holds the document tree produced by HTML parsing: a plain
// pointer-linked node structure the style engine decorates but never owns.
package dom

import "strings"

// NodeType discriminates the node kinds the tree builder produces.
type NodeType int

const (
	DocumentNode NodeType = iota
	DoctypeNode
	ElementNode
	TextNode
	CommentNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case DoctypeNode:
		return "doctype"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

// Attribute is a single name/value pair on an element. Order of appearance
// is preserved; duplicate names keep the first occurrence.
type Attribute struct {
	Name  string
	Value string
}

// Node is one node of the document tree. Data carries text for text and
// comment nodes and the doctype name for doctype nodes; TagName is set for
// elements only.
type Node struct {
	Type       NodeType
	Data       string
	TagName    string
	Attributes []Attribute

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

// NewDocument creates an empty document node.
func NewDocument() *Node {
	return &Node{Type: DocumentNode}
}

// NewElement creates a detached element node.
func NewElement(tag string, attrs []Attribute) *Node {
	return &Node{Type: ElementNode, TagName: tag, Attributes: attrs}
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// AppendChild attaches c as n's last child. c must be detached.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil || c.PrevSibling != nil || c.NextSibling != nil {
		panic("dom: AppendChild called with attached child")
	}
	c.Parent = n
	if n.LastChild != nil {
		n.LastChild.NextSibling = c
		c.PrevSibling = n.LastChild
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ID returns the element's id attribute, or "".
func (n *Node) ID() string {
	v, _ := n.Attr("id")
	return v
}

// Classes returns the whitespace-separated class list of the element.
func (n *Node) Classes() []string {
	v, ok := n.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// HasClass reports whether the element's class list contains name.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// PrevElementSibling returns the nearest preceding sibling that is an
// element, or nil.
func (n *Node) PrevElementSibling() *Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == ElementNode {
			return s
		}
	}
	return nil
}

// ChildElements returns the element children in document order.
func (n *Node) ChildElements() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants in document order. Returning false from
// fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Text returns the concatenated text content of n and its descendants.
func (n *Node) Text() string {
	var sb strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Type == TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Find returns the first descendant element with the given tag name, or nil.
func (n *Node) Find(tag string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c != n && c.Type == ElementNode && c.TagName == tag {
			found = c
			return false
		}
		return true
	})
	return found
}
