package dom_test

import (
	"testing"

	"weft/dom"
)

func buildSample() *dom.Node {
	doc := dom.NewDocument()
	html := dom.NewElement("html", []dom.Attribute{{Name: "class", Value: "a b"}})
	doc.AppendChild(html)
	body := dom.NewElement("body", nil)
	html.AppendChild(body)
	body.AppendChild(dom.NewText("Hello "))
	em := dom.NewElement("em", []dom.Attribute{{Name: "id", Value: "x"}})
	body.AppendChild(em)
	em.AppendChild(dom.NewText("world"))
	return doc
}

func TestNode_AppendChildLinks(t *testing.T) {
	doc := buildSample()
	html := doc.FirstChild
	if html == nil || html.TagName != "html" {
		t.Fatalf("unexpected first child: %+v", html)
	}
	body := html.FirstChild
	if body.Parent != html {
		t.Error("parent link broken")
	}
	if body.FirstChild.NextSibling == nil || body.FirstChild.NextSibling.TagName != "em" {
		t.Error("sibling links broken")
	}
	if body.LastChild.PrevSibling != body.FirstChild {
		t.Error("prev sibling link broken")
	}
}

func TestNode_AttrHelpers(t *testing.T) {
	doc := buildSample()
	html := doc.FirstChild
	if !html.HasClass("b") || html.HasClass("c") {
		t.Errorf("unexpected classes: %v", html.Classes())
	}
	em := doc.Find("em")
	if em == nil {
		t.Fatal("em not found")
	}
	if em.ID() != "x" {
		t.Errorf("unexpected id %q", em.ID())
	}
	if _, ok := em.Attr("href"); ok {
		t.Error("unexpected attribute presence")
	}
}

func TestNode_TextAndWalk(t *testing.T) {
	doc := buildSample()
	if got := doc.Text(); got != "Hello world" {
		t.Errorf("unexpected text %q", got)
	}
	var visited []string
	doc.Walk(func(n *dom.Node) bool {
		if n.Type == dom.ElementNode {
			visited = append(visited, n.TagName)
		}
		return true
	})
	want := []string{"html", "body", "em"}
	if len(visited) != len(want) {
		t.Fatalf("expected %v, got %v", want, visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("walk order %v, want %v", visited, want)
			break
		}
	}
}

func TestNode_PrevElementSibling(t *testing.T) {
	body := dom.NewElement("body", nil)
	p1 := dom.NewElement("p", nil)
	body.AppendChild(p1)
	body.AppendChild(dom.NewText("\n"))
	p2 := dom.NewElement("p", nil)
	body.AppendChild(p2)
	if got := p2.PrevElementSibling(); got != p1 {
		t.Errorf("expected p1, got %+v", got)
	}
	if got := p1.PrevElementSibling(); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
