package debug_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"weft/html"
	"weft/style"
	"weft/utils/debug"
)

const sampleDoc = "<!DOCTYPE html><html><head><style>p { color: red }</style></head>" +
	"<body><p class=\"x\">Hello</p><!-- note --></body></html>"

func TestDumpDOM(t *testing.T) {
	root, _, err := html.Parse(sampleDoc, zap.NewNop())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	out := debug.DumpDOM(root)
	for _, want := range []string{
		"document",
		"doctype html",
		`element <p class="x">`,
		`text: "Hello"`,
		`comment: " note "`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
	// Depth shows as two-space indentation per level.
	if !strings.Contains(out, "  element <html>") {
		t.Errorf("html element should be indented one level:\n%s", out)
	}
}

func TestDumpStyledTree(t *testing.T) {
	root, sheets, err := html.Parse(sampleDoc, zap.NewNop())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	tree, err := style.BuildTree(root, sheets, zap.NewNop())
	if err != nil {
		t.Fatalf("style build failed: %v", err)
	}
	out := debug.DumpStyledTree(tree)
	if !strings.Contains(out, "element <p>") {
		t.Errorf("styled dump missing p element:\n%s", out)
	}
	if !strings.Contains(out, "color: red") {
		t.Errorf("styled dump missing declared color:\n%s", out)
	}
	if strings.Contains(out, "float: none") {
		t.Errorf("initial values should be suppressed:\n%s", out)
	}
}

func TestDOMToXML(t *testing.T) {
	root, _, err := html.Parse(sampleDoc, zap.NewNop())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	out, err := debug.DOMToXML(root)
	if err != nil {
		t.Fatalf("serialization failed: %v", err)
	}
	for _, want := range []string{"<?xml", "<html>", `<p class="x">`, "<!-- note -->"} {
		if !strings.Contains(out, want) {
			t.Errorf("xml missing %q:\n%s", want, out)
		}
	}
}
