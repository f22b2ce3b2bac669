package html

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"weft/css"
	"weft/dom"
	"weft/utils/debug"
)

// ErrFramesetUnsupported is returned when a document uses frameset markup.
// The frameset insertion modes are a recognized gap: they fail the parse
// loudly instead of mangling the tree.
var ErrFramesetUnsupported = errors.New("frameset documents are not supported")

// StructuralError is a fatal tree-construction failure: a token the state
// machine has no recovery for, or a required element missing from the open
// element stack. Snapshot carries the partial DOM for diagnosis.
type StructuralError struct {
	Mode     string
	Token    Token
	Detail   string
	Snapshot string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("html structure error in %s at %s: %s", e.Mode, e.Token, e.Detail)
}

type insertionMode int

const (
	initialMode insertionMode = iota
	beforeHTMLMode
	beforeHeadMode
	inHeadMode
	afterHeadMode
	inBodyMode
	textMode
	afterBodyMode
	afterAfterBodyMode
)

func (m insertionMode) String() string {
	switch m {
	case initialMode:
		return "initial"
	case beforeHTMLMode:
		return "before-html"
	case beforeHeadMode:
		return "before-head"
	case inHeadMode:
		return "in-head"
	case afterHeadMode:
		return "after-head"
	case inBodyMode:
		return "in-body"
	case textMode:
		return "text"
	case afterBodyMode:
		return "after-body"
	case afterAfterBodyMode:
		return "after-after-body"
	default:
		return "unknown"
	}
}

// voidElements never get pushed on the open element stack.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// impliedEndTags are the elements "generate implied end tags" may pop.
var impliedEndTags = map[string]bool{
	"dd": true, "dt": true, "li": true, "option": true, "optgroup": true,
	"p": true, "rb": true, "rp": true, "rt": true, "rtc": true,
}

var headings = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

const legacyCompatSystemID = "about:legacy-compat"

// TreeBuilder drives the insertion-mode state machine over the token stream,
// producing the document tree and the ordered list of embedded stylesheets.
type TreeBuilder struct {
	log *zap.Logger
	tz  *Tokenizer

	doc          *dom.Node
	stack        []*dom.Node
	mode         insertionMode
	originalMode insertionMode
	pendingText  strings.Builder
	sheets       []*css.Stylesheet

	// Warnings collects recoverable parse problems in document order.
	Warnings []string
}

// NewTreeBuilder creates a builder over the given HTML input.
func NewTreeBuilder(input string, log *zap.Logger) *TreeBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("html-parser")
	return &TreeBuilder{
		log:  log,
		tz:   NewTokenizer(input, log),
		doc:  dom.NewDocument(),
		mode: initialMode,
	}
}

// Parse runs a tree builder over input and returns the document root and the
// embedded stylesheets in tree order.
func Parse(input string, log *zap.Logger) (*dom.Node, []*css.Stylesheet, error) {
	tb := NewTreeBuilder(input, log)
	if err := tb.Run(); err != nil {
		return nil, nil, err
	}
	return tb.doc, tb.sheets, nil
}

// Document returns the document root.
func (tb *TreeBuilder) Document() *dom.Node {
	return tb.doc
}

// Stylesheets returns the embedded stylesheets in tree order.
func (tb *TreeBuilder) Stylesheets() []*css.Stylesheet {
	return tb.sheets
}

func (tb *TreeBuilder) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	tb.Warnings = append(tb.Warnings, msg)
	tb.log.Debug("HTML parse error", zap.Stringer("mode", tb.mode), zap.String("detail", msg))
}

func (tb *TreeBuilder) structural(tok Token, detail string) error {
	return &StructuralError{
		Mode:     tb.mode.String(),
		Token:    tok,
		Detail:   detail,
		Snapshot: debug.DumpDOM(tb.doc),
	}
}

func (tb *TreeBuilder) current() *dom.Node {
	if len(tb.stack) == 0 {
		return tb.doc
	}
	return tb.stack[len(tb.stack)-1]
}

func (tb *TreeBuilder) push(n *dom.Node) {
	tb.stack = append(tb.stack, n)
}

func (tb *TreeBuilder) pop() *dom.Node {
	n := tb.stack[len(tb.stack)-1]
	tb.stack = tb.stack[:len(tb.stack)-1]
	return n
}

// insertElement creates an element for the start tag, appends it to the
// current node and pushes it unless it is void or self-closing.
func (tb *TreeBuilder) insertElement(tok Token) *dom.Node {
	el := dom.NewElement(tok.Name, tok.Attributes)
	tb.current().AppendChild(el)
	if !voidElements[tok.Name] && !tok.SelfClosing {
		tb.push(el)
	}
	return el
}

// insertText appends character data, coalescing with a preceding text node.
func (tb *TreeBuilder) insertText(data string) {
	if data == "" {
		return
	}
	parent := tb.current()
	if last := parent.LastChild; last != nil && last.Type == dom.TextNode {
		last.Data += data
		return
	}
	parent.AppendChild(dom.NewText(data))
}

func (tb *TreeBuilder) insertComment(data string) {
	tb.current().AppendChild(&dom.Node{Type: dom.CommentNode, Data: data})
}

// generateImpliedEndTags pops elements whose end tags may be implied,
// leaving any element named exclude in place.
func (tb *TreeBuilder) generateImpliedEndTags(exclude string) {
	for len(tb.stack) > 0 {
		tag := tb.current().TagName
		if !impliedEndTags[tag] || tag == exclude {
			return
		}
		tb.pop()
	}
}

// Run consumes the token stream until the document is complete.
// Reprocessing a token under a new mode is a bounded retry loop: every retry
// either switches mode or trims the token, so it cannot cycle.
func (tb *TreeBuilder) Run() error {
	if tb.doc.Type != dom.DocumentNode || tb.doc.Parent != nil {
		return errors.New("html: tree construction requires a detached document root")
	}
	const maxRetries = 16
	for {
		tok := tb.tz.Next()
		reprocess := true
		for attempt := 0; reprocess; attempt++ {
			if attempt >= maxRetries {
				return tb.structural(tok, "token reprocessing did not converge")
			}
			var done bool
			var err error
			reprocess, done, err = tb.process(&tok)
			if err != nil {
				return err
			}
			if done {
				tb.Warnings = append(tb.Warnings, tb.tz.Warnings...)
				return nil
			}
		}
	}
}

// process handles one token in the current mode. It reports whether the
// token must be reprocessed (after a mode switch) and whether parsing is
// complete.
func (tb *TreeBuilder) process(tok *Token) (reprocess, done bool, err error) {
	switch tb.mode {
	case initialMode:
		return tb.processInitial(tok)
	case beforeHTMLMode:
		return tb.processBeforeHTML(tok)
	case beforeHeadMode:
		return tb.processBeforeHead(tok)
	case inHeadMode:
		return tb.processInHead(tok)
	case afterHeadMode:
		return tb.processAfterHead(tok)
	case inBodyMode:
		return tb.processInBody(tok)
	case textMode:
		return tb.processText(tok)
	case afterBodyMode:
		return tb.processAfterBody(tok)
	case afterAfterBodyMode:
		return tb.processAfterAfterBody(tok)
	default:
		return false, false, tb.structural(*tok, "unknown insertion mode")
	}
}

// trimLeadingSpace drops leading whitespace from a character token in modes
// that ignore it, reporting whether anything non-whitespace remains.
func trimLeadingSpace(tok *Token) bool {
	_, tok.Data = splitLeadingSpace(tok.Data)
	return tok.Data != ""
}

// splitLeadingSpace splits character data into its leading whitespace run
// and the remainder.
func splitLeadingSpace(s string) (ws, rest string) {
	rest = strings.TrimLeft(s, " \t\n\r\f")
	return s[:len(s)-len(rest)], rest
}

// validDoctype accepts only the modern doctype: name absent or "html", no
// public identifier, system identifier absent or the legacy-compat string.
func validDoctype(tok *Token) bool {
	if tok.Name != "" && tok.Name != "html" {
		return false
	}
	if tok.HasPublicID || tok.ForceQuirks {
		return false
	}
	return !tok.HasSystemID || tok.SystemID == legacyCompatSystemID
}

func (tb *TreeBuilder) processInitial(tok *Token) (bool, bool, error) {
	switch tok.Type {
	case TokenCharacter:
		if !trimLeadingSpace(tok) {
			return false, false, nil
		}
		tb.warn("content before doctype")
		tb.mode = beforeHTMLMode
		return true, false, nil
	case TokenComment:
		tb.insertComment(tok.Data)
		return false, false, nil
	case TokenDoctype:
		if !validDoctype(tok) {
			tb.warn("legacy or malformed doctype %q", tok.Name)
		}
		tb.doc.AppendChild(&dom.Node{Type: dom.DoctypeNode, Data: tok.Name})
		tb.mode = beforeHTMLMode
		return false, false, nil
	default:
		tb.warn("missing doctype")
		tb.mode = beforeHTMLMode
		return true, false, nil
	}
}

func (tb *TreeBuilder) processBeforeHTML(tok *Token) (bool, bool, error) {
	switch {
	case tok.Type == TokenDoctype:
		tb.warn("stray doctype")
		return false, false, nil
	case tok.Type == TokenComment:
		tb.insertComment(tok.Data)
		return false, false, nil
	case tok.Type == TokenCharacter:
		if !trimLeadingSpace(tok) {
			return false, false, nil
		}
	case tok.Type == TokenStartTag && tok.Name == "html":
		el := dom.NewElement("html", tok.Attributes)
		tb.doc.AppendChild(el)
		tb.push(el)
		tb.mode = beforeHeadMode
		return false, false, nil
	case tok.Type == TokenEndTag && tok.Name != "head" && tok.Name != "body" && tok.Name != "html" && tok.Name != "br":
		tb.warn("stray end tag </%s>", tok.Name)
		return false, false, nil
	}
	// Synthesize the html element and retry.
	el := dom.NewElement("html", nil)
	tb.doc.AppendChild(el)
	tb.push(el)
	tb.mode = beforeHeadMode
	return true, false, nil
}

func (tb *TreeBuilder) processBeforeHead(tok *Token) (bool, bool, error) {
	switch {
	case tok.Type == TokenCharacter:
		if !trimLeadingSpace(tok) {
			return false, false, nil
		}
	case tok.Type == TokenComment:
		tb.insertComment(tok.Data)
		return false, false, nil
	case tok.Type == TokenDoctype:
		tb.warn("stray doctype")
		return false, false, nil
	case tok.Type == TokenStartTag && tok.Name == "html":
		tb.warn("duplicate <html> tag")
		return false, false, nil
	case tok.Type == TokenStartTag && tok.Name == "head":
		tb.insertElement(*tok)
		tb.mode = inHeadMode
		return false, false, nil
	case tok.Type == TokenEndTag && tok.Name != "head" && tok.Name != "body" && tok.Name != "html" && tok.Name != "br":
		tb.warn("stray end tag </%s>", tok.Name)
		return false, false, nil
	}
	// Synthesize the head element and retry.
	tb.insertElement(Token{Type: TokenStartTag, Name: "head"})
	tb.mode = inHeadMode
	return true, false, nil
}

func (tb *TreeBuilder) processInHead(tok *Token) (bool, bool, error) {
	switch {
	case tok.Type == TokenCharacter:
		ws, rest := splitLeadingSpace(tok.Data)
		if ws != "" {
			tb.insertText(ws)
		}
		if rest == "" {
			return false, false, nil
		}
		// Non-whitespace text belongs to the body: close the head and retry.
		tok.Data = rest
		tb.pop()
		tb.mode = afterHeadMode
		return true, false, nil
	case tok.Type == TokenComment:
		tb.insertComment(tok.Data)
		return false, false, nil
	case tok.Type == TokenDoctype:
		tb.warn("stray doctype")
		return false, false, nil
	case tok.Type == TokenStartTag:
		switch tok.Name {
		case "html":
			tb.warn("duplicate <html> tag")
			return false, false, nil
		case "meta", "link", "base":
			// Inserted and immediately popped: the stack is unaffected.
			tb.insertElement(*tok)
			return false, false, nil
		case "title":
			tb.insertElement(*tok)
			tb.originalMode = tb.mode
			tb.mode = textMode
			return false, false, nil
		case "style":
			tb.insertElement(*tok)
			tb.originalMode = tb.mode
			tb.mode = textMode
			tb.tz.StartRawText("style")
			return false, false, nil
		case "head":
			tb.warn("duplicate <head> tag")
			return false, false, nil
		}
	case tok.Type == TokenEndTag:
		switch tok.Name {
		case "head":
			tb.pop()
			tb.mode = afterHeadMode
			return false, false, nil
		case "body", "html", "br":
			// Fall through to the generic "close the head" path.
		default:
			tb.warn("stray end tag </%s>", tok.Name)
			return false, false, nil
		}
	}
	tb.pop() // head
	tb.mode = afterHeadMode
	return true, false, nil
}

func (tb *TreeBuilder) processAfterHead(tok *Token) (bool, bool, error) {
	switch {
	case tok.Type == TokenCharacter:
		ws, rest := splitLeadingSpace(tok.Data)
		if ws != "" {
			tb.insertText(ws)
		}
		if rest == "" {
			return false, false, nil
		}
		tb.warn("character data before <body>")
		tok.Data = rest
		tb.insertElement(Token{Type: TokenStartTag, Name: "body"})
		tb.mode = inBodyMode
		return true, false, nil
	case tok.Type == TokenComment:
		tb.insertComment(tok.Data)
		return false, false, nil
	case tok.Type == TokenDoctype:
		tb.warn("stray doctype")
		return false, false, nil
	case tok.Type == TokenStartTag && tok.Name == "html":
		tb.warn("duplicate <html> tag")
		return false, false, nil
	case tok.Type == TokenStartTag && tok.Name == "body":
		tb.insertElement(*tok)
		tb.mode = inBodyMode
		return false, false, nil
	case tok.Type == TokenStartTag && tok.Name == "frameset":
		return false, false, fmt.Errorf("%w: %s", ErrFramesetUnsupported, tb.structural(*tok, "frameset start tag"))
	case tok.Type == TokenStartTag && tok.Name == "head":
		tb.warn("duplicate <head> tag")
		return false, false, nil
	case tok.Type == TokenEndTag && tok.Name != "body" && tok.Name != "html" && tok.Name != "br":
		tb.warn("stray end tag </%s>", tok.Name)
		return false, false, nil
	}
	// Synthesize the body element and retry.
	tb.insertElement(Token{Type: TokenStartTag, Name: "body"})
	tb.mode = inBodyMode
	return true, false, nil
}

func (tb *TreeBuilder) processInBody(tok *Token) (bool, bool, error) {
	switch tok.Type {
	case TokenCharacter:
		tb.insertText(tok.Data)
		return false, false, nil
	case TokenComment:
		tb.insertComment(tok.Data)
		return false, false, nil
	case TokenDoctype:
		tb.warn("stray doctype")
		return false, false, nil
	case TokenEOF:
		return false, false, tb.structural(*tok, "end of input with the body still open")
	case TokenStartTag:
		return tb.startTagInBody(tok)
	case TokenEndTag:
		return tb.endTagInBody(tok)
	}
	return false, false, tb.structural(*tok, "unhandled token")
}

func (tb *TreeBuilder) startTagInBody(tok *Token) (bool, bool, error) {
	switch {
	case tok.Name == "html" || tok.Name == "body":
		tb.warn("duplicate <%s> tag", tok.Name)
		return false, false, nil
	case tok.Name == "frameset":
		return false, false, fmt.Errorf("%w: %s", ErrFramesetUnsupported, tb.structural(*tok, "frameset start tag"))
	case headings[tok.Name]:
		if headings[tb.current().TagName] {
			tb.warn("heading <%s> auto-closes open <%s>", tok.Name, tb.current().TagName)
			tb.pop()
		}
		tb.insertElement(*tok)
		return false, false, nil
	case tok.Name == "li":
		if err := tb.closeOpenListItem(*tok); err != nil {
			return false, false, err
		}
		tb.insertElement(*tok)
		return false, false, nil
	case tok.Name == "style":
		tb.insertElement(*tok)
		tb.originalMode = tb.mode
		tb.mode = textMode
		tb.tz.StartRawText("style")
		return false, false, nil
	default:
		tb.insertElement(*tok)
		return false, false, nil
	}
}

// closeOpenListItem implements the li start-tag algorithm: walk the open
// element stack from the top; an open li is implicitly closed, address, div
// and p are walked through, any other element stops the search.
func (tb *TreeBuilder) closeOpenListItem(tok Token) error {
	for i := len(tb.stack) - 1; i >= 0; i-- {
		switch tag := tb.stack[i].TagName; {
		case tag == "li":
			tb.generateImpliedEndTags("li")
			if tb.current().TagName != "li" {
				tb.warn("unexpected open <%s> while closing <li>", tb.current().TagName)
			}
			for len(tb.stack) > 0 {
				if tb.pop().TagName == "li" {
					return nil
				}
			}
			return tb.structural(tok, "open element stack exhausted while closing <li>")
		case tag == "address" || tag == "div" || tag == "p":
			// Tolerated between the li and its list.
		default:
			return nil
		}
	}
	return tb.structural(tok, "no enclosing element for <li>")
}

func (tb *TreeBuilder) endTagInBody(tok *Token) (bool, bool, error) {
	switch tok.Name {
	case "body":
		tb.mode = afterBodyMode
		return false, false, nil
	case "html":
		tb.mode = afterBodyMode
		return true, false, nil
	default:
		// Generic end tag: find the element on the stack, imply end tags
		// above it, then pop through it. A tag with no open element is a
		// parse error and is ignored.
		for i := len(tb.stack) - 1; i >= 0; i-- {
			if tb.stack[i].TagName != tok.Name {
				continue
			}
			tb.generateImpliedEndTags(tok.Name)
			if tb.current().TagName != tok.Name {
				tb.warn("unexpected open <%s> while closing <%s>", tb.current().TagName, tok.Name)
			}
			for len(tb.stack) > 0 {
				if tb.pop().TagName == tok.Name {
					return false, false, nil
				}
			}
			return false, false, nil
		}
		tb.warn("stray end tag </%s>", tok.Name)
		return false, false, nil
	}
}

func (tb *TreeBuilder) processText(tok *Token) (bool, bool, error) {
	switch tok.Type {
	case TokenCharacter:
		tb.pendingText.WriteString(tok.Data)
		return false, false, nil
	case TokenEndTag:
		if tok.Name != tb.current().TagName || tok.Name == "script" {
			return false, false, tb.structural(*tok, fmt.Sprintf("end tag </%s> does not close <%s>", tok.Name, tb.current().TagName))
		}
		tb.insertText(tb.pendingText.String())
		tb.pendingText.Reset()
		el := tb.pop()
		if el.TagName == "style" {
			tb.updateStyleBlock(el)
		}
		tb.mode = tb.originalMode
		return false, false, nil
	default:
		return false, false, tb.structural(*tok, "markup inside raw text element")
	}
}

// updateStyleBlock runs once when a style element's end tag is seen: its
// accumulated text is parsed as a stylesheet and appended in tree order.
func (tb *TreeBuilder) updateStyleBlock(el *dom.Node) {
	sheet, err := css.NewParser(el.Text(), tb.log).ParseStylesheet()
	if err != nil {
		tb.warn("embedded stylesheet rejected: %v", err)
		return
	}
	tb.Warnings = append(tb.Warnings, sheet.Warnings...)
	tb.sheets = append(tb.sheets, sheet)
	tb.log.Debug("parsed embedded stylesheet",
		zap.Int("rules", len(sheet.Rules)),
		zap.Int("index", len(tb.sheets)-1))
}

func (tb *TreeBuilder) processAfterBody(tok *Token) (bool, bool, error) {
	switch {
	case tok.Type == TokenEOF:
		return false, true, nil
	case tok.Type == TokenCharacter && strings.TrimLeft(tok.Data, " \t\n\r\f") == "":
		// Whitespace after the body still belongs to it.
		tb.insertText(tok.Data)
		return false, false, nil
	case tok.Type == TokenComment:
		// Comments here attach to the html element.
		if len(tb.stack) > 0 {
			tb.stack[0].AppendChild(&dom.Node{Type: dom.CommentNode, Data: tok.Data})
		} else {
			tb.insertComment(tok.Data)
		}
		return false, false, nil
	case tok.Type == TokenEndTag && tok.Name == "html":
		tb.mode = afterAfterBodyMode
		return false, false, nil
	default:
		tb.warn("content after </body>")
		tb.mode = inBodyMode
		return true, false, nil
	}
}

func (tb *TreeBuilder) processAfterAfterBody(tok *Token) (bool, bool, error) {
	switch {
	case tok.Type == TokenEOF:
		return false, true, nil
	case tok.Type == TokenComment:
		tb.doc.AppendChild(&dom.Node{Type: dom.CommentNode, Data: tok.Data})
		return false, false, nil
	case tok.Type == TokenCharacter && strings.TrimLeft(tok.Data, " \t\n\r\f") == "":
		tb.insertText(tok.Data)
		return false, false, nil
	case tok.Type == TokenDoctype:
		tb.warn("stray doctype")
		return false, false, nil
	default:
		tb.warn("content after the end of the document")
		tb.mode = inBodyMode
		return true, false, nil
	}
}
