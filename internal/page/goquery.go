package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLDocument is the goquery-backed Document implementation.
type HTMLDocument struct {
	doc *goquery.Document
	url string
}

// Ensure HTMLDocument implements Document
var _ Document = (*HTMLDocument)(nil)

// ParseHTML parses raw HTML into a queryable document.
func ParseHTML(html, url string) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &HTMLDocument{doc: doc, url: url}, nil
}

func (d *HTMLDocument) Select(selector string) []Node {
	return selectionNodes(d.doc.Find(selector))
}

func (d *HTMLDocument) SelectFirst(selector string) (Node, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return &htmlNode{sel: sel}, true
}

func (d *HTMLDocument) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

func (d *HTMLDocument) URL() string {
	return d.url
}

func (d *HTMLDocument) HTML() (string, error) {
	html, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return html, nil
}

type htmlNode struct {
	sel *goquery.Selection
}

func (n *htmlNode) Text() string {
	return strings.TrimSpace(n.sel.Text())
}

func (n *htmlNode) Parent() (Node, bool) {
	parent := n.sel.Parent()
	if parent.Length() == 0 {
		return nil, false
	}
	return &htmlNode{sel: parent}, true
}

func (n *htmlNode) Select(selector string) []Node {
	return selectionNodes(n.sel.Find(selector))
}

func (n *htmlNode) SelectFirst(selector string) (Node, bool) {
	sel := n.sel.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return &htmlNode{sel: sel}, true
}

func (n *htmlNode) AppendHTML(markup string) {
	n.sel.AppendHtml(markup)
}

func selectionNodes(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &htmlNode{sel: s})
	})
	return nodes
}
