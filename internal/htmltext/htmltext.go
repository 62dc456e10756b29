// Package htmltext turns HTML pages into the plain text a visitor would see.
package htmltext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Visible returns the visible text of an HTML document with entities decoded,
// script/style/noscript content dropped and whitespace collapsed.
func Visible(page string) string {
	if page == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return visibleFallback(page)
	}

	var buf strings.Builder
	writeText(doc, &buf)
	return Collapse(buf.String())
}

// OptionLabels returns the text of every <option> element, in document order.
func OptionLabels(page string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	var labels []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			var buf strings.Builder
			writeText(n, &buf)
			labels = append(labels, Collapse(buf.String()))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return labels, nil
}

// Collapse replaces whitespace runs with a single space and trims.
func Collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func writeText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		buf.WriteByte(' ')
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, buf)
	}
}

// visibleFallback strips tags with a regex when the parser gives up.
func visibleFallback(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	return Collapse(html.UnescapeString(s))
}
