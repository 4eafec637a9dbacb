package render

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
)

// PlainText derives the text/plain alternative of an HTML email. Block
// elements become line breaks and links keep their target in parentheses.
func PlainText(markup string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var b strings.Builder
	writeText(&b, doc)

	lines := strings.Split(b.String(), "\n")
	for idx, line := range lines {
		lines[idx] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	text := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text) + "\n", nil
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Head, atom.Style, atom.Script, atom.Title:
			return
		case atom.Br:
			b.WriteString("\n")
			return
		case atom.A:
			writeLink(b, n)
			return
		}
	}

	block := isBlock(n)
	if block {
		b.WriteString("\n")
	}
	if n.DataAtom == atom.Li {
		b.WriteString("- ")
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeText(b, child)
	}
	if block {
		b.WriteString("\n")
		if n.DataAtom == atom.P || isHeading(n) {
			b.WriteString("\n")
		}
	}
	if n.DataAtom == atom.Hr {
		b.WriteString("----\n")
	}
}

func writeLink(b *strings.Builder, n *html.Node) {
	var label strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeText(&label, child)
	}
	text := strings.TrimSpace(label.String())
	href := ""
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
		}
	}
	switch {
	case href == "" || href == text:
		b.WriteString(text)
	case text == "":
		b.WriteString(href)
	default:
		b.WriteString(text + " (" + href + ")")
	}
}

func isHeading(n *html.Node) bool {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4:
		return true
	}
	return false
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Table, atom.Tr, atom.Ul, atom.Ol, atom.Li,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.Section, atom.Header, atom.Footer, atom.Hr:
		return true
	}
	return false
}
