package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements that end a line of text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
	"dt": true, "dd": true, "figcaption": true, "hr": true,
}

// HTML void elements. Any other element written self-closing, as XHTML
// allows, must be expanded before an HTML parser sees it.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var selfClosingTag = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_-]*)((?:\s[^<>]*?)?)\s*/>`)

// expandSelfClosing rewrites <title/> as <title></title>. Void elements are
// left alone.
func expandSelfClosing(markup []byte) []byte {
	return selfClosingTag.ReplaceAllFunc(markup, func(tag []byte) []byte {
		m := selfClosingTag.FindSubmatch(tag)
		name := string(m[1])
		if voidElements[strings.ToLower(name)] {
			return tag
		}
		out := make([]byte, 0, len(tag)+len(name)+3)
		out = append(out, '<')
		out = append(out, m[1]...)
		out = append(out, m[2]...)
		out = append(out, "></"...)
		out = append(out, m[1]...)
		return append(out, '>')
	})
}

// chapterText converts a chapter's (X)HTML markup into plain text, one line
// per block element.
func chapterText(markup []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(expandSelfClosing(markup)))
	if err != nil {
		return "", err
	}
	doc.Find("head, script, style").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		walkText(&b, n)
	}
	return normalizeLines(b.String()), nil
}

func walkText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(b, c)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteByte('\n')
	}
}

// normalizeLines collapses whitespace inside each line and drops empty lines.
func normalizeLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
