package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var htmlTagPattern = regexp.MustCompile(`(?i)<(html|body|div|p|br|span|table|td|li|a)[\s>/]`)

// LooksLikeHTML reports whether s appears to be markup rather than plain text
func LooksLikeHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

// VisibleText returns the human-visible text of an HTML document.
// Block-level elements end a line so sentence boundaries survive.
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return VisibleTextNode(doc), nil
}

// VisibleTextNode is VisibleText for an already parsed tree or subtree
func VisibleTextNode(root *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf.WriteString("\n")
		}
	}

	walk(root)
	return tidyLines(buf.String())
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "pre", "section", "article", "header", "footer", "ul", "ol", "table":
		return true
	}
	return false
}

// tidyLines trims every line and drops empty ones
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
