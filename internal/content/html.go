package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	codeFenceRX = regexp.MustCompile("(?s)^\\s*```[a-zA-Z0-9_-]*[ \\t]*\\r?\\n?(.*?)\\r?\\n?```\\s*$")
	htmlTagRX   = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(?:\s[^>]*)?/?>`)
)

// blockAtoms separate words even when the markup has no whitespace between them.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Tr: true, atom.Td: true, atom.Th: true,
	atom.Table: true, atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Hr: true, atom.Figure: true, atom.Figcaption: true,
}

// hiddenAtoms hold text that is never rendered.
var hiddenAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true, atom.Head: true,
}

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	hidden := 0
	z := html.NewTokenizer(strings.NewReader(s))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if hidden == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if hiddenAtoms[a] {
				switch tt {
				case html.StartTagToken:
					hidden++
				case html.EndTagToken:
					if hidden > 0 {
						hidden--
					}
				}
				continue
			}
			if blockAtoms[a] {
				b.WriteByte(' ')
			}
		}
	}
}

// HasVisibleText reports whether s renders at least one non-whitespace character.
func HasVisibleText(s string) bool {
	return StripHTML(s) != ""
}

// Excerpt returns the first n runes of the visible text of s, followed by an ellipsis when cut.
func Excerpt(s string, n int) string {
	text := StripHTML(s)
	if utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// ExtractTitle returns the text of the first h1 element, or "" when there is none.
func ExtractTitle(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var find func(n *html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.H1 {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}

	h1 := find(doc)
	if h1 == nil {
		return ""
	}

	var b strings.Builder
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(h1)

	return strings.Join(strings.Fields(b.String()), " ")
}

// StripCodeFence removes one enclosing ``` fence, with or without a language tag.
func StripCodeFence(s string) string {
	if m := codeFenceRX.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// LooksLikeHTML reports whether s contains at least one tag.
func LooksLikeHTML(s string) bool {
	return htmlTagRX.MatchString(s)
}

// MarkdownToHTML renders CommonMark-ish markdown to an HTML fragment.
func MarkdownToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse(markdown.NormalizeNewlines([]byte(md)))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})

	return strings.TrimSpace(string(markdown.Render(doc, renderer)))
}
