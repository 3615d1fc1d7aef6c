package parser

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/olgasafonova/wikiread-mcp-server/internal/article"
	apierrors "github.com/olgasafonova/wikiread-mcp-server/internal/errors"
)

var _ Parser = (*Default)(nil)

// Default walks the rendered article with goquery. Paragraphs before the first
// heading become the summary, h2-h6 headings open sections, and internal
// article links and categories are collected.
type Default struct{}

// NewDefault returns the default parser.
func NewDefault() *Default {
	return &Default{}
}

// Name implements Parser.
func (p *Default) Name() string { return "default" }

// Parse implements Parser.
func (p *Default) Parse(r io.Reader, source string) (*article.ParsedArticle, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &apierrors.ParseError{Source: source, Parser: p.Name(), Err: err}
	}

	a := &article.ParsedArticle{
		Title:      extractTitle(doc),
		Language:   doc.Find("html").AttrOr("lang", ""),
		URL:        source,
		Categories: extractCategories(doc),
		Format:     "text",
	}

	root := doc.Find(contentSelector).First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		return nil, &apierrors.ParseError{Source: source, Parser: p.Name(), Err: ErrEmptyDocument}
	}

	root.Find(removeSelector).Remove()
	a.Links = extractLinks(root)

	var summary []string
	var current *article.Section

	root.Find("h2, h3, h4, h5, h6, p, li, dd, blockquote").Each(func(_ int, s *goquery.Selection) {
		if level := headingLevel(s); level > 0 {
			if current != nil {
				a.Sections = append(a.Sections, *current)
			}
			current = &article.Section{Title: collapseSpace(s.Text()), Level: level}
			return
		}
		// Nested blocks are covered by their outermost match.
		if s.ParentsFiltered("p, li, dd, blockquote").Length() > 0 {
			return
		}
		text := collapseSpace(s.Text())
		if text == "" {
			return
		}
		if current == nil {
			summary = append(summary, text)
			return
		}
		current.Paragraphs = append(current.Paragraphs, text)
	})
	if current != nil {
		a.Sections = append(a.Sections, *current)
	}

	a.Summary = strings.Join(summary, "\n\n")
	a.Content = a.Text()

	if a.IsEmpty() {
		return nil, &apierrors.ParseError{Source: source, Parser: p.Name(), Err: ErrEmptyDocument}
	}
	return a, nil
}

// headingLevel returns 2..6 for h2..h6 and 0 otherwise.
func headingLevel(s *goquery.Selection) int {
	name := goquery.NodeName(s)
	if len(name) == 2 && name[0] == 'h' && name[1] >= '2' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

func extractTitle(doc *goquery.Document) string {
	if t := collapseSpace(doc.Find("#firstHeading").First().Text()); t != "" {
		return t
	}
	return cleanTitle(doc.Find("title").First().Text())
}

func extractCategories(doc *goquery.Document) []string {
	var categories []string
	doc.Find("#mw-normal-catlinks li a").Each(func(_ int, s *goquery.Selection) {
		if name := collapseSpace(s.Text()); name != "" {
			categories = append(categories, name)
		}
	})
	return categories
}

// extractLinks collects internal article links, first occurrence wins.
func extractLinks(root *goquery.Selection) []article.Link {
	seen := make(map[string]bool)
	var links []article.Link
	root.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		target, ok := internalTarget(s.AttrOr("href", ""))
		if !ok || seen[target] {
			return
		}
		seen[target] = true
		text := collapseSpace(s.Text())
		if text == "" {
			text = s.AttrOr("title", "")
		}
		links = append(links, article.Link{Text: text, Target: target})
	})
	return links
}
