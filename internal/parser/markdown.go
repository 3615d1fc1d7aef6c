package parser

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/olgasafonova/wikiread-mcp-server/internal/article"
	apierrors "github.com/olgasafonova/wikiread-mcp-server/internal/errors"
)

var _ Parser = (*Markdown)(nil)

var (
	multipleNewlines = regexp.MustCompile(`\n{3,}`)
	atxHeading       = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*$`)
)

// Markdown renders the article body as Markdown. Metadata, links and
// categories are extracted the same way as Default; sections are rebuilt from
// the Markdown headings.
type Markdown struct {
	policy *bluemonday.Policy
}

// NewMarkdown returns a Markdown parser that sanitizes with the UGC policy.
func NewMarkdown() *Markdown {
	return &Markdown{policy: bluemonday.UGCPolicy()}
}

// Name implements Parser.
func (p *Markdown) Name() string { return "markdown" }

// Parse implements Parser.
func (p *Markdown) Parse(r io.Reader, source string) (*article.ParsedArticle, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &apierrors.ParseError{Source: source, Parser: p.Name(), Err: err}
	}

	a := &article.ParsedArticle{
		Title:      extractTitle(doc),
		Language:   doc.Find("html").AttrOr("lang", ""),
		URL:        source,
		Categories: extractCategories(doc),
		Format:     "markdown",
	}

	root := doc.Find(contentSelector).First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		return nil, &apierrors.ParseError{Source: source, Parser: p.Name(), Err: ErrEmptyDocument}
	}

	// page furniture goes before rendering, so x/net/html only sees the body
	root.Find(removeSelector).Remove()
	a.Links = extractLinks(root)

	rendered, err := renderChildren(root)
	if err != nil {
		return nil, &apierrors.ParseError{Source: source, Parser: p.Name(), Err: err}
	}

	md, err := htmltomarkdown.ConvertString(p.policy.Sanitize(rendered))
	if err != nil {
		return nil, &apierrors.ParseError{Source: source, Parser: p.Name(), Err: err}
	}
	a.Content = strings.TrimSpace(multipleNewlines.ReplaceAllString(md, "\n\n"))
	a.Summary, a.Sections = splitMarkdown(a.Content)
	if a.IsEmpty() {
		return nil, &apierrors.ParseError{Source: source, Parser: p.Name(), Err: ErrEmptyDocument}
	}
	return a, nil
}

// renderChildren serializes the children of sel back to HTML.
func renderChildren(sel *goquery.Selection) (string, error) {
	var buf bytes.Buffer
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
	}
	return buf.String(), nil
}

// splitMarkdown returns the blocks before the first ATX heading as the summary
// and one section per heading after it.
func splitMarkdown(md string) (string, []article.Section) {
	var summary []string
	var sections []article.Section
	var current *article.Section

	for _, block := range strings.Split(md, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		first, rest, _ := strings.Cut(block, "\n")
		if m := atxHeading.FindStringSubmatch(first); m != nil {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &article.Section{Title: m[2], Level: len(m[1])}
			block = strings.TrimSpace(rest)
			if block == "" {
				continue
			}
		}
		if current == nil {
			summary = append(summary, block)
			continue
		}
		current.Paragraphs = append(current.Paragraphs, block)
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return strings.Join(summary, "\n\n"), sections
}
