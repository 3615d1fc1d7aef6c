// Package parser turns MediaWiki article HTML into article.ParsedArticle values.
//
// Two strategies are available: Default walks the rendered article with
// goquery and produces plain-text sections, Markdown converts the article body
// to Markdown. The wiki client picks one at construction time.
package parser

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/olgasafonova/wikiread-mcp-server/internal/article"
)

// Parser converts an article HTML document into a ParsedArticle.
type Parser interface {
	// Name identifies the strategy ("default", "markdown").
	Name() string
	// Parse reads HTML from r. source is the URL the document came from and
	// is only used for the ParsedArticle's URL field and error messages.
	Parse(r io.Reader, source string) (*article.ParsedArticle, error)
}

// ErrEmptyDocument is wrapped in a ParseError when no article content is found.
var ErrEmptyDocument = errors.New("document has no article content")

// contentSelector locates the rendered article body in MediaWiki skins.
const contentSelector = "#mw-content-text .mw-parser-output"

// removeSelector lists page furniture that is not article prose.
const removeSelector = "script, style, noscript, .mw-editsection, sup.reference, .reference, " +
	".reflist, ol.references, .mw-references-wrap, .navbox, .vertical-navbox, table.infobox, " +
	".toc, #toc, .mw-jump-link, .hatnote, .metadata, .sistersitebox, .noprint"

// registry maps strategy names to constructors
var registry = map[string]func() Parser{
	"default":  func() Parser { return NewDefault() },
	"markdown": func() Parser { return NewMarkdown() },
}

// New returns the parser registered under name. An empty name selects Default.
func New(name string) (Parser, error) {
	if name == "" {
		name = "default"
	}
	ctor, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown parser %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Names lists the registered parser names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// internalTarget reports whether href points at another main-namespace article
// and returns it without fragment or query.
func internalTarget(href string) (string, bool) {
	if !strings.HasPrefix(href, "/wiki/") {
		return "", false
	}
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	name := strings.TrimPrefix(href, "/wiki/")
	if name == "" {
		return "", false
	}
	// Namespaced pages (File:, Category:, Help:, ...) are not articles.
	decoded, err := url.PathUnescape(name)
	if err != nil {
		decoded = name
	}
	if strings.Contains(decoded, ":") {
		return "", false
	}
	return href, true
}

// cleanTitle strips the " - Sitename" suffix MediaWiki adds to <title>.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if i := strings.LastIndex(title, " - "); i > 0 {
		title = title[:i]
	}
	return title
}

// collapseSpace joins runs of whitespace into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
