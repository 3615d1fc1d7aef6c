// Package article defines the structured form of a wiki article produced by
// the parsers in internal/parser.
package article

import "strings"

// ParsedArticle is a wiki article reduced to its readable structure.
type ParsedArticle struct {
	Title      string    `json:"title"`
	Language   string    `json:"language,omitempty"`
	URL        string    `json:"url,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Sections   []Section `json:"sections,omitempty"`
	Links      []Link    `json:"links,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Content    string    `json:"content,omitempty"`
	Format     string    `json:"format"` // "text" or "markdown"
}

// Section is a headed block of the article body.
type Section struct {
	Title      string   `json:"title"`
	Level      int      `json:"level"`
	Paragraphs []string `json:"paragraphs,omitempty"`
}

// Link is an internal link to another article. Target is the path part
// (e.g. "/wiki/Rust") and can be passed to OpenArticle as-is.
type Link struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

// Section returns the first section whose title matches (case-insensitive).
func (a *ParsedArticle) Section(title string) (Section, bool) {
	for _, s := range a.Sections {
		if strings.EqualFold(s.Title, title) {
			return s, true
		}
	}
	return Section{}, false
}

// SectionTitles lists section titles in document order.
func (a *ParsedArticle) SectionTitles() []string {
	titles := make([]string, 0, len(a.Sections))
	for _, s := range a.Sections {
		titles = append(titles, s.Title)
	}
	return titles
}

// Text renders summary and sections as plain text.
func (a *ParsedArticle) Text() string {
	var sb strings.Builder
	if a.Summary != "" {
		sb.WriteString(a.Summary)
	}
	for _, s := range a.Sections {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(s.Title)
		for _, p := range s.Paragraphs {
			sb.WriteString("\n\n")
			sb.WriteString(p)
		}
	}
	return sb.String()
}

// IsEmpty reports whether the article has no body text. A title alone does
// not count as content.
func (a *ParsedArticle) IsEmpty() bool {
	return a.Summary == "" && len(a.Sections) == 0 && strings.TrimSpace(a.Content) == ""
}

// Truncated returns a copy whose Content is cut to limit bytes. The second
// return value reports whether anything was cut.
func (a *ParsedArticle) Truncated(limit int) (*ParsedArticle, bool) {
	cp := *a
	if limit <= 0 || len(cp.Content) <= limit {
		return &cp, false
	}
	cut := limit
	// back up to a rune boundary
	for cut > 0 && !isRuneStart(cp.Content[cut]) {
		cut--
	}
	cp.Content = cp.Content[:cut]
	return &cp, true
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
