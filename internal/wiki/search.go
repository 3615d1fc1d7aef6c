package wiki

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// SearchResponse mirrors the JSON returned by action=query&list=search.
type SearchResponse struct {
	BatchComplete *string       `json:"batchcomplete,omitempty"`
	Continue      *ContinueCode `json:"continue,omitempty"`
	Query         *SearchQuery  `json:"query,omitempty"`
	Error         *APIError     `json:"error,omitempty"`
}

// SearchQuery is the "query" object of a search response
type SearchQuery struct {
	SearchInfo SearchInfo  `json:"searchinfo"`
	Search     []SearchHit `json:"search"`
}

// SearchInfo carries the total hit count
type SearchInfo struct {
	TotalHits int `json:"totalhits"`
}

// SearchHit is one search result.
type SearchHit struct {
	Namespace int       `json:"ns"`
	Title     string    `json:"title"`
	PageID    int       `json:"pageid"`
	Size      int       `json:"size"`
	WordCount int       `json:"wordcount"`
	Snippet   string    `json:"snippet"`
	Timestamp time.Time `json:"timestamp"`
}

// ContinueCode is the continuation token of a search response. It is opaque
// and must be sent back unchanged with ContinueSearch.
type ContinueCode struct {
	Continue     string `json:"continue"`
	ScrollOffset int    `json:"sroffset"`
}

// APIError is the "error" object MediaWiki returns instead of a result
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// Hits returns the search hits, or nil when the response has none.
func (r *SearchResponse) Hits() []SearchHit {
	if r == nil || r.Query == nil {
		return nil
	}
	return r.Query.Search
}

// TotalHits returns the total number of matches reported by the wiki.
func (r *SearchResponse) TotalHits() int {
	if r == nil || r.Query == nil {
		return 0
	}
	return r.Query.SearchInfo.TotalHits
}

// Next returns the continuation code for the following page, or nil.
func (r *SearchResponse) Next() *ContinueCode {
	if r == nil {
		return nil
	}
	return r.Continue
}

// HasMore reports whether ContinueSearch can fetch another page.
func (r *SearchResponse) HasMore() bool {
	return r.Next() != nil
}

// snippetPolicy drops all markup from search snippets
var snippetPolicy = bluemonday.StrictPolicy()

// PlainSnippet returns the snippet without the searchmatch highlighting markup.
func (h SearchHit) PlainSnippet() string {
	// StrictPolicy escapes text, so unescape after sanitizing
	s := html.UnescapeString(snippetPolicy.Sanitize(h.Snippet))
	return strings.Join(strings.Fields(s), " ")
}
