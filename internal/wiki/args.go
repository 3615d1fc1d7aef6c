package wiki

import "github.com/olgasafonova/wikiread-mcp-server/internal/article"

// SearchArgs contains parameters for a first-page search
type SearchArgs struct {
	Title string `json:"title" jsonschema:"required" jsonschema_description:"Text to search article titles and bodies for"`
}

// ContinueSearchArgs contains parameters for fetching the next result page
type ContinueSearchArgs struct {
	Title        string `json:"title" jsonschema:"required" jsonschema_description:"The same search text used for the previous page"`
	Continue     string `json:"continue" jsonschema:"required" jsonschema_description:"Continuation token from the previous result (next.continue)"`
	ScrollOffset int    `json:"sroffset" jsonschema:"required" jsonschema_description:"Result offset from the previous result (next.sroffset)"`
}

// SearchResult is the result of a search or continued search
type SearchResult struct {
	Hits      []HitSummary  `json:"hits"`
	TotalHits int           `json:"total_hits"`
	Next      *ContinueCode `json:"next,omitempty"` // nil when there are no more pages
}

// HitSummary is a compact search hit for tool output
type HitSummary struct {
	PageID    int    `json:"page_id"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// GetArticleArgs contains parameters for fetching an article by page id
type GetArticleArgs struct {
	PageID   int `json:"page_id" jsonschema:"required" jsonschema_description:"Page id from a search hit"`
	MaxChars int `json:"max_chars,omitempty" jsonschema_description:"Truncate the content field to this many bytes (0 = no limit); summary and sections are not truncated"`
}

// OpenArticleArgs contains parameters for following an article link
type OpenArticleArgs struct {
	Target   string `json:"target" jsonschema:"required" jsonschema_description:"Link target path, e.g. /wiki/Rust_(programming_language)"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema_description:"Truncate the content field to this many bytes (0 = no limit); summary and sections are not truncated"`
}

// ArticleResult is the result of fetching an article
type ArticleResult struct {
	Article   *article.ParsedArticle `json:"article"`
	Truncated bool                   `json:"truncated,omitempty"`
}
