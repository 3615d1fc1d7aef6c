package wiki

import (
	"context"
	"time"

	"github.com/olgasafonova/wikiread-mcp-server/internal/article"
)

// MCP Tool wrapper methods
// These methods validate Args, call the client and convert to Result types.

// SearchMCP is the MCP wrapper for Search
func (c *Client) SearchMCP(ctx context.Context, args SearchArgs) (SearchResult, error) {
	if err := ValidateTitle(args.Title); err != nil {
		return SearchResult{}, err
	}

	resp, err := c.Search(ctx, args.Title)
	if err != nil {
		return SearchResult{}, err
	}
	return toSearchResult(resp), nil
}

// ContinueSearchMCP is the MCP wrapper for ContinueSearch
func (c *Client) ContinueSearchMCP(ctx context.Context, args ContinueSearchArgs) (SearchResult, error) {
	if err := ValidateTitle(args.Title); err != nil {
		return SearchResult{}, err
	}
	code := ContinueCode{Continue: args.Continue, ScrollOffset: args.ScrollOffset}
	if err := ValidateContinue(code); err != nil {
		return SearchResult{}, err
	}

	resp, err := c.ContinueSearch(ctx, args.Title, &code)
	if err != nil {
		return SearchResult{}, err
	}
	return toSearchResult(resp), nil
}

// GetArticleMCP is the MCP wrapper for GetArticle
func (c *Client) GetArticleMCP(ctx context.Context, args GetArticleArgs) (ArticleResult, error) {
	if err := ValidatePageID(args.PageID); err != nil {
		return ArticleResult{}, err
	}
	if err := ValidateMaxChars(args.MaxChars); err != nil {
		return ArticleResult{}, err
	}

	a, err := c.GetArticle(ctx, args.PageID)
	if err != nil {
		return ArticleResult{}, err
	}
	return toArticleResult(a, args.MaxChars), nil
}

// OpenArticleMCP is the MCP wrapper for OpenArticle
func (c *Client) OpenArticleMCP(ctx context.Context, args OpenArticleArgs) (ArticleResult, error) {
	if err := ValidateTarget(args.Target); err != nil {
		return ArticleResult{}, err
	}
	if err := ValidateMaxChars(args.MaxChars); err != nil {
		return ArticleResult{}, err
	}

	a, err := c.OpenArticle(ctx, args.Target)
	if err != nil {
		return ArticleResult{}, err
	}
	return toArticleResult(a, args.MaxChars), nil
}

func toSearchResult(resp *SearchResponse) SearchResult {
	hits := make([]HitSummary, 0, len(resp.Hits()))
	for _, h := range resp.Hits() {
		summary := HitSummary{
			PageID:    h.PageID,
			Title:     h.Title,
			Snippet:   h.PlainSnippet(),
			WordCount: h.WordCount,
		}
		if !h.Timestamp.IsZero() {
			summary.Timestamp = h.Timestamp.Format(time.RFC3339)
		}
		hits = append(hits, summary)
	}

	return SearchResult{
		Hits:      hits,
		TotalHits: resp.TotalHits(),
		Next:      resp.Next(),
	}
}

func toArticleResult(a *article.ParsedArticle, maxChars int) ArticleResult {
	out, truncated := a.Truncated(maxChars)
	return ArticleResult{Article: out, Truncated: truncated}
}
