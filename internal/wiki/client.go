// Package wiki is a read-only client for MediaWiki sites such as Wikipedia.
// It searches article titles through the action API and fetches rendered
// articles, which are handed to a parser.Parser.
package wiki

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"

	"github.com/olgasafonova/wikiread-mcp-server/internal/article"
	"github.com/olgasafonova/wikiread-mcp-server/internal/base"
	apierrors "github.com/olgasafonova/wikiread-mcp-server/internal/errors"
	"github.com/olgasafonova/wikiread-mcp-server/internal/parser"
	"github.com/olgasafonova/wikiread-mcp-server/metrics"
	"github.com/olgasafonova/wikiread-mcp-server/tracing"
)

// Operation names used in errors, logs, metrics and spans
const (
	OpSearch         = "search"
	OpContinueSearch = "continue_search"
	OpGetArticle     = "get_article"
	OpOpenArticle    = "open_article"
)

// Client provides access to one MediaWiki site. It holds no mutable state
// after NewClient and is safe for concurrent use.
type Client struct {
	*base.Client
	config Config
	parser parser.Parser
}

type clientOptions struct {
	base   []base.ClientOption
	parser parser.Parser
}

// ClientOption configures the Client
type ClientOption func(*clientOptions)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.base = append(o.base, base.WithHTTPClient(c))
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.base = append(o.base, base.WithLogger(l))
	}
}

// WithBodyLimit caps the size of wiki responses
func WithBodyLimit(n int64) ClientOption {
	return func(o *clientOptions) {
		o.base = append(o.base, base.WithBodyLimit(n))
	}
}

// WithParser overrides the parser named in Config
func WithParser(p parser.Parser) ClientOption {
	return func(o *clientOptions) {
		o.parser = p
	}
}

// NewClient creates a client for the wiki described by cfg.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	p := o.parser
	if p == nil {
		var err error
		if p, err = parser.New(cfg.Parser); err != nil {
			return nil, err
		}
	}
	cfg.Parser = p.Name()

	baseOpts := append([]base.ClientOption{
		base.WithTimeout(cfg.Timeout),
		base.WithUserAgent(cfg.UserAgent),
	}, o.base...)

	return &Client{
		Client: base.NewClient(baseOpts...),
		config: cfg,
		parser: p,
	}, nil
}

// Config returns a copy of the client's configuration
func (c *Client) Config() Config {
	return c.config
}

// ParserName reports which parser the client uses
func (c *Client) ParserName() string {
	return c.parser.Name()
}

// SearchURL builds the search request URL. A nil code builds the first page.
// The continuation token is echoed exactly as the wiki issued it.
func (c *Client) SearchURL(title string, code *ContinueCode) string {
	u := fmt.Sprintf("%s/w/api.php?action=query&list=search&srwhat=text&srsearch=%s&format=json",
		c.config.BaseURL, url.QueryEscape(title))
	if code != nil {
		u += fmt.Sprintf("&continue=%s&sroffset=%d", code.Continue, code.ScrollOffset)
	}
	return u
}

// ArticleURL builds the URL of an article by page id
func (c *Client) ArticleURL(pageID int) string {
	return fmt.Sprintf("%s?curid=%d", c.config.BaseURL, pageID)
}

// TargetURL builds the URL of a link target such as "/wiki/Rust"
func (c *Client) TargetURL(target string) string {
	return c.config.BaseURL + target
}

// Search returns the first page of results for title.
func (c *Client) Search(ctx context.Context, title string) (*SearchResponse, error) {
	return c.searchArticles(ctx, OpSearch, title, nil)
}

// ContinueSearch fetches the page after the one that returned code.
func (c *Client) ContinueSearch(ctx context.Context, title string, code *ContinueCode) (*SearchResponse, error) {
	if code == nil {
		return nil, apierrors.NewValidationError("continue", "", "continuation code is required")
	}
	return c.searchArticles(ctx, OpContinueSearch, title, code)
}

// GetArticle fetches and parses the article with the given page id.
func (c *Client) GetArticle(ctx context.Context, pageID int) (*article.ParsedArticle, error) {
	return c.parseArticle(ctx, OpGetArticle, c.ArticleURL(pageID))
}

// OpenArticle fetches and parses the article a link target points at.
func (c *Client) OpenArticle(ctx context.Context, target string) (*article.ParsedArticle, error) {
	return c.parseArticle(ctx, OpOpenArticle, c.TargetURL(target))
}

func (c *Client) searchArticles(ctx context.Context, op, title string, code *ContinueCode) (*SearchResponse, error) {
	reqURL := c.SearchURL(title, code)

	ctx, span := tracing.StartSpan(ctx, "wiki."+op)
	defer span.End()
	tracing.AddWikiAttributes(span, op, reqURL)
	start := time.Now()

	resp, err := c.fetch(ctx, span, op, reqURL, "application/json")
	var result *SearchResponse
	if err == nil {
		result, err = decodeSearch(op, reqURL, resp.Body)
	}
	if err != nil {
		c.fail(span, op, reqURL, start, err)
		return nil, err
	}

	metrics.RecordAPICall(op, time.Since(start).Seconds(), true, "")
	metrics.RecordContentSize(op, len(resp.Body))
	metrics.RecordSearchHits(len(result.Hits()))

	c.Logger.Info("Search completed",
		"operation", op,
		"title", title,
		"hits", len(result.Hits()),
		"total_hits", result.TotalHits(),
		"has_more", result.HasMore(),
	)
	return result, nil
}

func (c *Client) parseArticle(ctx context.Context, op, reqURL string) (*article.ParsedArticle, error) {
	ctx, span := tracing.StartSpan(ctx, "wiki."+op)
	defer span.End()
	tracing.AddWikiAttributes(span, op, reqURL)
	start := time.Now()

	resp, err := c.fetch(ctx, span, op, reqURL, "text/html")
	var parsed *article.ParsedArticle
	if err == nil {
		parsed, err = c.parser.Parse(bytes.NewReader(resp.Body), reqURL)
	}
	if err != nil {
		c.fail(span, op, reqURL, start, err)
		return nil, err
	}

	metrics.RecordAPICall(op, time.Since(start).Seconds(), true, "")
	metrics.RecordContentSize(op, len(resp.Body))

	c.Logger.Info("Article parsed",
		"operation", op,
		"url", reqURL,
		"title", parsed.Title,
		"parser", c.parser.Name(),
		"sections", len(parsed.Sections),
		"links", len(parsed.Links),
	)
	return parsed, nil
}

// fetch performs the single GET of an operation and rejects non-2xx replies
func (c *Client) fetch(ctx context.Context, span trace.Span, op, reqURL, accept string) (*base.Response, error) {
	resp, err := c.DoRequest(ctx, base.RequestConfig{Op: op, URL: reqURL, Accept: accept})
	if err != nil {
		return nil, err
	}
	tracing.AddResponseAttributes(span, resp.StatusCode, len(resp.Body))
	if err := base.CheckStatus(op, reqURL, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// fail records a classified failure on every observability channel
func (c *Client) fail(span trace.Span, op, reqURL string, start time.Time, err error) {
	kind := apierrors.KindOf(err)
	metrics.RecordAPICall(op, time.Since(start).Seconds(), false, string(kind))
	tracing.RecordError(span, err)
	c.Logger.Error("Wiki request failed",
		"operation", op,
		"url", reqURL,
		"kind", kind,
		"error", err,
	)
}

// decodeSearch unmarshals a search response. Nothing is returned unless the
// whole body matches.
func decodeSearch(op, reqURL string, body []byte) (*SearchResponse, error) {
	var result SearchResponse
	if err := sonic.ConfigStd.Unmarshal(body, &result); err != nil {
		return nil, &apierrors.DeserializeError{Op: op, URL: reqURL, Err: err}
	}
	if result.Error != nil {
		return nil, &apierrors.DeserializeError{Op: op, URL: reqURL,
			Err: fmt.Errorf("wiki returned API error %s: %s", result.Error.Code, result.Error.Info)}
	}
	if result.Query == nil {
		return nil, &apierrors.DeserializeError{Op: op, URL: reqURL, Err: fmt.Errorf("response has no query object")}
	}
	return &result, nil
}
