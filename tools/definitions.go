package tools

// AllTools contains all tool specifications for the wikiread MCP server.
// Descriptions follow a fixed layout for LLM tool selection:
// USE WHEN, NOT FOR, PARAMETERS and RETURNS.
var AllTools = []ToolSpec{
	// ==========================================================================
	// SEARCH TOOLS
	// ==========================================================================
	{
		Name:     "wiki_search",
		Method:   "Search",
		Title:    "Search Wiki",
		Category: "search",
		Description: `Search the wiki for articles matching a text.

USE WHEN: User asks "find articles about X", "what does the wiki have on X", or you need a page id before reading.

NOT FOR: Reading an article you already have a page id or link for (use wiki_get_article or wiki_open_article).

PARAMETERS:
- title: Search text (required)

RETURNS: Hits with page_id, title, plain-text snippet and word count, the total hit count, and a "next" continuation when more pages exist.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_continue_search",
		Method:   "ContinueSearch",
		Title:    "Next Search Page",
		Category: "search",
		Description: `Fetch the next page of a previous wiki_search.

USE WHEN: The previous search result had a "next" object and the wanted article was not among the hits.

NOT FOR: Starting a new search (use wiki_search).

PARAMETERS:
- title: The same search text (required)
- continue: next.continue from the previous result (required)
- sroffset: next.sroffset from the previous result (required)

RETURNS: Same shape as wiki_search. "next" is absent on the last page.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// READ TOOLS
	// ==========================================================================
	{
		Name:     "wiki_get_article",
		Method:   "GetArticle",
		Title:    "Read Article",
		Category: "read",
		Description: `Fetch and parse an article by page id.

USE WHEN: You have a page_id from wiki_search and need the article's content.

NOT FOR: Following a link found inside an article (use wiki_open_article).

PARAMETERS:
- page_id: Page id from a search hit (required)
- max_chars: Truncate the content field to this many bytes (optional, 0 = full article). Summary and sections are always returned in full

RETURNS: Title, language, summary, sections, internal links, categories and content (truncated=true when max_chars cut it).`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_open_article",
		Method:   "OpenArticle",
		Title:    "Open Article Link",
		Category: "read",
		Description: `Fetch and parse the article a wiki link points at.

USE WHEN: An article's links list contains a target you want to follow, e.g. "/wiki/Iron".

NOT FOR: Looking up an article by page id (use wiki_get_article) or fetching external websites.

PARAMETERS:
- target: Link path starting with "/" (required)
- max_chars: Truncate the content field to this many bytes (optional, 0 = full article). Summary and sections are always returned in full

RETURNS: Same shape as wiki_get_article.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
}
