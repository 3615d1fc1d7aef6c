package evals

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	quotedRe   = regexp.MustCompile(`"([^"]+)"`)
	targetRe   = regexp.MustCompile(`(/wiki/[^\s"']+)`)
	pageIDRe   = regexp.MustCompile(`(?i)\b(?:page ?id|curid|page)\s*(?:=|#|:)?\s*(\d+)\b`)
	tokenRe    = regexp.MustCompile(`(?i)\btoken\s+(\S+)`)
	offsetRe   = regexp.MustCompile(`(?i)\boffset\s+(\d+)\b`)
	maxCharsRe = regexp.MustCompile(`(?i)\b(\d+)\s+(?:characters|chars|bytes)\b`)
	aboutRe    = regexp.MustCompile(`(?i)\b(?:about|for|on)\s+(.+?)[.?!]?$`)
)

var continueWords = []string{"next page", "more results", "continue", "keep going", "following results"}

// KeywordSelector is a rule-based ToolSelector. It is the baseline an LLM
// selector should beat, and keeps the eval data honest: every case should be
// unambiguous enough for simple rules to place.
type KeywordSelector struct{}

// SelectTool implements ToolSelector.
func (KeywordSelector) SelectTool(input string) (string, map[string]any, error) {
	lower := strings.ToLower(input)
	args := make(map[string]any)

	if m := maxCharsRe.FindStringSubmatch(input); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			args["max_chars"] = float64(n)
		}
	}

	if m := targetRe.FindStringSubmatch(input); m != nil {
		args["target"] = strings.TrimRight(m[1], ".,;:!?")
		return "wiki_open_article", args, nil
	}

	if m := pageIDRe.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[1])
		args["page_id"] = float64(n)
		return "wiki_get_article", args, nil
	}

	delete(args, "max_chars")
	if title := searchTitle(input); title != "" {
		args["title"] = title
	}

	for _, w := range continueWords {
		if strings.Contains(lower, w) {
			if m := tokenRe.FindStringSubmatch(input); m != nil {
				args["continue"] = m[1]
			}
			if m := offsetRe.FindStringSubmatch(input); m != nil {
				n, _ := strconv.Atoi(m[1])
				args["sroffset"] = float64(n)
			}
			return "wiki_continue_search", args, nil
		}
	}

	return "wiki_search", args, nil
}

// searchTitle pulls the search text out of a request: quoted text wins,
// then whatever follows "about", "for" or "on".
func searchTitle(input string) string {
	if m := quotedRe.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if m := aboutRe.FindStringSubmatch(input); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
