package wiki

import (
	"strconv"
	"strings"

	"github.com/olgasafonova/wikiread-mcp-server/internal/base"
	apierrors "github.com/olgasafonova/wikiread-mcp-server/internal/errors"
)

// MaxTitleLength mirrors MediaWiki's 255-byte title limit, with headroom for
// search operators.
const MaxTitleLength = 300

// ValidateTitle validates search text.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apierrors.NewValidationError("title", title, "search title is required")
	}
	if len(title) > MaxTitleLength {
		return apierrors.NewValidationError("title", base.Truncate(title, 20), "search title cannot exceed "+strconv.Itoa(MaxTitleLength)+" bytes")
	}
	return nil
}

// ValidateContinue validates a continuation code taken from a previous result.
func ValidateContinue(code ContinueCode) error {
	if code.Continue == "" {
		return apierrors.NewValidationError("continue", "", "continuation token is required")
	}
	if strings.ContainsAny(code.Continue, "&#= \t\r\n") {
		return apierrors.NewValidationError("continue", code.Continue, "continuation token must be passed back exactly as received")
	}
	if code.ScrollOffset < 0 {
		return apierrors.NewValidationError("sroffset", strconv.Itoa(code.ScrollOffset), "offset cannot be negative")
	}
	return nil
}

// ValidatePageID validates a page id.
func ValidatePageID(id int) error {
	if id <= 0 {
		return apierrors.NewValidationError("page_id", strconv.Itoa(id), "page id must be positive")
	}
	return nil
}

// ValidateTarget validates a link target. Targets are paths on the wiki,
// never absolute URLs, so requests stay on the configured host.
func ValidateTarget(target string) error {
	if target == "" {
		return apierrors.NewValidationError("target", target, "link target is required")
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return apierrors.NewValidationError("target", target, "link target must be a path starting with /")
	}
	if strings.ContainsAny(target, " \t\r\n") {
		return apierrors.NewValidationError("target", target, "link target must not contain whitespace")
	}
	return nil
}

// ValidateMaxChars validates the optional truncation limit.
func ValidateMaxChars(n int) error {
	if n < 0 {
		return apierrors.NewValidationError("max_chars", strconv.Itoa(n), "max_chars cannot be negative")
	}
	return nil
}
