package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	apierrors "github.com/olgasafonova/wikiread-mcp-server/internal/errors"
	"github.com/olgasafonova/wikiread-mcp-server/internal/wiki"
	"github.com/olgasafonova/wikiread-mcp-server/metrics"
)

const searchJSON = `{"batchcomplete":"","query":{"searchinfo":{"totalhits":1},"search":[{"ns":0,"title":"Go (programming language)","pageid":25039021,"size":1,"wordcount":1,"snippet":"","timestamp":"2024-01-01T00:00:00Z"}]}}`

func newTestRegistry(t *testing.T, baseURL string) *HandlerRegistry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client, err := wiki.NewClient(wiki.Config{BaseURL: baseURL}, wiki.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(client.Close)
	return NewHandlerRegistry(client, logger)
}

func TestNewHandlerRegistry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := wiki.NewClient(wiki.Config{})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	registry := NewHandlerRegistry(client, logger)

	if registry == nil {
		t.Fatal("Expected non-nil registry")
	}
	if registry.client != client {
		t.Error("Registry should hold the wiki client reference")
	}
	if registry.logger != logger {
		t.Error("Registry should hold the logger reference")
	}
}

func TestRegisterAll(t *testing.T) {
	registry := newTestRegistry(t, "https://en.wikipedia.org")
	server := mcp.NewServer(&mcp.Implementation{Name: "wikiread-test", Version: "test"}, nil)

	if got := registry.RegisterAll(server); got != len(AllTools) {
		t.Errorf("RegisterAll() = %d, want %d", got, len(AllTools))
	}
	if len(AllTools) != 4 {
		t.Errorf("expected 4 tools, got %d", len(AllTools))
	}
}

func TestRegisterByName_UnknownMethod(t *testing.T) {
	registry := newTestRegistry(t, "https://en.wikipedia.org")
	server := mcp.NewServer(&mcp.Implementation{Name: "wikiread-test", Version: "test"}, nil)

	if registry.registerByName(server, ToolSpec{Name: "wiki_edit", Method: "Edit"}) {
		t.Error("unknown method should not be registered")
	}
}

func TestBuildTool(t *testing.T) {
	registry := newTestRegistry(t, "https://en.wikipedia.org")

	tests := []struct {
		name      string
		spec      ToolSpec
		wantName  string
		wantDesc  string
		wantRO    bool
		wantIdem  bool
		wantDestr bool
		wantOpen  bool
	}{
		{
			name: "read-only tool",
			spec: ToolSpec{
				Name:        "wiki_search",
				Title:       "Search Wiki",
				Description: "Search the wiki",
				Method:      "Search",
				ReadOnly:    true,
				Idempotent:  true,
			},
			wantName: "wiki_search",
			wantDesc: "Search the wiki",
			wantRO:   true,
			wantIdem: true,
		},
		{
			name: "open world tool",
			spec: ToolSpec{
				Name:        "wiki_open_article",
				Title:       "Open Article Link",
				Description: "Follow a link",
				Method:      "OpenArticle",
				OpenWorld:   true,
			},
			wantName: "wiki_open_article",
			wantDesc: "Follow a link",
			wantOpen: true,
		},
		{
			name: "destructive tool",
			spec: ToolSpec{
				Name:        "wiki_purge",
				Description: "Purge a page",
				Destructive: true,
			},
			wantName:  "wiki_purge",
			wantDesc:  "Purge a page",
			wantDestr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := registry.buildTool(tt.spec)

			if tool.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", tool.Name, tt.wantName)
			}
			if tool.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", tool.Description, tt.wantDesc)
			}
			if tool.Annotations == nil {
				t.Fatal("Expected annotations")
			}
			if tool.Annotations.ReadOnlyHint != tt.wantRO {
				t.Errorf("ReadOnlyHint = %v, want %v", tool.Annotations.ReadOnlyHint, tt.wantRO)
			}
			if tool.Annotations.IdempotentHint != tt.wantIdem {
				t.Errorf("IdempotentHint = %v, want %v", tool.Annotations.IdempotentHint, tt.wantIdem)
			}
			if tt.wantDestr != (tool.Annotations.DestructiveHint != nil && *tool.Annotations.DestructiveHint) {
				t.Errorf("DestructiveHint = %v, want %v", tool.Annotations.DestructiveHint, tt.wantDestr)
			}
			if tt.wantOpen && (tool.Annotations.OpenWorldHint == nil || !*tool.Annotations.OpenWorldHint) {
				t.Error("Expected OpenWorldHint to be true")
			}
		})
	}
}

func TestWrap_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, searchJSON)
	}))
	defer server.Close()

	registry := newTestRegistry(t, server.URL)
	spec, _ := ByName("wiki_search")
	before := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(spec.Name, "success"))

	handler := wrap(registry, spec, registry.client.SearchMCP)
	res, result, err := handler(context.Background(), nil, wiki.SearchArgs{Title: "Go"})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if res != nil {
		t.Error("structured results should leave CallToolResult to the SDK")
	}
	if result.TotalHits != 1 || len(result.Hits) != 1 || result.Hits[0].PageID != 25039021 {
		t.Errorf("result = %+v", result)
	}

	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(spec.Name, "success")); got != before+1 {
		t.Errorf("success counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(metrics.RequestInFlight.WithLabelValues(spec.Name)); got != 0 {
		t.Errorf("in-flight gauge = %v, want 0", got)
	}
}

func TestWrap_Error(t *testing.T) {
	registry := newTestRegistry(t, "https://en.wikipedia.org")
	spec, _ := ByName("wiki_get_article")
	before := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(spec.Name, "error"))

	handler := wrap(registry, spec, registry.client.GetArticleMCP)
	_, _, err := handler(context.Background(), nil, wiki.GetArticleArgs{PageID: -1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "wiki_get_article failed:") {
		t.Errorf("error should name the tool: %v", err)
	}
	if !apierrors.IsValidation(err) {
		t.Errorf("ValidationError should survive wrapping: %v", err)
	}

	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(spec.Name, "error")); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

func TestWrap_RecoversPanic(t *testing.T) {
	registry := newTestRegistry(t, "https://en.wikipedia.org")
	spec := ToolSpec{Name: "panicky_tool", Category: "test"}
	before := testutil.ToFloat64(metrics.PanicsRecovered.WithLabelValues(spec.Name))

	handler := wrap(registry, spec, func(context.Context, wiki.SearchArgs) (wiki.SearchResult, error) {
		panic("boom")
	})
	_, _, err := handler(context.Background(), nil, wiki.SearchArgs{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Errorf("expected internal error, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.PanicsRecovered.WithLabelValues(spec.Name)); got != before+1 {
		t.Errorf("panic counter = %v, want %v", got, before+1)
	}
}

func TestRecoverPanic(t *testing.T) {
	registry := newTestRegistry(t, "https://en.wikipedia.org")

	var err error
	func() {
		defer registry.recoverPanic("test_tool", &err)
		panic("test panic")
	}()

	if err == nil {
		t.Error("recoverPanic should set the error")
	}
	if errors.Unwrap(err) != nil {
		t.Error("panic value should not be wrapped into the error")
	}
}

func TestLogExecution(t *testing.T) {
	registry := newTestRegistry(t, "https://en.wikipedia.org")
	spec := ToolSpec{Name: "test_tool", Category: "search"}

	// must not panic on any Args/Result pair, including nil articles
	registry.logExecution(spec,
		wiki.SearchArgs{Title: "Go"},
		wiki.SearchResult{Hits: []wiki.HitSummary{{Title: "Go"}}, TotalHits: 1})
	registry.logExecution(spec,
		wiki.ContinueSearchArgs{Title: "Go", Continue: "-||", ScrollOffset: 10},
		wiki.SearchResult{})
	registry.logExecution(spec,
		wiki.GetArticleArgs{PageID: 1},
		wiki.ArticleResult{})
	registry.logExecution(spec,
		wiki.OpenArticleArgs{Target: "/wiki/Go"},
		wiki.ArticleResult{})
}

func TestAllToolsNotEmpty(t *testing.T) {
	if len(AllTools) == 0 {
		t.Error("AllTools should not be empty")
	}

	seen := make(map[string]bool)
	for i, spec := range AllTools {
		if spec.Name == "" {
			t.Errorf("Tool %d has empty Name", i)
		}
		if seen[spec.Name] {
			t.Errorf("Tool %s is declared twice", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Method == "" {
			t.Errorf("Tool %s has empty Method", spec.Name)
		}
		if spec.Description == "" {
			t.Errorf("Tool %s has empty Description", spec.Name)
		}
		if !spec.ReadOnly || spec.Destructive {
			t.Errorf("Tool %s must be read-only", spec.Name)
		}
	}
}

func TestArticleToolsDescribeTruncation(t *testing.T) {
	for _, name := range []string{"wiki_get_article", "wiki_open_article"} {
		var desc string
		for _, spec := range AllTools {
			if spec.Name == name {
				desc = spec.Description
			}
		}
		if !strings.Contains(desc, "Summary and sections are always returned in full") {
			t.Errorf("%s should say max_chars only truncates content:\n%s", name, desc)
		}
	}
}

func TestToolSpecMethods(t *testing.T) {
	knownMethods := map[string]bool{
		"Search":         true,
		"ContinueSearch": true,
		"GetArticle":     true,
		"OpenArticle":    true,
	}

	for _, spec := range AllTools {
		if !knownMethods[spec.Method] {
			t.Errorf("Tool %s has unknown method: %s", spec.Name, spec.Method)
		}
	}
}

func TestByName(t *testing.T) {
	spec, ok := ByName("wiki_continue_search")
	if !ok || spec.Method != "ContinueSearch" {
		t.Errorf("ByName() = %+v, %v", spec, ok)
	}
	if _, ok := ByName("wiki_edit"); ok {
		t.Error("unknown tool should not be found")
	}
}

func TestToolsByCategory(t *testing.T) {
	for _, category := range []string{"search", "read"} {
		tools := ToolsByCategory(category)
		if len(tools) != 2 {
			t.Errorf("expected 2 %s tools, got %d", category, len(tools))
		}
		for _, tool := range tools {
			if tool.Category != category {
				t.Errorf("Tool %s has category %s, expected %s", tool.Name, tool.Category, category)
			}
		}
	}
}
