package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apierrors "github.com/olgasafonova/wikiread-mcp-server/internal/errors"
)

const searchJSON = `{"batchcomplete":"","continue":{"sroffset":10,"continue":"-||"},"query":{"searchinfo":{"totalhits":42},"search":[{"ns":0,"title":"Go (programming language)","pageid":25039021,"size":90000,"wordcount":7000,"snippet":"<span class=\"searchmatch\">Go</span> is a language","timestamp":"2024-03-01T12:00:00Z"}]}}`

const articleHTML = `<!DOCTYPE html>
<html lang="en"><head><title>Go - Wikipedia</title></head>
<body>
<h1 id="firstHeading">Go (programming language)</h1>
<div id="mw-content-text"><div class="mw-parser-output">
<p><b>Go</b> is a statically typed language designed at <a href="/wiki/Google">Google</a>.</p>
<h2>History</h2>
<p>Go was announced in 2009.</p>
</div></div>
</body></html>`

// setupWiki points WIKI_BASE_URL at a fake wiki and clears the other
// WIKI_ variables.
func setupWiki(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/w/api.php" && r.URL.Query().Get("srsearch") == "broken":
			_, _ = io.WriteString(w, `{"query": [`)
		case r.URL.Path == "/w/api.php":
			_, _ = io.WriteString(w, searchJSON)
		case r.URL.Path == "/" && r.URL.Query().Get("curid") == "25039021":
			_, _ = io.WriteString(w, articleHTML)
		case r.URL.Path == "/wiki/Go_(programming_language)":
			_, _ = io.WriteString(w, articleHTML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	for _, key := range []string{"WIKI_CONFIG", "WIKI_USER_AGENT", "WIKI_TIMEOUT", "WIKI_PARSER"} {
		t.Setenv(key, "")
	}
	t.Setenv("WIKI_BASE_URL", server.URL)
	return server
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Search(t *testing.T) {
	setupWiki(t)

	code, out, errOut := runCLI("search", "Go")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	for _, want := range []string{`"total_hits": 42`, `"page_id": 25039021`, `"Go is a language"`, `"sroffset": 10`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestRun_Next(t *testing.T) {
	setupWiki(t)

	code, out, errOut := runCLI("next", "Go", "-||", "10")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, `"hits"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestRun_Article(t *testing.T) {
	setupWiki(t)

	code, out, errOut := runCLI("article", "25039021")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	for _, want := range []string{`"title": "Go (programming language)"`, `"target": "/wiki/Google"`, `"History"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestRun_OpenMarkdownTruncated(t *testing.T) {
	setupWiki(t)

	code, out, errOut := runCLI("-parser", "markdown", "-max-chars", "10", "open", "/wiki/Go_(programming_language)")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, `"format": "markdown"`) {
		t.Errorf("markdown parser not selected:\n%s", out)
	}
	if !strings.Contains(out, `"truncated": true`) {
		t.Errorf("content should be truncated:\n%s", out)
	}
}

func TestRun_DryRun(t *testing.T) {
	server := setupWiki(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-dry-run", "search", "Go"}, server.URL + "/w/api.php?action=query&list=search&srwhat=text&srsearch=Go&format=json"},
		{[]string{"-dry-run", "next", "Go", "-||", "10"}, server.URL + "/w/api.php?action=query&list=search&srwhat=text&srsearch=Go&format=json&continue=-||&sroffset=10"},
		{[]string{"-dry-run", "article", "42"}, server.URL + "?curid=42"},
		{[]string{"-dry-run", "open", "/wiki/Rust"}, server.URL + "/wiki/Rust"},
	}

	for _, tt := range tests {
		t.Run(tt.args[1], func(t *testing.T) {
			code, out, errOut := runCLI(tt.args...)
			if code != exitOK {
				t.Fatalf("exit = %d, stderr = %s", code, errOut)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("url = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_ExitCodes(t *testing.T) {
	setupWiki(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, exitUsage},
		{"unknown command", []string{"edit", "Go"}, exitUsage},
		{"wrong arity", []string{"next", "Go"}, exitUsage},
		{"bad flag", []string{"-nope", "search", "Go"}, exitUsage},
		{"non-numeric page id", []string{"article", "abc"}, exitUsage},
		{"invalid page id", []string{"article", "0"}, exitUsage},
		{"invalid target", []string{"open", "wiki/Go"}, exitUsage},
		{"unknown parser", []string{"-parser", "pdf", "search", "Go"}, exitUsage},
		{"missing article", []string{"article", "7"}, exitRemote},
		{"malformed json", []string{"search", "broken"}, exitRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(tt.args...)
			if code != tt.want {
				t.Errorf("exit = %d, want %d (stderr = %s)", code, tt.want, errOut)
			}
			if out != "" {
				t.Errorf("failures should not write to stdout: %q", out)
			}
		})
	}
}

func TestRun_NetworkFailure(t *testing.T) {
	setupWiki(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	t.Setenv("WIKI_BASE_URL", "http://"+addr)

	code, _, errOut := runCLI("search", "Go")
	if code != exitNetwork {
		t.Errorf("exit = %d, want %d (stderr = %s)", code, exitNetwork, errOut)
	}
	if !strings.Contains(errOut, "Error:") {
		t.Errorf("stderr should carry the error: %s", errOut)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	server := setupWiki(t)
	t.Setenv("WIKI_BASE_URL", "")

	path := filepath.Join(t.TempDir(), "wikiread.yaml")
	content := fmt.Sprintf("base_url: %s\nparser: markdown\n", server.URL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	code, out, errOut := runCLI("-config", path, "-dry-run", "article", "1")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if got := strings.TrimSpace(out); got != server.URL+"?curid=1" {
		t.Errorf("url = %q", got)
	}

	code, _, _ = runCLI("-config", filepath.Join(t.TempDir(), "missing.yaml"), "search", "Go")
	if code != exitUsage {
		t.Errorf("missing config file: exit = %d, want %d", code, exitUsage)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&apierrors.NetworkError{Op: "search", Err: errors.New("refused")}, exitNetwork},
		{apierrors.NewValidationError("title", "", "required"), exitUsage},
		{&apierrors.StatusError{Op: "get_article", StatusCode: 404}, exitRemote},
		{&apierrors.DeserializeError{Op: "search", Err: errors.New("eof")}, exitRemote},
		{&apierrors.ParseError{Source: "x", Err: errors.New("empty")}, exitRemote},
		{fmt.Errorf("wrapped: %w", &apierrors.NetworkError{Err: errors.New("x")}), exitNetwork},
	}

	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
