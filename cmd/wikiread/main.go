// Command wikiread queries a MediaWiki site from the command line.
//
// Usage:
//
//	wikiread [flags] search <title>
//	wikiread [flags] next <title> <continue> <sroffset>
//	wikiread [flags] article <page-id>
//	wikiread [flags] open <target>
//
// Results are printed to stdout as JSON. Exit status is 1 for network
// failures, 2 for usage, configuration or input errors and 3 when the wiki
// answered with something that could not be used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/bytedance/sonic"

	apierrors "github.com/olgasafonova/wikiread-mcp-server/internal/errors"
	"github.com/olgasafonova/wikiread-mcp-server/internal/wiki"
)

const (
	exitOK      = 0
	exitNetwork = 1
	exitUsage   = 2
	exitRemote  = 3
)

const usage = `Usage: wikiread [flags] <command> [arguments]

Commands:
  search <title>                         first page of search results
  next <title> <continue> <sroffset>     next page of search results
  article <page-id>                      fetch and parse an article by page id
  open <target>                          fetch and parse an article link, e.g. /wiki/Go

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	configPath string
	parser     string
	dryRun     bool
	maxChars   int
	verbose    bool
	command    string
	args       []string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("wikiread", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (defaults to $WIKI_CONFIG)")
	fs.StringVar(&opts.parser, "parser", "", "Article parser: default or markdown")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print the request URL instead of sending it")
	fs.IntVar(&opts.maxChars, "max-chars", 0, "Truncate article content to this many bytes (0 = no limit)")
	fs.BoolVar(&opts.verbose, "v", false, "Log requests to stderr")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, fmt.Errorf("missing command")
	}

	opts.command = fs.Arg(0)
	opts.args = fs.Args()[1:]

	want := map[string]int{"search": 1, "next": 3, "article": 1, "open": 1}
	n, ok := want[opts.command]
	if !ok {
		fs.Usage()
		return nil, fmt.Errorf("unknown command %q", opts.command)
	}
	if len(opts.args) != n {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", opts.command, n, len(opts.args))
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitUsage
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	client, err := newClient(opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.dryRun {
		target, err := requestURL(client, opts)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		fmt.Fprintln(stdout, target)
		return exitOK
	}

	result, err := execute(ctx, client, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	enc := sonic.ConfigStd.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "Error: encoding result: %v\n", err)
		return exitRemote
	}
	return exitOK
}

func newClient(opts *options, logger *slog.Logger) (*wiki.Client, error) {
	var (
		config *wiki.Config
		err    error
	)
	if opts.configPath != "" {
		config, err = wiki.LoadConfigFile(opts.configPath)
	} else {
		config, err = wiki.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.parser != "" {
		config.Parser = opts.parser
	}
	return wiki.NewClient(*config, wiki.WithLogger(logger))
}

// execute runs the command through the same validating wrappers the MCP
// tools use.
func execute(ctx context.Context, client *wiki.Client, opts *options) (any, error) {
	switch opts.command {
	case "search":
		return client.SearchMCP(ctx, wiki.SearchArgs{Title: opts.args[0]})
	case "next":
		offset, err := parseInt("sroffset", opts.args[2])
		if err != nil {
			return nil, err
		}
		return client.ContinueSearchMCP(ctx, wiki.ContinueSearchArgs{
			Title:        opts.args[0],
			Continue:     opts.args[1],
			ScrollOffset: offset,
		})
	case "article":
		id, err := parseInt("page_id", opts.args[0])
		if err != nil {
			return nil, err
		}
		return client.GetArticleMCP(ctx, wiki.GetArticleArgs{PageID: id, MaxChars: opts.maxChars})
	case "open":
		return client.OpenArticleMCP(ctx, wiki.OpenArticleArgs{Target: opts.args[0], MaxChars: opts.maxChars})
	}
	return nil, fmt.Errorf("unknown command %q", opts.command)
}

// requestURL returns the URL a command would fetch, after input validation.
func requestURL(client *wiki.Client, opts *options) (string, error) {
	switch opts.command {
	case "search":
		if err := wiki.ValidateTitle(opts.args[0]); err != nil {
			return "", err
		}
		return client.SearchURL(opts.args[0], nil), nil
	case "next":
		offset, err := parseInt("sroffset", opts.args[2])
		if err != nil {
			return "", err
		}
		code := wiki.ContinueCode{Continue: opts.args[1], ScrollOffset: offset}
		if err := wiki.ValidateTitle(opts.args[0]); err != nil {
			return "", err
		}
		if err := wiki.ValidateContinue(code); err != nil {
			return "", err
		}
		return client.SearchURL(opts.args[0], &code), nil
	case "article":
		id, err := parseInt("page_id", opts.args[0])
		if err != nil {
			return "", err
		}
		if err := wiki.ValidatePageID(id); err != nil {
			return "", err
		}
		return client.ArticleURL(id), nil
	case "open":
		if err := wiki.ValidateTarget(opts.args[0]); err != nil {
			return "", err
		}
		return client.TargetURL(opts.args[0]), nil
	}
	return "", fmt.Errorf("unknown command %q", opts.command)
}

func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apierrors.NewValidationError(field, value, "must be an integer")
	}
	return n, nil
}

// exitCode maps the error taxonomy onto process exit status.
func exitCode(err error) int {
	switch apierrors.KindOf(err) {
	case apierrors.KindNetwork:
		return exitNetwork
	case apierrors.KindValidation:
		return exitUsage
	default:
		return exitRemote
	}
}
