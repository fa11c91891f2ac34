package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/rufus"
	"github.com/fwojciec/rufus/crawl"
	"github.com/fwojciec/rufus/fs"
	"github.com/fwojciec/rufus/gemini"
	"github.com/fwojciec/rufus/goquery"
	rufushttp "github.com/fwojciec/rufus/http"
	"github.com/fwojciec/rufus/readability"
	"github.com/fwojciec/rufus/retrieval"
	"github.com/fwojciec/rufus/rod"
	rufusslog "github.com/fwojciec/rufus/slog"
	"github.com/fwojciec/rufus/sqlite"
	"github.com/fwojciec/rufus/trafilatura"
	"github.com/fwojciec/rufus/xxhash"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Fetcher replaces the network fetchers when set. Used for end-to-end
	// testing.
	Fetcher rufus.Fetcher

	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Getenv: os.Getenv,
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var first error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("rufus"),
		kong.Description("Crawl seed pages and query their text by semantic similarity."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
		Vars(),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'rufus --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	defer m.Close()

	var flags *CrawlFlags
	switch cmd {
	case "query":
		flags = &cli.Query.CrawlFlags
	case "crawl":
		flags = &cli.Crawl.CrawlFlags
	}

	if flags != nil {
		logger := newLogger(stderr, flags.Verbose)

		crawler, err := m.newCrawler(flags, logger, stderr)
		if err != nil {
			return err
		}
		deps.Crawler = crawler

		if cmd == "crawl" && cli.Crawl.Out != "" {
			deps.Pages = fs.NewFileStore(filepath.Dir(cli.Crawl.Out), filepath.Base(cli.Crawl.Out))
		}

		if cmd == "query" {
			if err := m.wireRetrieval(ctx, &cli.Query, deps, logger, stderr); err != nil {
				return err
			}
		}
	}

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (m *Main) newCrawler(flags *CrawlFlags, logger *slog.Logger, stderr io.Writer) (*crawl.Crawler, error) {
	fetcher := m.Fetcher
	if fetcher == nil {
		if flags.Browser {
			f, err := rod.NewFetcher(rod.WithFetchTimeout(flags.Timeout))
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
				return nil, fmt.Errorf("failed to start browser: %w", err)
			}
			fetcher = f
		} else {
			fetcher = rufushttp.NewFetcher(rufushttp.WithTimeout(flags.Timeout))
		}
		m.closers = append(m.closers, fetcher.Close)
	}

	var extractor rufus.Extractor
	switch flags.Extractor {
	case "article":
		extractor = trafilatura.NewExtractor()
	case "readability":
		extractor = readability.NewExtractor()
	default:
		extractor = goquery.NewExtractor()
	}

	c := &crawl.Crawler{
		Fetcher:     rufusslog.NewLoggingFetcher(fetcher, logger),
		Extractor:   extractor,
		Concurrency: flags.Concurrency,
		Logger: func(format string, args ...any) {
			logger.Warn(fmt.Sprintf(format, args...))
		},
	}
	if flags.Retry {
		c.RetryDelays = crawl.DefaultRetryDelays()
	}
	return c, nil
}

func (m *Main) wireRetrieval(ctx context.Context, q *QueryCmd, deps *Dependencies, logger *slog.Logger, stderr io.Writer) error {
	cfg := rufus.EmbedderConfig{
		Model:     q.Model,
		Device:    q.Device,
		Normalize: q.Normalize,
	}

	var client *genai.Client
	if q.Embedder == "gemini" || q.Answer {
		c, err := m.newGenAIClient(ctx, stderr)
		if err != nil {
			return err
		}
		client = c
	}

	var embedder rufus.Embedder
	switch q.Embedder {
	case "gemini":
		if cfg.Model == "" {
			cfg.Model = gemini.DefaultEmbeddingModel
		}
		e, err := gemini.NewEmbedder(client, cfg)
		if err != nil {
			return err
		}
		embedder = e
	default:
		if cfg.Model == "" {
			cfg.Model = xxhash.DefaultModel
		}
		e, err := xxhash.NewEmbedder(cfg)
		if err != nil {
			return err
		}
		embedder = e
	}

	svc := &retrieval.Service{
		Crawler:  deps.Crawler,
		Embedder: rufusslog.NewLoggingEmbedder(embedder, logger),
		Indexes:  sqlite.NewIndexBuilder(),

		ChunkSize:    q.ChunkSize,
		ChunkOverlap: q.ChunkOverlap,
	}
	m.closers = append(m.closers, svc.Close)

	if q.CountTokens {
		tc, err := gemini.NewTokenCounter(gemini.DefaultTokenizerModel)
		if err != nil {
			return fmt.Errorf("failed to create token counter: %w", err)
		}
		svc.TokenCounter = tc
	}

	deps.Retrieval = svc
	if q.Answer {
		deps.Asker = gemini.NewAsker(client, svc)
	}
	return nil
}

func (m *Main) newGenAIClient(ctx context.Context, stderr io.Writer) (*genai.Client, error) {
	apiKey := m.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	return client, nil
}
