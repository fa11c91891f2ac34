package main

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/rufus"
	"github.com/fwojciec/rufus/crawl"
	rufushttp "github.com/fwojciec/rufus/http"
	"github.com/fwojciec/rufus/retrieval"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Crawler   rufus.Crawler
	Retrieval rufus.RetrievalService
	Asker     rufus.Asker
	Pages     rufus.PageStore
}

// Vars returns the flag defaults interpolated into the CLI struct tags.
func Vars() kong.Vars {
	return kong.Vars{
		"default_k":             strconv.Itoa(retrieval.DefaultK),
		"default_chunk_size":    strconv.Itoa(rufus.DefaultChunkSize),
		"default_chunk_overlap": strconv.Itoa(rufus.DefaultChunkOverlap),
		"default_timeout":       rufushttp.DefaultFetchTimeout.String(),
		"default_concurrency":   strconv.Itoa(crawl.DefaultConcurrency),
	}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Query QueryCmd `cmd:"" help:"Crawl seed URLs, index their text and run a similarity query"`
	Crawl CrawlCmd `cmd:"" help:"Crawl seed URLs and print the collected text"`
}

// CrawlFlags configures fetching and extraction.
type CrawlFlags struct {
	Browser     bool          `help:"Fetch pages with a headless browser"`
	Extractor   string        `default:"paragraph" enum:"paragraph,article,readability" help:"Text extractor (paragraph, article, readability)"`
	Timeout     time.Duration `default:"${default_timeout}" help:"Per-fetch timeout"`
	Concurrency int           `short:"c" default:"${default_concurrency}" help:"Concurrent fetch limit"`
	Retry       bool          `help:"Retry failed fetches with backoff"`
	Verbose     bool          `short:"v" help:"Log every fetch to stderr"`
}

// QueryCmd is the "query" subcommand.
type QueryCmd struct {
	Query string   `arg:"" help:"Text to search for"`
	Seeds []string `arg:"" name:"seed" help:"Seed URLs"`

	K            int    `short:"k" default:"${default_k}" help:"Number of chunks to return"`
	ChunkSize    int    `default:"${default_chunk_size}" help:"Maximum chunk length in characters"`
	ChunkOverlap int    `default:"${default_chunk_overlap}" help:"Characters shared by adjacent chunks"`
	Embedder     string `default:"hash" enum:"hash,gemini" help:"Embedding backend (hash, gemini)"`
	Model        string `help:"Embedding model (defaults per backend)"`
	Device       string `default:"cpu" help:"Embedding device"`
	Normalize    bool   `default:"true" negatable:"" help:"Normalize embedding vectors"`
	CountTokens  bool   `help:"Report the token count of the corpus"`
	Answer       bool   `help:"Answer the query from the retrieved chunks with Gemini"`

	CrawlFlags `embed:""`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Seeds []string `arg:"" name:"seed" help:"Seed URLs"`
	Out   string   `short:"o" type:"path" help:"Also save each seed's text under this directory"`

	CrawlFlags `embed:""`
}
