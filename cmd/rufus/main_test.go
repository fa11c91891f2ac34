package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/rufus"
	main "github.com/fwojciec/rufus/cmd/rufus"
	"github.com/fwojciec/rufus/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// siteFetcher serves fixed pages and fails for everything else.
func siteFetcher(pages map[string]string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*rufus.FetchResult, error) {
			body, ok := pages[url]
			if !ok {
				return nil, rufus.Errorf(rufus.ETRANSPORT, "GET %s: 404 Not Found", url)
			}
			return &rufus.FetchResult{URL: url, Text: body, Encoding: rufus.DefaultEncoding}, nil
		},
		CloseFn: func() error { return nil },
	}
}

var testSite = map[string]string{
	"https://a.test/": `<html><body><p>Hello</p>` +
		`<ul><li><a href="/nested">nested</a></li><li><a href="/missing">gone</a></li></ul></body></html>`,
	"https://a.test/nested": `<html><body><p>World</p></body></html>`,
}

func TestMain_Run_Query(t *testing.T) {
	t.Parallel()

	t.Run("prints the most similar chunk", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Fetcher = siteFetcher(testSite)

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{
			"query", "world", "https://a.test/",
			"-k", "1", "--chunk-size", "6", "--chunk-overlap", "0",
		}, stdout, stderr)

		require.NoError(t, err)
		assert.Equal(t, "[0] World\n", stdout.String())
		assert.Contains(t, stderr.String(), "skip https://a.test/missing")
		assert.Contains(t, stderr.String(), "Indexed 2 chunks from 2 pages")
	})

	t.Run("empty corpus prints no matches", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Fetcher = siteFetcher(map[string]string{})

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"query", "world", "https://a.test/"}, stdout, stderr)

		require.NoError(t, err)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "no matching chunks")
	})

	t.Run("rejects invalid chunking", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Fetcher = siteFetcher(testSite)

		stderr := &bytes.Buffer{}
		err := m.Run(context.Background(), []string{
			"query", "world", "https://a.test/", "--chunk-size", "10", "--chunk-overlap", "10",
		}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Equal(t, rufus.EINVALID, rufus.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error: chunk overlap")
	})

	t.Run("gemini embedder requires an API key", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Fetcher = siteFetcher(testSite)
		m.Getenv = func(string) string { return "" }

		stderr := &bytes.Buffer{}
		err := m.Run(context.Background(), []string{
			"query", "world", "https://a.test/", "--embedder", "gemini",
		}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "GEMINI_API_KEY not set")
		assert.Contains(t, stderr.String(), "GEMINI_API_KEY environment variable not set")
	})
}

func TestMain_Run_Crawl(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Fetcher = siteFetcher(testSite)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"crawl", "https://a.test/"}, stdout, stderr)

	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld\n", stdout.String())
	assert.Equal(t, 1, strings.Count(stderr.String(), "skip "))
	assert.Contains(t, stderr.String(), "Fetched 2 URLs")
}

func TestMain_Run_CrawlSavesPages(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Fetcher = siteFetcher(testSite)

	out := filepath.Join(t.TempDir(), "pages")
	err := m.Run(context.Background(), []string{"crawl", "--out", out, "https://a.test/"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(out, "a.test", "index.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "source: https://a.test/")
	assert.Contains(t, string(content), "  - https://a.test/nested")
	assert.True(t, strings.HasSuffix(string(content), "Hello\nWorld\n"))
}

func TestMain_Run_VerboseLogsFetches(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Fetcher = siteFetcher(testSite)

	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"crawl", "--verbose", "https://a.test/"}, &bytes.Buffer{}, stderr)

	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "msg=fetch")
	assert.Contains(t, stderr.String(), "url=https://a.test/nested")
}
