package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/rufus"
	rufushttp "github.com/fwojciec/rufus/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns HTML body from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body><p>Hello World</p></body></html>"))
		}))
		defer server.Close()

		fetcher := rufushttp.NewFetcher()
		defer fetcher.Close()

		result, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<html><body><p>Hello World</p></body></html>", result.Text)
		assert.Equal(t, "utf-8", result.Encoding)
		assert.Equal(t, server.URL, result.URL)
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
			// "Grüße" in Latin-1
			_, _ = w.Write([]byte{'<', 'p', '>', 'G', 'r', 0xFC, 0xDF, 'e', '<', '/', 'p', '>'})
		}))
		defer server.Close()

		fetcher := rufushttp.NewFetcher()
		defer fetcher.Close()

		result, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<p>Grüße</p>", result.Text)
		assert.Equal(t, "windows-1252", result.Encoding)
	})

	t.Run("returns encoding error for invalid UTF-8", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte{'<', 'p', '>', 0xFF, 0xFE, '<', '/', 'p', '>'})
		}))
		defer server.Close()

		fetcher := rufushttp.NewFetcher()
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, rufus.EENCODING, rufus.ErrorCode(err))
	})

	t.Run("returns encoding error for unknown charset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=klingon")
			_, _ = w.Write([]byte("<p>Qapla'</p>"))
		}))
		defer server.Close()

		fetcher := rufushttp.NewFetcher()
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, rufus.EENCODING, rufus.ErrorCode(err))
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		// Use a very short timeout that will expire before server responds
		fetcher := rufushttp.NewFetcher(rufushttp.WithTimeout(10 * time.Millisecond))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, rufus.ETRANSPORT, rufus.ErrorCode(err))
	})

	t.Run("leaves a caller's client untouched", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("<p>slow</p>"))
		}))
		defer server.Close()

		shared := &http.Client{Timeout: time.Minute}
		short := rufushttp.NewFetcher(rufushttp.WithClient(shared), rufushttp.WithTimeout(10*time.Millisecond))
		defer short.Close()
		long := rufushttp.NewFetcher(rufushttp.WithClient(shared), rufushttp.WithTimeout(5*time.Second))
		defer long.Close()

		assert.Equal(t, time.Minute, shared.Timeout)

		_, err := short.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, rufus.ETRANSPORT, rufus.ErrorCode(err))

		result, err := long.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<p>slow</p>", result.Text)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		fetcher := rufushttp.NewFetcher()
		defer fetcher.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := fetcher.Fetch(ctx, server.URL)
		require.Error(t, err)
		assert.Equal(t, rufus.ETRANSPORT, rufus.ErrorCode(err))
	})

	t.Run("returns transport error for non-existent host", func(t *testing.T) {
		t.Parallel()

		fetcher := rufushttp.NewFetcher(rufushttp.WithTimeout(100 * time.Millisecond))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), "http://non-existent-host.invalid/page")
		require.Error(t, err)
		assert.Equal(t, rufus.ETRANSPORT, rufus.ErrorCode(err))
	})

	t.Run("returns transport error for non-2xx status codes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("404 Not Found"))
		}))
		defer server.Close()

		fetcher := rufushttp.NewFetcher()
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, rufus.ETRANSPORT, rufus.ErrorCode(err))
		assert.Contains(t, rufus.ErrorMessage(err), "404")
	})

	t.Run("accepts any 2xx status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNonAuthoritativeInfo)
			_, _ = w.Write([]byte("<p>cached</p>"))
		}))
		defer server.Close()

		fetcher := rufushttp.NewFetcher()
		defer fetcher.Close()

		result, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<p>cached</p>", result.Text)
	})
}

func TestContentCharset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "utf-8", rufushttp.ContentCharset(""))
	assert.Equal(t, "utf-8", rufushttp.ContentCharset("text/html"))
	assert.Equal(t, "Shift_JIS", rufushttp.ContentCharset(`text/html; charset="Shift_JIS"`))
	assert.Equal(t, "utf-8", rufushttp.ContentCharset("not a media type;;"))
}

func TestDecode(t *testing.T) {
	t.Parallel()

	text, enc, err := rufushttp.Decode([]byte("plain"), "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "plain", text)
	assert.Equal(t, "utf-8", enc)
}

// Compile-time verification that Fetcher implements rufus.Fetcher
var _ rufus.Fetcher = (*rufushttp.Fetcher)(nil)
