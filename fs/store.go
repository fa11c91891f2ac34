// Package fs saves crawled pages as text files.
package fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/rufus"
)

// URLToPath converts a page URL to a relative file path rooted at its host.
// Example: https://example.com/docs/api/users → example.com/docs/api/users.txt
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rufus.Errorf(rufus.EINVALID, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return "", rufus.Errorf(rufus.EINVALID, "URL %q has no host", rawURL)
	}

	path := strings.TrimPrefix(u.Path, "/")
	switch {
	case path == "":
		path = "index.txt"
	case strings.HasSuffix(path, "/"):
		path += "index.txt"
	default:
		path += ".txt"
	}

	return filepath.Join(u.Host, filepath.FromSlash(path)), nil
}

// FormatPage formats a page with YAML frontmatter listing its nested hops.
func FormatPage(page *rufus.PageResult) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(page.URL)
	if len(page.Nested) > 0 {
		b.WriteString("\nnested:")
		for _, n := range page.Nested {
			b.WriteString("\n  - ")
			b.WriteString(n)
		}
	}
	b.WriteString("\n---\n\n")
	b.WriteString(page.Text)
	return b.String()
}

// Ensure FileStore implements rufus.PageStore at compile time.
var _ rufus.PageStore = (*FileStore)(nil)

// FileStore implements rufus.PageStore with atomic update semantics.
// Pages are saved to a temporary directory, then moved atomically on Commit.
type FileStore struct {
	baseDir string
	name    string
}

// NewFileStore creates a new FileStore.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewFileStore(baseDir, name string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *FileStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

func (s *FileStore) Save(ctx context.Context, page *rufus.PageResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := URLToPath(page.URL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.tempDir(), relPath)
	if rel, err := filepath.Rel(s.tempDir(), fullPath); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return rufus.Errorf(rufus.EINVALID, "path traversal in URL %q", page.URL)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, []byte(FormatPage(page)), 0644)
}

func (s *FileStore) Commit() error {
	// A crawl that saved nothing still replaces the previous output.
	if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
		return err
	}

	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	return os.Rename(s.tempDir(), s.finalDir())
}

func (s *FileStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
