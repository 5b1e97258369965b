package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Local reads files below Root
type Local struct {
	Root     string
	markdown goldmark.Markdown
}

// LocalOption configures a Local fetcher
type LocalOption func(*Local)

// WithMarkdown converts .md and .markdown files to HTML on read, the same
// representation the contents API returns for non-HTML files.
func WithMarkdown() LocalOption {
	return func(l *Local) {
		l.markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		)
	}
}

// NewLocal creates a fetcher rooted at root
func NewLocal(root string, opts ...LocalOption) *Local {
	l := &Local{Root: root}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Fetch implements Fetcher. The context is unused; file reads are not cancellable.
func (l *Local) Fetch(_ context.Context, src Source) (string, error) {
	full := filepath.Join(l.Root, filepath.FromSlash(src.Path))
	b, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrLocalFileNotFound, full, err)
	}

	if l.markdown != nil && isMarkdown(full) {
		var buf bytes.Buffer
		if err := l.markdown.Convert(b, &buf); err != nil {
			return "", fmt.Errorf("convert markdown %s: %w", full, err)
		}
		return buf.String(), nil
	}

	return string(b), nil
}

func isMarkdown(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
