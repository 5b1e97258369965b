// Package site holds the load-once site map: content pages, library and
// template files, header navigation and site-wide defaults.
package site

import (
	"time"

	"github.com/ryanlaycock/gitsite/internal/source"
)

const (
	// DefaultRecacheSeconds applies when meta.recacheSeconds is unset
	DefaultRecacheSeconds = 10
	// DefaultIndex is the content key served at "/"
	DefaultIndex = "index"
)

// Config is the whole site map. It is never mutated after Parse returns.
type Config struct {
	Meta    Meta            `yaml:"meta"`
	Header  Header          `yaml:"header"`
	Lib     map[string]Lib  `yaml:"lib"`
	Content map[string]Page `yaml:"content"`
}

// Meta holds site-wide defaults
type Meta struct {
	Title          string `yaml:"title"`
	RecacheSeconds int    `yaml:"recacheSeconds"`
	Index          string `yaml:"index"`
}

// Header holds navigation shown on every composed page
type Header struct {
	Links   []Link   `yaml:"links"`
	Socials []Social `yaml:"socials"`
}

type Link struct {
	Path string `yaml:"path" json:"path"`
	Name string `yaml:"name" json:"name"`
}

type Social struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
	Icon string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// Page describes one content file. Pages with TmplHTML set can be composed.
type Page struct {
	Title          string   `yaml:"title"`
	FilePath       string   `yaml:"filePath"`
	TmplHTML       string   `yaml:"tmplHtml"`
	GitHubProject  string   `yaml:"githubProject"`
	Description    string   `yaml:"description"`
	Date           string   `yaml:"date"`
	PinnedPosts    []string `yaml:"pinnedPosts"`
	RecacheSeconds int      `yaml:"recacheSeconds"`
}

// Lib describes a library asset or an HTML template
type Lib struct {
	FilePath       string `yaml:"filePath"`
	GitHubProject  string `yaml:"githubProject"`
	RecacheSeconds int    `yaml:"recacheSeconds"`
}

// Descriptor is what the resolver needs from a Page or a Lib
type Descriptor interface {
	Source() source.Source
	// MaxAge returns the per-entry override, or def when none is set
	MaxAge(def time.Duration) time.Duration
}

func (p Page) Source() source.Source {
	return source.Source{Path: p.FilePath, Project: p.GitHubProject}
}

func (p Page) MaxAge(def time.Duration) time.Duration {
	return maxAge(p.RecacheSeconds, def)
}

// Composable reports whether the page names a template
func (p Page) Composable() bool {
	return p.TmplHTML != ""
}

func (l Lib) Source() source.Source {
	return source.Source{Path: l.FilePath, Project: l.GitHubProject}
}

func (l Lib) MaxAge(def time.Duration) time.Duration {
	return maxAge(l.RecacheSeconds, def)
}

func maxAge(seconds int, def time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return def
}

// DefaultMaxAge is the site-wide cache duration
func (c *Config) DefaultMaxAge() time.Duration {
	return maxAge(c.Meta.RecacheSeconds, DefaultRecacheSeconds*time.Second)
}

// IndexKey is the content key served at the site root
func (c *Config) IndexKey() string {
	if c.Meta.Index != "" {
		return c.Meta.Index
	}
	return DefaultIndex
}

// LibDescriptor looks up a library or template entry
func (c *Config) LibDescriptor(key string) (Descriptor, bool) {
	l, ok := c.Lib[key]
	return l, ok
}

// ContentDescriptor looks up a content page
func (c *Config) ContentDescriptor(key string) (Descriptor, bool) {
	p, ok := c.Content[key]
	return p, ok
}
