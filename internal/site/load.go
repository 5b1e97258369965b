package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig wraps every structural problem found by Validate
	ErrInvalidConfig = errors.New("invalid site config")
)

// RawFetcher fetches a file's stored bytes from a remote project
type RawFetcher interface {
	Raw(ctx context.Context, project, filePath string) (string, error)
}

// Parse decodes YAML into a validated Config
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse site config: %w", err)
	}
	if c.Lib == nil {
		c.Lib = map[string]Lib{}
	}
	if c.Content == nil {
		c.Content = map[string]Page{}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads and parses a local YAML file
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site config %s: %w", path, err)
	}
	return Parse(b)
}

// LoadRemote fetches and parses a YAML file stored in project
func LoadRemote(ctx context.Context, f RawFetcher, project, path string) (*Config, error) {
	s, err := f.Raw(ctx, project, path)
	if err != nil {
		return nil, fmt.Errorf("fetch site config %s:%s: %w", project, path, err)
	}
	return Parse([]byte(s))
}

// Validate checks that every descriptor has a file path and that every
// template reference points at a lib entry. Pinned posts are not checked;
// missing ones are skipped at render time.
func (c *Config) Validate() error {
	var problems []string

	for key, l := range c.Lib {
		if l.FilePath == "" {
			problems = append(problems, fmt.Sprintf("lib %q: missing filePath", key))
		}
	}
	for key, p := range c.Content {
		if p.FilePath == "" {
			problems = append(problems, fmt.Sprintf("content %q: missing filePath", key))
		}
		if p.TmplHTML != "" {
			if _, ok := c.Lib[p.TmplHTML]; !ok {
				problems = append(problems, fmt.Sprintf("content %q: template %q not in lib", key, p.TmplHTML))
			}
		}
	}
	if c.Meta.RecacheSeconds < 0 {
		problems = append(problems, "meta: recacheSeconds must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// RemoteProjects lists the distinct repositories the site reads from
func (c *Config) RemoteProjects() []string {
	seen := map[string]bool{}
	for _, l := range c.Lib {
		if l.GitHubProject != "" {
			seen[l.GitHubProject] = true
		}
	}
	for _, p := range c.Content {
		if p.GitHubProject != "" {
			seen[p.GitHubProject] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
