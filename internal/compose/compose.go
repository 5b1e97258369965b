// Package compose builds a finished page from a template, a resolved body
// and site metadata.
package compose

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ryanlaycock/gitsite/internal/site"
)

// Renderer executes template text against data. Swapping it changes the
// template language without touching how the page data is assembled.
type Renderer interface {
	Render(name, text string, data any) (string, error)
}

// RenderError is returned when a template cannot be parsed or executed
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// PinnedPost is the summary of another content page shown on this one
type PinnedPost struct {
	Title       string
	Description string
	Date        string
	Link        string
}

// Data is what a page template sees
type Data struct {
	Content     template.HTML
	Links       []site.Link
	Socials     []site.Social
	PageTitle   string
	SiteTitle   string
	PinnedPosts []PinnedPost
}

// Composer assembles Data from the site map and hands it to a Renderer
type Composer struct {
	site     *site.Config
	renderer Renderer
}

// New creates a Composer. A nil renderer selects HTMLRenderer.
func New(cfg *site.Config, r Renderer) *Composer {
	if r == nil {
		r = NewHTMLRenderer()
	}
	return &Composer{site: cfg, renderer: r}
}

// Compose renders tmpl for page with body as its content.
// The template name is only used in error messages.
func (c *Composer) Compose(name, tmpl, body string, page site.Page) (string, error) {
	data := Data{
		Content:     template.HTML(body),
		Links:       c.site.Header.Links,
		Socials:     c.site.Header.Socials,
		PageTitle:   page.Title,
		SiteTitle:   c.site.Meta.Title,
		PinnedPosts: c.Pinned(page),
	}

	out, err := c.renderer.Render(name, tmpl, data)
	if err != nil {
		var re *RenderError
		if errors.As(err, &re) {
			return "", err
		}
		return "", &RenderError{Template: name, Err: err}
	}
	return out, nil
}

// Pinned returns summaries for the page's pinned posts in configured order.
// Keys missing from the content map are skipped.
func (c *Composer) Pinned(page site.Page) []PinnedPost {
	if len(page.PinnedPosts) == 0 {
		return nil
	}
	out := make([]PinnedPost, 0, len(page.PinnedPosts))
	for _, key := range page.PinnedPosts {
		p, ok := c.site.Content[key]
		if !ok {
			continue
		}
		title := p.Title
		if title == "" {
			title = titleFromKey(key)
		}
		out = append(out, PinnedPost{
			Title:       title,
			Description: p.Description,
			Date:        p.Date,
			Link:        key,
		})
	}
	return out
}

// "blog/my-first_post" -> "My First Post"
func titleFromKey(key string) string {
	base := key
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return cases.Title(language.English).String(base)
}
