package compose

import (
	"bytes"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HTMLRenderer renders Go html/template text, parsing it on every call.
type HTMLRenderer struct {
	funcs template.FuncMap
}

// NewHTMLRenderer returns a renderer with the default helper functions
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		funcs: template.FuncMap{
			"title": func(s string) string { return cases.Title(language.English).String(s) }, // Casers are not goroutine-safe
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		},
	}
}

// Render implements Renderer
func (r *HTMLRenderer) Render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(r.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", &RenderError{Template: name, Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &RenderError{Template: name, Err: err}
	}
	return buf.String(), nil
}
