package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Funcs are the helpers available to every prompt template.
var Funcs = template.FuncMap{
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"title": func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	},
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},
	"quote": func(s string) string {
		return fmt.Sprintf("%q", s)
	},
}

// MustParse parses a prompt template at package init and panics on a syntax
// error.
func MustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(Funcs).Parse(text))
}

// Render executes tmpl with data and trims surrounding whitespace.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// RenderTemplate parses and renders text in one go. Text without template
// markers is returned as is.
func RenderTemplate(text string, data any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("prompt").Funcs(Funcs).Parse(text)
	if err != nil {
		return "", err
	}
	return Render(tmpl, data)
}
