// Package view renders the journal's HTML templates.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/moodjournal/moodjournal/internal/dates"
	"github.com/moodjournal/moodjournal/web"
)

// ErrNotInitialised reports a nil engine.
var ErrNotInitialised = errors.New("view: template engine not initialised")

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	Theme       string
	Notice      string
	CurrentPath string
	Data        any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	return NewEngineFS(web.Templates, web.Static)
}

// NewEngineFS parses templates from arbitrary file systems laid out like web/.
func NewEngineFS(templates, static fs.FS) (*Engine, error) {
	stylesheet, err := fs.ReadFile(static, "static/css/app.css")
	if err != nil {
		return nil, fmt.Errorf("view: read stylesheet: %w", err)
	}
	funcMap := template.FuncMap{
		"displayDate": dates.ToDisplay,
		"shortDate":   dates.ShortLabel,
		"round": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 0, 64)
		},
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"inlineCSS": func() template.CSS {
			return template.CSS(stylesheet)
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
		"templates/regions/*.html",
	)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders like Render with an explicit status code. Nothing is
// written when the template fails.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return ErrNotInitialised
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderString executes a named template into a string.
func (e *Engine) RenderString(name string, data TemplateData) (string, error) {
	if e == nil {
		return "", ErrNotInitialised
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
