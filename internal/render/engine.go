package render

import (
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Engine renders chunk content as a text template with a small helper
// function set. Chunk content is operator-authored markup, so output is
// not HTML-escaped. A single Engine is shared by all resolutions.
type Engine struct {
	logger *slog.Logger
	funcs  template.FuncMap
}

// templateData is the root object visible to chunk templates.
type templateData struct {
	Request *RequestData
	Vars    map[string]any
}

// Compile-time check that Engine implements Renderer.
var _ Renderer = (*Engine)(nil)

// NewEngine creates an Engine with the standard helper functions.
func NewEngine(logger *slog.Logger) *Engine {
	e := &Engine{logger: logger}
	titler := cases.Title(language.Und)
	e.funcs = template.FuncMap{
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"title":   titler.String,
		"trim":    strings.TrimSpace,
		"replace": strings.ReplaceAll,
		"now": func(layout string) string {
			return time.Now().Format(layout)
		},
	}
	return e
}

// requestFuncs returns the helper functions bound to one request. They
// return empty strings when no request is in scope, matching how missing
// chunks degrade rather than erroring mid-render.
func requestFuncs(req *RequestData) template.FuncMap {
	return template.FuncMap{
		"query": func(name string) string {
			if req == nil {
				return ""
			}
			return req.Query.Get(name)
		},
		"path": func() string {
			if req == nil {
				return ""
			}
			return req.Path
		},
		"host": func() string {
			if req == nil {
				return ""
			}
			return req.Host
		},
	}
}

// Render parses and executes content against rctx. Malformed template
// syntax and execution failures are returned as errors; callers decide
// whether those propagate or degrade to empty output.
func (e *Engine) Render(rctx *Context, content string) (string, error) {
	data := templateData{Vars: map[string]any{}}
	if rctx != nil {
		data.Request = rctx.Request
		if rctx.Vars != nil {
			data.Vars = rctx.Vars
		}
	}

	tmpl, err := template.New("chunk").Funcs(e.funcs).Funcs(requestFuncs(data.Request)).Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse chunk template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		e.logger.Warn("chunk template execution failed", "error", err)
		return "", fmt.Errorf("execute chunk template: %w", err)
	}
	return buf.String(), nil
}
