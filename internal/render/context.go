// Package render provides the template engine and per-request context
// used when chunk content is rendered into final output.
package render

import (
	"context"
	"net/http"
	"net/url"
)

// RequestData is the subset of an HTTP request exposed to chunk templates.
type RequestData struct {
	Method string
	Host   string
	Path   string
	Query  url.Values
}

// NewRequestData extracts template-visible fields from an HTTP request.
func NewRequestData(r *http.Request) *RequestData {
	return &RequestData{
		Method: r.Method,
		Host:   r.Host,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
	}
}

// Context carries the state for one render pass: a Go context for store
// and cache calls, the ambient request data, and template variables.
// Request is nil when no HTTP request is in scope.
type Context struct {
	Request *RequestData
	Vars    map[string]any

	ctx context.Context
}

// NewContext returns a render context carrying ctx, with no request and
// an empty variable set.
func NewContext(ctx context.Context) *Context {
	return &Context{ctx: ctx, Vars: map[string]any{}}
}

// WithRequest attaches ambient request data and returns the context.
func (c *Context) WithRequest(req *RequestData) *Context {
	c.Request = req
	return c
}

// WithVars merges vars into the context and returns it.
func (c *Context) WithVars(vars map[string]any) *Context {
	for k, v := range vars {
		c.Vars[k] = v
	}
	return c
}

// Var looks up a template variable by name.
func (c *Context) Var(name string) (any, bool) {
	if c == nil || c.Vars == nil {
		return nil, false
	}
	v, ok := c.Vars[name]
	return v, ok
}

// SetVar binds a template variable, creating the variable set if needed.
func (c *Context) SetVar(name string, value any) {
	if c.Vars == nil {
		c.Vars = map[string]any{}
	}
	c.Vars[name] = value
}

// Context returns the Go context for blocking operations.
func (c *Context) Context() context.Context {
	if c == nil || c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// HasRequest reports whether ambient request data is attached.
func (c *Context) HasRequest() bool {
	return c != nil && c.Request != nil
}
