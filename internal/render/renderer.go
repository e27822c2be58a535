package render

// Renderer turns raw chunk content plus a render context into final text.
// Engine is the standard implementation; tests substitute counting fakes.
type Renderer interface {
	Render(rctx *Context, content string) (string, error)
}
