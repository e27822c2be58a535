package page

import (
	"strings"

	"github.com/chunkworks/chunkd/internal/render"
	"github.com/chunkworks/chunkd/internal/resolve"
)

// Template is a parsed page body: a flat list of text and directive nodes.
type Template struct {
	nodes []node
}

// Render walks the node list against rctx and returns the assembled output.
// Only configuration errors (a render-producing directive with no ambient
// request) and infrastructure failures propagate; missing chunks and
// unresolvable owner variables produce empty output.
func (t *Template) Render(rctx *render.Context) (string, error) {
	var out strings.Builder
	for _, n := range t.nodes {
		if err := n.render(rctx, &out); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

type node interface {
	render(rctx *render.Context, out *strings.Builder) error
}

type textNode struct {
	text string
}

func (n *textNode) render(rctx *render.Context, out *strings.Builder) error {
	out.WriteString(n.text)
	return nil
}

// chunkNode implements {% chunk "<key>" [cache_time] %}.
type chunkNode struct {
	engine *Engine
	key    string
	ttl    int
}

func (n *chunkNode) render(rctx *render.Context, out *strings.Builder) error {
	text, err := n.engine.resolver.Global(rctx, n.key, n.ttl)
	if err != nil {
		return err
	}
	out.WriteString(text)
	return nil
}

// objectChunkNode implements {% object_chunk <owner> "<key>" [cache_time]
// ["<default_key>"] %}.
type objectChunkNode struct {
	engine     *Engine
	ownerVar   string
	key        string
	ttl        int
	defaultKey string
}

func (n *objectChunkNode) render(rctx *render.Context, out *strings.Builder) error {
	// An unbound owner variable, or one holding something that is not an
	// Owner, is an unresolved reference: empty output, no error.
	owner := lookupOwner(rctx, n.ownerVar)
	text, err := n.engine.resolver.Object(rctx, owner, n.key, n.ttl, n.defaultKey)
	if err != nil {
		return err
	}
	out.WriteString(text)
	return nil
}

// chunksListNode implements {% object_chunks_list <owner> <target_name> %}.
// It renders nothing; its effect is binding the owner's aggregated chunk
// mapping into the render context.
type chunksListNode struct {
	engine   *Engine
	ownerVar string
	target   ref
}

func (n *chunksListNode) render(rctx *render.Context, out *strings.Builder) error {
	name := n.target.name
	if !n.target.literal {
		v, ok := rctx.Var(n.target.name)
		s, isString := v.(string)
		if !ok || !isString || s == "" {
			// Target name cannot be resolved: bind nothing, stay silent.
			return nil
		}
		name = s
	}

	owner := lookupOwner(rctx, n.ownerVar)
	if owner == nil {
		rctx.SetVar(name, map[string]string{})
		return nil
	}

	chunks, err := owner.Chunks(rctx)
	if err != nil {
		return err
	}
	rctx.SetVar(name, chunks)
	return nil
}

// lookupOwner resolves an owner variable from the render context, returning
// nil when the variable is unbound or holds a non-Owner value.
func lookupOwner(rctx *render.Context, name string) resolve.Owner {
	v, ok := rctx.Var(name)
	if !ok {
		return nil
	}
	owner, ok := v.(resolve.Owner)
	if !ok {
		return nil
	}
	return owner
}
