// Package page implements the directive surface front-ends embed in page
// bodies: {% chunk %}, {% object_chunk %}, and {% object_chunks_list %}.
// Everything outside a directive passes through verbatim. Argument
// validation happens entirely at parse time; rendering delegates to the
// chunk resolver.
package page

import (
	"strconv"
	"strings"

	"github.com/chunkworks/chunkd/internal/resolve"
)

const (
	openDelim  = "{%"
	closeDelim = "%}"
)

// Engine parses page bodies into renderable templates bound to a resolver.
type Engine struct {
	resolver *resolve.Resolver
}

// NewEngine creates an Engine that resolves directives through r.
func NewEngine(r *resolve.Resolver) *Engine {
	return &Engine{resolver: r}
}

// Parse scans src for directives and returns a Template. Any malformed
// directive aborts the parse with a *SyntaxError.
func (e *Engine) Parse(src string) (*Template, error) {
	var nodes []node
	pos := 0
	for {
		start := strings.Index(src[pos:], openDelim)
		if start < 0 {
			if pos < len(src) {
				nodes = append(nodes, &textNode{text: src[pos:]})
			}
			break
		}
		start += pos
		if start > pos {
			nodes = append(nodes, &textNode{text: src[pos:start]})
		}

		end := strings.Index(src[start:], closeDelim)
		if end < 0 {
			return nil, syntaxErr(start, "", "unterminated directive")
		}
		end += start

		n, err := e.parseDirective(start, src[start+len(openDelim):end])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		pos = end + len(closeDelim)
	}
	return &Template{nodes: nodes}, nil
}

// parseDirective validates one directive body and builds its node. offset is
// the byte position of the opening delimiter, used in error messages.
func (e *Engine) parseDirective(offset int, body string) (node, error) {
	tokens := strings.Fields(body)
	if len(tokens) == 0 {
		return nil, syntaxErr(offset, "", "empty directive")
	}
	tag := tokens[0]

	switch tag {
	case "chunk":
		// chunk "<key>" [cache_time]
		if len(tokens) < 2 || len(tokens) > 3 {
			return nil, syntaxErr(offset, tag, "expected 2 to 3 arguments, got %d", len(tokens))
		}
		key, err := unquote(offset, tag, "key", tokens[1])
		if err != nil {
			return nil, err
		}
		ttl := 0
		if len(tokens) == 3 {
			if ttl, err = parseCacheTime(offset, tag, tokens[2]); err != nil {
				return nil, err
			}
		}
		return &chunkNode{engine: e, key: key, ttl: ttl}, nil

	case "object_chunk":
		// object_chunk <owner> "<key>" [cache_time] ["<default_key>"]
		if len(tokens) < 3 || len(tokens) > 5 {
			return nil, syntaxErr(offset, tag, "expected 3 to 5 arguments, got %d", len(tokens))
		}
		key, err := unquote(offset, tag, "key", tokens[2])
		if err != nil {
			return nil, err
		}
		n := &objectChunkNode{engine: e, ownerVar: tokens[1], key: key}
		if len(tokens) >= 4 {
			if n.ttl, err = parseCacheTime(offset, tag, tokens[3]); err != nil {
				return nil, err
			}
		}
		if len(tokens) == 5 {
			if n.defaultKey, err = unquote(offset, tag, "default key", tokens[4]); err != nil {
				return nil, err
			}
		}
		return n, nil

	case "object_chunks_list":
		// object_chunks_list <owner> <target_name>
		if len(tokens) != 3 {
			return nil, syntaxErr(offset, tag, "expected exactly 3 arguments, got %d", len(tokens))
		}
		target, err := parseRef(offset, tag, tokens[2])
		if err != nil {
			return nil, err
		}
		return &chunksListNode{engine: e, ownerVar: tokens[1], target: target}, nil

	default:
		return nil, syntaxErr(offset, tag, "unknown tag")
	}
}

// unquote strips matching quote characters from a token. A token that is
// unquoted, or quoted with mismatched characters, is a syntax error.
func unquote(offset int, tag, what, token string) (string, error) {
	if len(token) < 2 {
		return "", syntaxErr(offset, tag, "%s argument should be in quotes", what)
	}
	q := token[0]
	if q != '\'' && q != '"' {
		return "", syntaxErr(offset, tag, "%s argument should be in quotes", what)
	}
	if token[len(token)-1] != q {
		return "", syntaxErr(offset, tag, "%s argument has mismatched quotes", what)
	}
	return token[1 : len(token)-1], nil
}

// parseCacheTime parses a cache_time argument: a non-negative integer
// number of seconds.
func parseCacheTime(offset int, tag, token string) (int, error) {
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, syntaxErr(offset, tag, "cache_time must be an integer, got %q", token)
	}
	if n < 0 {
		return 0, syntaxErr(offset, tag, "cache_time must not be negative, got %d", n)
	}
	return n, nil
}

// ref is an argument that is either a quoted literal or the name of a
// variable resolved from the render context at render time.
type ref struct {
	name    string
	literal bool
}

func parseRef(offset int, tag, token string) (ref, error) {
	if token[0] == '\'' || token[0] == '"' {
		name, err := unquote(offset, tag, "name", token)
		if err != nil {
			return ref{}, err
		}
		return ref{name: name, literal: true}, nil
	}
	return ref{name: token}, nil
}
