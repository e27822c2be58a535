package page

import "fmt"

// SyntaxError describes a malformed directive found while parsing a page
// body. It carries the byte offset of the directive so authors can locate
// the mistake. Syntax errors surface at parse time, never at render time.
type SyntaxError struct {
	Offset int
	Tag    string
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s tag at offset %d: %s", e.Tag, e.Offset, e.Msg)
}

func syntaxErr(offset int, tag, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: offset, Tag: tag, Msg: fmt.Sprintf(format, args...)}
}
