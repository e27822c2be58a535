package model

import (
	"fmt"
	"strings"
)

// Limits enforced at validation time. Key and owner lengths are bounded so
// derived cache keys stay well under common backend key limits.
const (
	MaxKeyLen       = 200
	MaxOwnerTypeLen = 50
	MaxOwnerIDLen   = 100
	MaxContentLen   = 1 << 20
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidKey reports whether s is a well-formed chunk key: an ASCII letter or
// digit followed by letters, digits, underscores, dots, or hyphens. The
// charset deliberately excludes ':' so cache keys derived by joining
// segments with colons cannot collide.
func ValidKey(s string) bool {
	if s == "" || len(s) > MaxKeyLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case i > 0 && (c == '_' || c == '.' || c == '-'):
		default:
			return false
		}
	}
	return true
}

// ValidOwnerType reports whether s is a well-formed owner type: a lowercase
// letter followed by lowercase letters, digits, underscores, or hyphens.
func ValidOwnerType(s string) bool {
	if s == "" || len(s) > MaxOwnerTypeLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case i > 0 && (c >= '0' && c <= '9'):
		case i > 0 && (c == '_' || c == '-'):
		default:
			return false
		}
	}
	return true
}

// ValidOwnerID reports whether s is a well-formed owner ID. Owner IDs share
// the chunk key charset, with a shorter length bound.
func ValidOwnerID(s string) bool {
	return len(s) <= MaxOwnerIDLen && ValidKey(s)
}

// ValidateChunk checks a global Chunk for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the chunk is valid.
func ValidateChunk(c *Chunk) error {
	var ve ValidationError

	if !ValidKey(c.Key) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "key",
			Message: fmt.Sprintf("must match [A-Za-z0-9][A-Za-z0-9_.-]* and be at most %d characters, got %q", MaxKeyLen, c.Key),
		})
	}

	if len(c.Content) > MaxContentLen {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "content",
			Message: fmt.Sprintf("must be at most %d bytes, got %d", MaxContentLen, len(c.Content)),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateInlineChunk checks an InlineChunk for constraint violations.
func ValidateInlineChunk(ic *InlineChunk) error {
	var ve ValidationError

	if !ValidOwnerType(ic.OwnerType) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "owner_type",
			Message: fmt.Sprintf("must match [a-z][a-z0-9_-]* and be at most %d characters, got %q", MaxOwnerTypeLen, ic.OwnerType),
		})
	}

	if !ValidOwnerID(ic.OwnerID) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "owner_id",
			Message: fmt.Sprintf("must match [A-Za-z0-9][A-Za-z0-9_.-]* and be at most %d characters, got %q", MaxOwnerIDLen, ic.OwnerID),
		})
	}

	if !ValidKey(ic.Key) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "key",
			Message: fmt.Sprintf("must match [A-Za-z0-9][A-Za-z0-9_.-]* and be at most %d characters, got %q", MaxKeyLen, ic.Key),
		})
	}

	if len(ic.Content) > MaxContentLen {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "content",
			Message: fmt.Sprintf("must be at most %d bytes, got %d", MaxContentLen, len(ic.Content)),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateOwnerRef checks an owner reference for constraint violations.
func ValidateOwnerRef(r OwnerRef) error {
	var ve ValidationError

	if !ValidOwnerType(r.Type) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "type",
			Message: fmt.Sprintf("must match [a-z][a-z0-9_-]* and be at most %d characters, got %q", MaxOwnerTypeLen, r.Type),
		})
	}

	if !ValidOwnerID(r.ID) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "id",
			Message: fmt.Sprintf("must match [A-Za-z0-9][A-Za-z0-9_.-]* and be at most %d characters, got %q", MaxOwnerIDLen, r.ID),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
