package errors

import (
	"strings"
	"unicode"
)

// MaxSourceBytes is the largest diagram source accepted for conversion.
// Rendered trees grow superlinearly with source size, so anything beyond
// this is almost certainly not a hand-authored diagram.
const MaxSourceBytes = 1 << 20

// ValidateDiagramSource validates raw diagram source text before it is
// handed to the rendering collaborator.
//
// The validation rules are intentionally conservative:
//   - No empty sources
//   - No null bytes
//   - Maximum size of MaxSourceBytes
//
// Grammar-level validation is the rendering collaborator's job.
func ValidateDiagramSource(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidSource, "diagram source cannot be empty")
	}
	if len(text) > MaxSourceBytes {
		return New(ErrCodeInvalidSource, "diagram source too large (max %d bytes)", MaxSourceBytes)
	}
	if strings.ContainsRune(text, 0) {
		return New(ErrCodeInvalidSource, "diagram source contains null bytes")
	}
	return nil
}

// ValidateDiagramType validates a diagram type identifier.
// Type identifiers are lowercase ASCII words ("flowchart", "sequence", ...);
// whether the type is actually registered is checked by the dispatch
// registry, not here.
func ValidateDiagramType(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "diagram type cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "diagram type too long (max 64 characters)")
	}
	for _, r := range name {
		if r > unicode.MaxASCII || (!unicode.IsLower(r) && !unicode.IsDigit(r)) {
			return New(ErrCodeInvalidInput, "diagram type must be lowercase alphanumeric: %q", name)
		}
	}
	return nil
}

// ValidateOutputPath validates a file path used for writing converted
// documents. It prevents path traversal and unreasonable lengths.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}
	if len(path) > 500 {
		return New(ErrCodeInvalidInput, "output path too long (max 500 characters)")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output path contains control characters")
		}
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "output path cannot contain parent directory references")
	}
	return nil
}
