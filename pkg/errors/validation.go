package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds instance and document identifiers.
const maxIDLength = 256

// ValidateInstanceID validates a content instance identifier.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//
// Colons are allowed: measurement keys are parsed from the right, so an ID
// never has to be escaped.
func ValidateInstanceID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInstance, "instance id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInstance, "instance id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInstance, "instance id contains invalid control characters")
		}
	}
	return nil
}

// listKindRegex matches list kind names. Kinds appear inside measurement keys
// and therefore cannot contain the key separator.
var listKindRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

// ValidateListKind validates a list kind name.
func ValidateListKind(kind string) error {
	if kind == "" {
		return New(ErrCodeInvalidInput, "list kind cannot be empty")
	}
	if !listKindRegex.MatchString(kind) {
		return New(ErrCodeInvalidInput, "invalid list kind: %q", kind)
	}
	return nil
}

// documentIDRegex matches server document identifiers (UUID text form).
var documentIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateDocumentID validates a document identifier issued by the server.
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "document id cannot be empty")
	}
	if !documentIDRegex.MatchString(strings.ToLower(id)) {
		return New(ErrCodeInvalidInput, "invalid document id: %q", id)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
