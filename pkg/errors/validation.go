package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// curieRegex matches compact identifiers such as UBERON:0001021 or
// ilxtr:neuron-type-keast-1.
var curieRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*:[^\s:/][^\s]*$`)

// ValidateEntity checks that id names an ontology term: either a CURIE or an
// absolute http(s) IRI. Knowledge lookups build URLs and Cypher text from
// entity ids, so anything with quotes, braces or control characters is
// rejected.
func ValidateEntity(id string) error {
	if id == "" {
		return New(ErrCodeInvalidEntity, "entity id cannot be empty")
	}
	if len(id) > 512 {
		return New(ErrCodeInvalidEntity, "entity id too long (max 512 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidEntity, "entity id contains invalid characters: %q", id)
		}
	}
	if strings.ContainsAny(id, "\"'{}\\`") {
		return New(ErrCodeInvalidEntity, "entity id contains invalid characters: %q", id)
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return nil
	}
	if !curieRegex.MatchString(id) {
		return New(ErrCodeInvalidEntity, "not a CURIE or IRI: %q", id)
	}
	return nil
}

// ValidateSource checks a knowledge source name such as sckan-2024-03-04.
func ValidateSource(source string) error {
	if source == "" {
		return New(ErrCodeInvalidInput, "knowledge source cannot be empty")
	}
	if strings.ContainsFunc(source, func(r rune) bool {
		return unicode.IsControl(r) || unicode.IsSpace(r) || r == '/' || r == '\\'
	}) {
		return New(ErrCodeInvalidInput, "knowledge source contains invalid characters: %q", source)
	}
	return nil
}

// ValidatePath validates a relative file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
