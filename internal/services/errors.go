package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFetch             = errors.New("fetch error")
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrImageDecode       = errors.New("image decode error")
	ErrUnknownLabel      = errors.New("unknown label")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrInternal          = errors.New("internal error")
)

// Failure kinds persisted on ledger runs and attached to log records. Each
// corresponds to one sentinel above.
const (
	KindFetch             = "fetch"
	KindDirectoryNotFound = "directory_not_found"
	KindImageDecode       = "image_decode"
	KindUnknownLabel      = "unknown_label"
	KindValidation        = "validation"
	KindConfiguration     = "configuration"
	KindNotFound          = "not_found"
	KindInternal          = "internal"
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error chain to the failure kind the ledger should record.
// Nil errors classify to the empty string.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrDirectoryNotFound):
		return KindDirectoryNotFound
	case errors.Is(err, ErrImageDecode):
		return KindImageDecode
	case errors.Is(err, ErrUnknownLabel):
		return KindUnknownLabel
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
