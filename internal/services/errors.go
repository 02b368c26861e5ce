package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the pipeline error taxonomy. Stage processors and
// stores wrap their failures with one of these so callers can classify
// without inspecting message text.
var (
	// ErrNotFound marks a missing artifact or note.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt marks an artifact that exists but cannot be decoded.
	ErrCorrupt = errors.New("corrupt artifact")
	// ErrDuplicateKey marks a registry uniqueness violation.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrEmptyNamespace marks an aggregation attempt over a namespace with no fragments.
	ErrEmptyNamespace = errors.New("empty namespace")
	// ErrMissingDependency marks a stage invoked before its upstream artifact exists.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrProcessorUnavailable marks a stage processor whose engine is not initialized.
	ErrProcessorUnavailable = errors.New("processor unavailable")
	// ErrInvalidInput marks an artifact missing fields the processor requires.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream marks a failure returned by an external engine or service.
	ErrUpstream = errors.New("upstream failure")
	// ErrStoreUnavailable marks registry access before a connection is established.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrConfiguration marks invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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
