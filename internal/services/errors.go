// Package services holds error classification shared by the orchestrator
// and its collaborators.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a bad submission rejected before a job exists.
	ErrValidation = errors.New("validation error")
	// ErrExternalTool marks conversion tool failures (spawn or nonzero exit).
	ErrExternalTool = errors.New("external tool error")
	// ErrNotFound marks a lookup for an unknown or already-removed job.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a state-file write failure. These propagate to the
	// caller of the mutating operation; swallowing one would let the memory
	// and disk copies diverge.
	ErrPersistence = errors.New("persistence error")
	// ErrTransient marks failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
