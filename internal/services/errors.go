package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrTransport        = errors.New("transport error")
	ErrBackendRejection = errors.New("backend rejected request")
	ErrNotFound         = errors.New("not found")
	ErrConfiguration    = errors.New("configuration error")
	// ErrSuperseded marks a response that arrived after a newer request or a
	// reset replaced the one it answers. Its result has been discarded.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Error kinds reported to views and JSON consumers.
const (
	KindValidation    = "validation"
	KindTransport     = "transport"
	KindRejected      = "rejected"
	KindNotFound      = "not_found"
	KindConfiguration = "configuration"
	KindSuperseded    = "superseded"
	KindUnknown       = "unknown"
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RejectionError reports a request that reached the studio backend and was
// refused. Reason holds the backend-provided message verbatim and may be empty.
type RejectionError struct {
	Component  string
	Operation  string
	StatusCode int
	Reason     string
}

func (e *RejectionError) Error() string {
	detail := buildDetail(e.Component, e.Operation, fmt.Sprintf("http %d", e.StatusCode))
	if reason := strings.TrimSpace(e.Reason); reason != "" {
		return fmt.Sprintf("%s: %s: %s", ErrBackendRejection, detail, reason)
	}
	return fmt.Sprintf("%s: %s", ErrBackendRejection, detail)
}

func (e *RejectionError) Unwrap() error { return ErrBackendRejection }

// RejectionReason returns the backend message carried by err when err is a
// backend rejection. The boolean is false for every other error.
func RejectionReason(err error) (string, bool) {
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		return "", false
	}
	return strings.TrimSpace(rejection.Reason), true
}

// Kind classifies err into one of the Kind constants.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSuperseded):
		return KindSuperseded
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBackendRejection):
		return KindRejected
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindUnknown
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
