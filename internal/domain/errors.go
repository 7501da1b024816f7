package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrSuperseded marks a response discarded because a newer request for the same view began.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// CatalogUnavailableError reports a network or non-2xx failure talking to the commerce backend.
type CatalogUnavailableError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *CatalogUnavailableError) Error() string {
	var b strings.Builder
	b.WriteString("catalog unavailable")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && e.Message == "" {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CatalogUnavailableError) Unwrap() error { return e.Err }

// IsCatalogUnavailable reports whether err wraps a CatalogUnavailableError.
func IsCatalogUnavailable(err error) bool {
	var target *CatalogUnavailableError
	return errors.As(err, &target)
}

// OrderSubmissionError is a failure of the final order submission. Cart and form are kept.
type OrderSubmissionError struct {
	Err error
}

func (e *OrderSubmissionError) Error() string {
	return "order submission failed: " + e.Err.Error()
}

func (e *OrderSubmissionError) Unwrap() error { return e.Err }

// ValidationError is a field-level input problem, reported next to the offending field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors is returned, never thrown, by the validators of the core.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the set of offending fields.
func (v ValidationErrors) Fields() []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Field)
	}
	return out
}
