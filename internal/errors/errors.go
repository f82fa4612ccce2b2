// Package errors provides categorized, contextual errors shared across the
// engine's internal packages. It wraps a plain error with a component name,
// a broad category, and free-form context, so a single latched LastError
// value can still carry enough detail for logs and metrics.
package errors

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// ErrorCategory groups errors for logging and metrics purposes.
type ErrorCategory string

const (
	CategoryGeneric    ErrorCategory = "generic"
	CategoryValidation ErrorCategory = "validation"
	CategoryState      ErrorCategory = "state"
	CategoryResource   ErrorCategory = "resource"
	CategoryLimit      ErrorCategory = "limit"
	CategoryConflict   ErrorCategory = "conflict"
	CategoryNotFound   ErrorCategory = "not-found"
	CategoryBackend    ErrorCategory = "backend"
	CategoryConfig     ErrorCategory = "configuration"
	CategoryHandle     ErrorCategory = "invalid-handle"
	CategoryProtocol   ErrorCategory = "commit-protocol"
)

// ComponentUnknown is used when no component was supplied.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with a component, a category and context.
type EnhancedError struct {
	Err       error
	Component string
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time

	mu sync.RWMutex
}

func (ee *EnhancedError) Error() string {
	if ee.Err == nil {
		return fmt.Sprintf("%s: %s", ee.Component, ee.Category)
	}
	return ee.Err.Error()
}

func (ee *EnhancedError) Unwrap() error { return ee.Err }

func (ee *EnhancedError) Is(target error) bool {
	var other *EnhancedError
	if errors.As(target, &other) {
		return ee.Category == other.Category && ee.Component == other.Component
	}
	return errors.Is(ee.Err, target)
}

// GetContext returns a copy of the error's context map.
func (ee *EnhancedError) GetContext() map[string]any {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	if ee.Context == nil {
		return nil
	}
	out := make(map[string]any, len(ee.Context))
	maps.Copy(out, ee.Context)
	return out
}

// ErrorBuilder is a fluent constructor for EnhancedError.
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts building an EnhancedError around err (which may be nil for a
// sentinel that carries no wrapped cause).
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf is New(fmt.Errorf(format, args...)).
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build finalizes the error, filling in defaults for unset fields.
func (eb *ErrorBuilder) Build() *EnhancedError {
	component := eb.component
	if component == "" {
		component = ComponentUnknown
	}
	category := eb.category
	if category == "" {
		category = CategoryGeneric
	}
	return &EnhancedError{
		Err:       eb.err,
		Component: component,
		Category:  category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
}

// As and Is are re-exported so callers don't need both this package and the
// standard library's errors package for routine unwrapping.
func As(err error, target any) bool { return errors.As(err, target) }
func Is(err, target error) bool     { return errors.Is(err, target) }
