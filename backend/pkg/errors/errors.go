package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeKnowledge represents knowledge base loading/snapshot errors
	ErrorTypeKnowledge ErrorType = "knowledge"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeGenerator represents answer generation (LLM) errors
	ErrorTypeGenerator ErrorType = "generator"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind returns the error category. It is promoted to every typed error that
// embeds *BaseError.
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Knowledge Errors

// ErrSnapshotUnavailable is returned when no knowledge base snapshot is loaded
var ErrSnapshotUnavailable = NewBaseError(ErrorTypeKnowledge, "knowledge base snapshot not available", nil)

// ErrLoadFailed is returned when a knowledge base table cannot be read
type ErrLoadFailed struct {
	*BaseError
	Source string
	Table  string
}

func NewLoadFailed(source, table string, err error) *ErrLoadFailed {
	return &ErrLoadFailed{
		BaseError: NewBaseError(ErrorTypeKnowledge, fmt.Sprintf("failed to load table %s from %s", table, source), err),
		Source:    source,
		Table:     table,
	}
}

// ErrTableMalformed is returned when a row is missing a required field
type ErrTableMalformed struct {
	*BaseError
	Table string
	Row   int
	Field string
}

func NewTableMalformed(table string, row int, field string) *ErrTableMalformed {
	return &ErrTableMalformed{
		BaseError: NewBaseError(ErrorTypeKnowledge, fmt.Sprintf("table %s row %d: missing %s", table, row, field), nil),
		Table:     table,
		Row:       row,
		Field:     field,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// Generator Errors

// ErrGeneratorEmpty is returned when the LLM returns no usable text
var ErrGeneratorEmpty = NewBaseError(ErrorTypeGenerator, "empty or unexpected response from LLM", nil)

// ErrGeneratorFailed is returned when the LLM request fails
type ErrGeneratorFailed struct {
	*BaseError
	Model     string
	Attempts  int
	Retryable bool
}

func NewGeneratorFailed(model string, attempts int, retryable bool, err error) *ErrGeneratorFailed {
	return &ErrGeneratorFailed{
		BaseError: NewBaseError(ErrorTypeGenerator, fmt.Sprintf("LLM request failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
		Retryable: retryable,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType reports whether any error in err's chain is a BaseError of errType
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if k, ok := err.(interface{ Kind() ErrorType }); ok && k.Kind() == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	var genErr *ErrGeneratorFailed
	if errors.As(err, &genErr) {
		return genErr.Retryable
	}
	// Graph connection errors are retryable
	var connErr *ErrGraphConnectionFailed
	return errors.As(err, &connErr)
}
