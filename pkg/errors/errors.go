// Package errors provides custom error types for the marketsync system.
// These errors let the orchestrator tell a malformed inventory row from a
// failed page fetch or a rejected batch, and let reporting separate timeouts
// and connection failures from other transport errors.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join are re-exported so callers need a single errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the marketsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrParse indicates that an inventory token could not be normalized
	ErrParse = errors.New("parse failed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrConnection indicates that the remote endpoint could not be reached
	ErrConnection = errors.New("connection failed")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates that a marketplace API is temporarily unavailable
	ErrUnavailable = errors.New("marketplace unavailable")

	// ErrCredentials indicates missing or rejected marketplace credentials
	ErrCredentials = errors.New("credentials rejected")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError reports an inventory token that could not be normalized.
// Field is "quantity" or "price"; Code is the inventory item code.
type ParseError struct {
	Field string
	Code  string
	Value string
	Err   error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("cannot parse %s %q", e.Field, e.Value)
	if e.Code != "" {
		msg = fmt.Sprintf("item %s: %s", e.Code, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError creates a new ParseError
func NewParseError(field, value string, err error) *ParseError {
	return &ParseError{Field: field, Value: value, Err: err}
}

// APIError represents a non-2xx response from a marketplace API
type APIError struct {
	Marketplace string
	StatusCode  int
	Endpoint    string
	Message     string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Marketplace, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Marketplace, e.Message)
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return target == ErrCredentials
	case e.StatusCode == 429:
		return target == ErrRateLimited
	case e.StatusCode >= 500:
		return target == ErrUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(marketplace string, statusCode int, message string) *APIError {
	return &APIError{Marketplace: marketplace, StatusCode: statusCode, Message: message}
}

// TimeoutError represents a request that exceeded its deadline
type TimeoutError struct {
	Operation string
	Duration  string
	Err       error
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s", e.Operation, e.Duration)
	}
	return fmt.Sprintf("operation %s timed out", e.Operation)
}

// Unwrap implements errors.Unwrap
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration string, err error) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration, Err: err}
}

// ConnectionError represents a failure to reach a marketplace endpoint
type ConnectionError struct {
	Operation string
	Endpoint  string
	Err       error
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s to %s: %v", e.Operation, e.Endpoint, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(operation, endpoint string, err error) *ConnectionError {
	return &ConnectionError{Operation: operation, Endpoint: endpoint, Err: err}
}

// PaginationError represents a failed page fetch while walking a catalog.
// No partial catalog is ever returned alongside it.
type PaginationError struct {
	Account string
	Page    int
	Err     error
}

// Error implements the error interface
func (e *PaginationError) Error() string {
	return fmt.Sprintf("pagination error for account %s at page %d: %v", e.Account, e.Page, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PaginationError) Unwrap() error {
	return e.Err
}

// NewPaginationError creates a new PaginationError
func NewPaginationError(account string, page int, err error) *PaginationError {
	return &PaginationError{Account: account, Page: page, Err: err}
}

// SubmissionError represents a failed batch submission.
// Kind is "stocks" or "prices"; Batch is the zero-based batch index.
type SubmissionError struct {
	Account string
	Kind    string
	Batch   int
	Size    int
	Err     error
}

// Error implements the error interface
func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission error for account %s (%s batch %d, %d records): %v",
		e.Account, e.Kind, e.Batch, e.Size, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// NewSubmissionError creates a new SubmissionError
func NewSubmissionError(account, kind string, batch, size int, err error) *SubmissionError {
	return &SubmissionError{Account: account, Kind: kind, Batch: batch, Size: size, Err: err}
}

// AccountError represents a failed account pipeline.
// Stage names the pipeline step that failed.
type AccountError struct {
	Account string
	Stage   string
	Err     error
}

// Error implements the error interface
func (e *AccountError) Error() string {
	return fmt.Sprintf("account %s failed at %s: %v", e.Account, e.Stage, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *AccountError) Unwrap() error {
	return e.Err
}

// NewAccountError creates a new AccountError
func NewAccountError(account, stage string, err error) *AccountError {
	return &AccountError{Account: account, Stage: stage, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsParse checks if an error is an inventory parse error
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsConnection checks if an error is a connection error
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsUnavailable checks if an error indicates marketplace unavailability
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Kind classifies err for reporting: "timeout", "connection", "api",
// "parse", "validation", "config" or "error".
func Kind(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case IsTimeout(err):
		return "timeout"
	case IsConnection(err):
		return "connection"
	case errors.As(err, &apiErr):
		return "api"
	case IsParse(err):
		return "parse"
	case IsValidationError(err):
		return "validation"
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return "config"
	}
	return "error"
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapAccount wraps an error as an AccountError
func WrapAccount(account, stage string, err error) error {
	if err == nil {
		return nil
	}
	return NewAccountError(account, stage, err)
}
