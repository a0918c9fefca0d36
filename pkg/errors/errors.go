package errors

import (
	"fmt"
	"time"
)

// ErrorType classifies where in the pipeline an error occurred
type ErrorType string

const (
	// ErrorTypeNetwork represents fetch/transport errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting by the marketplace
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeApplication represents a failed price-update attempt
	ErrorTypeApplication ErrorType = "application"
	// ErrorTypeBatch represents an unexpected error during batch orchestration
	ErrorTypeBatch ErrorType = "batch"
	// ErrorTypeStore represents settings/log store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// AppError is the error type shared by the scanner, adjuster and services.
//
// Extraction misses and normalizer rejections are deliberately NOT errors:
// the cascade falls through and invalid records are dropped silently.
type AppError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the operation may be retried
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeApplication:
		return true
	default:
		return false
	}
}

// New creates a new AppError
func New(errType ErrorType, component, message string, err error) *AppError {
	return &AppError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *AppError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *AppError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *AppError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewApplication creates a new price-application error
func NewApplication(component, message string, err error) *AppError {
	return New(ErrorTypeApplication, component, message, err)
}

// NewBatch creates a new batch orchestration error
func NewBatch(component, message string, err error) *AppError {
	return New(ErrorTypeBatch, component, message, err)
}

// NewStore creates a new store error
func NewStore(component, message string, err error) *AppError {
	return New(ErrorTypeStore, component, message, err)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *AppError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *AppError {
	return New(ErrorTypeConfiguration, "", message, err)
}
