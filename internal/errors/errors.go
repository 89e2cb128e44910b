package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures
type ErrorType string

const (
	// ErrTypeInvalidConfiguration indicates an out-of-range tunable (e.g. test fraction)
	ErrTypeInvalidConfiguration ErrorType = "INVALID_CONFIGURATION"
	// ErrTypeInvalidInput indicates structurally wrong input (empty or unsorted series)
	ErrTypeInvalidInput ErrorType = "INVALID_INPUT"
	// ErrTypeNoMatchingRows indicates an instrument filter matched nothing
	ErrTypeNoMatchingRows ErrorType = "NO_MATCHING_ROWS"
	// ErrTypeNoFeaturesSelected indicates no candidate feature survived selection
	ErrTypeNoFeaturesSelected ErrorType = "NO_FEATURES_SELECTED"
	// ErrTypeTargetMissing indicates the label column is absent after engineering
	ErrTypeTargetMissing ErrorType = "TARGET_MISSING"
	// ErrTypeClassVariety indicates the label cannot support binary classification
	ErrTypeClassVariety ErrorType = "INSUFFICIENT_CLASS_VARIETY"
	// ErrTypeNotFitted indicates a predict/evaluate call before fit
	ErrTypeNotFitted ErrorType = "NOT_FITTED"
	// ErrTypeMissingDependency indicates an optional classifier backend is absent
	ErrTypeMissingDependency ErrorType = "MISSING_DEPENDENCY"
	// ErrTypeParsing indicates a malformed input file
	ErrTypeParsing ErrorType = "PARSING"
	// ErrTypeStorage indicates a model/report persistence failure
	ErrTypeStorage ErrorType = "STORAGE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err (or anything it wraps) is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper constructors for the pipeline error taxonomy

// NewInvalidConfiguration creates an error for an out-of-range tunable
func NewInvalidConfiguration(message string) *AppError {
	return NewAppError(ErrTypeInvalidConfiguration, message, nil)
}

// NewInvalidInput creates an error for structurally invalid input data
func NewInvalidInput(message string) *AppError {
	return NewAppError(ErrTypeInvalidInput, message, nil)
}

// NewNoMatchingRows creates an error for an instrument filter with no hits
func NewNoMatchingRows(pattern string) *AppError {
	return NewAppError(ErrTypeNoMatchingRows, fmt.Sprintf("no rows found for pattern %q", pattern), nil)
}

// NewNoFeaturesSelected creates an error for an empty feature selection
func NewNoFeaturesSelected(message string) *AppError {
	return NewAppError(ErrTypeNoFeaturesSelected, message, nil)
}

// NewTargetMissing creates an error for a missing label column
func NewTargetMissing(column string) *AppError {
	return NewAppError(ErrTypeTargetMissing, fmt.Sprintf("target column %q not created", column), nil)
}

// NewClassVariety creates an error for a label that cannot train a binary classifier
func NewClassVariety(message string) *AppError {
	return NewAppError(ErrTypeClassVariety, message, nil)
}

// NewNotFitted creates an error for operations requiring a fitted pipeline
func NewNotFitted(operation string) *AppError {
	return NewAppError(ErrTypeNotFitted, fmt.Sprintf("%s called before fit", operation), nil)
}

// NewMissingDependency creates an error for an absent optional backend
func NewMissingDependency(backend string) *AppError {
	return NewAppError(ErrTypeMissingDependency, fmt.Sprintf("backend %q is not available", backend), nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}
