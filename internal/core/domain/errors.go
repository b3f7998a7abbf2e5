package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents categorized error types.
// These codes are stable and can be used for programmatic error handling.
type ErrorCode string

const (
	ErrCodeConfiguration        ErrorCode = "configuration_error"
	ErrCodeKeyResolution        ErrorCode = "key_resolution_failed"
	ErrCodeKeyAlgorithmMismatch ErrorCode = "key_algorithm_mismatch"
	ErrCodeUnsupportedAlgorithm ErrorCode = "unsupported_algorithm"
	ErrCodeSelectorNoMatch      ErrorCode = "selector_no_match"
	ErrCodeMalformedSignature   ErrorCode = "malformed_signature"
	ErrCodeKeyFormat            ErrorCode = "key_format"
	ErrCodeDecryption           ErrorCode = "decryption_failed"
	ErrCodeInvalidInput         ErrorCode = "invalid_input"
	ErrCodeServiceError         ErrorCode = "service_error"
)

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// AppError is a structured error with code, message, and optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	for err != nil {
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// ConfigError creates a configuration error.
func ConfigError(message string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: message}
}

// KeyResolutionError creates a keystore or alias lookup error.
func KeyResolutionError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeKeyResolution, Message: message, Cause: cause}
}

// KeyAlgorithmMismatchError reports a key whose family cannot serve the algorithm.
func KeyAlgorithmMismatchError(algorithm string, key any) *AppError {
	return &AppError{
		Code:    ErrCodeKeyAlgorithmMismatch,
		Message: fmt.Sprintf("key of type %T cannot be used with %s", key, algorithm),
	}
}

// UnsupportedAlgorithmError reports an algorithm name or URI outside the supported set.
func UnsupportedAlgorithmError(kind, name string) *AppError {
	return &AppError{
		Code:    ErrCodeUnsupportedAlgorithm,
		Message: fmt.Sprintf("unsupported %s algorithm %q", kind, name),
	}
}

// SelectorNoMatchError reports a selector that matched no nodes.
func SelectorNoMatchError(selector string) *AppError {
	return &AppError{
		Code:    ErrCodeSelectorNoMatch,
		Message: fmt.Sprintf("selector %q matched no nodes", selector),
	}
}

// MalformedSignatureError reports a missing or structurally broken signature.
func MalformedSignatureError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeMalformedSignature, Message: message, Cause: cause}
}

// KeyFormatError reports malformed or incompatible key material.
func KeyFormatError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeKeyFormat, Message: message, Cause: cause}
}

// DecryptionError reports ciphertext that cannot be decrypted under the given key.
func DecryptionError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeDecryption, Message: message, Cause: cause}
}

// InvalidInputError reports unparseable XML or selector syntax.
func InvalidInputError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message, Cause: cause}
}

// ServiceError creates an internal service error.
func ServiceError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeServiceError, Message: message, Cause: cause}
}
