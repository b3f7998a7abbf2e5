package xmlcrypto

import (
	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// Re-export error types from domain package
type ErrorCode = domain.ErrorCode
type AppError = domain.AppError

// Re-export error code constants
const (
	ErrCodeConfiguration        = domain.ErrCodeConfiguration
	ErrCodeKeyResolution        = domain.ErrCodeKeyResolution
	ErrCodeKeyAlgorithmMismatch = domain.ErrCodeKeyAlgorithmMismatch
	ErrCodeUnsupportedAlgorithm = domain.ErrCodeUnsupportedAlgorithm
	ErrCodeSelectorNoMatch      = domain.ErrCodeSelectorNoMatch
	ErrCodeMalformedSignature   = domain.ErrCodeMalformedSignature
	ErrCodeKeyFormat            = domain.ErrCodeKeyFormat
	ErrCodeDecryption           = domain.ErrCodeDecryption
	ErrCodeInvalidInput         = domain.ErrCodeInvalidInput
	ErrCodeServiceError         = domain.ErrCodeServiceError
)

// Re-export error constructors
var (
	ConfigError       = domain.ConfigError
	InvalidInputError = domain.InvalidInputError
	ServiceError      = domain.ServiceError
	HasCode           = domain.HasCode
)
