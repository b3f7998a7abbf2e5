package ports

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (PrometheusMetricsRecorder for production,
// NoopMetricsRecorder for disabled/testing).
type MetricsRecorder interface {
	// RecordSignatureGenerated records a signature generation attempt.
	RecordSignatureGenerated(algorithm string, success bool)

	// RecordSignatureValidation records a validation outcome:
	// "valid", "invalid" or "error".
	RecordSignatureValidation(result string)

	// RecordCipherOperation records an encrypt or decrypt attempt.
	RecordCipherOperation(operation, algorithm string, success bool)

	// RecordKeyResolution records a keystore lookup.
	RecordKeyResolution(keystoreType string, success bool)
}

// Validation results accepted by RecordSignatureValidation.
const (
	ValidationValid   = "valid"
	ValidationInvalid = "invalid"
	ValidationError   = "error"
)
