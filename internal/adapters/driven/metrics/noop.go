package metrics

import (
	"github.com/philiph/xmlcrypto/internal/core/ports"
)

// NoopMetricsRecorder is a no-op implementation for when metrics are disabled.
// All methods are safe to call and do nothing.
type NoopMetricsRecorder struct{}

// NewNoopMetricsRecorder creates a new no-op metrics recorder.
func NewNoopMetricsRecorder() *NoopMetricsRecorder {
	return &NoopMetricsRecorder{}
}

// RecordSignatureGenerated is a no-op.
func (n *NoopMetricsRecorder) RecordSignatureGenerated(algorithm string, success bool) {}

// RecordSignatureValidation is a no-op.
func (n *NoopMetricsRecorder) RecordSignatureValidation(result string) {}

// RecordCipherOperation is a no-op.
func (n *NoopMetricsRecorder) RecordCipherOperation(operation, algorithm string, success bool) {}

// RecordKeyResolution is a no-op.
func (n *NoopMetricsRecorder) RecordKeyResolution(keystoreType string, success bool) {}

// Ensure NoopMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*NoopMetricsRecorder)(nil)
