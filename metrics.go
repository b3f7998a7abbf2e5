package xmlcrypto

import (
	"github.com/philiph/xmlcrypto/internal/adapters/driven/metrics"
	"github.com/philiph/xmlcrypto/internal/core/ports"
)

// Re-export metrics types for hosts wiring their own recorder
type MetricsRecorder = ports.MetricsRecorder
type NoopMetricsRecorder = metrics.NoopMetricsRecorder
type PrometheusMetricsRecorder = metrics.PrometheusMetricsRecorder

var (
	NewNoopMetricsRecorder                   = metrics.NewNoopMetricsRecorder
	NewPrometheusMetricsRecorderWithRegistry = metrics.NewPrometheusMetricsRecorderWithRegistry
)

// Validation results reported to MetricsRecorder.RecordSignatureValidation.
const (
	ValidationValid   = ports.ValidationValid
	ValidationInvalid = ports.ValidationInvalid
	ValidationError   = ports.ValidationError
)
