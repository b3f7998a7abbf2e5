package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/philiph/xmlcrypto/internal/core/ports"
)

// PrometheusMetricsRecorder records metrics using Prometheus.
type PrometheusMetricsRecorder struct {
	signaturesGeneratedTotal  *prometheus.CounterVec
	signatureValidationsTotal *prometheus.CounterVec
	cipherOperationsTotal     *prometheus.CounterVec
	keyResolutionsTotal       *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder creates a new Prometheus metrics recorder
// using the default Prometheus registry.
func NewPrometheusMetricsRecorder() *PrometheusMetricsRecorder {
	return NewPrometheusMetricsRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsRecorderWithRegistry creates a new Prometheus metrics recorder
// with a custom registry. Use this for testing.
func NewPrometheusMetricsRecorderWithRegistry(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	signaturesGeneratedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlcrypto_signatures_generated_total",
		Help: "Total XML signature generation attempts",
	}, []string{"algorithm", "result"})

	signatureValidationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlcrypto_signature_validations_total",
		Help: "Total XML signature validations by outcome",
	}, []string{"result"})

	cipherOperationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlcrypto_cipher_operations_total",
		Help: "Total encrypt and decrypt operations",
	}, []string{"operation", "algorithm", "result"})

	keyResolutionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlcrypto_key_resolutions_total",
		Help: "Total keystore key resolutions",
	}, []string{"keystore_type", "result"})

	reg.MustRegister(
		signaturesGeneratedTotal,
		signatureValidationsTotal,
		cipherOperationsTotal,
		keyResolutionsTotal,
	)

	return &PrometheusMetricsRecorder{
		signaturesGeneratedTotal:  signaturesGeneratedTotal,
		signatureValidationsTotal: signatureValidationsTotal,
		cipherOperationsTotal:     cipherOperationsTotal,
		keyResolutionsTotal:       keyResolutionsTotal,
	}
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordSignatureGenerated records a signature generation attempt.
func (p *PrometheusMetricsRecorder) RecordSignatureGenerated(algorithm string, success bool) {
	p.signaturesGeneratedTotal.WithLabelValues(algorithm, resultLabel(success)).Inc()
}

// RecordSignatureValidation records a validation outcome.
func (p *PrometheusMetricsRecorder) RecordSignatureValidation(result string) {
	p.signatureValidationsTotal.WithLabelValues(result).Inc()
}

// RecordCipherOperation records an encrypt or decrypt attempt.
func (p *PrometheusMetricsRecorder) RecordCipherOperation(operation, algorithm string, success bool) {
	p.cipherOperationsTotal.WithLabelValues(operation, algorithm, resultLabel(success)).Inc()
}

// RecordKeyResolution records a keystore lookup.
func (p *PrometheusMetricsRecorder) RecordKeyResolution(keystoreType string, success bool) {
	p.keyResolutionsTotal.WithLabelValues(keystoreType, resultLabel(success)).Inc()
}

// Ensure PrometheusMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*PrometheusMetricsRecorder)(nil)
