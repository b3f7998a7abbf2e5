// Package xmlcrypto signs, validates, encrypts and decrypts XML and string
// payloads for a query-language host. Every entry point takes the host's
// string arguments; empty strings select the configured defaults.
package xmlcrypto

import (
	"crypto/x509"
	"sync"

	"github.com/beevik/etree"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/philiph/xmlcrypto/internal/adapters/driven/cipher"
	"github.com/philiph/xmlcrypto/internal/adapters/driven/keystore"
	"github.com/philiph/xmlcrypto/internal/adapters/driven/metrics"
	"github.com/philiph/xmlcrypto/internal/adapters/driven/xmldsig"
	"github.com/philiph/xmlcrypto/internal/core/domain"
	"github.com/philiph/xmlcrypto/internal/core/ports"
)

// Re-export types hosts build per call
type CertificateDescriptor = domain.CertificateDescriptor
type KeyMaterialResolver = ports.KeyMaterialResolver

// SignedDocument is serialized signature output.
type SignedDocument struct {
	// XML is the signed document, or the bare signature when detached.
	XML []byte
	// Content is the signed content of a detached signature, nil otherwise.
	Content []byte
}

// Module is the host-facing entry point. It is safe for concurrent use.
type Module struct {
	defaults    domain.SignatureParameters
	certificate CertificateDescriptor
	hmacKey     []byte
	signatures  *xmldsig.Engine
	ciphers     *cipher.Engine
	logger      *zap.Logger
}

// Option configures a Module.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	metrics    ports.MetricsRecorder
	registerer prometheus.Registerer
	resolver   ports.KeyMaterialResolver
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsRecorder overrides the recorder Config.MetricsEnabled selects.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = recorder
	}
}

// WithPrometheusRegisterer registers metrics with reg instead of the
// default registry when metrics are enabled.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithKeyMaterialResolver replaces the keystore file resolver.
func WithKeyMaterialResolver(resolver KeyMaterialResolver) Option {
	return func(o *options) {
		o.resolver = resolver
	}
}

var (
	defaultRecorderOnce sync.Once
	defaultRecorder     *metrics.PrometheusMetricsRecorder
)

// defaultPrometheusRecorder registers with the default registry once per process.
func defaultPrometheusRecorder() *metrics.PrometheusMetricsRecorder {
	defaultRecorderOnce.Do(func() {
		defaultRecorder = metrics.NewPrometheusMetricsRecorder()
	})
	return defaultRecorder
}

// New creates a Module from cfg.
func New(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	defaults, err := cfg.signatureDefaults()
	if err != nil {
		return nil, err
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	recorder := o.metrics
	switch {
	case recorder != nil:
	case !cfg.MetricsEnabled:
		recorder = metrics.NewNoopMetricsRecorder()
	case o.registerer != nil:
		recorder = metrics.NewPrometheusMetricsRecorderWithRegistry(o.registerer)
	default:
		recorder = defaultPrometheusRecorder()
	}

	var trusted []*x509.Certificate
	if cfg.TrustedCertificates != "" {
		if trusted, err = keystore.LoadTrustedCertificates(cfg.TrustedCertificates); err != nil {
			return nil, ConfigError("load trusted certificates: " + err.Error())
		}
	}

	resolver := o.resolver
	if resolver == nil {
		resolver = keystore.NewResolver(
			keystore.WithLogger(o.logger.Named("keystore")),
			keystore.WithMetricsRecorder(recorder),
		)
	}

	m := &Module{
		defaults:    defaults,
		certificate: cfg.Certificate,
		signatures: xmldsig.NewEngine(resolver,
			xmldsig.WithLogger(o.logger.Named("xmldsig")),
			xmldsig.WithMetricsRecorder(recorder),
			xmldsig.WithTrustedCertificates(trusted),
		),
		ciphers: cipher.NewEngine(
			cipher.WithLogger(o.logger.Named("cipher")),
			cipher.WithMetricsRecorder(recorder),
			cipher.WithLegacyKeyOrder(cfg.Cipher.LegacyAsymmetricKeyOrder),
		),
		logger: o.logger,
	}
	if cfg.Signature.HMACKey != "" {
		m.hmacKey = []byte(cfg.Signature.HMACKey)
	}

	m.logger.Info("xmlcrypto module initialized",
		zap.String("signature_algorithm", defaults.Signature.String()),
		zap.String("placement", defaults.Placement.String()),
		zap.Int("trusted_certificates", len(trusted)),
		zap.Bool("legacy_key_order", cfg.Cipher.LegacyAsymmetricKeyOrder),
	)
	return m, nil
}

// GenerateSignature signs xml, or the nodes selector picks from it. cert
// names the signing key; nil or empty fields use the configured certificate.
func (m *Module) GenerateSignature(xml, canonicalization, digest, signature, prefix, placement, selector string, cert *CertificateDescriptor) (*SignedDocument, error) {
	params, err := m.parameters(canonicalization, digest, signature, prefix, placement, selector)
	if err != nil {
		return nil, err
	}
	doc, err := parseXML([]byte(xml))
	if err != nil {
		return nil, err
	}

	desc := m.certificate
	if cert != nil {
		desc = cert.WithDefaults(m.certificate)
	}

	signed, err := m.signatures.GenerateSignature(doc, params, desc)
	if err != nil {
		return nil, err
	}

	out := &SignedDocument{}
	if out.XML, err = signed.Document.WriteToBytes(); err != nil {
		return nil, ServiceError("serialize signed document", err)
	}
	if signed.Content != nil {
		if out.Content, err = signed.Content.WriteToBytes(); err != nil {
			return nil, ServiceError("serialize signed content", err)
		}
	}
	return out, nil
}

// parameters merges per-call names over the configured defaults.
func (m *Module) parameters(canonicalization, digest, signature, prefix, placement, selector string) (domain.SignatureParameters, error) {
	params, err := domain.ParseSignatureParameters(canonicalization, digest, signature, prefix, placement, selector)
	if err != nil {
		return domain.SignatureParameters{}, err
	}
	if canonicalization == "" {
		params.Canonicalization = m.defaults.Canonicalization
	}
	if digest == "" {
		params.Digest = m.defaults.Digest
	}
	if signature == "" {
		params.Signature = m.defaults.Signature
	}
	if prefix == "" {
		params.NamespacePrefix = m.defaults.NamespacePrefix
	}
	if placement == "" {
		params.Placement = m.defaults.Placement
	}
	params.HMACKey = m.hmacKey
	return params, nil
}

// ValidateSignature checks the latest signature in signed. It returns false
// when content or signature no longer match.
func (m *Module) ValidateSignature(signed []byte) (bool, error) {
	doc, err := parseXML(signed)
	if err != nil {
		return false, err
	}
	return m.signatures.ValidateSignature(doc, m.validateOptions()...)
}

// ValidateDetachedSignature checks a detached signature against the content it covers.
func (m *Module) ValidateDetachedSignature(signature, content []byte) (bool, error) {
	doc, err := parseXML(signature)
	if err != nil {
		return false, err
	}
	contentDoc, err := parseXML(content)
	if err != nil {
		return false, err
	}
	opts := append(m.validateOptions(), xmldsig.WithDetachedContent(contentDoc))
	return m.signatures.ValidateSignature(doc, opts...)
}

func (m *Module) validateOptions() []xmldsig.ValidateOption {
	if m.hmacKey == nil {
		return nil
	}
	return []xmldsig.ValidateOption{xmldsig.WithHMACKey(m.hmacKey)}
}

// Encrypt encrypts data and returns base64 ciphertext. mode is "symmetric"
// or "asymmetric"; key is the raw secret or an RSA key in PEM or base64 DER.
func (m *Module) Encrypt(data, mode, key, algorithm string) (string, error) {
	req, err := cipherRequest(data, mode, key, algorithm)
	if err != nil {
		return "", err
	}
	return m.ciphers.Encrypt(req)
}

// Decrypt reverses Encrypt.
func (m *Module) Decrypt(data, mode, key, algorithm string) (string, error) {
	req, err := cipherRequest(data, mode, key, algorithm)
	if err != nil {
		return "", err
	}
	return m.ciphers.Decrypt(req)
}

func cipherRequest(data, mode, key, algorithm string) (domain.CipherRequest, error) {
	cipherMode, err := domain.ParseCipherMode(mode)
	if err != nil {
		return domain.CipherRequest{}, err
	}
	alg, err := domain.ParseCipherAlgorithm(algorithm)
	if err != nil {
		return domain.CipherRequest{}, err
	}
	return domain.CipherRequest{Payload: data, Mode: cipherMode, Key: key, Algorithm: alg}, nil
}

func parseXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, InvalidInputError("parse XML", err)
	}
	if doc.Root() == nil {
		return nil, InvalidInputError("XML has no root element", nil)
	}
	return doc, nil
}
