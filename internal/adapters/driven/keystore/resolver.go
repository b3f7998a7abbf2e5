package keystore

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/philiph/xmlcrypto/internal/core/domain"
	"github.com/philiph/xmlcrypto/internal/core/ports"
)

// Keystore types accepted in CertificateDescriptor.KeystoreType.
const (
	TypeJKS    = "JKS"
	TypePKCS12 = "PKCS12"
)

// maxKeystoreSize bounds how much of a keystore file is read.
const maxKeystoreSize = 10 << 20

// loader extracts key material for desc from raw keystore bytes.
type loader func(data []byte, desc domain.CertificateDescriptor) (*domain.KeyMaterial, error)

// Resolver resolves key material from keystore files.
// Each Resolve opens, reads and closes the file; nothing is cached.
type Resolver struct {
	logger  *zap.Logger
	metrics ports.MetricsRecorder
	loaders map[string]loader
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for resolution events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetricsRecorder sets the recorder for resolution outcomes.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(r *Resolver) {
		r.metrics = recorder
	}
}

// NewResolver creates a Resolver supporting JKS and PKCS#12 keystores.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		logger: zap.NewNop(),
		loaders: map[string]loader{
			TypeJKS:    loadJKS,
			TypePKCS12: loadPKCS12,
			"P12":      loadPKCS12,
			"PFX":      loadPKCS12,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the key material desc identifies.
func (r *Resolver) Resolve(desc domain.CertificateDescriptor) (*domain.KeyMaterial, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	keystoreType := strings.ToUpper(desc.KeystoreType)
	material, err := r.resolve(keystoreType, desc)
	if r.metrics != nil {
		r.metrics.RecordKeyResolution(keystoreType, err == nil)
	}
	if err != nil {
		r.logger.Warn("key resolution failed",
			zap.String("keystore_type", keystoreType),
			zap.String("keystore_location", desc.KeystoreLocation),
			zap.String("key_alias", desc.KeyAlias),
			zap.Error(err),
		)
		return nil, err
	}

	r.logger.Debug("key material resolved",
		zap.String("keystore_type", keystoreType),
		zap.String("key_alias", desc.KeyAlias),
		zap.String("cert_subject", material.Certificate.Subject.String()),
		zap.Time("cert_expiry", material.Certificate.NotAfter),
	)
	return material, nil
}

func (r *Resolver) resolve(keystoreType string, desc domain.CertificateDescriptor) (*domain.KeyMaterial, error) {
	load, ok := r.loaders[keystoreType]
	if !ok {
		return nil, domain.KeyResolutionError(fmt.Sprintf("unsupported keystore type %q", desc.KeystoreType), nil)
	}

	data, err := readKeystore(desc.KeystoreLocation)
	if err != nil {
		return nil, domain.KeyResolutionError("cannot open keystore", err)
	}
	return load(data, desc)
}

// readKeystore reads the keystore file and closes it before returning.
func readKeystore(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxKeystoreSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > maxKeystoreSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, maxKeystoreSize)
	}
	return data, nil
}

// newKeyMaterial pairs a private key with its certificate.
func newKeyMaterial(key any, cert *x509.Certificate) (*domain.KeyMaterial, error) {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, domain.KeyResolutionError(fmt.Sprintf("entry holds an unsupported key of type %T", key), nil)
	}
	if cert == nil {
		return nil, domain.KeyResolutionError("entry has no certificate", nil)
	}
	return &domain.KeyMaterial{
		PrivateKey:  signer,
		PublicKey:   cert.PublicKey,
		Certificate: cert,
	}, nil
}

// Ensure Resolver implements ports.KeyMaterialResolver
var _ ports.KeyMaterialResolver = (*Resolver)(nil)
