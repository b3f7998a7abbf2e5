package ports

import "github.com/philiph/xmlcrypto/internal/core/domain"

// KeyMaterialResolver loads the key pair and certificate a descriptor names.
// This is a port interface - implementations are adapters.
//
// Implementations open the keystore per call and must not cache key material.
type KeyMaterialResolver interface {
	// Resolve returns the private key, public key and certificate of the
	// descriptor's alias. Failures are domain key resolution or configuration errors.
	Resolve(desc domain.CertificateDescriptor) (*domain.KeyMaterial, error)
}
