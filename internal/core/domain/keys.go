package domain

import (
	"crypto"
	"crypto/x509"
	"strings"
)

// CertificateDescriptor identifies the keystore entry holding a signing key.
// It is built per call from caller configuration and never mutated.
type CertificateDescriptor struct {
	KeystoreType       string `json:"keystore_type,omitempty" yaml:"keystore_type,omitempty"`
	KeystorePassword   string `json:"keystore_password,omitempty" yaml:"keystore_password,omitempty"`
	KeyAlias           string `json:"key_alias,omitempty" yaml:"key_alias,omitempty"`
	PrivateKeyPassword string `json:"private_key_password,omitempty" yaml:"private_key_password,omitempty"`
	KeystoreLocation   string `json:"keystore_location,omitempty" yaml:"keystore_location,omitempty"`
}

// WithDefaults fills empty fields of d from def.
func (d CertificateDescriptor) WithDefaults(def CertificateDescriptor) CertificateDescriptor {
	if d.KeystoreType == "" {
		d.KeystoreType = def.KeystoreType
	}
	if d.KeystorePassword == "" {
		d.KeystorePassword = def.KeystorePassword
	}
	if d.KeyAlias == "" {
		d.KeyAlias = def.KeyAlias
	}
	if d.PrivateKeyPassword == "" {
		d.PrivateKeyPassword = def.PrivateKeyPassword
	}
	if d.KeystoreLocation == "" {
		d.KeystoreLocation = def.KeystoreLocation
	}
	return d
}

// IsZero reports whether no field is set.
func (d CertificateDescriptor) IsZero() bool {
	return d == CertificateDescriptor{}
}

// Validate returns a configuration error naming every empty field.
func (d CertificateDescriptor) Validate() error {
	var missing []string
	if d.KeystoreType == "" {
		missing = append(missing, "keystore type")
	}
	if d.KeystorePassword == "" {
		missing = append(missing, "keystore password")
	}
	if d.KeyAlias == "" {
		missing = append(missing, "key alias")
	}
	if d.PrivateKeyPassword == "" {
		missing = append(missing, "private key password")
	}
	if d.KeystoreLocation == "" {
		missing = append(missing, "keystore location")
	}
	if len(missing) > 0 {
		return ConfigError("certificate descriptor is missing " + strings.Join(missing, ", "))
	}
	return nil
}

// KeyMaterial is the key pair and certificate resolved from a descriptor.
// It belongs to the call that resolved it and is not cached.
type KeyMaterial struct {
	PrivateKey  crypto.Signer
	PublicKey   crypto.PublicKey
	Certificate *x509.Certificate
}
