package keystore

import (
	"bytes"
	"crypto/x509"
	"fmt"

	jks "github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/youmark/pkcs8"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// loadJKS reads a Java KeyStore and extracts the aliased private key entry.
func loadJKS(data []byte, desc domain.CertificateDescriptor) (*domain.KeyMaterial, error) {
	ks := jks.New()
	if err := ks.Load(bytes.NewReader(data), []byte(desc.KeystorePassword)); err != nil {
		return nil, domain.KeyResolutionError("cannot open JKS keystore", err)
	}

	if !ks.IsPrivateKeyEntry(desc.KeyAlias) {
		if ks.IsTrustedCertificateEntry(desc.KeyAlias) {
			return nil, domain.KeyResolutionError(fmt.Sprintf("alias %q is not a private key entry", desc.KeyAlias), nil)
		}
		return nil, domain.KeyResolutionError(fmt.Sprintf("alias %q not found", desc.KeyAlias), nil)
	}

	entry, err := ks.GetPrivateKeyEntry(desc.KeyAlias, []byte(desc.PrivateKeyPassword))
	if err != nil {
		return nil, domain.KeyResolutionError(fmt.Sprintf("cannot recover key %q", desc.KeyAlias), err)
	}
	if len(entry.CertificateChain) == 0 {
		return nil, domain.KeyResolutionError(fmt.Sprintf("alias %q has no certificate chain", desc.KeyAlias), nil)
	}

	key, err := pkcs8.ParsePKCS8PrivateKey(entry.PrivateKey)
	if err != nil {
		return nil, domain.KeyResolutionError("parse private key", err)
	}
	cert, err := x509.ParseCertificate(entry.CertificateChain[0].Content)
	if err != nil {
		return nil, domain.KeyResolutionError("parse certificate", err)
	}
	return newKeyMaterial(key, cert)
}
