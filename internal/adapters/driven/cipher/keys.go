package cipher

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"

	"github.com/youmark/pkcs8"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// PEM block types accepted for RSA keys.
const (
	pemPublicKey     = "PUBLIC KEY"
	pemRSAPublicKey  = "RSA PUBLIC KEY"
	pemCertificate   = "CERTIFICATE"
	pemPrivateKey    = "PRIVATE KEY"
	pemRSAPrivateKey = "RSA PRIVATE KEY"
)

// keyDER returns the DER bytes of key and its PEM type, or "" for bare base64.
func keyDER(key string) ([]byte, string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, "", domain.KeyFormatError("empty key", nil)
	}
	if block, _ := pem.Decode([]byte(key)); block != nil {
		return block.Bytes, block.Type, nil
	}
	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(key), ""))
	if err != nil {
		return nil, "", domain.KeyFormatError("key is neither PEM nor base64 DER", err)
	}
	return der, "", nil
}

// parsePublicKey reads an RSA public key from a PEM public key, certificate
// or bare PKIX DER. A private key yields its public half.
func parsePublicKey(key string) (*rsa.PublicKey, error) {
	der, blockType, err := keyDER(key)
	if err != nil {
		return nil, err
	}

	var pub any
	switch blockType {
	case pemPublicKey, "":
		pub, err = x509.ParsePKIXPublicKey(der)
		if err != nil && blockType == "" {
			if priv, privErr := privateKeyFromDER(der, blockType); privErr == nil {
				return &priv.PublicKey, nil
			}
		}
	case pemRSAPublicKey:
		pub, err = x509.ParsePKCS1PublicKey(der)
	case pemCertificate:
		var cert *x509.Certificate
		if cert, err = x509.ParseCertificate(der); err == nil {
			pub = cert.PublicKey
		}
	case pemPrivateKey, pemRSAPrivateKey:
		priv, err := privateKeyFromDER(der, blockType)
		if err != nil {
			return nil, err
		}
		return &priv.PublicKey, nil
	default:
		return nil, domain.KeyFormatError("unsupported PEM block "+blockType, nil)
	}
	if err != nil {
		return nil, domain.KeyFormatError("invalid public key", err)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, domain.KeyAlgorithmMismatchError(domain.CipherRSA.String(), pub)
	}
	return rsaPub, nil
}

// parsePrivateKey reads an RSA private key from PEM (PKCS#8 or PKCS#1) or
// bare PKCS#8 DER.
func parsePrivateKey(key string) (*rsa.PrivateKey, error) {
	der, blockType, err := keyDER(key)
	if err != nil {
		return nil, err
	}
	switch blockType {
	case pemPrivateKey, pemRSAPrivateKey, "":
		return privateKeyFromDER(der, blockType)
	default:
		return nil, domain.KeyFormatError("expected a private key, got "+blockType, nil)
	}
}

func privateKeyFromDER(der []byte, blockType string) (*rsa.PrivateKey, error) {
	if blockType == pemRSAPrivateKey {
		priv, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			return nil, domain.KeyFormatError("invalid PKCS#1 private key", err)
		}
		return priv, nil
	}

	parsed, err := pkcs8.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, domain.KeyFormatError("invalid PKCS#8 private key", err)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, domain.KeyAlgorithmMismatchError(domain.CipherRSA.String(), parsed)
	}
	return priv, nil
}
