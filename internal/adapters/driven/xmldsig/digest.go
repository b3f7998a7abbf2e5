package xmldsig

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"io"
	"math/big"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// DigestSigner computes digests and signature values.
//
// RSA keys sign with PKCS#1 v1.5, ECDSA keys produce the fixed-width r||s
// encoding XML-DSig expects, and HMAC keys are raw []byte secrets.
type DigestSigner struct {
	random io.Reader
}

// NewDigestSigner creates a DigestSigner drawing randomness from crypto/rand.
func NewDigestSigner() *DigestSigner {
	return &DigestSigner{random: rand.Reader}
}

// Digest hashes data with alg.
func (s *DigestSigner) Digest(data []byte, alg domain.DigestAlgorithm) ([]byte, error) {
	if !alg.Valid() {
		return nil, domain.UnsupportedAlgorithmError("digest", alg.String())
	}
	return hashSum(alg.Hash(), data), nil
}

// Sign hashes data with the hash of alg and signs it with key.
// The key type must belong to alg's family.
func (s *DigestSigner) Sign(data []byte, key any, alg domain.SignatureAlgorithm) ([]byte, error) {
	if !alg.Valid() {
		return nil, domain.UnsupportedAlgorithmError("signature", alg.String())
	}
	hash := alg.Hash()

	switch alg.Family() {
	case domain.KeyFamilyRSA:
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, domain.KeyAlgorithmMismatchError(alg.String(), key)
		}
		sig, err := rsa.SignPKCS1v15(s.random, priv, hash, hashSum(hash, data))
		if err != nil {
			return nil, domain.ServiceError("RSA signing failed", err)
		}
		return sig, nil

	case domain.KeyFamilyECDSA:
		priv, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, domain.KeyAlgorithmMismatchError(alg.String(), key)
		}
		r, ss, err := ecdsa.Sign(s.random, priv, hashSum(hash, data))
		if err != nil {
			return nil, domain.ServiceError("ECDSA signing failed", err)
		}
		size := curveByteSize(priv.Curve)
		sig := make([]byte, 2*size)
		r.FillBytes(sig[:size])
		ss.FillBytes(sig[size:])
		return sig, nil

	case domain.KeyFamilyHMAC:
		secret, ok := key.([]byte)
		if !ok {
			return nil, domain.KeyAlgorithmMismatchError(alg.String(), key)
		}
		if len(secret) == 0 {
			return nil, domain.ConfigError("HMAC signing requires a non-empty key")
		}
		return hmacSum(hash, secret, data), nil
	}
	return nil, domain.UnsupportedAlgorithmError("signature", alg.String())
}

// Verify reports whether signature is a valid signature of data under key.
// key may be a public key, an *x509.Certificate, or an HMAC secret.
// A mismatching signature yields false; errors are reserved for
// unsupported algorithms and keys outside alg's family.
func (s *DigestSigner) Verify(data, signature []byte, key any, alg domain.SignatureAlgorithm) (bool, error) {
	if !alg.Valid() {
		return false, domain.UnsupportedAlgorithmError("signature", alg.String())
	}
	if cert, ok := key.(*x509.Certificate); ok {
		key = cert.PublicKey
	}
	hash := alg.Hash()

	switch alg.Family() {
	case domain.KeyFamilyRSA:
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return false, domain.KeyAlgorithmMismatchError(alg.String(), key)
		}
		return rsa.VerifyPKCS1v15(pub, hash, hashSum(hash, data), signature) == nil, nil

	case domain.KeyFamilyECDSA:
		pub, ok := key.(*ecdsa.PublicKey)
		if !ok {
			return false, domain.KeyAlgorithmMismatchError(alg.String(), key)
		}
		size := curveByteSize(pub.Curve)
		if len(signature) != 2*size {
			return false, nil
		}
		r := new(big.Int).SetBytes(signature[:size])
		ss := new(big.Int).SetBytes(signature[size:])
		return ecdsa.Verify(pub, hashSum(hash, data), r, ss), nil

	case domain.KeyFamilyHMAC:
		secret, ok := key.([]byte)
		if !ok {
			return false, domain.KeyAlgorithmMismatchError(alg.String(), key)
		}
		return hmac.Equal(hmacSum(hash, secret, data), signature), nil
	}
	return false, domain.UnsupportedAlgorithmError("signature", alg.String())
}

func hashSum(hash crypto.Hash, data []byte) []byte {
	h := hash.New()
	h.Write(data)
	return h.Sum(nil)
}

func hmacSum(hash crypto.Hash, secret, data []byte) []byte {
	mac := hmac.New(hash.New, secret)
	mac.Write(data)
	return mac.Sum(nil)
}

func curveByteSize(curve elliptic.Curve) int {
	return (curve.Params().BitSize + 7) / 8
}
