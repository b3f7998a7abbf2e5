package domain

import (
	"crypto"
	"fmt"
	"strings"

	// Register hash implementations used by DigestAlgorithm and SignatureAlgorithm.
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
)

// CanonicalizationMethod is the closed set of supported canonicalization methods.
// The zero value means "not specified" and resolves to the default.
type CanonicalizationMethod int

const (
	CanonicalizationInclusive CanonicalizationMethod = iota + 1
	CanonicalizationInclusiveWithComments
	CanonicalizationExclusive
	CanonicalizationExclusiveWithComments
)

// DefaultCanonicalization is used when no method is specified.
const DefaultCanonicalization = CanonicalizationInclusive

var canonicalizationNames = map[CanonicalizationMethod]string{
	CanonicalizationInclusive:             "inclusive",
	CanonicalizationInclusiveWithComments: "inclusive-with-comments",
	CanonicalizationExclusive:             "exclusive",
	CanonicalizationExclusiveWithComments: "exclusive-with-comments",
}

// ParseCanonicalizationMethod parses a method name. Empty selects the default.
func ParseCanonicalizationMethod(name string) (CanonicalizationMethod, error) {
	if name == "" {
		return DefaultCanonicalization, nil
	}
	for m, n := range canonicalizationNames {
		if strings.EqualFold(n, name) {
			return m, nil
		}
	}
	return 0, UnsupportedAlgorithmError("canonicalization", name)
}

// String returns the method name.
func (m CanonicalizationMethod) String() string {
	return canonicalizationNames[m]
}

// Valid reports whether m is a member of the supported set.
func (m CanonicalizationMethod) Valid() bool {
	_, ok := canonicalizationNames[m]
	return ok
}

// OrDefault returns m, or the default when m is unset.
func (m CanonicalizationMethod) OrDefault() CanonicalizationMethod {
	if m == 0 {
		return DefaultCanonicalization
	}
	return m
}

// DigestAlgorithm is the closed set of supported digest algorithms.
type DigestAlgorithm int

const (
	DigestSHA1 DigestAlgorithm = iota + 1
	DigestSHA256
	DigestSHA384
	DigestSHA512
)

// DefaultDigest is used when no digest algorithm is specified.
const DefaultDigest = DigestSHA256

var digestNames = map[DigestAlgorithm]string{
	DigestSHA1:   "SHA1",
	DigestSHA256: "SHA256",
	DigestSHA384: "SHA384",
	DigestSHA512: "SHA512",
}

var digestHashes = map[DigestAlgorithm]crypto.Hash{
	DigestSHA1:   crypto.SHA1,
	DigestSHA256: crypto.SHA256,
	DigestSHA384: crypto.SHA384,
	DigestSHA512: crypto.SHA512,
}

// ParseDigestAlgorithm parses names such as "SHA256" or "sha-256". Empty selects the default.
func ParseDigestAlgorithm(name string) (DigestAlgorithm, error) {
	if name == "" {
		return DefaultDigest, nil
	}
	normalized := strings.ToUpper(strings.ReplaceAll(name, "-", ""))
	for d, n := range digestNames {
		if n == normalized {
			return d, nil
		}
	}
	return 0, UnsupportedAlgorithmError("digest", name)
}

// String returns the algorithm name.
func (d DigestAlgorithm) String() string {
	return digestNames[d]
}

// Valid reports whether d is a member of the supported set.
func (d DigestAlgorithm) Valid() bool {
	_, ok := digestNames[d]
	return ok
}

// OrDefault returns d, or the default when d is unset.
func (d DigestAlgorithm) OrDefault() DigestAlgorithm {
	if d == 0 {
		return DefaultDigest
	}
	return d
}

// Hash returns the crypto.Hash implementing d.
func (d DigestAlgorithm) Hash() crypto.Hash {
	return digestHashes[d]
}

// KeyFamily groups signature algorithms by the kind of key they require.
type KeyFamily int

const (
	KeyFamilyRSA KeyFamily = iota + 1
	KeyFamilyECDSA
	KeyFamilyHMAC
)

// String returns the family name.
func (f KeyFamily) String() string {
	switch f {
	case KeyFamilyRSA:
		return "RSA"
	case KeyFamilyECDSA:
		return "ECDSA"
	case KeyFamilyHMAC:
		return "HMAC"
	default:
		return "unknown"
	}
}

// SignatureAlgorithm is the closed set of supported signature algorithms.
type SignatureAlgorithm int

const (
	SignatureRSASHA1 SignatureAlgorithm = iota + 1
	SignatureRSASHA256
	SignatureRSASHA384
	SignatureRSASHA512
	SignatureECDSASHA256
	SignatureECDSASHA384
	SignatureECDSASHA512
	SignatureHMACSHA1
	SignatureHMACSHA256
	SignatureHMACSHA384
	SignatureHMACSHA512
)

// DefaultSignature is used when no signature algorithm is specified.
const DefaultSignature = SignatureRSASHA256

type signatureInfo struct {
	name   string
	family KeyFamily
	hash   crypto.Hash
}

var signatureAlgorithms = map[SignatureAlgorithm]signatureInfo{
	SignatureRSASHA1:     {"RSA_SHA1", KeyFamilyRSA, crypto.SHA1},
	SignatureRSASHA256:   {"RSA_SHA256", KeyFamilyRSA, crypto.SHA256},
	SignatureRSASHA384:   {"RSA_SHA384", KeyFamilyRSA, crypto.SHA384},
	SignatureRSASHA512:   {"RSA_SHA512", KeyFamilyRSA, crypto.SHA512},
	SignatureECDSASHA256: {"ECDSA_SHA256", KeyFamilyECDSA, crypto.SHA256},
	SignatureECDSASHA384: {"ECDSA_SHA384", KeyFamilyECDSA, crypto.SHA384},
	SignatureECDSASHA512: {"ECDSA_SHA512", KeyFamilyECDSA, crypto.SHA512},
	SignatureHMACSHA1:    {"HMAC_SHA1", KeyFamilyHMAC, crypto.SHA1},
	SignatureHMACSHA256:  {"HMAC_SHA256", KeyFamilyHMAC, crypto.SHA256},
	SignatureHMACSHA384:  {"HMAC_SHA384", KeyFamilyHMAC, crypto.SHA384},
	SignatureHMACSHA512:  {"HMAC_SHA512", KeyFamilyHMAC, crypto.SHA512},
}

// ParseSignatureAlgorithm parses names such as "RSA_SHA256" or "rsa-sha256". Empty selects the default.
func ParseSignatureAlgorithm(name string) (SignatureAlgorithm, error) {
	if name == "" {
		return DefaultSignature, nil
	}
	normalized := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	for s, info := range signatureAlgorithms {
		if info.name == normalized {
			return s, nil
		}
	}
	return 0, UnsupportedAlgorithmError("signature", name)
}

// String returns the algorithm name.
func (s SignatureAlgorithm) String() string {
	return signatureAlgorithms[s].name
}

// Valid reports whether s is a member of the supported set.
func (s SignatureAlgorithm) Valid() bool {
	_, ok := signatureAlgorithms[s]
	return ok
}

// OrDefault returns s, or the default when s is unset.
func (s SignatureAlgorithm) OrDefault() SignatureAlgorithm {
	if s == 0 {
		return DefaultSignature
	}
	return s
}

// Family returns the key family s requires.
func (s SignatureAlgorithm) Family() KeyFamily {
	return signatureAlgorithms[s].family
}

// Hash returns the hash s signs over.
func (s SignatureAlgorithm) Hash() crypto.Hash {
	return signatureAlgorithms[s].hash
}

// PlacementMode controls where a signature sits relative to the signed content.
type PlacementMode int

const (
	PlacementEnveloped PlacementMode = iota + 1
	PlacementEnveloping
	PlacementDetached
)

// DefaultPlacement is used when no placement is specified.
const DefaultPlacement = PlacementEnveloped

var placementNames = map[PlacementMode]string{
	PlacementEnveloped:  "enveloped",
	PlacementEnveloping: "enveloping",
	PlacementDetached:   "detached",
}

// ParsePlacementMode parses a placement name. Empty selects the default.
func ParsePlacementMode(name string) (PlacementMode, error) {
	if name == "" {
		return DefaultPlacement, nil
	}
	for p, n := range placementNames {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}
	return 0, ConfigError(fmt.Sprintf("unknown signature placement %q", name))
}

// String returns the placement name.
func (p PlacementMode) String() string {
	return placementNames[p]
}

// OrDefault returns p, or the default when p is unset.
func (p PlacementMode) OrDefault() PlacementMode {
	if p == 0 {
		return DefaultPlacement
	}
	return p
}

// CipherMode selects symmetric or asymmetric encryption.
type CipherMode int

const (
	CipherSymmetric CipherMode = iota + 1
	CipherAsymmetric
)

// ParseCipherMode parses "symmetric" or "asymmetric".
func ParseCipherMode(name string) (CipherMode, error) {
	switch strings.ToLower(name) {
	case "symmetric":
		return CipherSymmetric, nil
	case "asymmetric":
		return CipherAsymmetric, nil
	default:
		return 0, ConfigError(fmt.Sprintf("encryption type must be symmetric or asymmetric, got %q", name))
	}
}

// String returns the mode name.
func (m CipherMode) String() string {
	switch m {
	case CipherSymmetric:
		return "symmetric"
	case CipherAsymmetric:
		return "asymmetric"
	default:
		return ""
	}
}

// CipherAlgorithm is the closed set of supported encryption algorithms.
type CipherAlgorithm int

const (
	CipherAES CipherAlgorithm = iota + 1
	CipherChaCha20Poly1305
	CipherXChaCha20Poly1305
	CipherRSA
)

type cipherInfo struct {
	name string
	mode CipherMode
}

var cipherAlgorithms = map[CipherAlgorithm]cipherInfo{
	CipherAES:               {"AES", CipherSymmetric},
	CipherChaCha20Poly1305:  {"ChaCha20-Poly1305", CipherSymmetric},
	CipherXChaCha20Poly1305: {"XChaCha20-Poly1305", CipherSymmetric},
	CipherRSA:               {"RSA", CipherAsymmetric},
}

// ParseCipherAlgorithm parses a cipher name, case-insensitively.
func ParseCipherAlgorithm(name string) (CipherAlgorithm, error) {
	for c, info := range cipherAlgorithms {
		if strings.EqualFold(info.name, name) {
			return c, nil
		}
	}
	return 0, UnsupportedAlgorithmError("cipher", name)
}

// String returns the algorithm name.
func (c CipherAlgorithm) String() string {
	return cipherAlgorithms[c].name
}

// Mode returns the cipher mode c belongs to.
func (c CipherAlgorithm) Mode() CipherMode {
	return cipherAlgorithms[c].mode
}
