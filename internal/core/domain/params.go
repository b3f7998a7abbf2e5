package domain

import (
	"fmt"
	"strings"
)

// SignatureParameters selects how a signature is generated.
// Zero-valued algorithm fields fall back to their defaults.
type SignatureParameters struct {
	Canonicalization CanonicalizationMethod
	Digest           DigestAlgorithm
	Signature        SignatureAlgorithm
	NamespacePrefix  string
	Placement        PlacementMode
	// Selector narrows the signed content; empty signs the whole document.
	Selector string
	// HMACKey is the shared secret for HMAC-family signature algorithms.
	HMACKey []byte
}

// ParseSignatureParameters builds parameters from host-supplied names.
// Empty names select defaults.
func ParseSignatureParameters(canonicalization, digest, signature, prefix, placement, selector string) (SignatureParameters, error) {
	c, err := ParseCanonicalizationMethod(canonicalization)
	if err != nil {
		return SignatureParameters{}, err
	}
	d, err := ParseDigestAlgorithm(digest)
	if err != nil {
		return SignatureParameters{}, err
	}
	s, err := ParseSignatureAlgorithm(signature)
	if err != nil {
		return SignatureParameters{}, err
	}
	p, err := ParsePlacementMode(placement)
	if err != nil {
		return SignatureParameters{}, err
	}
	params := SignatureParameters{
		Canonicalization: c,
		Digest:           d,
		Signature:        s,
		NamespacePrefix:  prefix,
		Placement:        p,
		Selector:         strings.TrimSpace(selector),
	}
	if err := params.Validate(); err != nil {
		return SignatureParameters{}, err
	}
	return params, nil
}

// WithDefaults returns p with every unset algorithm replaced by its default.
func (p SignatureParameters) WithDefaults() SignatureParameters {
	p.Canonicalization = p.Canonicalization.OrDefault()
	p.Digest = p.Digest.OrDefault()
	p.Signature = p.Signature.OrDefault()
	p.Placement = p.Placement.OrDefault()
	return p
}

// Validate checks enum membership and the namespace prefix.
func (p SignatureParameters) Validate() error {
	p = p.WithDefaults()
	if !p.Canonicalization.Valid() {
		return UnsupportedAlgorithmError("canonicalization", fmt.Sprint(int(p.Canonicalization)))
	}
	if !p.Digest.Valid() {
		return UnsupportedAlgorithmError("digest", fmt.Sprint(int(p.Digest)))
	}
	if !p.Signature.Valid() {
		return UnsupportedAlgorithmError("signature", fmt.Sprint(int(p.Signature)))
	}
	if p.Placement.String() == "" {
		return ConfigError(fmt.Sprintf("unknown signature placement %d", int(p.Placement)))
	}
	if !IsValidPrefix(p.NamespacePrefix) {
		return ConfigError(fmt.Sprintf("invalid namespace prefix %q", p.NamespacePrefix))
	}
	return nil
}

// IsValidPrefix reports whether prefix can be used as an XML namespace prefix.
// The empty prefix selects the default namespace.
func IsValidPrefix(prefix string) bool {
	if prefix == "" {
		return true
	}
	if strings.HasPrefix(strings.ToLower(prefix), "xml") {
		return false
	}
	for i, r := range prefix {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}

// CipherRequest is a single encrypt or decrypt call.
// Key holds a PEM or base64 key for asymmetric mode and the raw secret for symmetric mode.
type CipherRequest struct {
	Payload   string
	Mode      CipherMode
	Key       string
	Algorithm CipherAlgorithm
}
