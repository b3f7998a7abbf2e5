// Package xmlsig provides a reference XML signer and validator for testing.
// It signs and validates with goxmldsig, independently of the production
// signature engine, so interop tests can check both directions.
package xmlsig

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
)

// Signer produces enveloped signatures with goxmldsig.
type Signer struct {
	privateKey  *rsa.PrivateKey
	certificate *x509.Certificate
}

// New creates a Signer for the given RSA key pair.
func New(key *rsa.PrivateKey, cert *x509.Certificate) *Signer {
	return &Signer{privateKey: key, certificate: cert}
}

// Sign adds an enveloped exclusive-c14n RSA-SHA256 signature to the root element.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, errors.New("empty XML document")
	}

	tlsCert := tls.Certificate{
		Certificate: [][]byte{s.certificate.Raw},
		PrivateKey:  s.privateKey,
	}
	signingContext := dsig.NewDefaultSigningContext(dsig.TLSCertKeyStore(tlsCert))
	signingContext.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")

	signedRoot, err := signingContext.SignEnveloped(root)
	if err != nil {
		return nil, fmt.Errorf("sign XML: %w", err)
	}
	doc.SetRoot(signedRoot)

	signedBytes, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize signed XML: %w", err)
	}
	return signedBytes, nil
}

// Validate checks an enveloped signature on the root element against cert.
func Validate(data []byte, cert *x509.Certificate) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("parse XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return errors.New("empty XML document")
	}

	ctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	if _, err := ctx.Validate(root); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
