package keystore

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

const pemCertificateBlock = "CERTIFICATE"

// LoadTrustedCertificates reads the PEM bundle of trust anchors that
// signature validation accepts an embedded certificate against. The file is
// read under the same size limit as keystores.
func LoadTrustedCertificates(path string) ([]*x509.Certificate, error) {
	data, err := readKeystore(path)
	if err != nil {
		return nil, domain.KeyResolutionError("cannot read trusted certificates", err)
	}
	return parseTrustAnchors(data)
}

// parseTrustAnchors keeps the CERTIFICATE blocks of a PEM bundle in file
// order, skipping keys and other blocks. A bundle without certificates is an
// error.
func parseTrustAnchors(data []byte) ([]*x509.Certificate, error) {
	var anchors []*x509.Certificate
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != pemCertificateBlock {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, domain.KeyResolutionError(fmt.Sprintf("trusted certificate %d is invalid", len(anchors)+1), err)
		}
		anchors = append(anchors, cert)
	}
	if len(anchors) == 0 {
		return nil, domain.KeyResolutionError("no trusted certificates in bundle", nil)
	}
	return anchors, nil
}
