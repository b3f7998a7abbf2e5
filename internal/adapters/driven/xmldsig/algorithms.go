package xmldsig

import (
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// Digest method URIs.
const (
	DigestSHA1URI   = "http://www.w3.org/2000/09/xmldsig#sha1"
	DigestSHA256URI = "http://www.w3.org/2001/04/xmlenc#sha256"
	DigestSHA384URI = "http://www.w3.org/2001/04/xmldsig-more#sha384"
	DigestSHA512URI = "http://www.w3.org/2001/04/xmlenc#sha512"
)

// HMAC signature method URIs. RSA and ECDSA URIs come from goxmldsig.
const (
	HMACSHA1URI   = "http://www.w3.org/2000/09/xmldsig#hmac-sha1"
	HMACSHA256URI = "http://www.w3.org/2001/04/xmldsig-more#hmac-sha256"
	HMACSHA384URI = "http://www.w3.org/2001/04/xmldsig-more#hmac-sha384"
	HMACSHA512URI = "http://www.w3.org/2001/04/xmldsig-more#hmac-sha512"
)

// Names not covered by goxmldsig's constants.
const (
	XPathFilter2URI      = "http://www.w3.org/2002/06/xmldsig-filter2"
	xpathFilter2Prefix   = "dsig-xpath"
	xpathTag             = "XPath"
	xpathFilterAttr      = "Filter"
	xpathFilterIntersect = "intersect"
	objectTag            = "Object"
	idAttr               = "Id"
	objectIDPrefix       = "object-"
	xmlnsAttr            = "xmlns"
)

var canonicalizationURIs = map[domain.CanonicalizationMethod]string{
	domain.CanonicalizationInclusive:             string(dsig.CanonicalXML10RecAlgorithmId),
	domain.CanonicalizationInclusiveWithComments: string(dsig.CanonicalXML10WithCommentsAlgorithmId),
	domain.CanonicalizationExclusive:             string(dsig.CanonicalXML10ExclusiveAlgorithmId),
	domain.CanonicalizationExclusiveWithComments: string(dsig.CanonicalXML10ExclusiveWithCommentsAlgorithmId),
}

var digestURIs = map[domain.DigestAlgorithm]string{
	domain.DigestSHA1:   DigestSHA1URI,
	domain.DigestSHA256: DigestSHA256URI,
	domain.DigestSHA384: DigestSHA384URI,
	domain.DigestSHA512: DigestSHA512URI,
}

var signatureURIs = map[domain.SignatureAlgorithm]string{
	domain.SignatureRSASHA1:     dsig.RSASHA1SignatureMethod,
	domain.SignatureRSASHA256:   dsig.RSASHA256SignatureMethod,
	domain.SignatureRSASHA384:   dsig.RSASHA384SignatureMethod,
	domain.SignatureRSASHA512:   dsig.RSASHA512SignatureMethod,
	domain.SignatureECDSASHA256: dsig.ECDSASHA256SignatureMethod,
	domain.SignatureECDSASHA384: dsig.ECDSASHA384SignatureMethod,
	domain.SignatureECDSASHA512: dsig.ECDSASHA512SignatureMethod,
	domain.SignatureHMACSHA1:    HMACSHA1URI,
	domain.SignatureHMACSHA256:  HMACSHA256URI,
	domain.SignatureHMACSHA384:  HMACSHA384URI,
	domain.SignatureHMACSHA512:  HMACSHA512URI,
}

// CanonicalizationURI returns the algorithm URI recorded for m.
func CanonicalizationURI(m domain.CanonicalizationMethod) string {
	return canonicalizationURIs[m]
}

// DigestURI returns the DigestMethod URI for d.
func DigestURI(d domain.DigestAlgorithm) string {
	return digestURIs[d]
}

// SignatureURI returns the SignatureMethod URI for s.
func SignatureURI(s domain.SignatureAlgorithm) string {
	return signatureURIs[s]
}

func canonicalizationFromURI(uri string) (domain.CanonicalizationMethod, error) {
	for m, u := range canonicalizationURIs {
		if u == uri {
			return m, nil
		}
	}
	return 0, domain.UnsupportedAlgorithmError("canonicalization", uri)
}

func digestFromURI(uri string) (domain.DigestAlgorithm, error) {
	for d, u := range digestURIs {
		if u == uri {
			return d, nil
		}
	}
	return 0, domain.UnsupportedAlgorithmError("digest", uri)
}

func signatureFromURI(uri string) (domain.SignatureAlgorithm, error) {
	for s, u := range signatureURIs {
		if u == uri {
			return s, nil
		}
	}
	return 0, domain.UnsupportedAlgorithmError("signature", uri)
}
