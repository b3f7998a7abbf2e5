package xmldsig

import (
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// Extracted is everything recovered from a Signature element.
type Extracted struct {
	// Params are the algorithms, prefix, placement and selector the
	// signature records. HMACKey is never set.
	Params domain.SignatureParameters
	// ContentCanonicalization is the method named by the Reference
	// transforms; it applies to the referenced content.
	ContentCanonicalization domain.CanonicalizationMethod
	DigestValue             []byte
	SignatureValue          []byte
	// Certificate is nil when the signature carries no X509Certificate.
	Certificate *x509.Certificate
	// ObjectID is the Id of the Object an enveloping signature covers.
	ObjectID string
	// Content is the canonical referenced content, or nil when the
	// recorded selector no longer matches anything.
	Content []byte

	Signature  *etree.Element
	SignedInfo *etree.Element
}

// parseSignature locates the XML-DSig Signature in doc, at any depth and
// under any prefix, and decodes it. Signatures nested in another Signature
// are not candidates. Of the rest the last decodable one in document order
// wins, since signing appends after any existing signature. When none
// decodes, the error of the last candidate is returned.
func parseSignature(doc *etree.Document) (*Extracted, error) {
	root := doc.Root()
	if root == nil {
		return nil, domain.InvalidInputError("document has no root element", nil)
	}
	candidates := outermostSignatures(root, nil)
	if len(candidates) == 0 {
		return nil, domain.MalformedSignatureError("no Signature element found", nil)
	}

	var firstErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		ext, err := decodeSignature(candidates[i])
		if err == nil {
			return ext, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func decodeSignature(sig *etree.Element) (*Extracted, error) {
	ext := &Extracted{Signature: sig}
	ext.Params.NamespacePrefix = sig.Space

	ext.SignedInfo = dsigChild(sig, dsig.SignedInfoTag)
	if ext.SignedInfo == nil {
		return nil, domain.MalformedSignatureError("Signature has no SignedInfo", nil)
	}

	uri, err := algorithmOf(ext.SignedInfo, dsig.CanonicalizationMethodTag)
	if err != nil {
		return nil, err
	}
	if ext.Params.Canonicalization, err = canonicalizationFromURI(uri); err != nil {
		return nil, err
	}

	if uri, err = algorithmOf(ext.SignedInfo, dsig.SignatureMethodTag); err != nil {
		return nil, err
	}
	if ext.Params.Signature, err = signatureFromURI(uri); err != nil {
		return nil, err
	}

	refs := dsigChildren(ext.SignedInfo, dsig.ReferenceTag)
	if len(refs) != 1 {
		return nil, domain.MalformedSignatureError(fmt.Sprintf("expected one Reference, found %d", len(refs)), nil)
	}
	if err := ext.parseReference(refs[0]); err != nil {
		return nil, err
	}

	if ext.SignatureValue, err = decodeValue(sig, dsig.SignatureValueTag); err != nil {
		return nil, err
	}

	if keyInfo := dsigChild(sig, dsig.KeyInfoTag); keyInfo != nil {
		if ext.Certificate, err = parseKeyInfo(keyInfo); err != nil {
			return nil, err
		}
	}
	return ext, nil
}

func (ext *Extracted) parseReference(ref *etree.Element) error {
	enveloped := false
	ext.ContentCanonicalization = domain.CanonicalizationInclusive

	if transforms := dsigChild(ref, dsig.TransformsTag); transforms != nil {
		for _, transform := range dsigChildren(transforms, dsig.TransformTag) {
			uri := transform.SelectAttrValue(dsig.AlgorithmAttr, "")
			switch uri {
			case string(dsig.EnvelopedSignatureAltorithmId):
				enveloped = true
			case XPathFilter2URI:
				selector, err := parseXPathFilter(transform)
				if err != nil {
					return err
				}
				ext.Params.Selector = selector
			default:
				method, err := canonicalizationFromURI(uri)
				if err != nil {
					return domain.UnsupportedAlgorithmError("transform", uri)
				}
				ext.ContentCanonicalization = method
			}
		}
	}

	uri, err := algorithmOf(ref, dsig.DigestMethodTag)
	if err != nil {
		return err
	}
	if ext.Params.Digest, err = digestFromURI(uri); err != nil {
		return err
	}
	if ext.DigestValue, err = decodeValue(ref, dsig.DigestValueTag); err != nil {
		return err
	}

	uriAttr := ref.SelectAttr(dsig.URIAttr)
	switch {
	case uriAttr != nil && uriAttr.Value == "" && enveloped:
		ext.Params.Placement = domain.PlacementEnveloped
	case uriAttr != nil && strings.HasPrefix(uriAttr.Value, "#") && len(uriAttr.Value) > 1 && !enveloped:
		ext.Params.Placement = domain.PlacementEnveloping
		ext.ObjectID = uriAttr.Value[1:]
	case uriAttr == nil && !enveloped:
		ext.Params.Placement = domain.PlacementDetached
	case uriAttr != nil:
		return domain.MalformedSignatureError(fmt.Sprintf("unsupported Reference URI %q", uriAttr.Value), nil)
	default:
		return domain.MalformedSignatureError("enveloped transform on a Reference without URI", nil)
	}
	return nil
}

func parseXPathFilter(transform *etree.Element) (string, error) {
	for _, child := range transform.ChildElements() {
		if child.Tag != xpathTag || child.NamespaceURI() != XPathFilter2URI {
			continue
		}
		if filter := child.SelectAttrValue(xpathFilterAttr, ""); filter != xpathFilterIntersect {
			return "", domain.UnsupportedAlgorithmError("XPath filter", filter)
		}
		selector := strings.TrimSpace(child.Text())
		if selector == "" {
			return "", domain.MalformedSignatureError("empty XPath filter", nil)
		}
		return selector, nil
	}
	return "", domain.MalformedSignatureError("XPath filter transform has no XPath element", nil)
}

func parseKeyInfo(keyInfo *etree.Element) (*x509.Certificate, error) {
	x509Data := dsigChild(keyInfo, dsig.X509DataTag)
	if x509Data == nil {
		return nil, nil
	}
	raw, err := decodeValue(x509Data, dsig.X509CertificateTag)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, domain.MalformedSignatureError("invalid X509Certificate", err)
	}
	return cert, nil
}

// algorithmOf returns the Algorithm attribute of the named child of el.
func algorithmOf(el *etree.Element, tag string) (string, error) {
	child := dsigChild(el, tag)
	if child == nil {
		return "", domain.MalformedSignatureError(el.Tag+" has no "+tag, nil)
	}
	uri := child.SelectAttrValue(dsig.AlgorithmAttr, "")
	if uri == "" {
		return "", domain.MalformedSignatureError(tag+" has no Algorithm", nil)
	}
	return uri, nil
}

// decodeValue base64-decodes the text of the named child of el.
func decodeValue(el *etree.Element, tag string) ([]byte, error) {
	child := dsigChild(el, tag)
	if child == nil {
		return nil, domain.MalformedSignatureError(el.Tag+" has no "+tag, nil)
	}
	text := strings.Join(strings.Fields(child.Text()), "")
	if text == "" {
		return nil, domain.MalformedSignatureError(tag+" is empty", nil)
	}
	value, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, domain.MalformedSignatureError(tag+" is not valid base64", err)
	}
	return value, nil
}

func isDSig(el *etree.Element, tag string) bool {
	return el.Tag == tag && el.NamespaceURI() == dsig.Namespace
}

// outermostSignatures appends the Signature elements under el, in document
// order, without descending into a Signature.
func outermostSignatures(el *etree.Element, out []*etree.Element) []*etree.Element {
	if isDSig(el, dsig.SignatureTag) {
		return append(out, el)
	}
	for _, child := range el.ChildElements() {
		out = outermostSignatures(child, out)
	}
	return out
}

func dsigChild(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if isDSig(child, tag) {
			return child
		}
	}
	return nil
}

func dsigChildren(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if isDSig(child, tag) {
			out = append(out, child)
		}
	}
	return out
}

func findObject(sig *etree.Element, id string) *etree.Element {
	for _, obj := range dsigChildren(sig, objectTag) {
		if obj.SelectAttrValue(idAttr, "") == id {
			return obj
		}
	}
	return nil
}
