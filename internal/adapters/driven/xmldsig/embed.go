package xmldsig

import (
	"crypto/x509"
	"encoding/base64"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/russellhaering/goxmldsig/etreeutils"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// signatureTree holds the elements of a Signature under construction.
// DigestValue and SignatureValue are filled in once the signature sits in
// its final document.
type signatureTree struct {
	prefix         string
	signature      *etree.Element
	signedInfo     *etree.Element
	digestValue    *etree.Element
	signatureValue *etree.Element
}

func (t *signatureTree) tag(local string) string {
	if t.prefix == "" {
		return local
	}
	return t.prefix + ":" + local
}

// newSignatureTree builds Signature, SignedInfo, SignatureValue and KeyInfo
// for params. objectID names the Object an enveloping reference points to.
// cert is nil for HMAC signatures, which carry no KeyInfo.
func newSignatureTree(params domain.SignatureParameters, objectID string, cert *x509.Certificate) *signatureTree {
	t := &signatureTree{prefix: params.NamespacePrefix}

	t.signature = etree.NewElement(t.tag(dsig.SignatureTag))
	if t.prefix == "" {
		t.signature.CreateAttr(xmlnsAttr, dsig.Namespace)
	} else {
		t.signature.CreateAttr(xmlnsAttr+":"+t.prefix, dsig.Namespace)
	}

	t.signedInfo = t.signature.CreateElement(t.tag(dsig.SignedInfoTag))
	t.signedInfo.CreateElement(t.tag(dsig.CanonicalizationMethodTag)).
		CreateAttr(dsig.AlgorithmAttr, CanonicalizationURI(params.Canonicalization))
	t.signedInfo.CreateElement(t.tag(dsig.SignatureMethodTag)).
		CreateAttr(dsig.AlgorithmAttr, SignatureURI(params.Signature))

	ref := t.signedInfo.CreateElement(t.tag(dsig.ReferenceTag))
	switch params.Placement {
	case domain.PlacementEnveloped:
		ref.CreateAttr(dsig.URIAttr, "")
	case domain.PlacementEnveloping:
		ref.CreateAttr(dsig.URIAttr, "#"+objectID)
	}

	transforms := ref.CreateElement(t.tag(dsig.TransformsTag))
	if params.Placement == domain.PlacementEnveloped {
		t.transform(transforms, string(dsig.EnvelopedSignatureAltorithmId))
	}
	if params.Selector != "" && params.Placement != domain.PlacementEnveloping {
		filter := t.transform(transforms, XPathFilter2URI)
		xpath := filter.CreateElement(xpathFilter2Prefix + ":" + xpathTag)
		xpath.CreateAttr(xmlnsAttr+":"+xpathFilter2Prefix, XPathFilter2URI)
		xpath.CreateAttr(xpathFilterAttr, xpathFilterIntersect)
		xpath.SetText(params.Selector)
	}
	t.transform(transforms, CanonicalizationURI(params.Canonicalization))

	ref.CreateElement(t.tag(dsig.DigestMethodTag)).CreateAttr(dsig.AlgorithmAttr, DigestURI(params.Digest))
	t.digestValue = ref.CreateElement(t.tag(dsig.DigestValueTag))

	t.signatureValue = t.signature.CreateElement(t.tag(dsig.SignatureValueTag))

	if cert != nil {
		x509Data := t.signature.CreateElement(t.tag(dsig.KeyInfoTag)).CreateElement(t.tag(dsig.X509DataTag))
		x509Data.CreateElement(t.tag(dsig.X509CertificateTag)).
			SetText(base64.StdEncoding.EncodeToString(cert.Raw))
	}
	return t
}

func (t *signatureTree) transform(transforms *etree.Element, algorithm string) *etree.Element {
	el := transforms.CreateElement(t.tag(dsig.TransformTag))
	el.CreateAttr(dsig.AlgorithmAttr, algorithm)
	return el
}

// addObject wraps namespace-detached copies of nodes in an Object element
// appended to the signature.
func (t *signatureTree) addObject(id string, nodes []*etree.Element) (*etree.Element, error) {
	obj := t.signature.CreateElement(t.tag(objectTag))
	obj.CreateAttr(idAttr, id)

	for _, node := range nodes {
		ctx, err := etreeutils.NSBuildParentContext(node)
		if err != nil {
			return nil, domain.InvalidInputError("resolve namespace context", err)
		}
		detached, err := etreeutils.NSDetatch(ctx, node)
		if err != nil {
			return nil, domain.InvalidInputError("detach element", err)
		}
		// An unprefixed signature declares the default namespace; keep
		// unqualified content out of it.
		if t.prefix == "" && node.NamespaceURI() == "" && detached.SelectAttr(xmlnsAttr) == nil {
			detached.CreateAttr(xmlnsAttr, "")
		}
		obj.AddChild(detached)
	}
	return obj, nil
}

// setDigest records the reference digest.
func (t *signatureTree) setDigest(digest []byte) {
	t.digestValue.SetText(base64.StdEncoding.EncodeToString(digest))
}

// setSignatureValue records the signature over the canonical SignedInfo.
func (t *signatureTree) setSignatureValue(value []byte) {
	t.signatureValue.SetText(base64.StdEncoding.EncodeToString(value))
}

// documentWithRoot returns a new document whose root is el.
func documentWithRoot(el *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	doc.SetRoot(el)
	return doc
}
