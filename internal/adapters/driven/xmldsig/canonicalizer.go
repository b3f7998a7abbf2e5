// Package xmldsig implements XML-DSig signature generation and validation
// on top of etree and the goxmldsig canonicalizers.
package xmldsig

import (
	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/russellhaering/goxmldsig/etreeutils"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

func canonicalizer(method domain.CanonicalizationMethod) (dsig.Canonicalizer, error) {
	switch method.OrDefault() {
	case domain.CanonicalizationInclusive:
		return dsig.MakeC14N10RecCanonicalizer(), nil
	case domain.CanonicalizationInclusiveWithComments:
		return dsig.MakeC14N10WithCommentsCanonicalizer(), nil
	case domain.CanonicalizationExclusive:
		return dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList(""), nil
	case domain.CanonicalizationExclusiveWithComments:
		return dsig.MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList(""), nil
	default:
		return nil, domain.UnsupportedAlgorithmError("canonicalization", method.String())
	}
}

// Canonicalize serializes el in canonical form under method.
// Namespace declarations in scope from el's ancestors are carried onto a
// detached copy first, so el and its document are never modified. The
// exclusive methods also drop whitespace-only text from element-only
// content, so indentation between elements does not change the output.
func Canonicalize(el *etree.Element, method domain.CanonicalizationMethod) ([]byte, error) {
	m := method.OrDefault()
	exclusive := m == domain.CanonicalizationExclusive || m == domain.CanonicalizationExclusiveWithComments
	return canonicalize(el, method, exclusive)
}

// canonicalizeSignedInfo serializes SignedInfo exactly as written, so
// signatures from other XML-DSig implementations verify.
func canonicalizeSignedInfo(el *etree.Element, method domain.CanonicalizationMethod) ([]byte, error) {
	return canonicalize(el, method, false)
}

func canonicalize(el *etree.Element, method domain.CanonicalizationMethod, stripIndent bool) ([]byte, error) {
	c, err := canonicalizer(method)
	if err != nil {
		return nil, err
	}

	ctx, err := etreeutils.NSBuildParentContext(el)
	if err != nil {
		return nil, domain.InvalidInputError("resolve namespace context", err)
	}
	detached, err := etreeutils.NSDetatch(ctx, el)
	if err != nil {
		return nil, domain.InvalidInputError("detach element", err)
	}
	if stripIndent {
		stripElementOnlyWhitespace(detached)
	}

	out, err := c.Canonicalize(detached)
	if err != nil {
		return nil, domain.ServiceError("canonicalize element", err)
	}
	return out, nil
}

// stripElementOnlyWhitespace removes whitespace-only text from every element
// under el whose children are elements, comments or whitespace. Text-only
// and mixed content is kept as is.
func stripElementOnlyWhitespace(el *etree.Element) {
	var blanks []etree.Token
	hasElement, hasText := false, false
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			hasElement = true
			stripElementOnlyWhitespace(t)
		case *etree.CharData:
			if t.IsWhitespace() {
				blanks = append(blanks, t)
			} else {
				hasText = true
			}
		}
	}
	if !hasElement || hasText {
		return
	}
	for _, tok := range blanks {
		el.RemoveChild(tok)
	}
}

// canonicalizeAll concatenates the canonical forms of els in order.
func canonicalizeAll(els []*etree.Element, method domain.CanonicalizationMethod) ([]byte, error) {
	var out []byte
	for _, el := range els {
		b, err := Canonicalize(el, method)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
