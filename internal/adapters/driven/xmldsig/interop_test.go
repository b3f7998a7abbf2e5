//go:build unit

package xmldsig

import (
	"bytes"
	"crypto/rsa"
	"testing"

	"github.com/beevik/etree"

	"github.com/philiph/xmlcrypto/internal/core/domain"
	"github.com/philiph/xmlcrypto/testfixtures/keystore"
	"github.com/philiph/xmlcrypto/testfixtures/xmlsig"
)

var interopDocuments = []string{
	`<a><n>value</n></a>`,
	`<a xmlns="urn:a" xmlns:p="urn:p"><p:n k="v">value</p:n><m/></a>`,
}

// TestInterop_ReferenceSignatureValidates verifies signatures produced by the
// goxmldsig reference signer validate here.
func TestInterop_ReferenceSignatureValidates(t *testing.T) {
	fixture := keystore.NewRSA(t)
	signer := xmlsig.New(fixture.Key.(*rsa.PrivateKey), fixture.Certificate)
	engine := NewEngine(nil)

	for _, xml := range interopDocuments {
		signed, err := signer.Sign([]byte(xml))
		if err != nil {
			t.Fatalf("reference Sign() returned error: %v", err)
		}

		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(signed); err != nil {
			t.Fatalf("failed to parse signed document: %v", err)
		}

		ext, err := engine.Extract(doc)
		if err != nil {
			t.Fatalf("Extract() returned error: %v", err)
		}
		if ext.Params.Placement != domain.PlacementEnveloped || ext.ContentCanonicalization != domain.CanonicalizationExclusive {
			t.Errorf("extracted placement %s, content canonicalization %s", ext.Params.Placement, ext.ContentCanonicalization)
		}

		ok, err := engine.ValidateSignature(doc)
		if err != nil || !ok {
			t.Errorf("%s: ValidateSignature() = %v, %v; want true", xml, ok, err)
		}

		tampered := etree.NewDocument()
		if err := tampered.ReadFromBytes(bytes.Replace(signed, []byte("value"), []byte("other"), 1)); err != nil {
			t.Fatalf("failed to parse tampered document: %v", err)
		}
		ok, err = engine.ValidateSignature(tampered)
		if err != nil || ok {
			t.Errorf("%s: tampered ValidateSignature() = %v, %v; want false", xml, ok, err)
		}
	}
}

// TestInterop_SignatureValidatesWithReference verifies enveloped exclusive
// signatures produced here pass the goxmldsig reference validator.
func TestInterop_SignatureValidatesWithReference(t *testing.T) {
	fixture := keystore.NewRSA(t)
	engine := engineFor(fixture)

	for _, xml := range interopDocuments {
		signed := generate(t, engine, xml, domain.SignatureParameters{
			Canonicalization: domain.CanonicalizationExclusive,
			NamespacePrefix:  "ds",
		})
		data, err := signed.Document.WriteToBytes()
		if err != nil {
			t.Fatalf("failed to serialize: %v", err)
		}

		if err := xmlsig.Validate(data, fixture.Certificate); err != nil {
			t.Errorf("%s: reference Validate() returned error: %v\n%s", xml, err, data)
		}

		tampered := bytes.Replace(data, []byte("value"), []byte("other"), 1)
		if err := xmlsig.Validate(tampered, fixture.Certificate); err == nil {
			t.Errorf("%s: reference Validate() accepted tampered document", xml)
		}
	}
}
