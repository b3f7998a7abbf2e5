//go:build unit

package domain

import (
	"errors"
	"strings"
	"testing"
	"testing/quick"
)

func TestParseSignatureParameters_Defaults(t *testing.T) {
	params, err := ParseSignatureParameters("", "", "", "", "", "  ")
	if err != nil {
		t.Fatalf("ParseSignatureParameters() returned error: %v", err)
	}
	want := SignatureParameters{
		Canonicalization: CanonicalizationInclusive,
		Digest:           DigestSHA256,
		Signature:        SignatureRSASHA256,
		Placement:        PlacementEnveloped,
	}
	if params.Canonicalization != want.Canonicalization || params.Digest != want.Digest ||
		params.Signature != want.Signature || params.Placement != want.Placement ||
		params.NamespacePrefix != "" || params.Selector != "" {
		t.Errorf("params = %+v, want %+v", params, want)
	}
}

func TestParseSignatureParameters_Explicit(t *testing.T) {
	params, err := ParseSignatureParameters("exclusive", "SHA512", "ECDSA_SHA384", "ds", "detached", " /a/b ")
	if err != nil {
		t.Fatalf("ParseSignatureParameters() returned error: %v", err)
	}
	if params.Canonicalization != CanonicalizationExclusive || params.Digest != DigestSHA512 ||
		params.Signature != SignatureECDSASHA384 || params.NamespacePrefix != "ds" ||
		params.Placement != PlacementDetached || params.Selector != "/a/b" {
		t.Errorf("params = %+v", params)
	}
}

func TestParseSignatureParameters_Errors(t *testing.T) {
	tests := []struct {
		name string
		args [6]string
		code ErrorCode
	}{
		{"canonicalization", [6]string{"c14n2", "", "", "", "", ""}, ErrCodeUnsupportedAlgorithm},
		{"digest", [6]string{"", "MD5", "", "", "", ""}, ErrCodeUnsupportedAlgorithm},
		{"signature", [6]string{"", "", "DSA_SHA1", "", "", ""}, ErrCodeUnsupportedAlgorithm},
		{"prefix", [6]string{"", "", "", "1ds", "", ""}, ErrCodeConfiguration},
		{"placement", [6]string{"", "", "", "", "inside", ""}, ErrCodeConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.args
			_, err := ParseSignatureParameters(a[0], a[1], a[2], a[3], a[4], a[5])
			if !HasCode(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSignatureParameters_Validate(t *testing.T) {
	if err := (SignatureParameters{}).Validate(); err != nil {
		t.Errorf("zero parameters should validate with defaults: %v", err)
	}
	if err := (SignatureParameters{Digest: 42}).Validate(); !HasCode(err, ErrCodeUnsupportedAlgorithm) {
		t.Errorf("out-of-range digest error = %v", err)
	}
	if err := (SignatureParameters{Placement: 9}).Validate(); !HasCode(err, ErrCodeConfiguration) {
		t.Errorf("out-of-range placement error = %v", err)
	}
}

func TestIsValidPrefix(t *testing.T) {
	valid := []string{"", "ds", "dsig", "_x", "a1", "my-sig", "s.v"}
	invalid := []string{"1ds", "-ds", "xml", "XMLdsig", "ds:sig", "d s", "é"}

	for _, p := range valid {
		if !IsValidPrefix(p) {
			t.Errorf("IsValidPrefix(%q) = false, want true", p)
		}
	}
	for _, p := range invalid {
		if IsValidPrefix(p) {
			t.Errorf("IsValidPrefix(%q) = true, want false", p)
		}
	}
}

// Property: a valid prefix never contains a colon or whitespace.
func TestIsValidPrefix_Property(t *testing.T) {
	f := func(prefix string) bool {
		if !IsValidPrefix(prefix) {
			return true
		}
		return !strings.ContainsAny(prefix, ": \t\n<>\"'")
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestCertificateDescriptor_WithDefaults(t *testing.T) {
	def := CertificateDescriptor{
		KeystoreType:       "JKS",
		KeystorePassword:   "store",
		KeyAlias:           "basex",
		PrivateKeyPassword: "key",
		KeystoreLocation:   "/keys/keystore.jks",
	}

	got := CertificateDescriptor{KeyAlias: "other"}.WithDefaults(def)
	want := def
	want.KeyAlias = "other"
	if got != want {
		t.Errorf("WithDefaults() = %+v, want %+v", got, want)
	}
	if (CertificateDescriptor{}).WithDefaults(def) != def {
		t.Error("empty descriptor should take every default")
	}
}

func TestCertificateDescriptor_Validate(t *testing.T) {
	if !(CertificateDescriptor{}).IsZero() {
		t.Error("IsZero() = false for empty descriptor")
	}

	err := CertificateDescriptor{KeystoreType: "JKS", KeyAlias: "basex"}.Validate()
	if !HasCode(err, ErrCodeConfiguration) {
		t.Fatalf("Validate() error = %v, want configuration error", err)
	}
	for _, field := range []string{"keystore password", "private key password", "keystore location"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Validate() error %q does not name %q", err, field)
		}
	}
	if strings.Contains(err.Error(), "key alias") {
		t.Errorf("Validate() error %q names a field that is set", err)
	}

	full := CertificateDescriptor{"PKCS12", "a", "b", "c", "/d"}
	if err := full.Validate(); err != nil {
		t.Errorf("Validate() on complete descriptor returned %v", err)
	}
}

func TestHasCode(t *testing.T) {
	err := KeyFormatError("bad key", errors.New("asn1"))
	if !HasCode(err, ErrCodeKeyFormat) {
		t.Error("HasCode should match the direct code")
	}

	wrapped := ServiceError("outer", err)
	if !HasCode(wrapped, ErrCodeKeyFormat) {
		t.Error("HasCode should match a wrapped AppError")
	}
	if HasCode(errors.New("plain"), ErrCodeKeyFormat) || HasCode(nil, ErrCodeKeyFormat) {
		t.Error("HasCode should not match non-AppErrors")
	}
}
