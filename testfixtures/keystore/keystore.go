// Package keystore provides generated key pairs, certificates and keystore
// files for tests. It writes the same JKS and PKCS#12 formats the
// production resolver reads.
package keystore

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	jks "github.com/pavlo-v-chernykh/keystore-go/v4"
	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// Default credentials used by generated keystores.
const (
	Alias    = "basex"
	Password = "password"

	// PKCS12Alias names the single key entry of WritePKCS12 files, which
	// carry no friendlyName.
	PKCS12Alias = "1"
)

// Fixture is a generated key pair with a self-signed certificate.
type Fixture struct {
	t           testing.TB
	Key         crypto.Signer
	Certificate *x509.Certificate
}

// NewRSA creates a fixture with a 2048-bit RSA key.
func NewRSA(t testing.TB) *Fixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return newFixture(t, key)
}

// NewECDSA creates a fixture with a P-256 ECDSA key.
func NewECDSA(t testing.TB) *Fixture {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate ECDSA key: %v", err)
	}
	return newFixture(t, key)
}

func newFixture(t testing.TB, key crypto.Signer) *Fixture {
	t.Helper()

	cert, err := selfSignedCert(key)
	if err != nil {
		t.Fatalf("failed to generate certificate: %v", err)
	}
	return &Fixture{t: t, Key: key, Certificate: cert}
}

func selfSignedCert(key crypto.Signer) (*x509.Certificate, error) {
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:         "hans wurst",
			OrganizationalUnit: []string{"dev"},
			Organization:       []string{"basex"},
			Locality:           []string{"konstanz"},
			Country:            []string{"de"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(360 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, key.Public(), key)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}
	return cert, nil
}

// WriteJKS stores the key under Alias in a JKS file inside dir and returns its path.
func (f *Fixture) WriteJKS(dir string) string {
	f.t.Helper()

	ks := jks.New()
	f.AddTo(ks, Alias, Password)
	return f.store(ks, filepath.Join(dir, "keystore.jks"))
}

// AddTo adds the key as a private key entry of ks.
func (f *Fixture) AddTo(ks jks.KeyStore, alias, password string) {
	f.t.Helper()

	der, err := x509.MarshalPKCS8PrivateKey(f.Key)
	if err != nil {
		f.t.Fatalf("failed to marshal private key: %v", err)
	}
	entry := jks.PrivateKeyEntry{
		CreationTime: time.Now(),
		PrivateKey:   der,
		CertificateChain: []jks.Certificate{{
			Type:    "X509",
			Content: f.Certificate.Raw,
		}},
	}
	if err := ks.SetPrivateKeyEntry(alias, entry, []byte(password)); err != nil {
		f.t.Fatalf("failed to add private key entry: %v", err)
	}
}

// AddTrustedTo adds only the certificate of f to ks as a trusted certificate entry.
func (f *Fixture) AddTrustedTo(ks jks.KeyStore, alias string) {
	f.t.Helper()

	entry := jks.TrustedCertificateEntry{
		CreationTime: time.Now(),
		Certificate: jks.Certificate{
			Type:    "X509",
			Content: f.Certificate.Raw,
		},
	}
	if err := ks.SetTrustedCertificateEntry(alias, entry); err != nil {
		f.t.Fatalf("failed to add trusted certificate entry: %v", err)
	}
}

// StoreJKS writes ks to path with the default Password.
func (f *Fixture) StoreJKS(ks jks.KeyStore, path string) string {
	f.t.Helper()
	return f.store(ks, path)
}

func (f *Fixture) store(ks jks.KeyStore, path string) string {
	f.t.Helper()

	out, err := os.Create(path)
	if err != nil {
		f.t.Fatalf("failed to create keystore file: %v", err)
	}
	defer out.Close()

	if err := ks.Store(out, []byte(Password)); err != nil {
		f.t.Fatalf("failed to store keystore: %v", err)
	}
	return path
}

// WritePKCS12 stores the key and certificate in a PKCS#12 file inside dir.
func (f *Fixture) WritePKCS12(dir string) string {
	f.t.Helper()

	data, err := pkcs12.Modern.Encode(f.Key, f.Certificate, nil, Password)
	if err != nil {
		f.t.Fatalf("failed to encode PKCS#12: %v", err)
	}
	path := filepath.Join(dir, "keystore.p12")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		f.t.Fatalf("failed to write PKCS#12: %v", err)
	}
	return path
}

// PublicKeyPEM returns the PKIX public key in PEM format.
func (f *Fixture) PublicKeyPEM() string {
	f.t.Helper()

	der, err := x509.MarshalPKIXPublicKey(f.Key.Public())
	if err != nil {
		f.t.Fatalf("failed to marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// PrivateKeyPEM returns the PKCS#8 private key in PEM format.
func (f *Fixture) PrivateKeyPEM() string {
	f.t.Helper()

	der, err := x509.MarshalPKCS8PrivateKey(f.Key)
	if err != nil {
		f.t.Fatalf("failed to marshal private key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// CertificatePEM returns the certificate in PEM format.
// Useful for configuring validators that need to trust the signer.
func (f *Fixture) CertificatePEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: f.Certificate.Raw,
	})
}
