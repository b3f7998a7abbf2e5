//go:build unit

package cipher

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/philiph/xmlcrypto/internal/core/domain"
	"github.com/philiph/xmlcrypto/internal/core/ports"
	"github.com/philiph/xmlcrypto/testfixtures/keystore"
)

var (
	key16 = "0123456789abcdef"
	key32 = "0123456789abcdef0123456789abcdef"
)

// messages covers empty, short, single-block and multi-block payloads.
var messages = []string{
	"",
	"messagemessagemessagemessagemessagemessagemessage",
	strings.Repeat("x", 190),
	strings.Repeat("y", 191),
	strings.Repeat("z", 1000),
	"ünïcödé ✓",
}

type recordingMetrics struct {
	ports.MetricsRecorder
	mu         sync.Mutex
	operations []string
}

func (r *recordingMetrics) RecordCipherOperation(operation, algorithm string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations = append(r.operations, fmt.Sprintf("%s/%s/%v", operation, algorithm, success))
}

func symmetric(alg domain.CipherAlgorithm, key, payload string) domain.CipherRequest {
	return domain.CipherRequest{Payload: payload, Mode: domain.CipherSymmetric, Key: key, Algorithm: alg}
}

func asymmetric(key, payload string) domain.CipherRequest {
	return domain.CipherRequest{Payload: payload, Mode: domain.CipherAsymmetric, Key: key, Algorithm: domain.CipherRSA}
}

// TestEngine_SymmetricRoundTrip verifies decrypt(encrypt(m)) = m for every
// symmetric algorithm and key size.
func TestEngine_SymmetricRoundTrip(t *testing.T) {
	engine := NewEngine()

	testCases := []struct {
		alg domain.CipherAlgorithm
		key string
	}{
		{domain.CipherAES, key16},
		{domain.CipherAES, key32},
		{domain.CipherChaCha20Poly1305, key32},
		{domain.CipherXChaCha20Poly1305, key32},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/%d", tc.alg, len(tc.key)), func(t *testing.T) {
			for _, msg := range messages {
				ciphertext, err := engine.Encrypt(symmetric(tc.alg, tc.key, msg))
				if err != nil {
					t.Fatalf("Encrypt() returned error: %v", err)
				}
				plaintext, err := engine.Decrypt(symmetric(tc.alg, tc.key, ciphertext))
				if err != nil {
					t.Fatalf("Decrypt() returned error: %v", err)
				}
				if plaintext != msg {
					t.Errorf("round trip of %d bytes returned %q", len(msg), plaintext)
				}
			}

			first, _ := engine.Encrypt(symmetric(tc.alg, tc.key, "same"))
			second, _ := engine.Encrypt(symmetric(tc.alg, tc.key, "same"))
			if first == second {
				t.Error("two encryptions of the same payload are identical")
			}
		})
	}
}

// TestEngine_SymmetricFailures verifies wrong keys and damaged ciphertexts
// are decryption errors and bad key sizes are key format errors.
func TestEngine_SymmetricFailures(t *testing.T) {
	engine := NewEngine()

	for _, alg := range []domain.CipherAlgorithm{domain.CipherAES, domain.CipherChaCha20Poly1305, domain.CipherXChaCha20Poly1305} {
		t.Run(alg.String(), func(t *testing.T) {
			ciphertext, err := engine.Encrypt(symmetric(alg, key32, "secret payload"))
			if err != nil {
				t.Fatalf("Encrypt() returned error: %v", err)
			}
			raw, _ := base64.StdEncoding.DecodeString(ciphertext)
			flipped := append([]byte(nil), raw...)
			flipped[len(flipped)-1] ^= 0x01

			decryptCases := []struct {
				name    string
				key     string
				payload string
			}{
				{"wrong key", strings.Repeat("k", 32), ciphertext},
				{"tampered", key32, base64.StdEncoding.EncodeToString(flipped)},
				{"truncated", key32, base64.StdEncoding.EncodeToString(raw[:8])},
				{"not base64", key32, "%%%"},
			}
			for _, dc := range decryptCases {
				out, err := engine.Decrypt(symmetric(alg, dc.key, dc.payload))
				if !domain.HasCode(err, domain.ErrCodeDecryption) {
					t.Errorf("%s: Decrypt() error = %v, want decryption error", dc.name, err)
				}
				if out != "" {
					t.Errorf("%s: Decrypt() returned partial output %q", dc.name, out)
				}
			}

			if _, err := engine.Encrypt(symmetric(alg, "short", "x")); !domain.HasCode(err, domain.ErrCodeKeyFormat) {
				t.Errorf("short key error = %v, want key format error", err)
			}
		})
	}

	if _, err := engine.Encrypt(symmetric(domain.CipherAES, strings.Repeat("k", 24), "x")); !domain.HasCode(err, domain.ErrCodeKeyFormat) {
		t.Errorf("24-byte AES key error = %v, want key format error", err)
	}
}

// TestNewAEAD_AESKeySizes verifies AES-GCM accepts exactly 16 and 32 byte keys.
func TestNewAEAD_AESKeySizes(t *testing.T) {
	for size, ok := range map[int]bool{0: false, 15: false, 16: true, 17: false, 24: false, 31: false, 32: true, 64: false} {
		aead, err := newAEAD(domain.CipherAES, make([]byte, size), rand.Reader)
		if ok {
			if err != nil {
				t.Errorf("%d-byte key: newAEAD() returned error: %v", size, err)
				continue
			}
			ciphertext, err := aead.Encrypt([]byte("payload"), nil)
			if err != nil {
				t.Fatalf("%d-byte key: Encrypt() returned error: %v", size, err)
			}
			if plaintext, err := aead.Decrypt(ciphertext, nil); err != nil || string(plaintext) != "payload" {
				t.Errorf("%d-byte key: Decrypt() = %q, %v", size, plaintext, err)
			}
			continue
		}
		if !domain.HasCode(err, domain.ErrCodeKeyFormat) {
			t.Errorf("%d-byte key: newAEAD() error = %v, want key format error", size, err)
		}
	}
}

// TestEngine_AsymmetricRoundTrip verifies RSA-OAEP across single and
// multi-block messages.
func TestEngine_AsymmetricRoundTrip(t *testing.T) {
	fixture := keystore.NewRSA(t)
	engine := NewEngine()

	for _, msg := range messages {
		ciphertext, err := engine.Encrypt(asymmetric(fixture.PublicKeyPEM(), msg))
		if err != nil {
			t.Fatalf("Encrypt() returned error: %v", err)
		}
		raw, _ := base64.StdEncoding.DecodeString(ciphertext)
		if len(raw) == 0 || len(raw)%256 != 0 {
			t.Errorf("ciphertext length %d is not a whole number of 256-byte blocks", len(raw))
		}

		plaintext, err := engine.Decrypt(asymmetric(fixture.PrivateKeyPEM(), ciphertext))
		if err != nil {
			t.Fatalf("Decrypt() returned error: %v", err)
		}
		if plaintext != msg {
			t.Errorf("round trip of %d bytes returned %q", len(msg), plaintext)
		}
	}
}

// TestEngine_AsymmetricKeyForms verifies every accepted key encoding.
func TestEngine_AsymmetricKeyForms(t *testing.T) {
	fixture := keystore.NewRSA(t)
	priv := fixture.Key.(*rsa.PrivateKey)
	engine := NewEngine()

	pkixDER, _ := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	pkcs8DER, _ := x509.MarshalPKCS8PrivateKey(priv)

	publicForms := map[string]string{
		"PUBLIC KEY":     fixture.PublicKeyPEM(),
		"RSA PUBLIC KEY": string(pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey)})),
		"CERTIFICATE":    string(fixture.CertificatePEM()),
		"base64 PKIX":    base64.StdEncoding.EncodeToString(pkixDER),
		"private key":    fixture.PrivateKeyPEM(),
	}
	privateForms := map[string]string{
		"PRIVATE KEY":     fixture.PrivateKeyPEM(),
		"RSA PRIVATE KEY": string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})),
		"base64 PKCS8":    base64.StdEncoding.EncodeToString(pkcs8DER),
	}

	for pubName, pubKey := range publicForms {
		ciphertext, err := engine.Encrypt(asymmetric(pubKey, "payload"))
		if err != nil {
			t.Fatalf("%s: Encrypt() returned error: %v", pubName, err)
		}
		for privName, privKey := range privateForms {
			plaintext, err := engine.Decrypt(asymmetric(privKey, ciphertext))
			if err != nil || plaintext != "payload" {
				t.Errorf("%s -> %s: Decrypt() = %q, %v", pubName, privName, plaintext, err)
			}
		}
	}
}

// TestEngine_AsymmetricFailures verifies key and ciphertext error classes.
func TestEngine_AsymmetricFailures(t *testing.T) {
	fixture := keystore.NewRSA(t)
	other := keystore.NewRSA(t)
	ecFixture := keystore.NewECDSA(t)
	engine := NewEngine()

	ciphertext, err := engine.Encrypt(asymmetric(fixture.PublicKeyPEM(), "payload"))
	if err != nil {
		t.Fatalf("Encrypt() returned error: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(ciphertext)

	testCases := []struct {
		name string
		call func() (string, error)
		code domain.ErrorCode
	}{
		{"wrong private key", func() (string, error) {
			return engine.Decrypt(asymmetric(other.PrivateKeyPEM(), ciphertext))
		}, domain.ErrCodeDecryption},
		{"partial block", func() (string, error) {
			return engine.Decrypt(asymmetric(fixture.PrivateKeyPEM(), base64.StdEncoding.EncodeToString(raw[:100])))
		}, domain.ErrCodeDecryption},
		{"empty ciphertext", func() (string, error) {
			return engine.Decrypt(asymmetric(fixture.PrivateKeyPEM(), ""))
		}, domain.ErrCodeDecryption},
		{"garbage key", func() (string, error) {
			return engine.Encrypt(asymmetric("not a key", "payload"))
		}, domain.ErrCodeKeyFormat},
		{"empty key", func() (string, error) {
			return engine.Encrypt(asymmetric("  ", "payload"))
		}, domain.ErrCodeKeyFormat},
		{"public key to decrypt", func() (string, error) {
			return engine.Decrypt(asymmetric(fixture.PublicKeyPEM(), ciphertext))
		}, domain.ErrCodeKeyFormat},
		{"ECDSA public key", func() (string, error) {
			return engine.Encrypt(asymmetric(ecFixture.PublicKeyPEM(), "payload"))
		}, domain.ErrCodeKeyAlgorithmMismatch},
		{"ECDSA private key", func() (string, error) {
			return engine.Decrypt(asymmetric(ecFixture.PrivateKeyPEM(), ciphertext))
		}, domain.ErrCodeKeyAlgorithmMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := tc.call()
			if !domain.HasCode(err, tc.code) {
				t.Errorf("error = %v, want code %s", err, tc.code)
			}
			if out != "" {
				t.Errorf("returned output %q alongside error", out)
			}
		})
	}
}

// TestEngine_LegacyKeyOrder verifies private-key encryption with public-key
// decryption, and that it does not mix with the default order.
func TestEngine_LegacyKeyOrder(t *testing.T) {
	fixture := keystore.NewRSA(t)
	legacy := NewEngine(WithLegacyKeyOrder(true))

	for _, msg := range append(messages, strings.Repeat("w", 245), strings.Repeat("v", 246)) {
		ciphertext, err := legacy.Encrypt(asymmetric(fixture.PrivateKeyPEM(), msg))
		if err != nil {
			t.Fatalf("Encrypt() returned error: %v", err)
		}
		plaintext, err := legacy.Decrypt(asymmetric(fixture.PublicKeyPEM(), ciphertext))
		if err != nil {
			t.Fatalf("Decrypt() returned error: %v", err)
		}
		if plaintext != msg {
			t.Errorf("round trip of %d bytes returned %q", len(msg), plaintext)
		}
	}

	ciphertext, _ := legacy.Encrypt(asymmetric(fixture.PrivateKeyPEM(), "payload"))

	if _, err := legacy.Decrypt(asymmetric(keystore.NewRSA(t).PublicKeyPEM(), ciphertext)); !domain.HasCode(err, domain.ErrCodeDecryption) {
		t.Errorf("wrong public key error = %v, want decryption error", err)
	}
	if _, err := NewEngine().Decrypt(asymmetric(fixture.PrivateKeyPEM(), ciphertext)); !domain.HasCode(err, domain.ErrCodeDecryption) {
		t.Errorf("default order on legacy ciphertext error = %v, want decryption error", err)
	}
	if _, err := legacy.Encrypt(asymmetric(fixture.PublicKeyPEM(), "payload")); !domain.HasCode(err, domain.ErrCodeKeyFormat) {
		t.Errorf("legacy encrypt with public key error = %v, want key format error", err)
	}
}

// TestEngine_ModeMismatch verifies algorithms are only used in their own mode.
func TestEngine_ModeMismatch(t *testing.T) {
	engine := NewEngine()

	testCases := []domain.CipherRequest{
		{Payload: "x", Mode: domain.CipherAsymmetric, Key: key16, Algorithm: domain.CipherAES},
		{Payload: "x", Mode: domain.CipherSymmetric, Key: key16, Algorithm: domain.CipherRSA},
		{Payload: "x", Mode: domain.CipherSymmetric, Key: key16, Algorithm: domain.CipherAlgorithm(0)},
	}

	for _, req := range testCases {
		if _, err := engine.Encrypt(req); !domain.HasCode(err, domain.ErrCodeUnsupportedAlgorithm) {
			t.Errorf("Encrypt(%s, %s) error = %v, want unsupported algorithm", req.Mode, req.Algorithm, err)
		}
		if _, err := engine.Decrypt(req); !domain.HasCode(err, domain.ErrCodeUnsupportedAlgorithm) {
			t.Errorf("Decrypt(%s, %s) error = %v, want unsupported algorithm", req.Mode, req.Algorithm, err)
		}
	}
}

// TestUnpadType1 verifies the strict PKCS#1 v1.5 type 1 padding check.
func TestUnpadType1(t *testing.T) {
	ff := func(n int) []byte {
		return []byte(strings.Repeat("\xff", n))
	}
	build := func(parts ...[]byte) []byte {
		var out []byte
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	testCases := []struct {
		name  string
		em    []byte
		want  string
		valid bool
	}{
		{"valid", build([]byte{0, 1}, ff(8), []byte{0}, []byte("data")), "data", true},
		{"valid empty", build([]byte{0, 1}, ff(12), []byte{0}), "", true},
		{"short padding", build([]byte{0, 1}, ff(7), []byte{0}, []byte("data")), "", false},
		{"block type 2", build([]byte{0, 2}, ff(8), []byte{0}, []byte("data")), "", false},
		{"leading byte", build([]byte{1, 1}, ff(8), []byte{0}, []byte("data")), "", false},
		{"no separator", build([]byte{0, 1}, ff(20)), "", false},
		{"bad padding byte", build([]byte{0, 1}, ff(8), []byte{0xfe, 0}, []byte("data")), "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := unpadType1(tc.em)
			if tc.valid {
				if err != nil || string(got) != tc.want {
					t.Errorf("unpadType1() = %q, %v; want %q", got, err, tc.want)
				}
				return
			}
			if !domain.HasCode(err, domain.ErrCodeDecryption) {
				t.Errorf("unpadType1() error = %v, want decryption error", err)
			}
		})
	}
}

// TestSplit verifies chunking, including the single empty chunk.
func TestSplit(t *testing.T) {
	testCases := []struct {
		msg  string
		size int
		want []string
	}{
		{"", 4, []string{""}},
		{"abcd", 4, []string{"abcd"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
	}

	for _, tc := range testCases {
		parts := split([]byte(tc.msg), tc.size)
		if len(parts) != len(tc.want) {
			t.Fatalf("split(%q, %d) returned %d parts, want %d", tc.msg, tc.size, len(parts), len(tc.want))
		}
		for i := range parts {
			if string(parts[i]) != tc.want[i] {
				t.Errorf("split(%q, %d)[%d] = %q, want %q", tc.msg, tc.size, i, parts[i], tc.want[i])
			}
		}
	}
}

// TestEngine_MetricsAndLogging verifies outcomes are recorded and secrets never logged.
func TestEngine_MetricsAndLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	recorder := &recordingMetrics{}
	engine := NewEngine(WithLogger(zap.New(core)), WithMetricsRecorder(recorder))

	ciphertext, err := engine.Encrypt(symmetric(domain.CipherAES, key16, "top-secret-payload"))
	if err != nil {
		t.Fatalf("Encrypt() returned error: %v", err)
	}
	if _, err := engine.Decrypt(symmetric(domain.CipherAES, key32, ciphertext)); err == nil {
		t.Fatal("expected decryption failure")
	}

	want := "encrypt/AES/true,decrypt/AES/false"
	if got := strings.Join(recorder.operations, ","); got != want {
		t.Errorf("operations = %s, want %s", got, want)
	}

	if logs.FilterMessage("cipher operation failed").Len() != 1 {
		t.Error("expected one failure log entry")
	}
	for _, entry := range logs.All() {
		for _, value := range entry.ContextMap() {
			s := fmt.Sprint(value)
			if strings.Contains(s, "top-secret-payload") || strings.Contains(s, key16) {
				t.Errorf("log entry %q leaks payload or key: %s", entry.Message, s)
			}
		}
	}
}

// TestEngine_Concurrent verifies one engine serves parallel calls.
func TestEngine_Concurrent(t *testing.T) {
	fixture := keystore.NewRSA(t)
	pub, priv := fixture.PublicKeyPEM(), fixture.PrivateKeyPEM()
	engine := NewEngine()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("message %d", i)

			enc, dec := symmetric(domain.CipherXChaCha20Poly1305, key32, msg), symmetric(domain.CipherXChaCha20Poly1305, key32, "")
			if i%2 == 0 {
				enc, dec = asymmetric(pub, msg), asymmetric(priv, "")
			}
			ciphertext, err := engine.Encrypt(enc)
			if err != nil {
				errs <- err
				return
			}
			dec.Payload = ciphertext
			plaintext, err := engine.Decrypt(dec)
			if err != nil {
				errs <- err
				return
			}
			if plaintext != msg {
				errs <- fmt.Errorf("got %q, want %q", plaintext, msg)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
