package cipher

import (
	stdcipher "crypto/cipher"
	"fmt"
	"io"

	"github.com/google/tink/go/aead/subtle"
	"github.com/google/tink/go/tink"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// AES-GCM key sizes.
const (
	aes128KeySize = 16
	aes256KeySize = 32
)

// newAEAD returns the AEAD for a symmetric algorithm. Every AEAD prefixes
// its ciphertext with a fresh random nonce.
func newAEAD(alg domain.CipherAlgorithm, key []byte, random io.Reader) (tink.AEAD, error) {
	switch alg {
	case domain.CipherAES:
		if len(key) != aes128KeySize && len(key) != aes256KeySize {
			return nil, keySizeError(alg, len(key), "16 or 32")
		}
		a, err := subtle.NewAESGCM(key)
		if err != nil {
			return nil, domain.KeyFormatError("invalid AES key", err)
		}
		return a, nil

	case domain.CipherXChaCha20Poly1305:
		if len(key) != chacha20poly1305.KeySize {
			return nil, keySizeError(alg, len(key), "32")
		}
		a, err := subtle.NewXChaCha20Poly1305(key)
		if err != nil {
			return nil, domain.KeyFormatError("invalid XChaCha20-Poly1305 key", err)
		}
		return a, nil

	case domain.CipherChaCha20Poly1305:
		if len(key) != chacha20poly1305.KeySize {
			return nil, keySizeError(alg, len(key), "32")
		}
		a, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, domain.KeyFormatError("invalid ChaCha20-Poly1305 key", err)
		}
		return &noncePrefixed{aead: a, random: random}, nil

	default:
		return nil, domain.UnsupportedAlgorithmError("symmetric cipher", alg.String())
	}
}

func keySizeError(alg domain.CipherAlgorithm, got int, want string) error {
	return domain.KeyFormatError(fmt.Sprintf("%s key must be %s bytes, got %d", alg, want, got), nil)
}

// noncePrefixed adapts a standard library AEAD to the nonce||ciphertext
// layout tink's primitives use.
type noncePrefixed struct {
	aead   stdcipher.AEAD
	random io.Reader
}

func (n *noncePrefixed) Encrypt(plaintext, associatedData []byte) ([]byte, error) {
	nonce := make([]byte, n.aead.NonceSize(), n.aead.NonceSize()+len(plaintext)+n.aead.Overhead())
	if _, err := io.ReadFull(n.random, nonce); err != nil {
		return nil, domain.ServiceError("generate nonce", err)
	}
	return n.aead.Seal(nonce, nonce, plaintext, associatedData), nil
}

func (n *noncePrefixed) Decrypt(ciphertext, associatedData []byte) ([]byte, error) {
	size := n.aead.NonceSize()
	if len(ciphertext) < size+n.aead.Overhead() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	return n.aead.Open(nil, ciphertext[:size], ciphertext[size:], associatedData)
}
