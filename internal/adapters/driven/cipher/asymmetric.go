package cipher

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"io"
	"math/big"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// pkcs1Overhead is the PKCS#1 v1.5 padding overhead: 00 BT PS(>=8) 00.
const pkcs1Overhead = 11

// encryptOAEP encrypts msg under pub with RSA-OAEP-SHA256. Messages longer
// than one block are split; the output is the concatenation of k-byte blocks.
func encryptOAEP(random io.Reader, pub *rsa.PublicKey, msg []byte) ([]byte, error) {
	hash := sha256.New()
	chunk := pub.Size() - 2*hash.Size() - 2
	if chunk <= 0 {
		return nil, domain.KeyFormatError("RSA key too small for OAEP-SHA256", nil)
	}

	var out bytes.Buffer
	for _, part := range split(msg, chunk) {
		block, err := rsa.EncryptOAEP(hash, random, pub, part, nil)
		if err != nil {
			return nil, domain.ServiceError("RSA-OAEP encryption", err)
		}
		out.Write(block)
	}
	return out.Bytes(), nil
}

func decryptOAEP(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	blocks, err := blocksOf(ciphertext, priv.Size())
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for _, block := range blocks {
		part, err := rsa.DecryptOAEP(sha256.New(), nil, priv, block, nil)
		if err != nil {
			return nil, domain.DecryptionError("RSA-OAEP decryption failed", err)
		}
		out.Write(part)
	}
	return out.Bytes(), nil
}

// encryptLegacy encrypts with the private key using PKCS#1 v1.5 type 1
// padding, for peers that exchange the roles of the two keys.
func encryptLegacy(priv *rsa.PrivateKey, msg []byte) ([]byte, error) {
	chunk := priv.Size() - pkcs1Overhead
	if chunk <= 0 {
		return nil, domain.KeyFormatError("RSA key too small for PKCS#1 v1.5", nil)
	}

	var out bytes.Buffer
	for _, part := range split(msg, chunk) {
		block, err := rsa.SignPKCS1v15(nil, priv, crypto.Hash(0), part)
		if err != nil {
			return nil, domain.ServiceError("RSA private-key encryption", err)
		}
		out.Write(block)
	}
	return out.Bytes(), nil
}

// decryptLegacy reverses encryptLegacy with the public key.
func decryptLegacy(pub *rsa.PublicKey, ciphertext []byte) ([]byte, error) {
	k := pub.Size()
	blocks, err := blocksOf(ciphertext, k)
	if err != nil {
		return nil, err
	}

	e := big.NewInt(int64(pub.E))
	var out bytes.Buffer
	for _, block := range blocks {
		c := new(big.Int).SetBytes(block)
		if c.Cmp(pub.N) >= 0 {
			return nil, domain.DecryptionError("ciphertext block out of range", nil)
		}
		em := new(big.Int).Exp(c, e, pub.N).FillBytes(make([]byte, k))
		part, err := unpadType1(em)
		if err != nil {
			return nil, err
		}
		out.Write(part)
	}
	return out.Bytes(), nil
}

// unpadType1 strictly checks 00 01 FF..FF 00 with at least eight FF bytes.
func unpadType1(em []byte) ([]byte, error) {
	if len(em) < pkcs1Overhead || em[0] != 0x00 || em[1] != 0x01 {
		return nil, domain.DecryptionError("invalid PKCS#1 v1.5 padding", nil)
	}
	i := 2
	for i < len(em) && em[i] == 0xff {
		i++
	}
	if i == len(em) || em[i] != 0x00 || i-2 < 8 {
		return nil, domain.DecryptionError("invalid PKCS#1 v1.5 padding", nil)
	}
	return em[i+1:], nil
}

// split cuts msg into parts of at most size bytes. An empty message is one empty part.
func split(msg []byte, size int) [][]byte {
	if len(msg) == 0 {
		return [][]byte{{}}
	}
	var parts [][]byte
	for len(msg) > size {
		parts = append(parts, msg[:size])
		msg = msg[size:]
	}
	return append(parts, msg)
}

func blocksOf(ciphertext []byte, k int) ([][]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%k != 0 {
		return nil, domain.DecryptionError("ciphertext is not a whole number of RSA blocks", nil)
	}
	blocks := make([][]byte, 0, len(ciphertext)/k)
	for off := 0; off < len(ciphertext); off += k {
		blocks = append(blocks, ciphertext[off:off+k])
	}
	return blocks, nil
}
