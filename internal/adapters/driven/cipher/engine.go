// Package cipher encrypts and decrypts string payloads with symmetric AEAD
// ciphers or RSA. Ciphertexts are standard base64.
package cipher

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/philiph/xmlcrypto/internal/core/domain"
	"github.com/philiph/xmlcrypto/internal/core/ports"
)

// Operation names reported to the metrics recorder.
const (
	OperationEncrypt = "encrypt"
	OperationDecrypt = "decrypt"
)

// Engine performs cipher requests. It is safe for concurrent use.
type Engine struct {
	legacyKeyOrder bool
	random         io.Reader
	logger         *zap.Logger
	metrics        ports.MetricsRecorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for cipher failures.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetricsRecorder sets the recorder for cipher outcomes.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = recorder
	}
}

// WithLegacyKeyOrder makes asymmetric encryption use the private key and
// decryption the public key.
func WithLegacyKeyOrder(enabled bool) Option {
	return func(e *Engine) {
		e.legacyKeyOrder = enabled
	}
}

// NewEngine creates a cipher Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		random: rand.Reader,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encrypt encrypts req.Payload and returns base64 ciphertext.
func (e *Engine) Encrypt(req domain.CipherRequest) (string, error) {
	out, err := e.encrypt(req)
	e.record(OperationEncrypt, req.Algorithm, err)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt decrypts the base64 ciphertext in req.Payload. It never returns
// partial plaintext.
func (e *Engine) Decrypt(req domain.CipherRequest) (string, error) {
	out, err := e.decrypt(req)
	e.record(OperationDecrypt, req.Algorithm, err)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (e *Engine) encrypt(req domain.CipherRequest) ([]byte, error) {
	if err := checkMode(req); err != nil {
		return nil, err
	}
	msg := []byte(req.Payload)

	if req.Mode == domain.CipherSymmetric {
		aead, err := newAEAD(req.Algorithm, []byte(req.Key), e.random)
		if err != nil {
			return nil, err
		}
		out, err := aead.Encrypt(msg, nil)
		if err != nil {
			return nil, domain.ServiceError(req.Algorithm.String()+" encryption", err)
		}
		return out, nil
	}

	if e.legacyKeyOrder {
		priv, err := parsePrivateKey(req.Key)
		if err != nil {
			return nil, err
		}
		return encryptLegacy(priv, msg)
	}
	pub, err := parsePublicKey(req.Key)
	if err != nil {
		return nil, err
	}
	return encryptOAEP(e.random, pub, msg)
}

func (e *Engine) decrypt(req domain.CipherRequest) ([]byte, error) {
	if err := checkMode(req); err != nil {
		return nil, err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		return nil, domain.DecryptionError("ciphertext is not valid base64", err)
	}

	if req.Mode == domain.CipherSymmetric {
		aead, err := newAEAD(req.Algorithm, []byte(req.Key), e.random)
		if err != nil {
			return nil, err
		}
		out, err := aead.Decrypt(ciphertext, nil)
		if err != nil {
			return nil, domain.DecryptionError(req.Algorithm.String()+" decryption failed", err)
		}
		return out, nil
	}

	if e.legacyKeyOrder {
		pub, err := parsePublicKey(req.Key)
		if err != nil {
			return nil, err
		}
		return decryptLegacy(pub, ciphertext)
	}
	priv, err := parsePrivateKey(req.Key)
	if err != nil {
		return nil, err
	}
	return decryptOAEP(priv, ciphertext)
}

func checkMode(req domain.CipherRequest) error {
	mode := req.Algorithm.Mode()
	if mode == 0 {
		return domain.UnsupportedAlgorithmError("cipher", fmt.Sprint(int(req.Algorithm)))
	}
	if mode != req.Mode {
		return domain.UnsupportedAlgorithmError(req.Mode.String()+" cipher", req.Algorithm.String())
	}
	return nil
}

func (e *Engine) record(operation string, alg domain.CipherAlgorithm, err error) {
	if e.metrics != nil {
		e.metrics.RecordCipherOperation(operation, alg.String(), err == nil)
	}
	if err != nil {
		e.logger.Warn("cipher operation failed",
			zap.String("operation", operation),
			zap.String("algorithm", alg.String()),
			zap.Error(err),
		)
		return
	}
	e.logger.Debug("cipher operation completed",
		zap.String("operation", operation),
		zap.String("algorithm", alg.String()),
	)
}
