package xmlcrypto

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v3"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

// Config holds module-wide defaults. Per-call arguments override them.
type Config struct {
	Signature SignatureConfig `json:"signature" yaml:"signature"`

	// Certificate supplies descriptor fields a call leaves empty.
	Certificate CertificateDescriptor `json:"certificate" yaml:"certificate"`

	// TrustedCertificates is an optional PEM file of trust anchors. When set,
	// only signatures whose embedded certificate is listed there validate.
	TrustedCertificates string `json:"trusted_certificates,omitempty" yaml:"trusted_certificates,omitempty"`

	Cipher CipherConfig `json:"cipher" yaml:"cipher"`

	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
}

// SignatureConfig names the default signature parameters.
type SignatureConfig struct {
	Canonicalization string `json:"canonicalization,omitempty" yaml:"canonicalization,omitempty"`
	Digest           string `json:"digest,omitempty" yaml:"digest,omitempty"`
	Algorithm        string `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	NamespacePrefix  string `json:"namespace_prefix,omitempty" yaml:"namespace_prefix,omitempty"`
	Placement        string `json:"placement,omitempty" yaml:"placement,omitempty"`

	// HMACKey is the shared secret for HMAC signature algorithms.
	HMACKey string `json:"hmac_key,omitempty" yaml:"hmac_key,omitempty"`
}

// CipherConfig configures encryption.
type CipherConfig struct {
	// LegacyAsymmetricKeyOrder encrypts with the private key and decrypts
	// with the public key.
	LegacyAsymmetricKeyOrder bool `json:"legacy_asymmetric_key_order" yaml:"legacy_asymmetric_key_order"`
}

// LoadConfig reads a YAML or JSON config file. The format follows the extension.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, domain.ConfigError(fmt.Sprintf("read config %s: %v", path, err))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		var cfg Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, domain.ConfigError(fmt.Sprintf("parse config %s: %v", path, err))
		}
		return cfg, cfg.Validate()
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data and validates it.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, domain.ConfigError(fmt.Sprintf("parse config: %v", err))
	}
	return cfg, cfg.Validate()
}

// Validate checks that every configured name is supported.
func (c Config) Validate() error {
	if _, err := c.signatureDefaults(); err != nil {
		return err
	}
	if c.Signature.HMACKey == "" {
		if alg, _ := domain.ParseSignatureAlgorithm(c.Signature.Algorithm); alg.Family() == domain.KeyFamilyHMAC {
			return ConfigError(fmt.Sprintf("signature algorithm %s requires hmac_key", alg))
		}
	}
	return nil
}

func (c Config) signatureDefaults() (domain.SignatureParameters, error) {
	s := c.Signature
	params, err := domain.ParseSignatureParameters(s.Canonicalization, s.Digest, s.Algorithm, s.NamespacePrefix, s.Placement, "")
	if err != nil {
		return domain.SignatureParameters{}, domain.ConfigError("invalid signature defaults: " + err.Error())
	}
	return params, nil
}

// ParseCertificateDescriptor reads a <digital-certificate> element:
//
//	<digital-certificate>
//	  <keystore-type>JKS</keystore-type>
//	  <keystore-password>...</keystore-password>
//	  <key-alias>...</key-alias>
//	  <private-key-password>...</private-key-password>
//	  <keystore-uri>file:/path/to/keystore</keystore-uri>
//	</digital-certificate>
//
// Missing children stay empty and fall back to configured defaults.
func ParseCertificateDescriptor(data []byte) (CertificateDescriptor, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return CertificateDescriptor{}, InvalidInputError("parse digital-certificate", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "digital-certificate" {
		return CertificateDescriptor{}, ConfigError("expected a digital-certificate element")
	}

	text := func(tag string) string {
		if el := root.SelectElement(tag); el != nil {
			return strings.TrimSpace(el.Text())
		}
		return ""
	}
	location, err := keystorePath(text("keystore-uri"))
	if err != nil {
		return CertificateDescriptor{}, err
	}
	return CertificateDescriptor{
		KeystoreType:       text("keystore-type"),
		KeystorePassword:   text("keystore-password"),
		KeyAlias:           text("key-alias"),
		PrivateKeyPassword: text("private-key-password"),
		KeystoreLocation:   location,
	}, nil
}

// keystorePath turns a file URI into a path. Plain paths pass through.
func keystorePath(uri string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(uri), "file:") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", ConfigError(fmt.Sprintf("invalid keystore-uri %q", uri))
	}
	if u.Path == "" {
		return u.Opaque, nil
	}
	return u.Path, nil
}
