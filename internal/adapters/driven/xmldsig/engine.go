package xmldsig

import (
	"crypto/hmac"
	"crypto/x509"
	"fmt"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philiph/xmlcrypto/internal/core/domain"
	"github.com/philiph/xmlcrypto/internal/core/ports"
)

// SignedDocument is the result of signature generation.
type SignedDocument struct {
	// Document holds the signature at its placement: inside the content
	// (enveloped), around it (enveloping) or alone (detached).
	Document *etree.Document
	// Content is the signed content of a detached signature, nil otherwise.
	Content   *etree.Document
	Placement domain.PlacementMode
}

// Engine generates and validates XML signatures.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	resolver ports.KeyMaterialResolver
	selector ports.NodeSelector
	signer   *DigestSigner
	trusted  []*x509.Certificate
	logger   *zap.Logger
	metrics  ports.MetricsRecorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for generation and validation events.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetricsRecorder sets the recorder for generation and validation outcomes.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = recorder
	}
}

// WithNodeSelector replaces the etree path selector.
func WithNodeSelector(selector ports.NodeSelector) Option {
	return func(e *Engine) {
		e.selector = selector
	}
}

// WithTrustedCertificates restricts validation to signatures whose embedded
// certificate is one of certs.
func WithTrustedCertificates(certs []*x509.Certificate) Option {
	return func(e *Engine) {
		e.trusted = certs
	}
}

// NewEngine creates an Engine resolving signing keys through resolver.
// resolver may be nil when only HMAC algorithms are used for signing.
func NewEngine(resolver ports.KeyMaterialResolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		selector: NewEtreeSelector(),
		signer:   NewDigestSigner(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateSignature signs doc, or the nodes params.Selector picks from it,
// with the key desc names. doc is not modified.
func (e *Engine) GenerateSignature(doc *etree.Document, params domain.SignatureParameters, desc domain.CertificateDescriptor) (*SignedDocument, error) {
	params = params.WithDefaults()

	signed, cert, err := e.generate(doc, params, desc)
	if e.metrics != nil {
		e.metrics.RecordSignatureGenerated(params.Signature.String(), err == nil)
	}
	if err != nil {
		e.logger.Warn("signature generation failed",
			zap.String("algorithm", params.Signature.String()),
			zap.String("placement", params.Placement.String()),
			zap.Error(err),
		)
		return nil, err
	}

	e.logger.Info("signature generated", resultFields(params, cert)...)
	return signed, nil
}

func (e *Engine) generate(doc *etree.Document, params domain.SignatureParameters, desc domain.CertificateDescriptor) (*SignedDocument, *x509.Certificate, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if doc == nil || doc.Root() == nil {
		return nil, nil, domain.InvalidInputError("document has no root element", nil)
	}

	key, cert, err := e.signingKey(params, desc)
	if err != nil {
		return nil, nil, err
	}

	work := doc.Copy()
	nodes, err := e.selectNodes(work, params.Selector)
	if err != nil {
		return nil, nil, err
	}
	if len(nodes) == 0 {
		return nil, nil, domain.SelectorNoMatchError(params.Selector)
	}

	objectID := objectIDPrefix + uuid.NewString()
	tree := newSignatureTree(params, objectID, cert)
	result := &SignedDocument{Placement: params.Placement}

	var content []byte
	switch params.Placement {
	case domain.PlacementEnveloped:
		// Digest before the signature joins the signed node.
		if content, err = canonicalizeAll(nodes, params.Canonicalization); err != nil {
			return nil, nil, err
		}
		nodes[0].AddChild(tree.signature)
		result.Document = work

	case domain.PlacementEnveloping:
		obj, err := tree.addObject(objectID, nodes)
		if err != nil {
			return nil, nil, err
		}
		result.Document = documentWithRoot(tree.signature)
		if content, err = Canonicalize(obj, params.Canonicalization); err != nil {
			return nil, nil, err
		}

	case domain.PlacementDetached:
		if content, err = canonicalizeAll(nodes, params.Canonicalization); err != nil {
			return nil, nil, err
		}
		result.Document = documentWithRoot(tree.signature)
		result.Content = work
	}

	digest, err := e.signer.Digest(content, params.Digest)
	if err != nil {
		return nil, nil, err
	}
	tree.setDigest(digest)

	signedInfo, err := canonicalizeSignedInfo(tree.signedInfo, params.Canonicalization)
	if err != nil {
		return nil, nil, err
	}
	value, err := e.signer.Sign(signedInfo, key, params.Signature)
	if err != nil {
		return nil, nil, err
	}
	tree.setSignatureValue(value)

	return result, cert, nil
}

// signingKey returns the key for params' algorithm. HMAC algorithms use
// the shared secret from params; everything else goes through the resolver.
func (e *Engine) signingKey(params domain.SignatureParameters, desc domain.CertificateDescriptor) (any, *x509.Certificate, error) {
	if params.Signature.Family() == domain.KeyFamilyHMAC {
		if len(params.HMACKey) == 0 {
			return nil, nil, domain.ConfigError(params.Signature.String() + " requires an HMAC key")
		}
		return params.HMACKey, nil, nil
	}

	if e.resolver == nil {
		return nil, nil, domain.ConfigError("no key material resolver configured")
	}
	material, err := e.resolver.Resolve(desc)
	if err != nil {
		return nil, nil, err
	}
	return material.PrivateKey, material.Certificate, nil
}

func (e *Engine) selectNodes(doc *etree.Document, selector string) ([]*etree.Element, error) {
	if selector == "" {
		if doc.Root() == nil {
			return nil, nil
		}
		return []*etree.Element{doc.Root()}, nil
	}
	return e.selector.Select(doc, selector)
}

// ValidateOption supplies per-call validation inputs.
type ValidateOption func(*validateOptions)

type validateOptions struct {
	hmacKey []byte
	content *etree.Document
}

// WithHMACKey supplies the shared secret for HMAC signatures.
func WithHMACKey(key []byte) ValidateOption {
	return func(o *validateOptions) {
		o.hmacKey = key
	}
}

// WithDetachedContent supplies the content a detached signature covers.
func WithDetachedContent(doc *etree.Document) ValidateOption {
	return func(o *validateOptions) {
		o.content = doc
	}
}

// Extract decodes the signature in signed and resolves the content
// its Reference covers. Extracted.Content is nil when the recorded
// selector matches nothing.
func (e *Engine) Extract(signed *etree.Document, opts ...ValidateOption) (*Extracted, error) {
	var o validateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return e.extract(signed, o)
}

func (e *Engine) extract(signed *etree.Document, o validateOptions) (*Extracted, error) {
	if signed == nil {
		return nil, domain.InvalidInputError("no document to validate", nil)
	}
	ext, err := parseSignature(signed)
	if err != nil {
		return nil, err
	}

	method := ext.ContentCanonicalization
	switch ext.Params.Placement {
	case domain.PlacementEnveloped:
		work := signed.Copy()
		sig := elementAt(&work.Element, indexPath(ext.Signature))
		if sig == nil || sig.Parent() == nil {
			return nil, domain.ServiceError("locate signature in document copy", nil)
		}
		sig.Parent().RemoveChild(sig)
		ext.Content, err = e.selectContent(work, ext.Params.Selector, method)

	case domain.PlacementEnveloping:
		obj := findObject(ext.Signature, ext.ObjectID)
		if obj == nil {
			return nil, domain.MalformedSignatureError(fmt.Sprintf("referenced Object %q not found", ext.ObjectID), nil)
		}
		ext.Content, err = Canonicalize(obj, method)

	case domain.PlacementDetached:
		if o.content == nil {
			return nil, domain.InvalidInputError("detached signature requires the signed content", nil)
		}
		ext.Content, err = e.selectContent(o.content, ext.Params.Selector, method)
	}
	if err != nil {
		return nil, err
	}
	return ext, nil
}

// selectContent canonicalizes the nodes selector picks from doc.
// It returns nil when nothing matches.
func (e *Engine) selectContent(doc *etree.Document, selector string, method domain.CanonicalizationMethod) ([]byte, error) {
	nodes, err := e.selectNodes(doc, selector)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	content, err := canonicalizeAll(nodes, method)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = []byte{}
	}
	return content, nil
}

// ValidateSignature checks the signature in signed, the last outermost
// one when there are several.
//
// It returns false when the content or signature value no longer matches
// and an error when the signature cannot be read at all.
func (e *Engine) ValidateSignature(signed *etree.Document, opts ...ValidateOption) (bool, error) {
	var o validateOptions
	for _, opt := range opts {
		opt(&o)
	}

	ext, reason, err := e.validate(signed, o)
	if err != nil {
		e.recordValidation(ports.ValidationError)
		e.logger.Warn("signature validation failed", zap.Error(err))
		return false, err
	}
	if reason != "" {
		e.recordValidation(ports.ValidationInvalid)
		e.logger.Warn("signature mismatch",
			zap.String("reason", reason),
			zap.String("algorithm", ext.Params.Signature.String()),
			zap.String("placement", ext.Params.Placement.String()),
		)
		return false, nil
	}

	e.recordValidation(ports.ValidationValid)
	e.logger.Info("signature validated", resultFields(ext.Params, ext.Certificate)...)
	return true, nil
}

// validate returns a non-empty reason when the signature does not hold.
func (e *Engine) validate(signed *etree.Document, o validateOptions) (*Extracted, string, error) {
	ext, err := e.extract(signed, o)
	if err != nil {
		return nil, "", err
	}

	key, reason, err := e.verificationKey(ext, o)
	if err != nil || reason != "" {
		return ext, reason, err
	}

	if ext.Content == nil {
		return ext, "selector matched no nodes", nil
	}
	digest, err := e.signer.Digest(ext.Content, ext.Params.Digest)
	if err != nil {
		return nil, "", err
	}
	if !hmac.Equal(digest, ext.DigestValue) {
		return ext, "digest mismatch", nil
	}

	signedInfo, err := canonicalizeSignedInfo(ext.SignedInfo, ext.Params.Canonicalization)
	if err != nil {
		return nil, "", err
	}
	ok, err := e.signer.Verify(signedInfo, ext.SignatureValue, key, ext.Params.Signature)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return ext, "signature value mismatch", nil
	}
	return ext, "", nil
}

func (e *Engine) verificationKey(ext *Extracted, o validateOptions) (any, string, error) {
	if ext.Params.Signature.Family() == domain.KeyFamilyHMAC {
		if len(o.hmacKey) == 0 {
			return nil, "", domain.ConfigError(ext.Params.Signature.String() + " signature requires an HMAC key")
		}
		return o.hmacKey, "", nil
	}

	if ext.Certificate == nil {
		return nil, "", domain.MalformedSignatureError("signature carries no X509Certificate", nil)
	}
	if len(e.trusted) > 0 && !e.isTrusted(ext.Certificate) {
		return nil, "certificate is not trusted", nil
	}
	return ext.Certificate, "", nil
}

func (e *Engine) isTrusted(cert *x509.Certificate) bool {
	for _, anchor := range e.trusted {
		if cert.Equal(anchor) {
			return true
		}
	}
	return false
}

func (e *Engine) recordValidation(result string) {
	if e.metrics != nil {
		e.metrics.RecordSignatureValidation(result)
	}
}

func resultFields(params domain.SignatureParameters, cert *x509.Certificate) []zap.Field {
	fields := []zap.Field{
		zap.String("algorithm", params.Signature.String()),
		zap.String("placement", params.Placement.String()),
	}
	if cert != nil {
		fields = append(fields,
			zap.String("cert_subject", cert.Subject.String()),
			zap.Time("cert_expiry", cert.NotAfter),
		)
	}
	return fields
}
