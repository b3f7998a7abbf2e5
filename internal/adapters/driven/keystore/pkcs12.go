package keystore

import (
	"fmt"
	"strconv"
	"strings"

	pkcs12 "software.sslmate.com/src/go-pkcs12"

	"github.com/philiph/xmlcrypto/internal/core/domain"
)

const pkcs12PrivateKeyBlock = "PRIVATE KEY"

// loadPKCS12 reads a PKCS#12 container holding one key entry and its
// certificate. The entry must answer to desc.KeyAlias.
func loadPKCS12(data []byte, desc domain.CertificateDescriptor) (*domain.KeyMaterial, error) {
	key, cert, _, err := pkcs12.DecodeChain(data, desc.KeystorePassword)
	if err != nil {
		return nil, domain.KeyResolutionError("cannot open PKCS#12 keystore", err)
	}

	aliases, err := pkcs12KeyAliases(data, desc.KeystorePassword)
	if err != nil {
		return nil, err
	}
	if !containsAlias(aliases, desc.KeyAlias) {
		return nil, domain.KeyResolutionError(fmt.Sprintf("alias %q not found", desc.KeyAlias), nil)
	}
	return newKeyMaterial(key, cert)
}

// pkcs12KeyAliases lists the aliases of the container's key entries. An
// entry's alias is its friendlyName attribute; unnamed entries are numbered
// from "1" in bag order, as Java's PKCS12 keystore does.
func pkcs12KeyAliases(data []byte, password string) ([]string, error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return nil, domain.KeyResolutionError("cannot read PKCS#12 entry names", err)
	}

	var aliases []string
	unnamed := 0
	for _, block := range blocks {
		if block.Type != pkcs12PrivateKeyBlock {
			continue
		}
		if name := block.Headers["friendlyName"]; name != "" {
			aliases = append(aliases, name)
			continue
		}
		unnamed++
		aliases = append(aliases, strconv.Itoa(unnamed))
	}
	return aliases, nil
}

// PKCS#12 aliases compare case-insensitively.
func containsAlias(aliases []string, alias string) bool {
	for _, a := range aliases {
		if strings.EqualFold(a, alias) {
			return true
		}
	}
	return false
}
