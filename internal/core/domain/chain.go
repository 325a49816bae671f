// Package domain holds the proxy-certificate trust model: certificate
// chains, RFC-3820 policy inspection, delegation signature checks and FQAN
// matching.
package domain

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/gridsec/pilotproxy/internal/core/errors"
)

const certificatePEMType = "CERTIFICATE"

// Chain is an ordered sequence of parsed certificates. Index 0 is the leaf,
// the subject whose identity matters; later entries are its issuers in the
// order the input presented them.
type Chain struct {
	certs []*x509.Certificate
}

// NewChain creates a Chain from already-parsed certificates. The slice must
// be non-empty; a chain is never empty by construction.
func NewChain(certs []*x509.Certificate) (*Chain, error) {
	if len(certs) == 0 {
		return nil, errors.NewDomainError(errors.ErrChainParse, fmt.Errorf("chain cannot be empty"))
	}
	for i, cert := range certs {
		if cert == nil {
			return nil, errors.NewDomainError(errors.ErrChainParse, fmt.Errorf("certificate at index %d is nil", i))
		}
	}
	return &Chain{certs: certs}, nil
}

// DecodeChain parses PEM-encoded text into a certificate chain, preserving
// input order. Non-certificate PEM blocks (keys, parameters) are skipped.
// Text that contains no certificate, or a certificate block that does not
// parse, is an error; the result is never an empty chain.
func DecodeChain(pemText []byte) (*Chain, error) {
	var certs []*x509.Certificate

	rest := pemText
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != certificatePEMType {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.NewDomainError(errors.ErrChainParse,
				fmt.Errorf("certificate %d in PEM input: %w", len(certs), err))
		}
		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, errors.NewDomainError(errors.ErrChainParse, fmt.Errorf("no certificates found in PEM input"))
	}
	return &Chain{certs: certs}, nil
}

// Leaf returns the subject-most certificate of the chain.
func (c *Chain) Leaf() *x509.Certificate {
	return c.certs[0]
}

// Len returns the number of certificates in the chain.
func (c *Chain) Len() int {
	return len(c.certs)
}

// At returns the certificate at position i, leaf first.
func (c *Chain) At(i int) *x509.Certificate {
	return c.certs[i]
}

// Certificates returns the underlying certificates for adapter use, leaf
// first.
func (c *Chain) Certificates() []*x509.Certificate {
	return c.certs
}

// Subjects returns the one-line subject DN of every certificate in chain
// order.
func (c *Chain) Subjects() []string {
	subjects := make([]string, len(c.certs))
	for i, cert := range c.certs {
		subjects[i] = OnelineDN(cert)
	}
	return subjects
}

// attributeShortNames maps the DN attribute types that appear in grid proxy
// subjects to their conventional short names.
var attributeShortNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "STREET",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"0.9.2342.19200300.100.1.1":  "UID",
	"0.9.2342.19200300.100.1.25": "DC",
	"1.2.840.113549.1.9.1":       "emailAddress",
}

// OnelineDN renders a certificate's subject in the canonical slash-separated
// one-line form used by grid middleware, e.g.
// "/C=NL/O=Example/CN=user/CN=proxy". RDNs appear in the order they are
// encoded in the certificate.
func OnelineDN(cert *x509.Certificate) string {
	var rdns pkix.RDNSequence
	if _, err := asn1.Unmarshal(cert.RawSubject, &rdns); err != nil {
		// Fall back to the RFC 2253 rendering rather than dropping the
		// identity altogether.
		return cert.Subject.String()
	}

	var b strings.Builder
	for _, rdn := range rdns {
		for _, atv := range rdn {
			name, ok := attributeShortNames[atv.Type.String()]
			if !ok {
				name = atv.Type.String()
			}
			b.WriteByte('/')
			b.WriteString(name)
			b.WriteByte('=')
			fmt.Fprintf(&b, "%v", atv.Value)
		}
	}
	return b.String()
}
