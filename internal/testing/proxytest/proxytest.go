// Package proxytest generates proxy certificate chains for tests.
// The chains are real ECDSA certificates carrying the proxyCertInfo
// extension, so tests exercise the same parsing and signature paths
// as production input.
package proxytest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gridsec/pilotproxy/internal/core/domain"
)

// OIDInheritAll is the RFC 3820 "inherit all rights" policy language.
var OIDInheritAll = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 21, 1}

// Identity bundles a certificate with its private key so it can sign
// child proxies.
type Identity struct {
	Cert *x509.Certificate
	Key  *ecdsa.PrivateKey
}

type proxyPolicy struct {
	PolicyLanguage asn1.ObjectIdentifier
}

type proxyCertInfo struct {
	ProxyPolicy proxyPolicy
}

var serialCounter atomic.Int64

func nextSerial() *big.Int {
	return big.NewInt(1000 + serialCounter.Add(1))
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func create(t *testing.T, template *x509.Certificate, parent *Identity, key *ecdsa.PrivateKey) *x509.Certificate {
	t.Helper()
	parentCert := template
	parentKey := key
	if parent != nil {
		parentCert = parent.Cert
		parentKey = parent.Key
	}
	der, err := x509.CreateCertificate(rand.Reader, template, parentCert, &key.PublicKey, parentKey)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse created certificate: %v", err)
	}
	return cert
}

// NewEEC creates a self-signed end entity certificate with the given
// subject attributes.
func NewEEC(t *testing.T, commonName string, org ...string) *Identity {
	t.Helper()
	key := newKey(t)
	template := &x509.Certificate{
		SerialNumber: nextSerial(),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: org,
		},
		NotBefore: time.Now().Add(-time.Hour),
		NotAfter:  time.Now().Add(24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	cert := create(t, template, nil, key)
	return &Identity{Cert: cert, Key: key}
}

// NewProxy creates an RFC 3820 proxy certificate signed by parent.
// When limited is true the proxyCertInfo carries the limited proxy
// policy language, otherwise the inherit-all language.
func NewProxy(t *testing.T, parent *Identity, limited bool) *Identity {
	t.Helper()
	lang := OIDInheritAll
	if limited {
		lang = domain.OIDLimitedProxy
	}
	info, err := asn1.Marshal(proxyCertInfo{ProxyPolicy: proxyPolicy{PolicyLanguage: lang}})
	if err != nil {
		t.Fatalf("marshal proxyCertInfo: %v", err)
	}
	return newChild(t, parent, []pkix.Extension{{
		Id:       domain.OIDProxyCertInfo,
		Critical: true,
		Value:    info,
	}})
}

// NewPlainChild creates a child certificate without a proxyCertInfo
// extension, a legacy proxy by the old conventions.
func NewPlainChild(t *testing.T, parent *Identity) *Identity {
	t.Helper()
	return newChild(t, parent, nil)
}

// NewMalformedProxy creates a child whose proxyCertInfo extension does
// not parse as ASN.1.
func NewMalformedProxy(t *testing.T, parent *Identity) *Identity {
	t.Helper()
	return newChild(t, parent, []pkix.Extension{{
		Id:    domain.OIDProxyCertInfo,
		Value: []byte{0x30, 0x05, 0x02},
	}})
}

func newChild(t *testing.T, parent *Identity, exts []pkix.Extension) *Identity {
	t.Helper()
	key := newKey(t)
	serial := nextSerial()
	subject := parent.Cert.Subject
	subject.CommonName = serial.String()
	template := &x509.Certificate{
		SerialNumber:    serial,
		Subject:         subject,
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(12 * time.Hour),
		KeyUsage:        x509.KeyUsageDigitalSignature,
		ExtraExtensions: exts,
	}
	cert := create(t, template, parent, key)
	return &Identity{Cert: cert, Key: key}
}

// PEM encodes the given certificates, leaf first, as a PEM bundle.
func PEM(t *testing.T, certs ...*x509.Certificate) []byte {
	t.Helper()
	var out []byte
	for _, cert := range certs {
		out = append(out, pem.EncodeToMemory(&pem.Block{
			Type:  "CERTIFICATE",
			Bytes: cert.Raw,
		})...)
	}
	return out
}

// Chain wraps certificates into a domain chain, leaf first.
func Chain(t *testing.T, certs ...*x509.Certificate) *domain.Chain {
	t.Helper()
	chain, err := domain.NewChain(certs)
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}
	return chain
}
