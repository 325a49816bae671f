package domain

import (
	"crypto/x509"
	"encoding/asn1"
	"fmt"
)

// Proxy-certificate policy identifiers (RFC 3820 and the legacy limited
// proxy policy language). These are wire-format constants and must be
// recognized verbatim.
var (
	// OIDProxyCertInfo is the RFC 3820 proxyCertInfo extension identifier,
	// 1.3.6.1.5.5.7.1.14.
	OIDProxyCertInfo = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 14}

	// OIDLimitedProxy is the policy language identifying a limited proxy,
	// 1.3.6.1.4.1.3536.1.1.1.9.
	OIDLimitedProxy = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 3536, 1, 1, 1, 9}
)

// proxyPolicy is the ASN.1 ProxyPolicy structure from RFC 3820 section 3.8.
type proxyPolicy struct {
	PolicyLanguage asn1.ObjectIdentifier
	Policy         []byte `asn1:"optional"`
}

// proxyCertInfo is the ASN.1 ProxyCertInfo extension value from RFC 3820.
type proxyCertInfo struct {
	PathLenConstraint int         `asn1:"optional"`
	ProxyPolicy       proxyPolicy
}

// ExtensionState classifies the outcome of looking up the proxyCertInfo
// extension: absent, present, or present but malformed. Absence is a valid
// classification, not an error.
type ExtensionState int

const (
	// ExtensionAbsent means the certificate carries no proxyCertInfo
	// extension.
	ExtensionAbsent ExtensionState = iota
	// ExtensionFound means the extension is present and parsed.
	ExtensionFound
	// ExtensionMalformed means the extension is present but its value does
	// not parse as a ProxyCertInfo.
	ExtensionMalformed
)

// ProxyInfo is the result of inspecting a certificate's proxyCertInfo
// extension.
type ProxyInfo struct {
	State          ExtensionState
	PolicyLanguage asn1.ObjectIdentifier // zero when State != ExtensionFound
	Err            error                 // set when State == ExtensionMalformed
}

// InspectProxyInfo looks up the RFC 3820 proxyCertInfo extension on cert and
// parses its policy. The three-state result distinguishes "extension absent"
// from "extension malformed"; both classifications are side-effect-free and
// idempotent.
func InspectProxyInfo(cert *x509.Certificate) ProxyInfo {
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(OIDProxyCertInfo) {
			continue
		}
		var pci proxyCertInfo
		if _, err := asn1.Unmarshal(ext.Value, &pci); err != nil {
			return ProxyInfo{
				State: ExtensionMalformed,
				Err:   fmt.Errorf("proxyCertInfo extension does not parse: %w", err),
			}
		}
		return ProxyInfo{
			State:          ExtensionFound,
			PolicyLanguage: pci.ProxyPolicy.PolicyLanguage,
		}
	}
	return ProxyInfo{State: ExtensionAbsent}
}

// IsRFCProxy reports whether cert carries the RFC 3820 proxyCertInfo
// extension. A certificate without the extension is simply not an RFC
// proxy; that is a false classification, never an error.
func IsRFCProxy(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(OIDProxyCertInfo) {
			return true
		}
	}
	return false
}

// IsLimitedProxy reports whether cert is an RFC proxy whose policy language
// marks it as limited. A missing extension, a missing policy language, or a
// malformed extension all classify as "not limited" rather than failing.
func IsLimitedProxy(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}
	info := InspectProxyInfo(cert)
	if info.State != ExtensionFound {
		return false
	}
	return info.PolicyLanguage.Equal(OIDLimitedProxy)
}
