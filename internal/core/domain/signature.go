package domain

import (
	"crypto/x509"
	"fmt"
	"log/slog"
)

// VerifySignedBy checks that the payload certificate was signed with the
// pilot certificate's key. This is a raw signature check: proxy signers are
// end-entity certificates, so no CA or key-usage constraints apply.
//
// Every failure mode (missing input, unsupported key, signature mismatch)
// resolves to "not trusted". A verification error is never upgraded to
// "trusted".
func VerifySignedBy(payload, pilot *x509.Certificate) bool {
	return verifySignedBy(payload, pilot, slog.Default())
}

// VerifySignedByLogged is VerifySignedBy with an explicit logger for
// callers that attach decision context.
func VerifySignedByLogged(payload, pilot *x509.Certificate, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	return verifySignedBy(payload, pilot, logger)
}

func verifySignedBy(payload, pilot *x509.Certificate, logger *slog.Logger) bool {
	if payload == nil || pilot == nil {
		logger.Warn("signature check skipped, pilot or payload certificate is unset")
		return false
	}
	if pilot.PublicKey == nil {
		logger.Warn("cannot get public key from pilot certificate",
			"pilot_subject", OnelineDN(pilot))
		return false
	}

	if err := pilot.CheckSignature(payload.SignatureAlgorithm, payload.RawTBSCertificate, payload.Signature); err != nil {
		logger.Warn("payload certificate is not signed by pilot certificate",
			"payload_subject", OnelineDN(payload),
			"pilot_subject", OnelineDN(pilot),
			"error", fmt.Sprintf("%v", err))
		return false
	}
	return true
}
