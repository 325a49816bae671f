package ports

// CredentialKind identifies the type of a record published to the
// credential store.
type CredentialKind string

const (
	// CredentialSubjectDN is the resolved user identity: the payload
	// leaf's one-line subject DN.
	CredentialSubjectDN CredentialKind = "user_dn"

	// CredentialFQAN is an attribute tag asserting role or group
	// membership.
	CredentialFQAN CredentialKind = "vo_credential"
)

// CredentialStore receives the results of a positive trust decision. The
// store is an opaque key/value sink keyed by credential kind; each store
// operation is independent and a failure does not roll back earlier
// records.
type CredentialStore interface {
	AddCredential(kind CredentialKind, value string) error
}
