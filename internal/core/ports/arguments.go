package ports

import (
	"github.com/gridsec/pilotproxy/internal/core/domain"
)

// ArgumentSource supplies the payload material and FQAN list handed in by
// the host framework. Lookups that find nothing report ok=false; that is
// normal operation, not an error.
type ArgumentSource interface {
	// PayloadChain returns a pre-parsed payload chain when the framework
	// already holds one. A chain obtained this way is owned by the
	// framework, not by this core.
	PayloadChain() (*domain.Chain, bool)

	// PayloadPEM returns raw PEM text for the payload when no pre-parsed
	// chain is available.
	PayloadPEM() (string, bool)

	// FQANs returns the attribute-tag list, in framework order, duplicates
	// preserved. ok=false means the framework supplied none.
	FQANs() ([]string, bool)
}

// PilotSource retrieves the pilot proxy material. Implemented by the locked
// file reader adapter.
type PilotSource interface {
	// ReadPilot returns the pilot proxy file's bytes at a moment of
	// observed stability.
	ReadPilot() ([]byte, error)
}
