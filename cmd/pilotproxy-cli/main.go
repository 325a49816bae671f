// pilotproxy-cli is the command-line interface for the pilotproxy trust
// verification library.
//
// It decides whether an untrusted payload proxy chain was delegated by a
// trusted pilot proxy and publishes the verified identity. Common
// operations:
//   - Verifying a payload proxy against the pilot proxy
//   - Inspecting a PEM chain's RFC 3820 proxy classification
//
// Usage:
//
//	pilotproxy-cli verify --payload payload.pem [flags]
//	pilotproxy-cli inspect <pem-file>
//	pilotproxy-cli --help
package main

import (
	"fmt"
	"os"

	"github.com/gridsec/pilotproxy/internal/cli"
)

// main executes the root command and handles any errors that occur.
func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
