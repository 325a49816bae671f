package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridsec/pilotproxy/internal/core/domain"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pem-file>",
	Short: "Inspect a PEM certificate chain's proxy classification",
	Long: `Decode a PEM certificate bundle and print, per certificate, its one-line
subject DN, validity window, and RFC 3820 proxy classification (RFC proxy,
limited proxy).

Example:
  pilotproxy-cli inspect /tmp/x509up_u1000`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// certReport is the per-certificate inspection result.
type certReport struct {
	Index     int    `json:"index"`
	SubjectDN string `json:"subject_dn"`
	IssuerDN  string `json:"issuer_dn"`
	NotBefore string `json:"not_before"`
	NotAfter  string `json:"not_after"`
	RFCProxy  bool   `json:"rfc_proxy"`
	Limited   bool   `json:"limited_proxy"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	pemText, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("%w: cannot read %s: %v", ErrUsage, args[0], err)
	}

	chain, err := domain.DecodeChain(pemText)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	reports := make([]certReport, chain.Len())
	for i := 0; i < chain.Len(); i++ {
		cert := chain.At(i)
		reports[i] = certReport{
			Index:     i,
			SubjectDN: domain.OnelineDN(cert),
			IssuerDN:  cert.Issuer.String(),
			NotBefore: cert.NotBefore.Format(time.RFC3339),
			NotAfter:  cert.NotAfter.Format(time.RFC3339),
			RFCProxy:  domain.IsRFCProxy(cert),
			Limited:   domain.IsLimitedProxy(cert),
		}
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	default:
		fmt.Printf("Chain of %d certificate(s), leaf first\n", chain.Len())
		for _, r := range reports {
			fmt.Printf("[%d] %s\n", r.Index, r.SubjectDN)
			fmt.Printf("    Issuer: %s\n", r.IssuerDN)
			fmt.Printf("    Valid: %s to %s\n", r.NotBefore, r.NotAfter)
			fmt.Printf("    RFC proxy: %t, limited: %t\n", r.RFCProxy, r.Limited)
		}
		return nil
	}
}
