// Package cli provides the command-line interface for pilot sub-proxy
// trust verification.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridsec/pilotproxy/internal/adapters/metrics"
	configfile "github.com/gridsec/pilotproxy/internal/adapters/secondary/config"
	"github.com/gridsec/pilotproxy/internal/adapters/secondary/creds"
	"github.com/gridsec/pilotproxy/internal/adapters/secondary/framework"
	"github.com/gridsec/pilotproxy/internal/adapters/secondary/proxyfile"
	"github.com/gridsec/pilotproxy/internal/core/ports"
	"github.com/gridsec/pilotproxy/internal/core/services"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a payload proxy against the pilot proxy",
	Long: `Verify that a payload proxy chain was delegated by the pilot proxy.

The pilot proxy is read from --proxy or the X509_USER_PROXY environment
variable, under the selected advisory lock policy, with the file required to
be owned by the invoking user and closed to group/world access. The payload
chain is read from the --payload PEM file.

The decision is positive when the payload leaf is signed by the pilot leaf,
both are RFC 3820 proxies, both are limited proxies when --require-limited
is set, and at least one --fqan tag matches --pattern when a pattern is
given.

Settings may also come from a YAML file (--config) or PILOTPROXY_*
environment variables; flags win.

Example:
  pilotproxy-cli verify --payload payload.pem --pattern '*/Role=pilot*' \
      --fqan /vo/Role=pilot --lock fcntl`,
	RunE: runVerify,
}

func init() {
	registerVerifyFlags(verifyCmd)
	_ = verifyCmd.MarkFlagRequired("payload")
}

func registerVerifyFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "YAML configuration file")
	cmd.Flags().String("payload", "", "Payload proxy PEM file (required)")
	cmd.Flags().String("proxy", "", "Pilot proxy file (default: $"+ports.EnvProxyPath+")")
	cmd.Flags().String("lock", "", "File lock policy: none, fcntl or flock")
	cmd.Flags().String("pattern", "", "Glob pattern at least one FQAN must match")
	cmd.Flags().StringSlice("fqan", nil, "Payload FQAN attribute tag (repeatable)")
	cmd.Flags().Bool("require-limited", false, "Require both proxies to be limited")
	cmd.Flags().Int("max-attempts", 0, "Stability-loop attempt bound (default 10)")
	cmd.Flags().Duration("retry-pause", 0, "Pause between stability-loop attempts (default 500µs)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	config, err := loadVerifyConfiguration(cmd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	payloadPath, _ := cmd.Flags().GetString("payload")
	payloadPEM, err := os.ReadFile(payloadPath)
	if err != nil {
		return fmt.Errorf("%w: cannot read payload file: %v", ErrUsage, err)
	}

	fqans, _ := cmd.Flags().GetStringSlice("fqan")

	proxyPath, err := config.ProxyPath()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	lockPolicy, err := config.LockPolicy()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	reporter := metrics.NewPrometheusMetrics()
	reader := proxyfile.NewReader(proxyPath, proxyfile.Options{
		Lock:        lockPolicy,
		MaxAttempts: config.MaxAttempts(),
		RetryPause:  config.RetryPause(),
		OnRetry:     reporter.RecordReadRetry,
	})

	arguments := framework.NewArguments().WithPayloadPEM(string(payloadPEM))
	if len(fqans) > 0 {
		arguments = arguments.WithFQANs(fqans)
	}

	store := creds.NewMemoryStore()
	service, err := services.NewTrustService(config, reader, arguments, store,
		services.WithMetrics(reporter))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	decision, err := service.Authorize()
	if outErr := outputDecision(cmd, decision); outErr != nil {
		return fmt.Errorf("%w: %v", ErrInternal, outErr)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRuntime, err)
	}
	if !decision.Permitted {
		return fmt.Errorf("%w: stage %s: %s", ErrTrust, decision.Stage, decision.Reason)
	}
	return nil
}

// loadVerifyConfiguration merges, in ascending precedence: defaults, the
// optional YAML file, PILOTPROXY_* environment variables, and flags.
func loadVerifyConfiguration(cmd *cobra.Command) (*ports.Configuration, error) {
	v := viper.New()

	// Every key needs a default so environment overrides are visible to
	// Unmarshal.
	defaults := configfile.NewFileProvider().GetDefaultConfiguration()
	v.SetDefault("proxy.path", defaults.Proxy.Path)
	v.SetDefault("proxy.lock", defaults.Proxy.Lock)
	v.SetDefault("proxy.max_attempts", defaults.Proxy.MaxAttempts)
	v.SetDefault("proxy.retry_pause", defaults.Proxy.RetryPause)
	v.SetDefault("policy.required_fqan_pattern", defaults.Policy.RequiredFQANPattern)
	v.SetDefault("policy.require_limited", defaults.Policy.RequireLimited)

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("PILOTPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"proxy.path":                   "proxy",
		"proxy.lock":                   "lock",
		"proxy.max_attempts":           "max-attempts",
		"proxy.retry_pause":            "retry-pause",
		"policy.required_fqan_pattern": "pattern",
		"policy.require_limited":       "require-limited",
	}
	for key, flag := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", flag, err)
			}
		}
	}

	var config ports.Configuration
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&config, decodeHook); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func outputDecision(cmd *cobra.Command, decision *services.Decision) error {
	if decision == nil {
		return nil
	}
	format, _ := cmd.Flags().GetString("format")

	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(decision)
	default:
		status := "[DENIED]"
		if decision.Permitted {
			status = "[TRUSTED]"
		}
		fmt.Printf("%s Payload proxy verification\n", status)
		fmt.Printf("Decision ID: %s\n", decision.ID)
		if decision.SubjectDN != "" {
			fmt.Printf("Subject DN: %s\n", decision.SubjectDN)
		}
		fmt.Printf("Signature valid: %t\n", decision.SignatureValid)
		fmt.Printf("RFC proxies: pilot=%t payload=%t\n", decision.PilotRFC, decision.PayloadRFC)
		fmt.Printf("Limited proxies: pilot=%t payload=%t\n", decision.PilotLimited, decision.PayloadLimited)
		if decision.MatchedFQAN != "" {
			fmt.Printf("Matched FQAN: %s\n", decision.MatchedFQAN)
		}
		if !decision.Permitted {
			fmt.Printf("Failed stage: %s\n", decision.Stage)
			fmt.Printf("Reason: %s\n", decision.Reason)
		}
		return nil
	}
}
