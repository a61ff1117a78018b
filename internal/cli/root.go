// Package cli implements the sdnctl command line client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sdnguard/internal/platform/config"
	"sdnguard/internal/platform/logger"
	"sdnguard/internal/sanctions/screening"
	"sdnguard/internal/sanctions/watchlist"
)

type globalOptions struct {
	providerURL string
	timeout     time.Duration
	maxInFlight int
	lenient     bool
	logLevel    string
}

// NewRootCommand builds the sdnctl command tree. Flag defaults come from
// the same environment variables the server reads.
func NewRootCommand() *cobra.Command {
	cfg, err := config.FromEnv()
	if err != nil {
		cfg = config.Server{
			Provider:  config.ProviderConfig{BaseURL: config.DefaultProviderURL, Timeout: 10 * time.Second},
			Screening: config.ScreeningConfig{MaxInFlight: screening.DefaultMaxInFlight},
			LogLevel:  "warn",
		}
	}

	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "sdnctl",
		Short:         "Screen names against the OFAC SDN watchlist.",
		Long:          "sdnctl queries the sanctions provider directly and prints screening results as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&opts.providerURL, "provider-url", cfg.Provider.BaseURL, "Sanctions provider base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", cfg.Provider.Timeout, "Per-lookup timeout")
	root.PersistentFlags().IntVar(&opts.maxInFlight, "max-in-flight", cfg.Screening.MaxInFlight, "Concurrent lookups for bulk screening")
	root.PersistentFlags().BoolVar(&opts.lenient, "lenient", cfg.Provider.LenientPayload, "Treat malformed provider payloads as empty results")
	root.PersistentFlags().StringVarP(&opts.logLevel, "loglevel", "l", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newLookupCommand(opts),
		newCheckCommand(opts),
		newBulkCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	return logger.NewWithWriter(w, o.logLevel)
}

func (o *globalOptions) client(log *slog.Logger) *watchlist.Client {
	return watchlist.NewClient(o.providerURL, o.timeout,
		watchlist.WithLogger(log),
		watchlist.WithLenientPayload(o.lenient),
	)
}

func (o *globalOptions) service(log *slog.Logger) (*screening.Service, error) {
	return screening.New(o.client(log),
		screening.WithLogger(log),
		screening.WithMaxInFlight(o.maxInFlight),
	)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
