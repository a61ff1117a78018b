package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"sdnguard/internal/sanctions/models"
)

var errStillUnknown = errors.New("some names are still unknown")

// BulkScreener is the part of the screening service bulk runs use.
type BulkScreener interface {
	BulkEvaluate(ctx context.Context, names []string) models.BulkCheckResult
}

func newBulkCommand(opts *globalOptions) *cobra.Command {
	var (
		retries uint64
		backoff time.Duration
	)
	cmd := &cobra.Command{
		Use:   "bulk FILE|-",
		Short: "Screen many names read from a file or stdin",
		Long: "Names are read as a JSON array, a JSON object with customerNames, " +
			"or one name per line. Names whose result is UNKNOWN can be re-screened with --retry-unknown.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := readNames(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			log := opts.logger(cmd.ErrOrStderr())
			svc, err := opts.service(log)
			if err != nil {
				return err
			}
			result := screenWithRetry(cmd.Context(), svc, names, retries, backoff)
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().Uint64Var(&retries, "retry-unknown", 0, "Re-screen UNKNOWN results up to N times")
	cmd.Flags().DurationVar(&backoff, "retry-backoff", time.Second, "Base Fibonacci backoff between retries")
	return cmd
}

// screenWithRetry screens names, then re-screens only the UNKNOWN subset up
// to retries times, merging each retry back into its original positions.
func screenWithRetry(ctx context.Context, s BulkScreener, names []string, retries uint64, base time.Duration) models.BulkCheckResult {
	result := s.BulkEvaluate(ctx, names)
	if !result.Success || retries == 0 || result.Summary.Unknown == 0 {
		return result
	}

	b := retry.WithMaxRetries(retries-1, retry.NewFibonacci(base))
	_ = retry.Do(ctx, b, func(ctx context.Context) error {
		idx, unknown := result.UnknownNames()
		if len(idx) == 0 {
			return nil
		}
		retried := s.BulkEvaluate(ctx, unknown)
		result = result.Merge(idx, retried.Results)
		if result.Summary.Unknown > 0 {
			return retry.RetryableError(errStillUnknown)
		}
		return nil
	})
	return result
}

func readNames(stdin io.Reader, path string) ([]string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	return parseNames(data)
}

func parseNames(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if gjson.ValidBytes(trimmed) {
		root := gjson.ParseBytes(trimmed)
		if root.IsObject() {
			root = root.Get("customerNames")
			if !root.IsArray() {
				return nil, errors.New("JSON object input must carry a customerNames array")
			}
		}
		if root.IsArray() {
			var names []string
			if err := json.Unmarshal([]byte(root.Raw), &names); err != nil {
				return nil, fmt.Errorf("names must be strings: %w", err)
			}
			return names, nil
		}
	}

	var names []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	return names, nil
}
