package cli

import (
	"github.com/spf13/cobra"
)

func newCheckCommand(opts *globalOptions) *cobra.Command {
	var fuzzy bool
	cmd := &cobra.Command{
		Use:   "check NAME",
		Short: "Screen a single customer name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(cmd.ErrOrStderr())
			svc, err := opts.service(log)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), svc.Evaluate(cmd.Context(), args[0], fuzzy))
		},
	}
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", true, "Ask the provider for fuzzy and alias matching")
	return cmd
}
