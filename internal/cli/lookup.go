package cli

import (
	"github.com/spf13/cobra"

	"sdnguard/internal/sanctions/watchlist"
)

func newLookupCommand(opts *globalOptions) *cobra.Command {
	var (
		name    string
		country string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "List watchlist records matching a name and/or country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(cmd.ErrOrStderr())
			result := opts.client(log).Lookup(cmd.Context(), watchlist.LookupQuery{
				Name:    name,
				Country: country,
				Limit:   limit,
			})
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name to search for")
	cmd.Flags().StringVar(&country, "country", "", "Country code filter")
	cmd.Flags().IntVar(&limit, "limit", watchlist.DefaultLimit, "Maximum records to return")
	return cmd
}
