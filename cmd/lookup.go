package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:       "lookup country|city <id>",
	Short:     "Fetch one country (ISO2) or city (id)",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"country", "city"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("resolve"); err != nil {
			return err
		}

		ctx, cancel := withResolverTimeout(cmd.Context())
		defer cancel()

		b, err := initBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		searcher, err := pickSearcher(b.resolver, args[0])
		if err != nil {
			return err
		}

		cand, err := searcher.GetByID(ctx, args[1])
		if err != nil {
			return eris.Wrapf(err, "lookup %s", args[0])
		}
		if cand == nil {
			return eris.Errorf("%s %q not found", args[0], args[1])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cand)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
