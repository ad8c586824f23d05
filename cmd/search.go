package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/scope"
)

var searchCmd = &cobra.Command{
	Use:       "search country|city <term...>",
	Short:     "Run a raw candidate search",
	Long:      "Queries the configured country or city backend directly and prints the ranked candidates with their similarity scores.",
	Args:      cobra.MinimumNArgs(2),
	ValidArgs: []string{"country", "city"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("resolve"); err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

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

		cands, err := searcher.Search(ctx, strings.Join(args[1:], " "), limit)
		if err != nil {
			return eris.Wrapf(err, "search %s", args[0])
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cands)
		}
		if len(cands) == 0 {
			fmt.Fprintln(os.Stderr, "No candidates found.")
			return nil
		}
		formatCandidates(cmd.OutOrStdout(), cands)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", scope.SearchLimit, "max number of candidates (1-100)")
	searchCmd.Flags().Bool("json", false, "print candidates as JSON")
	rootCmd.AddCommand(searchCmd)
}

// pickSearcher maps "country" or "city" to the resolver's searcher.
func pickSearcher(r *scope.Resolver, kind string) (scope.CandidateSearcher, error) {
	switch strings.ToLower(kind) {
	case "country", "countries":
		return r.Countries(), nil
	case "city", "cities":
		return r.Cities(), nil
	default:
		return nil, eris.Errorf("unknown search kind %q (want country or city)", kind)
	}
}

// formatCandidates writes a table of candidates to out.
func formatCandidates(out io.Writer, cands []model.GeoCandidate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCOUNTRY\tSCORE\tLAT\tLNG")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t-----\t---\t---")

	for _, c := range cands {
		lat, lng := "-", "-"
		if c.HasCoords() {
			lat = fmt.Sprintf("%.4f", *c.Lat)
			lng = fmt.Sprintf("%.4f", *c.Lng)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%s\t%s\n",
			truncateID(c.ID), c.Name, c.CountryIso2, c.Score, lat, lng)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
