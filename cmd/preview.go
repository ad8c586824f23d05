package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/pins"
)

var previewCmd = &cobra.Command{
	Use:   "preview <query...>",
	Short: "Resolve a query into a scope preview",
	Long:  "Tokenizes the query, searches countries and cities, and prints the resolved scope kind, ambiguity, matches and targets.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkPreviewFormat(format); err != nil {
			return err
		}
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

		p, err := b.resolver.Preview(ctx, strings.Join(args, " "))
		if err != nil {
			return eris.Wrap(err, "preview")
		}

		return writePreview(cmd.OutOrStdout(), p, format)
	},
}

func init() {
	previewCmd.Flags().String("format", "text", "output format: text, json or geojson")
	rootCmd.AddCommand(previewCmd)
}

func checkPreviewFormat(format string) error {
	switch format {
	case "text", "json", "geojson":
		return nil
	default:
		return eris.Errorf("unknown format %q (want text, json or geojson)", format)
	}
}

// writePreview renders p in the requested format.
func writePreview(out io.Writer, p *model.ScopePreview, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "geojson":
		data, err := pins.Marshal(p)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "text":
		formatPreview(out, p)
		return nil
	default:
		return checkPreviewFormat(format)
	}
}

// formatPreview writes a human-readable summary of p to out.
func formatPreview(out io.Writer, p *model.ScopePreview) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Query:\t%s\n", p.OriginalQuery)
	_, _ = fmt.Fprintf(w, "Kind:\t%s\n", p.Kind)
	_, _ = fmt.Fprintf(w, "Ambiguous:\t%t\n", p.IsAmbiguous)
	_, _ = fmt.Fprintf(w, "Blocking:\t%t\n", p.IsBlocking())
	_, _ = fmt.Fprintf(w, "Can search:\t%t\n", p.CanSearch())
	if p.Diagnostics != nil && p.Diagnostics.ChosenIso2 != "" {
		_, _ = fmt.Fprintf(w, "Country:\t%s\n", p.Diagnostics.ChosenIso2)
	}
	if len(p.NonGeoKeywords) > 0 {
		_, _ = fmt.Fprintf(w, "Keywords:\t%s\n", strings.Join(p.NonGeoKeywords, " "))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Tokens:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, t := range p.Tokens {
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%d countries\t%d cities\n",
			t.Raw, t.MatchedType, len(t.Countries), len(t.Cities))
	}
	_ = w.Flush()

	if len(p.Targets) == 0 {
		_, _ = fmt.Fprintln(out, "\nNo targets.")
		return
	}
	_, _ = fmt.Fprintln(out, "\nTargets:")
	formatCandidates(out, p.Targets)
}
