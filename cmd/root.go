package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoscope/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geoscope",
	Short: "Geographic scope resolution for news search",
	Long:  "Resolves free-text place queries into a disambiguated country/city scope, with map targets, backed by Postgres trigram search or a YAML fixture.",
	// Errors are logged by main; usage is for flag mistakes only.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("geoscope failed", zap.Error(err))
		os.Exit(1)
	}
}
