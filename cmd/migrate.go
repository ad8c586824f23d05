package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoscope/pkg/geodb"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply geo table migrations to Postgres",
	Long:  "Creates the pg_trgm and unaccent extensions, the geo_countries and geo_cities tables and their trigram indexes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}
		ctx := cmd.Context()

		db, err := geodb.New(ctx, geodb.Config{
			URL:      cfg.Store.DatabaseURL,
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}

		zap.L().Info("migrations complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
