package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoscope/pkg/geodb"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML place dataset into Postgres",
	Long:  "Migrates, then upserts countries and cities from --file (or store.fixture_path, or the embedded sample) into geo_countries and geo_cities.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("seed"); err != nil {
			return err
		}
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = cfg.Store.FixturePath
		}
		d, err := loadDataset(path)
		if err != nil {
			return err
		}

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

		res, err := geodb.Seed(ctx, db.Pool(), d)
		if err != nil {
			return err
		}

		zap.L().Info("seed complete",
			zap.Int64("countries", res.Countries),
			zap.Int64("cities", res.Cities),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "YAML dataset to load (default: store.fixture_path or embedded sample)")
	rootCmd.AddCommand(seedCmd)
}
