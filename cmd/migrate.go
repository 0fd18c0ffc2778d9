package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		logger, err := newLogger()
		if err != nil {
			cobra.CheckErr(err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		st, err := openStore(ctx, config)
		if err != nil {
			logger.Fatal("opening the store", zap.Error(err))
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			logger.Fatal("applying the schema", zap.Error(err))
		}

		logger.Info("schema is up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
