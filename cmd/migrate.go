package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	Long:  "Creates the derived tables, the refresh log and the indexes search relies on. Use --source all to migrate every source.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		names, err := sourceNames(cmd)
		if err != nil {
			return err
		}

		for _, name := range names {
			st, _, err := openStore(ctx, name)
			if err != nil {
				return err
			}
			err = st.Migrate(ctx)
			_ = st.Close()
			if err != nil {
				return eris.Wrapf(err, "migrate %s", name)
			}
			zap.L().Info("migrations applied", zap.String("source", name))
			fmt.Printf("%s: migrations applied\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
