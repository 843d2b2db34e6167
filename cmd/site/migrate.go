package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the email_verification table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		st, closeDB, err := requireStore(cfg)
		defer closeDB()
		if err != nil {
			return err
		}
		if err := st.AutoMigrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "email_verification table is up to date")
		return nil
	},
}
