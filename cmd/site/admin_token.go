package main

import (
	"fmt"
	"time"

	"localsphere/internal/adminauth"

	"github.com/spf13/cobra"
)

var (
	adminTokenSubject string
	adminTokenTTL     time.Duration
)

var adminTokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Mint a bearer token for GET /api/email-stats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		signer, err := adminauth.NewSigner(cfg.AdminSecret, cfg.AdminIssuer)
		if err != nil {
			return fmt.Errorf("set ADMIN_SECRET: %w", err)
		}
		tok, err := signer.Sign(adminTokenSubject, adminTokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	adminTokenCmd.Flags().StringVar(&adminTokenSubject, "subject", "operator", "Token subject")
	adminTokenCmd.Flags().DurationVar(&adminTokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
