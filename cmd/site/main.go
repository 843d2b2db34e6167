package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "site"

var rootCmd = &cobra.Command{
	Use:   "site",
	Short: "LocalSphere validation site backend",
	Long: `site serves the LocalSphere landing-page experiment: it buckets visitors
into a variant, captures emails and verifies them by token.

Configuration comes from the environment (and an optional .env file).`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(adminTokenCmd)
}
