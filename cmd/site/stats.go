package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"localsphere/internal/dto"
	"localsphere/internal/events"
	impl "localsphere/internal/service/impl"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show capture and verification counts",
	Long: `Show capture and verification counts per variant.

Examples:
  site stats          # table
  site stats --json   # same numbers as GET /api/email-stats`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print JSON instead of a table")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, _, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	st, closeDB, err := requireStore(cfg)
	defer closeDB()
	if err != nil {
		return err
	}

	svc := impl.NewCaptureServiceImpl(st, nil, events.Nop{}, cfg.AppURL, cfg.TokenTTL)
	res, err := svc.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printStats(cmd.OutOrStdout(), res)
	return nil
}

func printStats(w io.Writer, res *dto.StatsResponse) {
	rate := 0.0
	if res.Total > 0 {
		rate = float64(res.Verified) / float64(res.Total) * 100
	}
	fmt.Fprintf(w, "Total captures:  %d\n", res.Total)
	fmt.Fprintf(w, "Verified:        %d (%.1f%%)\n", res.Verified, rate)
	fmt.Fprintln(w, "\nBy variant:")

	names := make([]string, 0, len(res.Variants))
	for name := range res.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-26s %d\n", name, res.Variants[name])
	}
}
