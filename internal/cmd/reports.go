package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/output"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage saved report history",
}

var (
	reportsListRepo   string
	reportsListLimit  int
	reportsListOutput string

	reportsPruneDays   int
	reportsPruneYes    bool
	reportsPruneDryRun bool
)

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(reportsListOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		records, err := db.ListReports(cmd.Context(), strings.TrimSpace(reportsListRepo), reportsListLimit)
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			// History rows minus the serialized body, which can be large.
			type row struct {
				ID        string    `json:"id"`
				Repo      string    `json:"repo"`
				Author    string    `json:"author,omitempty"`
				Start     time.Time `json:"period_start"`
				End       time.Time `json:"period_end"`
				CreatedAt time.Time `json:"created_at"`
			}
			rows := make([]row, 0, len(records))
			for _, record := range records {
				rows = append(rows, row{
					ID:        record.ID,
					Repo:      record.Repo,
					Author:    record.Author,
					Start:     record.Period.Start,
					End:       record.Period.End,
					CreatedAt: record.CreatedAt,
				})
			}
			payload, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		}

		lines := []string{"Saved Reports", ""}
		if len(records) == 0 {
			lines = append(lines, "(no saved reports)")
			fmt.Print(ascii.DrawBox(strings.Join(lines, "\n"), 0))
			return nil
		}

		for _, record := range records {
			author := record.Author
			if author == "" {
				author = "-"
			}
			lines = append(lines, fmt.Sprintf("%s %s author=%s %s to %s",
				record.CreatedAt.Format(time.RFC3339),
				record.Repo,
				author,
				record.Period.Start.Format("2006-01-02"),
				record.Period.End.Format("2006-01-02")))
		}
		fmt.Print(ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return nil
	},
}

var reportsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete saved reports older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportsPruneDays <= 0 {
			return fmt.Errorf("--older-than-days must be a positive integer")
		}
		if !reportsPruneYes && !reportsPruneDryRun {
			return fmt.Errorf("prune requires --yes (or use --dry-run)")
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		cutoff := time.Now().UTC().AddDate(0, 0, -reportsPruneDays)

		if reportsPruneDryRun {
			records, err := db.ListReports(cmd.Context(), "", 1000000)
			if err != nil {
				return err
			}
			matched := 0
			for _, record := range records {
				if record.CreatedAt.Before(cutoff) {
					matched++
				}
			}
			fmt.Printf("Would delete %d report(s) older than %s\n", matched, cutoff.Format("2006-01-02"))
			return nil
		}

		deleted, err := db.PruneReports(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d report(s) older than %s\n", deleted, cutoff.Format("2006-01-02"))
		return nil
	},
}

func init() {
	reportsListCmd.Flags().StringVar(&reportsListRepo, "repo", "", "Filter by repository (owner/name)")
	reportsListCmd.Flags().IntVar(&reportsListLimit, "limit", 50, "Maximum rows to list")
	reportsListCmd.Flags().StringVar(&reportsListOutput, "output-format", string(output.FormatTable), "Output format: table|json")

	reportsPruneCmd.Flags().IntVar(&reportsPruneDays, "older-than-days", 90, "Delete reports created before this many days ago")
	reportsPruneCmd.Flags().BoolVar(&reportsPruneYes, "yes", false, "Confirm destructive prune")
	reportsPruneCmd.Flags().BoolVar(&reportsPruneDryRun, "dry-run", false, "Show what would be deleted")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsPruneCmd)
	rootCmd.AddCommand(reportsCmd)
}
