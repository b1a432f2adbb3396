package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <owner/repo>",
	Short: "Build a productivity report for a repository",
	Long: `Fetch commits, pull requests, reviews and issues for the analysis
window, compute productivity metrics and render the report.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	registerPeriodFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("insights", false, "Attach an AI analysis of the metrics")
	analyzeCmd.Flags().String("prompt", "", "Insight prompt slug (defaults to productivity-analysis)")
	analyzeCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table, json, markdown, csv, html, text")
	analyzeCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	analyzeCmd.Flags().String("out-dir", "", "Write output to a directory with a generated file name")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	startedAt := time.Now()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	req, err := resolveReportRequest(cmd, args)
	if err != nil {
		return err
	}
	if req.WithInsights, err = cmd.Flags().GetBool("insights"); err != nil {
		return err
	}
	if req.PromptSlug, err = cmd.Flags().GetString("prompt"); err != nil {
		return err
	}

	svc, err := buildService(config.GetConfig(), db)
	if err != nil {
		return err
	}

	doc, err := svc.BuildReport(ctx, req)
	if err != nil {
		return err
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	outPath, outDir, err := resolveOutputTargets(cmd)
	if err != nil {
		return err
	}
	if outDir != "" {
		outDir, err = ensureOutDir(outDir)
		if err != nil {
			return err
		}
		outPath = filepath.Join(outDir, output.ExportFilename("report", req.Repo, req.Period, format))
	}

	sink, err := openSink(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	rendered, err := output.NewFormatter(format).FormatReport(doc)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(sink.writer, rendered); err != nil {
		return err
	}

	if format != output.FormatJSON && sink.path == "-" {
		logFetchStats(doc.Report.Provenance, startedAt)
	}
	return nil
}
