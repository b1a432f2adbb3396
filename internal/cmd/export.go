package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/observability"
	"github.com/devpulse/devpulse/internal/output"
)

var exportCmd = &cobra.Command{
	Use:   "export <owner/repo>",
	Short: "Export a report or velocity series to a file",
	Long: `Build a report and write it to a file for spreadsheets or other
tooling. The default file name encodes the repository and window, e.g.
devpulse_report_acme-widgets_2026-07-01_2026-07-31.csv.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	registerPeriodFlags(exportCmd)
	exportCmd.Flags().String("type", "report", "Export type: report or velocity")
	exportCmd.Flags().Bool("insights", false, "Attach an AI analysis of the metrics")
	exportCmd.Flags().String("output-format", string(output.FormatCSV), "Output format: csv, json, markdown, html, text")
	exportCmd.Flags().String("out", "", "Write output to a file (default is a generated name in the working directory)")
	exportCmd.Flags().String("out-dir", "", "Write output to a directory with a generated file name")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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

	kind, err := cmd.Flags().GetString("type")
	if err != nil {
		return err
	}
	if kind != "report" && kind != "velocity" {
		return fmt.Errorf("unsupported export type: %s", kind)
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
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

	// The report export carries the metric rows; the velocity series has
	// its own export type.
	if kind == "report" {
		doc.Report.Metrics.Velocity = nil
	}

	rendered, err := output.NewFormatter(format).FormatReport(doc)
	if err != nil {
		return err
	}

	outPath, outDir, err := resolveOutputTargets(cmd)
	if err != nil {
		return err
	}
	if outPath == "" {
		if outDir != "" {
			outDir, err = ensureOutDir(outDir)
			if err != nil {
				return err
			}
		}
		outPath = filepath.Join(outDir, output.ExportFilename(kind, req.Repo, req.Period, format))
	}

	sink, err := openSink(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	if _, err := fmt.Fprintln(sink.writer, rendered); err != nil {
		return err
	}

	if sink.path != "-" && observability.CLILogger != nil {
		observability.CLILogger.Info("Export written",
			zap.String("path", sink.path),
			zap.String("type", kind),
			zap.String("format", string(format)))
	}
	return nil
}
