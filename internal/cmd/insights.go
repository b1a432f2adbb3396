package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/core/service"
	"github.com/devpulse/devpulse/internal/output"
)

var insightsCmd = &cobra.Command{
	Use:   "insights <owner/repo>",
	Short: "Run an AI analysis of repository activity",
	Long: `Compute productivity metrics for the window and run them through an
AI prompt. Use --question for a free-form answer instead of the
structured analysis.

Requires an OpenAI-compatible API key (OPENAI_API_KEY).`,
	Args: cobra.ExactArgs(1),
	RunE: runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)

	registerPeriodFlags(insightsCmd)
	insightsCmd.Flags().String("prompt", "productivity-analysis", "Prompt slug: productivity-analysis, trend-analysis, anomaly-detection")
	insightsCmd.Flags().String("question", "", "Ask a free-form question about the activity instead")
	insightsCmd.Flags().String("output-format", string(output.FormatText), "Output format: text, json, markdown")
	insightsCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	insightsCmd.Flags().String("out-dir", "", "Write output to a directory with a generated file name")
}

func runInsights(cmd *cobra.Command, args []string) error {
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

	question, err := cmd.Flags().GetString("question")
	if err != nil {
		return err
	}
	if req.PromptSlug, err = cmd.Flags().GetString("prompt"); err != nil {
		return err
	}

	svc, err := buildService(config.GetConfig(), db)
	if err != nil {
		return err
	}
	if svc.Analyzer == nil {
		return errors.New("insights are not configured; set an API key to enable them")
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	sink, err := resolveSink(cmd, req, format)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	if strings.TrimSpace(question) != "" {
		answer, err := svc.Ask(ctx, req, question)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(sink.writer, answer)
		return err
	}

	req.WithInsights = true
	doc, err := svc.BuildReport(ctx, req)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(doc.Insights, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(sink.writer, string(payload))
		return err
	}

	rendered, err := output.NewFormatter(format).FormatReport(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(sink.writer, rendered)
	return err
}

func resolveSink(cmd *cobra.Command, req service.Request, format output.Format) (*outputSink, error) {
	outPath, outDir, err := resolveOutputTargets(cmd)
	if err != nil {
		return nil, err
	}
	if outDir != "" {
		outDir, err = ensureOutDir(outDir)
		if err != nil {
			return nil, err
		}
		outPath = filepath.Join(outDir, output.ExportFilename("insights", req.Repo, req.Period, format))
	}
	return openSink(outPath)
}
