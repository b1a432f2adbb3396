package handlers

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/devpulse/devpulse/internal/errors"
	"github.com/devpulse/devpulse/internal/output"
)

// ExportHandler serves GET /api/v1/export. The type parameter selects
// the export body: "report" for the full metrics document, "velocity"
// for the bucketed time series only. The response is sent as an
// attachment with a deterministic filename.
func ExportHandler(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w, r) {
		return
	}

	kind := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type")))
	if kind == "" {
		kind = "report"
	}
	if kind != "report" && kind != "velocity" {
		respondWithError(w, r, apperrors.NewInvalidInputError("type must be report or velocity"))
		return
	}

	format := output.FormatCSV
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := output.ParseFormat(raw)
		if err != nil {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid format parameter"))
			return
		}
		format = parsed
	}

	req, err := parseReportQuery(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	doc, err := reportService.BuildReport(r.Context(), req)
	if err != nil {
		respondWithError(w, r, apperrors.FromFetch(r.Context(), err))
		return
	}

	if kind == "report" {
		// A report export renders the summary; drop the series so the
		// CSV formatter picks the metric rows.
		doc.Report.Metrics.Velocity = nil
	}

	rendered, err := output.NewFormatter(format).FormatReport(doc)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to render export"))
		return
	}

	filename := output.ExportFilename(kind, req.Repo, doc.Report.Metrics.Period, format)
	w.Header().Set("Content-Type", output.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rendered))
}
