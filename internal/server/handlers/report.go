package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/core"
	"github.com/devpulse/devpulse/internal/core/service"
	"github.com/devpulse/devpulse/internal/core/stats"
	apperrors "github.com/devpulse/devpulse/internal/errors"
	"github.com/devpulse/devpulse/internal/output"
)

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 365
)

var reportService *service.Service

// SetService injects the report service used by the API handlers.
func SetService(svc *service.Service) {
	reportService = svc
}

// parseReportQuery turns request query parameters into a service
// request. Accepts either days=N or an explicit from/to date pair.
func parseReportQuery(r *http.Request) (service.Request, error) {
	var req service.Request

	repoParam := strings.TrimSpace(r.URL.Query().Get("repo"))
	if repoParam == "" {
		return req, apperrors.NewInvalidInputError("repo parameter is required, e.g. repo=owner/name")
	}
	repo, err := core.ParseRepo(repoParam)
	if err != nil {
		return req, apperrors.WrapInvalidInput(r.Context(), err, "invalid repo parameter")
	}
	req.Repo = repo

	period, err := parsePeriod(r)
	if err != nil {
		return req, err
	}
	req.Period = period

	req.Author = strings.TrimSpace(r.URL.Query().Get("author"))

	bucket, err := stats.ParseBucket(r.URL.Query().Get("bucket"))
	if err != nil {
		return req, apperrors.WrapInvalidInput(r.Context(), err, "invalid bucket parameter")
	}
	req.Bucket = bucket

	req.WithInsights = parseBool(r.URL.Query().Get("insights"))
	req.PromptSlug = strings.TrimSpace(r.URL.Query().Get("prompt"))

	return req, nil
}

func parsePeriod(r *http.Request) (core.Period, error) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))

	if from != "" || to != "" {
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			return core.Period{}, apperrors.NewInvalidInputError("from must be a YYYY-MM-DD date")
		}
		end := time.Now().UTC()
		if to != "" {
			end, err = time.Parse("2006-01-02", to)
			if err != nil {
				return core.Period{}, apperrors.NewInvalidInputError("to must be a YYYY-MM-DD date")
			}
			// Inclusive end date.
			end = end.Add(24*time.Hour - time.Second)
		}
		if !end.After(start) {
			return core.Period{}, apperrors.NewInvalidInputError("to must be after from")
		}
		return core.Period{Start: start.UTC(), End: end.UTC()}, nil
	}

	days := defaultPeriodDays
	if raw := strings.TrimSpace(query.Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return core.Period{}, apperrors.NewInvalidInputError("days must be a positive integer")
		}
		days = parsed
	}
	if days > maxPeriodDays {
		return core.Period{}, apperrors.NewInvalidInputError("days must be at most 365")
	}

	return core.PeriodEnding(time.Now().UTC(), time.Duration(days)*24*time.Hour), nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func serviceReady(w http.ResponseWriter, r *http.Request) bool {
	if reportService == nil {
		respondWithError(w, r, apperrors.NewInternalError("report service not initialized"))
		return false
	}
	return true
}

// ReportHandler serves GET /api/v1/report.
func ReportHandler(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w, r) {
		return
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

	writeDocument(w, r, doc, output.FormatJSON)
}

// writeDocument renders the document in the requested format and writes
// it with the matching content type.
func writeDocument(w http.ResponseWriter, r *http.Request, doc *output.Document, fallback output.Format) {
	format := fallback
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := output.ParseFormat(raw)
		if err != nil {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid format parameter"))
			return
		}
		format = parsed
	}

	rendered, err := output.NewFormatter(format).FormatReport(doc)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to render report"))
		return
	}

	w.Header().Set("Content-Type", output.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rendered))
}
