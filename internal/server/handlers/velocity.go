package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/devpulse/devpulse/internal/core"
	"github.com/devpulse/devpulse/internal/core/stats"
	apperrors "github.com/devpulse/devpulse/internal/errors"
)

// VelocityResponse is the payload for GET /api/v1/velocity.
type VelocityResponse struct {
	Repo     core.Repo             `json:"repo"`
	Period   core.Period           `json:"period"`
	Bucket   stats.Bucket          `json:"bucket"`
	Velocity []stats.VelocityPoint `json:"velocity"`
}

// VelocityHandler serves GET /api/v1/velocity.
func VelocityHandler(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w, r) {
		return
	}

	req, err := parseReportQuery(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	req.WithInsights = false

	doc, err := reportService.BuildReport(r.Context(), req)
	if err != nil {
		respondWithError(w, r, apperrors.FromFetch(r.Context(), err))
		return
	}

	bucket := req.Bucket
	if bucket == "" {
		bucket = stats.BucketWeekly
	}

	response := VelocityResponse{
		Repo:     req.Repo,
		Period:   doc.Report.Metrics.Period,
		Bucket:   bucket,
		Velocity: doc.Report.Metrics.Velocity,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
