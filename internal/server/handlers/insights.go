package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/devpulse/devpulse/internal/core"
	apperrors "github.com/devpulse/devpulse/internal/errors"
	"github.com/devpulse/devpulse/internal/insight"
)

// InsightsResponse is the payload for GET /api/v1/insights.
type InsightsResponse struct {
	Repo     core.Repo               `json:"repo"`
	Period   core.Period             `json:"period"`
	Prompt   string                  `json:"prompt,omitempty"`
	Insights *insight.AnalysisReport `json:"insights,omitempty"`
	Answer   string                  `json:"answer,omitempty"`
}

// InsightsHandler serves GET /api/v1/insights. A question parameter
// switches to free-form Q&A over the report; otherwise the structured
// analysis for the requested prompt is returned.
func InsightsHandler(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w, r) {
		return
	}

	req, err := parseReportQuery(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	response := InsightsResponse{Repo: req.Repo, Period: req.Period}

	if question := strings.TrimSpace(r.URL.Query().Get("question")); question != "" {
		answer, err := reportService.Ask(r.Context(), req, question)
		if err != nil {
			respondWithError(w, r, apperrors.FromFetch(r.Context(), err))
			return
		}
		response.Answer = answer
	} else {
		req.WithInsights = true
		doc, err := reportService.BuildReport(r.Context(), req)
		if err != nil {
			respondWithError(w, r, apperrors.FromFetch(r.Context(), err))
			return
		}
		response.Prompt = req.PromptSlug
		if response.Prompt == "" {
			response.Prompt = "productivity-analysis"
		}
		response.Insights = doc.Insights
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
