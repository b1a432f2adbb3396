package insight

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity grades an anomaly.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Anomaly describes a metric value that deviates from its expected range.
type Anomaly struct {
	Metric   string   `json:"metric"`
	Severity Severity `json:"severity"`
	Expected string   `json:"expected"`
	Actual   string   `json:"actual"`
}

// AnalysisReport is the structured result of an insight request.
type AnalysisReport struct {
	Summary         string    `json:"summary"`
	KeyInsights     []string  `json:"key_insights"`
	Recommendations []string  `json:"recommendations"`
	Anomalies       []Anomaly `json:"anomalies"`
	Confidence      float64   `json:"confidence"`
	Model           string    `json:"model,omitempty"`
	Cached          bool      `json:"cached,omitempty"`
}

// parseReport decodes a model response into an AnalysisReport. Models
// sometimes wrap JSON in markdown fences; those are stripped first.
func parseReport(raw string) (*AnalysisReport, error) {
	cleaned := stripCodeFence(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var report AnalysisReport
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return nil, fmt.Errorf("decode analysis report: %w", err)
	}
	if strings.TrimSpace(report.Summary) == "" {
		return nil, fmt.Errorf("analysis report missing summary")
	}

	normalizeReport(&report)
	return &report, nil
}

func normalizeReport(report *AnalysisReport) {
	if report.Confidence < 0 {
		report.Confidence = 0
	}
	if report.Confidence > 1 {
		report.Confidence = 1
	}
	for i, anomaly := range report.Anomalies {
		switch Severity(strings.ToUpper(string(anomaly.Severity))) {
		case SeverityLow, SeverityMedium, SeverityHigh:
			report.Anomalies[i].Severity = Severity(strings.ToUpper(string(anomaly.Severity)))
		default:
			report.Anomalies[i].Severity = SeverityLow
		}
	}
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
