package handlers

import (
	"html/template"
	"net/http"
	"strings"

	apperrors "github.com/devpulse/devpulse/internal/errors"
	"github.com/devpulse/devpulse/internal/output"
)

// DashboardHandler serves GET /. Without a repo parameter it renders
// the query form; with one it renders the full report page from the
// same formatter the export path uses.
func DashboardHandler(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.URL.Query().Get("repo")) == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = dashboardFormTemplate.Execute(w, nil)
		return
	}

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

	writeDocument(w, r, doc, output.FormatHTML)
}

var dashboardFormTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>devpulse</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 4rem auto; max-width: 32rem; color: #1f2328; }
h1 { font-size: 1.5rem; }
label { display: block; margin-top: 1rem; font-weight: 600; }
input, select { width: 100%; padding: 0.4rem; margin-top: 0.25rem; box-sizing: border-box; }
button { margin-top: 1.5rem; padding: 0.5rem 1.5rem; background: #1f883d; color: #fff; border: none; border-radius: 6px; cursor: pointer; }
.hint { color: #57606a; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>devpulse</h1>
<p class="hint">Repository activity and productivity report.</p>
<form method="get" action="/">
<label>Repository
<input name="repo" placeholder="owner/name" required>
</label>
<label>Days
<input name="days" type="number" value="30" min="1" max="365">
</label>
<label>Author <span class="hint">(optional)</span>
<input name="author" placeholder="login">
</label>
<label>Velocity bucket
<select name="bucket">
<option value="daily">daily</option>
<option value="weekly" selected>weekly</option>
<option value="monthly">monthly</option>
<option value="quarterly">quarterly</option>
</select>
</label>
<label><input type="checkbox" name="insights" value="true" style="width:auto"> Include AI insights</label>
<button type="submit">Generate report</button>
</form>
</body>
</html>
`))
