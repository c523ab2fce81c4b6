package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	riskapp "github.com/stocksense/backend/internal/application/risk"
)

// riskReportHTML renders the dashboard payload as a printable document.
// Styling is inline so the page is self-contained for PDF rendering.
const riskReportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Stockout Risk Report</title>
<style>
  body { font-family: 'Helvetica Neue', Arial, sans-serif; color: #1f2933; margin: 0; font-size: 12px; }
  h1 { font-size: 22px; margin: 0 0 4px 0; }
  h2 { font-size: 14px; margin: 24px 0 8px 0; border-bottom: 1px solid #cbd2d9; padding-bottom: 4px; }
  .meta { color: #616e7c; font-size: 11px; margin-bottom: 20px; }
  .summary { display: flex; gap: 12px; }
  .card { flex: 1; border: 1px solid #cbd2d9; border-radius: 4px; padding: 10px 12px; }
  .card .label { color: #616e7c; font-size: 10px; text-transform: uppercase; letter-spacing: 0.05em; }
  .card .value { font-size: 20px; font-weight: 600; margin-top: 4px; }
  table { width: 100%; border-collapse: collapse; margin-top: 8px; }
  th { text-align: left; font-size: 10px; text-transform: uppercase; color: #616e7c; border-bottom: 2px solid #cbd2d9; padding: 6px 8px; }
  td { padding: 6px 8px; border-bottom: 1px solid #e4e7eb; }
  .num { text-align: right; }
  .band { display: inline-block; padding: 2px 8px; border-radius: 10px; font-size: 10px; font-weight: 600; text-transform: uppercase; }
  .band-high { background: #fde2e2; color: #ba2525; }
  .band-medium { background: #fff3c4; color: #8d6708; }
  .band-low { background: #e3f9e5; color: #207227; }
  .empty { color: #616e7c; font-style: italic; padding: 12px 0; }
</style>
</head>
<body>
<h1>Stockout Risk Report</h1>
<div class="meta">Generated {{formatDateTime .GeneratedAt}} &middot; model assessments across {{.Summary.TotalProducts}} products</div>

<div class="summary">
  <div class="card">
    <div class="label">Products assessed</div>
    <div class="value">{{.Summary.TotalProducts}}</div>
  </div>
  <div class="card">
    <div class="label">High risk</div>
    <div class="value">{{.Summary.HighRiskProducts}} ({{formatPercent .Summary.RiskPercentage}})</div>
  </div>
  <div class="card">
    <div class="label">Average score</div>
    <div class="value">{{formatScore .Summary.AverageScore}}</div>
  </div>
  <div class="card">
    <div class="label">Potential lost sales</div>
    <div class="value">{{formatMoney .PotentialLostSales}}</div>
  </div>
</div>

<h2>Risk Distribution</h2>
<table>
  <tr><th>Band</th><th class="num">Products</th></tr>
  <tr><td><span class="band band-low">low</span></td><td class="num">{{.RiskDistribution.Low}}</td></tr>
  <tr><td><span class="band band-medium">medium</span></td><td class="num">{{.RiskDistribution.Medium}}</td></tr>
  <tr><td><span class="band band-high">high</span></td><td class="num">{{.RiskDistribution.High}}</td></tr>
</table>

<h2>Top Risk Products</h2>
{{if .TopRiskProducts}}
<table>
  <tr><th>Product</th><th class="num">Score</th><th>Band</th><th>Model</th><th>Assessed</th></tr>
  {{range .TopRiskProducts}}
  <tr>
    <td>{{.ProductCode}}</td>
    <td class="num">{{formatScore .Score}}</td>
    <td><span class="band {{bandClass .Band}}">{{.Band}}</span></td>
    <td>{{.ModelVersion}}</td>
    <td>{{formatDate .CreatedAt}}</td>
  </tr>
  {{end}}
</table>
{{else}}
<div class="empty">No assessments recorded yet.</div>
{{end}}

<h2>Category Analysis</h2>
{{if .CategoryAnalysis}}
<table>
  <tr><th>Category</th><th class="num">Mean score</th><th class="num">High risk</th><th class="num">Products</th></tr>
  {{range .CategoryAnalysis}}
  <tr>
    <td>{{.Category}}</td>
    <td class="num">{{formatScore .MeanScore}}</td>
    <td class="num">{{.HighRiskCount}}</td>
    <td class="num">{{.ProductCount}}</td>
  </tr>
  {{end}}
</table>
{{else}}
<div class="empty">No category data available.</div>
{{end}}

<h2>Active Alerts</h2>
{{if .Alerts}}
<table>
  <tr><th>Product</th><th>Type</th><th>Priority</th><th>Message</th><th>Raised</th></tr>
  {{range .Alerts}}
  <tr>
    <td>{{.ProductCode}}</td>
    <td>{{.Type}}</td>
    <td>{{.Priority}}</td>
    <td>{{.Message}}</td>
    <td>{{formatDate .CreatedAt}}</td>
  </tr>
  {{end}}
</table>
{{else}}
<div class="empty">No active alerts.</div>
{{end}}
</body>
</html>`

// reportFuncMap supplies the formatting helpers used by the report template
var reportFuncMap = template.FuncMap{
	"formatScore":    formatScore,
	"formatPercent":  formatPercent,
	"formatMoney":    formatMoney,
	"formatDate":     formatDate,
	"formatDateTime": formatDateTime,
	"bandClass":      bandClass,
}

var reportTemplate = template.Must(template.New("risk_report").Funcs(reportFuncMap).Parse(riskReportHTML))

// renderReportHTML renders the dashboard payload into the report document
func renderReportHTML(data *riskapp.DashboardResponse) (string, error) {
	var buf strings.Builder
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render risk report template: %w", err)
	}
	return buf.String(), nil
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}

func bandClass(band string) string {
	switch band {
	case "high":
		return "band-high"
	case "medium":
		return "band-medium"
	default:
		return "band-low"
	}
}
