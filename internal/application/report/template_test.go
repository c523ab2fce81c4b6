package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riskapp "github.com/stocksense/backend/internal/application/risk"
)

func TestRenderReportHTML(t *testing.T) {
	t.Run("full dashboard", func(t *testing.T) {
		html, err := renderReportHTML(sampleDashboard())

		require.NoError(t, err)
		assert.Contains(t, html, "<!DOCTYPE html>")
		assert.Contains(t, html, "Generated 2026-08-29 06:30 UTC")
		assert.Contains(t, html, "7 (16.7%)")
		assert.Contains(t, html, "0.413")
		assert.Contains(t, html, "$15230.55")
		assert.Contains(t, html, "WIDGET-01")
		assert.Contains(t, html, `class="band band-high"`)
		assert.Contains(t, html, "v3-random_forest")
		assert.Contains(t, html, "Stockout predicted within lead time")
	})

	t.Run("empty dashboard shows placeholders", func(t *testing.T) {
		html, err := renderReportHTML(&riskapp.DashboardResponse{
			GeneratedAt: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Contains(t, html, "No assessments recorded yet.")
		assert.Contains(t, html, "No category data available.")
		assert.Contains(t, html, "No active alerts.")
	})

	t.Run("escapes html in alert messages", func(t *testing.T) {
		data := sampleDashboard()
		data.Alerts[0].Message = `<script>alert("x")</script>`

		html, err := renderReportHTML(data)

		require.NoError(t, err)
		assert.NotContains(t, html, `<script>alert`)
		assert.Contains(t, html, "&lt;script&gt;")
	})
}

func TestBandClass(t *testing.T) {
	assert.Equal(t, "band-high", bandClass("high"))
	assert.Equal(t, "band-medium", bandClass("medium"))
	assert.Equal(t, "band-low", bandClass("low"))
	assert.Equal(t, "band-low", bandClass("unknown"))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "0.500", formatScore(0.5))
	assert.Equal(t, "12.3%", formatPercent(12.34))
	assert.Equal(t, "$99.90", formatMoney(99.9))
	assert.Equal(t, "2026-08-29", formatDate(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "", formatDateTime(time.Time{}))
}
