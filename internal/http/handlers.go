package http

import (
	"log/slog"
	"net/http"
	"time"

	"camate/internal/gstr"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.repo == nil {
		checks["storage"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if _, err := s.repo.ListUploads(r.Context()); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	if s.blobs == nil {
		checks["blobs"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["blobs"] = "ok"
	}

	if s.queue == nil {
		checks["queue"] = "not_configured"
	} else {
		checks["queue"] = "ok"
	}

	checks["dashboard_cache_entries"] = s.dashCache.Size()
	checks["rate_limited_clients"] = s.limiter.ActiveClients()
	checks["requests_served"] = s.tracer.GetMetrics().TotalRequests
	checks["suspicious_requests"] = s.detector.GetMetrics().SuspiciousRequests

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleSummary aggregates a raw return record posted as JSON. Missing
// or malformed fields count as zero, so any record shape is accepted.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var raw gstr.RawReturn
	if err := readJSON(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record: %v", err)
		return
	}

	summary := gstr.Summarize(raw)

	slog.InfoContext(r.Context(), "Summarized raw return",
		"fields", len(raw),
		"taxable", summary.Aggregate.Taxable.String(),
		"total_tax", summary.TotalTax.String())

	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:   summary,
		Formatted: formatSummary(summary),
	})
}

type summaryResponse struct {
	Summary   gstr.Summary      `json:"summary"`
	Formatted map[string]string `json:"formatted"`
}

func formatSummary(sum gstr.Summary) map[string]string {
	return map[string]string{
		"taxable":               gstr.FormatINR(sum.Aggregate.Taxable),
		"cgst":                  gstr.FormatINR(sum.Aggregate.CGST),
		"sgst":                  gstr.FormatINR(sum.Aggregate.SGST),
		"igst":                  gstr.FormatINR(sum.Aggregate.IGST),
		"cess":                  gstr.FormatINR(sum.Aggregate.Cess),
		"total_tax":             gstr.FormatINR(sum.TotalTax),
		"total_invoice":         gstr.FormatINR(sum.TotalInvoice),
		"credit_note_row_total": gstr.FormatINR(sum.CreditNoteRowTotal),
	}
}
