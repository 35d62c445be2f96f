package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"camate/internal/gstr"
	"camate/internal/storage"
)

type dashboardRow struct {
	Name    string
	Taxable string
	CGST    string
	SGST    string
	IGST    string
	Cess    string
	Total   string
}

func figuresToRow(name string, f gstr.Figures) dashboardRow {
	return dashboardRow{
		Name:    name,
		Taxable: gstr.FormatINR(f.Taxable),
		CGST:    gstr.FormatINR(f.CGST),
		SGST:    gstr.FormatINR(f.SGST),
		IGST:    gstr.FormatINR(f.IGST),
		Cess:    gstr.FormatINR(f.Cess),
		Total:   gstr.FormatINR(f.RowTotal()),
	}
}

// categoryLabels name the dashboard rows in display order.
var categoryLabels = []struct {
	Category gstr.Category
	Label    string
}{
	{gstr.B2B, "B2B Invoices"},
	{gstr.B2C, "B2C Supplies"},
	{gstr.CreditDebitNote, "Credit/Debit Notes"},
	{gstr.NilExempt, "Nil Rated / Exempt"},
	{gstr.Export, "Exports"},
}

// handleDashboard renders the dashboard page for a completed run.
// Completed runs are immutable, so the rendered page is cached.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if page, found := s.dashCache.Get(id); found {
		_, _ = w.Write([]byte(page))
		return
	}

	run, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "load run", http.StatusInternalServerError)
		return
	}
	if run.Status != storage.RunCompleted {
		http.Error(w, "run is "+run.Status+", dashboard needs a completed run", http.StatusConflict)
		return
	}
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	raw := decodeDashboard(run.DashboardJSON)
	sum := gstr.Summarize(raw)

	data := struct {
		RunID        string
		GSTIN        string
		Period       string
		TotalChecked int
		TotalInvalid int
		TotalMoved   int
		CreatedAt    string
		Rows         []dashboardRow
		Advances     dashboardRow
		Aggregate    dashboardRow
		TotalTax     string
		TotalInvoice string
		CreditNotes  string
		CorrectedURL string
		ErrorsURL    string
		PortalURL    string
	}{
		RunID:        run.ID,
		GSTIN:        run.GSTIN,
		Period:       run.Period,
		TotalChecked: run.TotalChecked,
		TotalInvalid: run.TotalInvalid,
		TotalMoved:   run.TotalMoved,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
		Advances:     figuresToRow("Advances (net)", sum.Advances),
		Aggregate:    figuresToRow("Aggregate", sum.Aggregate),
		TotalTax:     gstr.FormatINR(sum.TotalTax),
		TotalInvoice: gstr.FormatINR(sum.TotalInvoice),
		CreditNotes:  gstr.FormatINR(sum.CreditNoteRowTotal),
		PortalURL:    "/api/runs/" + run.ID + "/portal.json",
	}
	for _, cl := range categoryLabels {
		data.Rows = append(data.Rows, figuresToRow(cl.Label, sum.PerCategory[cl.Category]))
	}
	if run.CorrectedKey != "" {
		data.CorrectedURL = s.blobs.DownloadURL(run.CorrectedKey)
	}
	if run.ErrorReportKey != "" {
		data.ErrorsURL = s.blobs.DownloadURL(run.ErrorReportKey)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed",
			"run_id", id,
			"error", err)
		http.Error(w, "render dashboard", http.StatusInternalServerError)
		return
	}

	s.dashCache.Set(id, buf.String())
	_, _ = w.Write(buf.Bytes())
}

// handleIndex renders the landing page with the registered uploads.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	uploads, err := s.repo.ListUploads(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list uploads", "error", err)
	}

	type uploadRow struct {
		ID       string
		Filename string
		Sheet    string
		Status   string
	}
	data := struct {
		Uploads []uploadRow
	}{}
	for _, u := range uploads {
		data.Uploads = append(data.Uploads, uploadRow{
			ID:       u.ID,
			Filename: u.Filename,
			Sheet:    u.Sheet,
			Status:   u.Status,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err)
		http.Error(w, "render index", http.StatusInternalServerError)
	}
}
