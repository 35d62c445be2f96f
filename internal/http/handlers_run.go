package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"camate/internal/blob"
	"camate/internal/gstr"
	"camate/internal/portal"
	"camate/internal/storage"
	"camate/internal/verify"
	"camate/internal/workbook"
)

// periodPattern is the filing period in MMYYYY form.
var periodPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])\d{4}$`)

type runResponse struct {
	ID             string            `json:"id"`
	GSTIN          string            `json:"gstin,omitempty"`
	Period         string            `json:"period,omitempty"`
	StorageKey     string            `json:"storage_key"`
	Status         string            `json:"status"`
	TotalChecked   int               `json:"total_checked"`
	TotalInvalid   int               `json:"total_invalid"`
	TotalMoved     int               `json:"total_moved"`
	CorrectedURL   string            `json:"corrected_url,omitempty"`
	ErrorReportURL string            `json:"error_report_url,omitempty"`
	DashboardURL   string            `json:"dashboard_url,omitempty"`
	PortalURL      string            `json:"portal_url,omitempty"`
	Summary        *summaryResponse  `json:"summary,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	CreatedAt      string            `json:"created_at,omitempty"`
}

func (s *Server) runToResponse(run storage.Run) runResponse {
	resp := runResponse{
		ID:           run.ID,
		GSTIN:        run.GSTIN,
		Period:       run.Period,
		StorageKey:   run.StorageKey,
		Status:       run.Status,
		TotalChecked: run.TotalChecked,
		TotalInvalid: run.TotalInvalid,
		TotalMoved:   run.TotalMoved,
		ErrorMessage: run.ErrorMessage,
	}
	if !run.CreatedAt.IsZero() {
		resp.CreatedAt = run.CreatedAt.UTC().Format(time.RFC3339)
	}
	if run.CorrectedKey != "" {
		resp.CorrectedURL = s.blobs.DownloadURL(run.CorrectedKey)
	}
	if run.ErrorReportKey != "" {
		resp.ErrorReportURL = s.blobs.DownloadURL(run.ErrorReportKey)
	}
	if run.Status == storage.RunCompleted {
		resp.DashboardURL = "/runs/" + run.ID + "/dashboard"
		resp.PortalURL = "/api/runs/" + run.ID + "/portal.json"
		if raw := decodeDashboard(run.DashboardJSON); raw != nil {
			sum := gstr.Summarize(raw)
			resp.Summary = &summaryResponse{Summary: sum, Formatted: formatSummary(sum)}
		}
	}
	return resp
}

func decodeDashboard(dashboardJSON string) gstr.RawReturn {
	if dashboardJSON == "" {
		return nil
	}
	var raw gstr.RawReturn
	if err := json.Unmarshal([]byte(dashboardJSON), &raw); err != nil {
		slog.Error("Failed to decode stored dashboard", "error", err)
		return nil
	}
	return raw
}

// assembleWorkbook builds the filing workbook from all received uploads
// and stores it, returning the storage key and sheet count.
func (s *Server) assembleWorkbook(r *http.Request) (string, int, error) {
	uploads, err := s.repo.ReceivedUploads(r.Context())
	if err != nil {
		return "", 0, err
	}
	if len(uploads) == 0 {
		return "", 0, errNoUploads
	}

	files := make([]workbook.CSVFile, 0, len(uploads))
	for _, u := range uploads {
		data, err := s.blobs.Get(u.StorageKey)
		if err != nil {
			return "", 0, err
		}
		files = append(files, workbook.CSVFile{Name: u.Filename, Sheet: u.Sheet, Content: data})
	}

	built, processed, err := workbook.Build(files)
	if err != nil {
		return "", 0, err
	}

	key := blob.WorkbookKey()
	if err := s.blobs.Put(key, built); err != nil {
		return "", 0, err
	}
	return key, processed, nil
}

var errNoUploads = errors.New("no received uploads to assemble")

// handleBuildWorkbook assembles the received uploads into one workbook.
func (s *Server) handleBuildWorkbook(w http.ResponseWriter, r *http.Request) {
	key, processed, err := s.assembleWorkbook(r)
	if err != nil {
		if errors.Is(err, errNoUploads) {
			writeError(w, http.StatusUnprocessableEntity, "no received uploads to assemble")
			return
		}
		slog.ErrorContext(r.Context(), "Workbook assembly failed", "error", err)
		writeError(w, http.StatusInternalServerError, "assemble workbook: %v", err)
		return
	}

	slog.InfoContext(r.Context(), "Workbook assembled",
		"storage_key", key,
		"sheets_filled", processed)

	writeJSON(w, http.StatusCreated, map[string]any{
		"storage_key":   key,
		"download_url":  s.blobs.DownloadURL(key),
		"sheets_filled": processed,
	})
}

// handleCreateRun queues a verification run. Without a workbook key it
// assembles one from the received uploads first.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GSTIN       string `json:"gstin"`
		Period      string `json:"period"`
		WorkbookKey string `json:"workbook_key"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: %v", err)
		return
	}

	gstin := verify.NormalizeGSTIN(req.GSTIN)
	if !verify.ValidGSTIN(gstin) {
		writeError(w, http.StatusUnprocessableEntity, "invalid GSTIN %q", req.GSTIN)
		return
	}
	period := strings.TrimSpace(req.Period)
	if !periodPattern.MatchString(period) {
		writeError(w, http.StatusUnprocessableEntity, "invalid period %q, want MMYYYY", req.Period)
		return
	}

	key := strings.TrimSpace(req.WorkbookKey)
	if key == "" {
		assembled, _, err := s.assembleWorkbook(r)
		if err != nil {
			if errors.Is(err, errNoUploads) {
				writeError(w, http.StatusUnprocessableEntity,
					"no workbook key given and no received uploads to assemble")
				return
			}
			slog.ErrorContext(r.Context(), "Workbook assembly failed", "error", err)
			writeError(w, http.StatusInternalServerError, "assemble workbook: %v", err)
			return
		}
		key = assembled
	} else if !s.blobs.Exists(key) {
		writeError(w, http.StatusUnprocessableEntity, "workbook %q not found", key)
		return
	}

	run := storage.Run{
		ID:         uuid.NewString(),
		GSTIN:      gstin,
		Period:     period,
		StorageKey: key,
		Status:     storage.RunQueued,
	}
	if err := s.repo.CreateRun(r.Context(), run); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create run", "error", err)
		writeError(w, http.StatusInternalServerError, "create run")
		return
	}

	// A failed publish leaves the run queued for the worker's poll.
	if s.queue != nil {
		if err := s.queue.PublishRun(r.Context(), run.ID, run.GSTIN, run.Period); err != nil {
			slog.WarnContext(r.Context(), "Failed to publish run, poller will pick it up",
				"run_id", run.ID,
				"error", err)
		}
	}

	slog.InfoContext(r.Context(), "Run queued",
		"run_id", run.ID,
		"gstin", run.GSTIN,
		"period", run.Period,
		"storage_key", run.StorageKey)

	writeJSON(w, http.StatusAccepted, s.runToResponse(run))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run %s not found", id)
			return
		}
		writeError(w, http.StatusInternalServerError, "load run")
		return
	}
	writeJSON(w, http.StatusOK, s.runToResponse(*run))
}

// handleRunPortal renders the corrected workbook of a completed run as
// portal upload JSON.
func (s *Server) handleRunPortal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run %s not found", id)
			return
		}
		writeError(w, http.StatusInternalServerError, "load run")
		return
	}
	if run.Status != storage.RunCompleted {
		writeError(w, http.StatusConflict, "run %s is %s, portal JSON needs a completed run", id, run.Status)
		return
	}

	data, err := s.blobs.Get(run.CorrectedKey)
	if err != nil {
		slog.ErrorContext(r.Context(), "Corrected workbook missing",
			"run_id", id,
			"storage_key", run.CorrectedKey,
			"error", err)
		writeError(w, http.StatusInternalServerError, "load corrected workbook")
		return
	}

	ret, err := portal.Generate(data, run.GSTIN, run.Period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Portal JSON generation failed",
			"run_id", id,
			"error", err)
		writeError(w, http.StatusInternalServerError, "generate portal JSON")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="gstr1_portal.json"`)
	writeJSON(w, http.StatusOK, ret)
}

// handleDownload serves a stored object by its storage key.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	data, err := s.blobs.Get(key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidKey) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusInternalServerError, "read object")
		return
	}

	switch {
	case strings.HasSuffix(key, ".xlsx"):
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	case strings.HasSuffix(key, ".csv"):
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case strings.HasSuffix(key, ".json"):
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+lastSegment(key)+`"`)
	_, _ = w.Write(data)
}

func lastSegment(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}
