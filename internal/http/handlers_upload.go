package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"camate/internal/blob"
	"camate/internal/storage"
	"camate/internal/workbook"
)

type uploadResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Sheet      string `json:"sheet,omitempty"`
	StorageKey string `json:"storage_key"`
	Status     string `json:"status"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadURL  string `json:"upload_url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func uploadToResponse(u storage.Upload) uploadResponse {
	resp := uploadResponse{
		ID:         u.ID,
		Filename:   u.Filename,
		Sheet:      u.Sheet,
		StorageKey: u.StorageKey,
		Status:     u.Status,
		SizeBytes:  u.SizeBytes,
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	if u.Status == storage.UploadPending {
		resp.UploadURL = "/api/uploads/" + u.ID + "/content"
	}
	return resp
}

// handleCreateUpload registers an upload slot. The caller then PUTs the
// file bytes to the returned upload URL.
func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
		Sheet    string `json:"sheet"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: %v", err)
		return
	}

	req.Filename = strings.TrimSpace(req.Filename)
	if req.Filename == "" {
		writeError(w, http.StatusUnprocessableEntity, "filename is required")
		return
	}
	req.Sheet = strings.TrimSpace(req.Sheet)
	if req.Sheet != "" && !workbook.ValidSheet(req.Sheet) {
		writeError(w, http.StatusUnprocessableEntity, "unknown sheet %q", req.Sheet)
		return
	}
	if req.Sheet == "" {
		// An upload with no recognizable target would be skipped at
		// assembly, so reject it up front.
		if _, ok := workbook.DetectSheet(req.Filename); !ok {
			writeError(w, http.StatusUnprocessableEntity,
				"cannot detect a sheet from %q, set sheet explicitly", req.Filename)
			return
		}
	}

	u := storage.Upload{
		ID:         uuid.NewString(),
		Filename:   req.Filename,
		Sheet:      req.Sheet,
		StorageKey: blob.UploadKey(req.Filename),
		Status:     storage.UploadPending,
	}
	if err := s.repo.CreateUpload(r.Context(), u); err != nil {
		slog.ErrorContext(r.Context(), "Failed to register upload",
			"filename", req.Filename,
			"error", err)
		writeError(w, http.StatusInternalServerError, "register upload")
		return
	}

	slog.InfoContext(r.Context(), "Upload registered",
		"upload_id", u.ID,
		"filename", u.Filename,
		"sheet", u.Sheet,
		"storage_key", u.StorageKey)

	writeJSON(w, http.StatusCreated, uploadToResponse(u))
}

// handleUploadContent receives the file bytes for a registered upload
// and confirms it.
func (s *Server) handleUploadContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	u, err := s.repo.GetUpload(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "upload %s not found", id)
			return
		}
		writeError(w, http.StatusInternalServerError, "load upload")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "read body: %v", err)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "empty file")
		return
	}

	if err := s.blobs.Put(u.StorageKey, data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to store upload",
			"upload_id", id,
			"storage_key", u.StorageKey,
			"error", err)
		writeError(w, http.StatusInternalServerError, "store upload")
		return
	}
	if err := s.repo.MarkUploadReceived(r.Context(), id, int64(len(data))); err != nil {
		writeError(w, http.StatusInternalServerError, "confirm upload")
		return
	}

	slog.InfoContext(r.Context(), "Upload received",
		"upload_id", id,
		"size_bytes", len(data))

	u.Status = storage.UploadReceived
	u.SizeBytes = int64(len(data))
	writeJSON(w, http.StatusOK, uploadToResponse(*u))
}

// handleSetUploadSheet overrides the sheet an upload is routed to.
func (s *Server) handleSetUploadSheet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Sheet string `json:"sheet"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: %v", err)
		return
	}
	req.Sheet = strings.TrimSpace(req.Sheet)
	if !workbook.ValidSheet(req.Sheet) {
		writeError(w, http.StatusUnprocessableEntity, "unknown sheet %q", req.Sheet)
		return
	}

	if err := s.repo.SetUploadSheet(r.Context(), id, req.Sheet); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "upload %s not found", id)
			return
		}
		writeError(w, http.StatusInternalServerError, "update upload")
		return
	}

	u, err := s.repo.GetUpload(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load upload")
		return
	}
	writeJSON(w, http.StatusOK, uploadToResponse(*u))
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.repo.ListUploads(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list uploads")
		return
	}
	out := make([]uploadResponse, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, uploadToResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": out})
}
