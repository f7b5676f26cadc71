package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lexforge/manualqa/internal/pagesource"
	"github.com/lexforge/manualqa/internal/pipeline"
)

// readUpload pulls the document and optional section prefix out of a
// multipart request. On failure it writes the error response and
// returns ok false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename, prefix string, ok bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, "", "", false
	}
	defer file.Close()

	filename = sanitizeFilename(header.Filename)
	if !pagesource.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, "", "", false
	}

	data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, "", "", false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, "", "", false
	}

	return data, filename, r.FormValue("section_prefix"), true
}

// handlePipeline queues a full run: parse, rule extraction, question
// generation, validation, CSV export.
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	data, filename, prefix, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:          pipeline.NewID(),
		DocID:       pipeline.ContentHashHex(data)[:16],
		Status:      pipeline.StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Prefix:      prefix,
		IgnoreCache: r.FormValue("ignore_cache") == "true",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/pipeline/%s/status", job.ID),
	})
}

func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

// handlePipelineExport serves the CSV artifact of a finished job.
func (s *Server) handlePipelineExport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	path := job.Artifact()
	if path == "" {
		snap := job.Snapshot()
		jsonError(w, fmt.Sprintf("export not ready, job status is %s", snap.Status), http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".csv"))
	http.ServeFile(w, r, path)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
