package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/lexforge/manualqa/internal/pagesource"
)

// handleParse extracts section structure synchronously and returns it
// as JSON keyed by section id. No LLM calls are made.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	data, filename, prefix, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	src, err := pagesource.ForReader(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	sections, err := s.orchestrator.Parser().Parse(src, prefix)
	if err != nil {
		s.log.Error("parse failed", "filename", filename, "error", err)
		jsonError(w, "parse failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename": filename,
		"count":    len(sections),
		"sections": sections,
	})
}
