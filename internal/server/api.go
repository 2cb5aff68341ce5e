package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"pixgenie/internal/keywords"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleExtractKeywords(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContentBytes)

	var req keywords.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "content is required"})
		return
	}

	list, err := s.extractor.ExtractKeywords(r.Context(), req.Content, s.keywordCount)
	if err != nil {
		slog.Error("Keyword extraction failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "LLM API error: " + err.Error()})
		return
	}

	resp, err := keywords.Encode(list)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}

	slog.Info("Extracted keywords", "count", len(list))
	writeJSON(w, http.StatusOK, resp)
}
