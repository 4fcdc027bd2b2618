package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// serviceName is the banner name reported on the root endpoint.
const serviceName = "Nyay Sahayak"

// queryRequest is the body of POST /api/v1/query.
type queryRequest struct {
	Query        string `json:"query"`
	City         string `json:"city,omitempty"`
	IncidentType string `json:"incident_type,omitempty"`
}

// emailFIRRequest is the body of POST /api/v1/send-fir-email.
type emailFIRRequest struct {
	Query        string `json:"query"`
	Email        string `json:"email"`
	UserName     string `json:"user_name,omitempty"`
	City         string `json:"city,omitempty"`
	IncidentType string `json:"incident_type,omitempty"`
}

// emailFIRResponse reports where the draft went.
type emailFIRResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	EmailSentTo string `json:"email_sent_to"`
}

// ingestResponse summarises a completed rebuild.
type ingestResponse struct {
	Message            string `json:"message"`
	Generation         uint64 `json:"generation"`
	DocumentsProcessed int    `json:"documents_processed"`
	ChunksCreated      int    `json:"chunks_created"`
}

// healthResponse is the health endpoint body.
type healthResponse struct {
	Status               string  `json:"status"`
	Version              string  `json:"version"`
	IndexLoaded          bool    `json:"index_loaded"`
	Generation           uint64  `json:"generation"`
	GenerationAgeSeconds float64 `json:"generation_age_seconds"`
	GeneratorConfigured  bool    `json:"generator_configured"`
}

// handleRoot returns the service banner.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    serviceName,
		"version": s.version,
		"status":  "running",
		"health":  "/api/v1/health",
	})
}

// handleVersion returns the build version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// handleHealth reports the serving state. The service is healthy once
// an index generation is published; it serves degraded before that and
// when no language model is configured.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.roadmapService.Health()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:               health.Status,
		Version:              health.Version,
		IndexLoaded:          health.IndexLoaded,
		Generation:           health.Generation,
		GenerationAgeSeconds: health.GenerationAge.Seconds(),
		GeneratorConfigured:  health.GeneratorConfigured,
	})
}

// handleQuery turns an incident description into a legal roadmap.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := domain.AnswerOptions{
		City:         req.City,
		IncidentType: req.IncidentType,
	}

	roadmap, err := s.roadmapService.Answer(r.Context(), req.Query, opts)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, roadmap)
}

// handleIngest rebuilds the index from the corpus directory and swaps
// the new generation in. Queries keep hitting the old generation until
// the swap.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	report, err := s.indexService.Rebuild(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Message:            "Index rebuilt successfully",
		Generation:         report.Generation,
		DocumentsProcessed: report.Documents,
		ChunksCreated:      report.Chunks,
	})
}

// handleSendFIREmail answers the query, renders the FIR draft and
// emails it to the given address.
func (s *Server) handleSendFIREmail(w http.ResponseWriter, r *http.Request) {
	var req emailFIRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := domain.AnswerOptions{
		City:         req.City,
		IncidentType: req.IncidentType,
	}

	if _, err := s.firService.SendDraft(r.Context(), req.Email, req.UserName, req.Query, opts); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, emailFIRResponse{
		Success:     true,
		Message:     "FIR draft sent successfully to your email",
		EmailSentTo: req.Email,
	})
}

// statusForError maps the domain sentinels onto HTTP status codes.
// There is no fallback roadmap: callers always see the typed failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrInvalidRecipient):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCorpusEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrGenerationUnavailable),
		errors.Is(err, domain.ErrSchemaViolation):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrRetrievalUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrMailUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
