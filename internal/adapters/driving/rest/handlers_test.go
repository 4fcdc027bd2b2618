package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// Mock services

type mockRoadmapService struct {
	answerFn func(ctx context.Context, query string, opts domain.AnswerOptions) (domain.Roadmap, error)
	healthFn func() domain.Health
}

func (m *mockRoadmapService) Answer(ctx context.Context, query string, opts domain.AnswerOptions) (domain.Roadmap, error) {
	if m.answerFn != nil {
		return m.answerFn(ctx, query, opts)
	}
	return domain.Roadmap{}, errors.New("not implemented")
}

func (m *mockRoadmapService) Health() domain.Health {
	if m.healthFn != nil {
		return m.healthFn()
	}
	return domain.Health{Status: domain.HealthDegraded}
}

type mockIndexService struct {
	rebuildFn   func(ctx context.Context) (domain.RebuildReport, error)
	bootstrapFn func(ctx context.Context) (domain.IndexGeneration, error)
	currentFn   func() (domain.IndexGeneration, bool)
}

func (m *mockIndexService) Rebuild(ctx context.Context) (domain.RebuildReport, error) {
	if m.rebuildFn != nil {
		return m.rebuildFn(ctx)
	}
	return domain.RebuildReport{}, errors.New("not implemented")
}

func (m *mockIndexService) Bootstrap(ctx context.Context) (domain.IndexGeneration, error) {
	if m.bootstrapFn != nil {
		return m.bootstrapFn(ctx)
	}
	return domain.IndexGeneration{}, errors.New("not implemented")
}

func (m *mockIndexService) Current() (domain.IndexGeneration, bool) {
	if m.currentFn != nil {
		return m.currentFn()
	}
	return domain.IndexGeneration{}, false
}

type mockFIRService struct {
	draftFn          func(query string, roadmap domain.Roadmap) domain.FIRDraft
	draftFromQueryFn func(ctx context.Context, query string, opts domain.AnswerOptions) (domain.FIRDraft, domain.Roadmap, error)
	sendDraftFn      func(ctx context.Context, recipient, recipientName, query string, opts domain.AnswerOptions) (domain.FIRDraft, error)
}

func (m *mockFIRService) Draft(query string, roadmap domain.Roadmap) domain.FIRDraft {
	if m.draftFn != nil {
		return m.draftFn(query, roadmap)
	}
	return domain.FIRDraft{}
}

func (m *mockFIRService) DraftFromQuery(ctx context.Context, query string, opts domain.AnswerOptions) (domain.FIRDraft, domain.Roadmap, error) {
	if m.draftFromQueryFn != nil {
		return m.draftFromQueryFn(ctx, query, opts)
	}
	return domain.FIRDraft{}, domain.Roadmap{}, errors.New("not implemented")
}

func (m *mockFIRService) SendDraft(ctx context.Context, recipient, recipientName, query string, opts domain.AnswerOptions) (domain.FIRDraft, error) {
	if m.sendDraftFn != nil {
		return m.sendDraftFn(ctx, recipient, recipientName, query, opts)
	}
	return domain.FIRDraft{}, errors.New("not implemented")
}

// Helpers

func testRoadmap() domain.Roadmap {
	return domain.Roadmap{
		CrimeType: "Theft (IPC Section 379)",
		ImmediateActions: []string{
			"Note the exact time and place of the theft",
			"Block the stolen SIM and report the IMEI",
		},
		FIRSteps: []string{
			"Visit the police station with jurisdiction over the incident location",
			"Narrate the incident and verify the FIR copy before signing",
		},
		EvidenceToPreserve: []string{
			"Purchase invoice with the IMEI number",
			"CCTV footage of the spot, if available",
		},
		RelevantLaws: []string{"IPC Section 379", "CrPC Section 154"},
	}
}

// newTestServer wires a server over mocks. Nil mocks become empty ones
// whose methods fail, so a test only stubs what it exercises.
func newTestServer(roadmap *mockRoadmapService, index *mockIndexService, fir *mockFIRService) *Server {
	if roadmap == nil {
		roadmap = &mockRoadmapService{}
	}
	if index == nil {
		index = &mockIndexService{}
	}
	if fir == nil {
		fir = &mockFIRService{}
	}

	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	return NewServer(cfg, roadmap, index, fir)
}

// serveRequest runs a request through the routing table and the full
// middleware chain, the way a client sees the server.
func serveRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(out))
}

// Root and version

func TestHandleRoot(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	rr := serveRequest(server, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var banner map[string]string
	decodeJSON(t, rr, &banner)
	assert.Equal(t, "Nyay Sahayak", banner["name"])
	assert.Equal(t, "1.2.3", banner["version"])
	assert.Equal(t, "running", banner["status"])
	assert.Equal(t, "/api/v1/health", banner["health"])
}

func TestHandleRoot_UnknownPathIs404(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	// The banner route matches "/" exactly, not every path.
	rr := serveRequest(server, httptest.NewRequest("GET", "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleVersion(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	rr := serveRequest(server, httptest.NewRequest("GET", "/version", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]string
	decodeJSON(t, rr, &response)
	assert.Equal(t, "1.2.3", response["version"])
}

// Health

func TestHandleHealth_Degraded(t *testing.T) {
	roadmap := &mockRoadmapService{
		healthFn: func() domain.Health {
			return domain.Health{
				Status:  domain.HealthDegraded,
				Version: "1.2.3",
			}
		},
	}
	server := newTestServer(roadmap, nil, nil)

	rr := serveRequest(server, httptest.NewRequest("GET", "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var response healthResponse
	decodeJSON(t, rr, &response)
	assert.Equal(t, domain.HealthDegraded, response.Status)
	assert.False(t, response.IndexLoaded)
	assert.False(t, response.GeneratorConfigured)
	assert.Zero(t, response.Generation)
}

func TestHandleHealth_Healthy(t *testing.T) {
	roadmap := &mockRoadmapService{
		healthFn: func() domain.Health {
			return domain.Health{
				Status:              domain.HealthHealthy,
				Version:             "1.2.3",
				IndexLoaded:         true,
				Generation:          7,
				GenerationAge:       90 * time.Second,
				GeneratorConfigured: true,
			}
		},
	}
	server := newTestServer(roadmap, nil, nil)

	rr := serveRequest(server, httptest.NewRequest("GET", "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var response healthResponse
	decodeJSON(t, rr, &response)
	assert.Equal(t, domain.HealthHealthy, response.Status)
	assert.Equal(t, "1.2.3", response.Version)
	assert.True(t, response.IndexLoaded)
	assert.True(t, response.GeneratorConfigured)
	assert.Equal(t, uint64(7), response.Generation)
	assert.InDelta(t, 90.0, response.GenerationAgeSeconds, 0.001)
}

// Query

func TestHandleQuery(t *testing.T) {
	var gotQuery string
	var gotOpts domain.AnswerOptions
	roadmap := &mockRoadmapService{
		answerFn: func(ctx context.Context, query string, opts domain.AnswerOptions) (domain.Roadmap, error) {
			gotQuery = query
			gotOpts = opts
			return testRoadmap(), nil
		},
	}
	server := newTestServer(roadmap, nil, nil)

	req := jsonRequest(t, "POST", "/api/v1/query", queryRequest{
		Query:        "My phone was stolen on the bus yesterday evening",
		City:         "Mumbai",
		IncidentType: "theft",
	})
	rr := serveRequest(server, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "My phone was stolen on the bus yesterday evening", gotQuery)
	assert.Equal(t, "Mumbai", gotOpts.City)
	assert.Equal(t, "theft", gotOpts.IncidentType)

	var response domain.Roadmap
	decodeJSON(t, rr, &response)
	assert.Equal(t, testRoadmap(), response)
}

func TestHandleQuery_InvalidJSON(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	req := httptest.NewRequest("POST", "/api/v1/query", bytes.NewBufferString("not json"))
	rr := serveRequest(server, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var response map[string]string
	decodeJSON(t, rr, &response)
	assert.Equal(t, "invalid request body", response["error"])
}

func TestHandleQuery_InvalidQuery(t *testing.T) {
	roadmap := &mockRoadmapService{
		answerFn: func(ctx context.Context, query string, opts domain.AnswerOptions) (domain.Roadmap, error) {
			return domain.Roadmap{}, fmt.Errorf("%w: must be at least 10 characters", domain.ErrInvalidQuery)
		},
	}
	server := newTestServer(roadmap, nil, nil)

	rr := serveRequest(server, jsonRequest(t, "POST", "/api/v1/query", queryRequest{Query: "too short"}))

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var response map[string]string
	decodeJSON(t, rr, &response)
	assert.Contains(t, response["error"], "invalid query")
}

func TestHandleQuery_NoIndexPublished(t *testing.T) {
	roadmap := &mockRoadmapService{
		answerFn: func(ctx context.Context, query string, opts domain.AnswerOptions) (domain.Roadmap, error) {
			return domain.Roadmap{}, fmt.Errorf("%w: no index generation published", domain.ErrRetrievalUnavailable)
		},
	}
	server := newTestServer(roadmap, nil, nil)

	req := jsonRequest(t, "POST", "/api/v1/query", queryRequest{Query: "My phone was stolen on the bus"})
	rr := serveRequest(server, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var response map[string]string
	decodeJSON(t, rr, &response)
	assert.Contains(t, response["error"], "retrieval unavailable")
}

func TestHandleQuery_MethodNotAllowed(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	rr := serveRequest(server, httptest.NewRequest("GET", "/api/v1/query", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// Ingest

func TestHandleIngest(t *testing.T) {
	index := &mockIndexService{
		rebuildFn: func(ctx context.Context) (domain.RebuildReport, error) {
			return domain.RebuildReport{
				Generation: 4,
				Documents:  12,
				Chunks:     240,
			}, nil
		},
	}
	server := newTestServer(nil, index, nil)

	rr := serveRequest(server, jsonRequest(t, "POST", "/api/v1/ingest", struct{}{}))

	require.Equal(t, http.StatusOK, rr.Code)

	var response ingestResponse
	decodeJSON(t, rr, &response)
	assert.Equal(t, "Index rebuilt successfully", response.Message)
	assert.Equal(t, uint64(4), response.Generation)
	assert.Equal(t, 12, response.DocumentsProcessed)
	assert.Equal(t, 240, response.ChunksCreated)
}

func TestHandleIngest_RebuildInProgress(t *testing.T) {
	index := &mockIndexService{
		rebuildFn: func(ctx context.Context) (domain.RebuildReport, error) {
			return domain.RebuildReport{}, domain.ErrRebuildInProgress
		},
	}
	server := newTestServer(nil, index, nil)

	rr := serveRequest(server, jsonRequest(t, "POST", "/api/v1/ingest", struct{}{}))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleIngest_EmptyCorpus(t *testing.T) {
	index := &mockIndexService{
		rebuildFn: func(ctx context.Context) (domain.RebuildReport, error) {
			return domain.RebuildReport{}, fmt.Errorf("%w: no documents under corpus dir", domain.ErrCorpusEmpty)
		},
	}
	server := newTestServer(nil, index, nil)

	rr := serveRequest(server, jsonRequest(t, "POST", "/api/v1/ingest", struct{}{}))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var response map[string]string
	decodeJSON(t, rr, &response)
	assert.Contains(t, response["error"], "no chunks")
}

// FIR email

func TestHandleSendFIREmail(t *testing.T) {
	var gotRecipient, gotName, gotQuery string
	var gotOpts domain.AnswerOptions
	fir := &mockFIRService{
		sendDraftFn: func(ctx context.Context, recipient, recipientName, query string, opts domain.AnswerOptions) (domain.FIRDraft, error) {
			gotRecipient = recipient
			gotName = recipientName
			gotQuery = query
			gotOpts = opts
			return domain.FIRDraft{Subject: "FIR Draft - Theft - Nyay Sahayak"}, nil
		},
	}
	server := newTestServer(nil, nil, fir)

	req := jsonRequest(t, "POST", "/api/v1/send-fir-email", emailFIRRequest{
		Query:        "My phone was stolen on the bus yesterday evening",
		Email:        "victim@example.org",
		UserName:     "A. Citizen",
		City:         "Pune",
		IncidentType: "theft",
	})
	rr := serveRequest(server, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "victim@example.org", gotRecipient)
	assert.Equal(t, "A. Citizen", gotName)
	assert.Equal(t, "My phone was stolen on the bus yesterday evening", gotQuery)
	assert.Equal(t, "Pune", gotOpts.City)
	assert.Equal(t, "theft", gotOpts.IncidentType)

	var response emailFIRResponse
	decodeJSON(t, rr, &response)
	assert.True(t, response.Success)
	assert.Equal(t, "FIR draft sent successfully to your email", response.Message)
	assert.Equal(t, "victim@example.org", response.EmailSentTo)
}

func TestHandleSendFIREmail_InvalidJSON(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	req := httptest.NewRequest("POST", "/api/v1/send-fir-email", bytes.NewBufferString("not json"))
	rr := serveRequest(server, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSendFIREmail_InvalidRecipient(t *testing.T) {
	fir := &mockFIRService{
		sendDraftFn: func(ctx context.Context, recipient, recipientName, query string, opts domain.AnswerOptions) (domain.FIRDraft, error) {
			return domain.FIRDraft{}, fmt.Errorf("%w: %q", domain.ErrInvalidRecipient, recipient)
		},
	}
	server := newTestServer(nil, nil, fir)

	req := jsonRequest(t, "POST", "/api/v1/send-fir-email", emailFIRRequest{
		Query: "My phone was stolen on the bus",
		Email: "not-an-address",
	})
	rr := serveRequest(server, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSendFIREmail_MailUnavailable(t *testing.T) {
	fir := &mockFIRService{
		sendDraftFn: func(ctx context.Context, recipient, recipientName, query string, opts domain.AnswerOptions) (domain.FIRDraft, error) {
			return domain.FIRDraft{}, fmt.Errorf("%w: %w", domain.ErrMailUnavailable, errors.New("smtp: connection refused"))
		},
	}
	server := newTestServer(nil, nil, fir)

	req := jsonRequest(t, "POST", "/api/v1/send-fir-email", emailFIRRequest{
		Query: "My phone was stolen on the bus",
		Email: "victim@example.org",
	})
	rr := serveRequest(server, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var response map[string]string
	decodeJSON(t, rr, &response)
	assert.Contains(t, response["error"], "mail delivery unavailable")
}

// Error mapping

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid query", domain.ErrInvalidQuery, http.StatusBadRequest},
		{"invalid recipient", domain.ErrInvalidRecipient, http.StatusBadRequest},
		{"rebuild in progress", domain.ErrRebuildInProgress, http.StatusConflict},
		{"empty corpus", domain.ErrCorpusEmpty, http.StatusUnprocessableEntity},
		{"generation unavailable", domain.ErrGenerationUnavailable, http.StatusBadGateway},
		{"schema violation", domain.ErrSchemaViolation, http.StatusBadGateway},
		{"retrieval unavailable", domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable},
		{"embedding unavailable", domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable},
		{"mail unavailable", domain.ErrMailUnavailable, http.StatusServiceUnavailable},
		{"wrapped sentinel", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, errors.New("429")), http.StatusBadGateway},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusForError(tt.err))
		})
	}
}

// Response helpers

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"foo": "bar"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	decodeJSON(t, rr, &response)
	assert.Equal(t, "bar", response["foo"])
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "invalid input")

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var response map[string]string
	decodeJSON(t, rr, &response)
	assert.Equal(t, "invalid input", response["error"])
}
