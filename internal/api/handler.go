package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/zombar/veracity/internal/analyzer"
	"github.com/zombar/veracity/internal/database"
	"github.com/zombar/veracity/internal/models"
	"github.com/zombar/veracity/pkg/metrics"
	"github.com/zombar/veracity/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

const (
	minTextLength = 10
	maxTextLength = 5000
)

// QueueClient enqueues background analysis tasks. It is nil when the task
// queue is disabled (no Redis configured).
type QueueClient interface {
	EnqueueAnalyzeText(ctx context.Context, analysisID, text string) (string, error)
}

// Handler handles HTTP requests
type Handler struct {
	db              *database.DB
	analyzer        *analyzer.Analyzer
	queueClient     QueueClient
	businessMetrics *metrics.BusinessMetrics
	mux             *http.ServeMux
}

// NewHandler creates a new API handler with CORS support and metrics
func NewHandler(db *database.DB, a *analyzer.Analyzer, queueClient QueueClient, businessMetrics *metrics.BusinessMetrics) http.Handler {
	h := &Handler{
		db:              db,
		analyzer:        a,
		queueClient:     queueClient,
		businessMetrics: businessMetrics,
		mux:             http.NewServeMux(),
	}

	h.setupRoutes()

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.mux)
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler()) // Prometheus metrics endpoint
	h.mux.HandleFunc("/analyze", h.handleAnalyze)
	h.mux.HandleFunc("/api/analyze/batch", h.handleAnalyzeBatch)
	h.mux.HandleFunc("/api/jobs/", h.handleJobStatus)
	h.mux.HandleFunc("/api/analyses", h.handleListAnalyses)
	h.mux.HandleFunc("/api/analyses/", h.handleAnalysisOperations)
	h.mux.HandleFunc("/api/search", h.handleSearchByClassification)
	h.mux.HandleFunc("/health", h.handleHealth)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "veracity",
	})
}

// validateText applies the transport-boundary rules: present, non-empty
// after trimming, and 10-5000 characters. Returns the trimmed text or the
// client-facing error message.
func validateText(text *string) (string, string) {
	if text == nil {
		return "", "No text provided for analysis"
	}

	trimmed := strings.TrimSpace(*text)
	if trimmed == "" {
		return "", "Empty text cannot be analyzed"
	}

	length := utf8.RuneCountInString(trimmed)
	if length < minTextLength {
		return "", "Text too short for meaningful analysis (minimum 10 characters)"
	}
	if length > maxTextLength {
		return "", "Text too long for analysis (maximum 5000 characters)"
	}

	return trimmed, ""
}

// handleAnalyze runs a synchronous truthfulness analysis and persists the
// result.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text *string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "No text provided for analysis", http.StatusBadRequest)
		return
	}

	text, errMsg := validateText(req.Text)
	if errMsg != "" {
		respondError(w, errMsg, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tracing.SetSpanAttributes(ctx, attribute.Int("text.length", utf8.RuneCountInString(text)))

	start := time.Now()
	result := h.analyzer.AnalyzeTruthfulness(ctx, text)

	status := "success"
	if result.Error != "" {
		status = "degraded"
	}
	if h.businessMetrics != nil {
		h.businessMetrics.ObserveDurationWithExemplar(ctx, h.businessMetrics.AnalysisDuration, time.Since(start).Seconds(), status)
		h.businessMetrics.AnalysesTotal.WithLabelValues(status).Inc()
		h.businessMetrics.ClassificationsTotal.WithLabelValues(string(result.Classification)).Inc()
		h.businessMetrics.TruthfulnessScore.Observe(result.TruthfulnessScore)
	}

	now := time.Now().UTC()
	analysis := &models.Analysis{
		ID:        uuid.NewString(),
		Text:      text,
		Result:    result,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.db.SaveAnalysis(ctx, analysis); err != nil {
		slog.Error("failed to save analysis", "error", err, "analysis_id", analysis.ID)
		respondError(w, "An error occurred during analysis. Please try again.", http.StatusInternalServerError)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

// handleAnalyzeBatch validates each text and enqueues one background
// analysis task per item.
func (h *Handler) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.queueClient == nil {
		respondError(w, "Batch analysis unavailable: task queue is disabled", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Texts []string `json:"texts"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Texts) == 0 {
		respondError(w, "No texts provided for analysis", http.StatusBadRequest)
		return
	}

	trimmed := make([]string, len(req.Texts))
	for i := range req.Texts {
		text, errMsg := validateText(&req.Texts[i])
		if errMsg != "" {
			respondJSON(w, map[string]interface{}{
				"error": errMsg,
				"index": i,
			}, http.StatusBadRequest)
			return
		}
		trimmed[i] = text
	}

	ctx := r.Context()
	jobIDs := make([]string, 0, len(trimmed))
	for _, text := range trimmed {
		analysisID := uuid.NewString()
		if _, err := h.queueClient.EnqueueAnalyzeText(ctx, analysisID, text); err != nil {
			slog.Error("failed to enqueue analysis", "error", err, "analysis_id", analysisID)
			respondError(w, "Failed to enqueue analysis", http.StatusInternalServerError)
			return
		}
		jobIDs = append(jobIDs, analysisID)
	}

	respondJSON(w, map[string]interface{}{
		"job_ids": jobIDs,
		"status":  "queued",
	}, http.StatusAccepted)
}

// handleJobStatus handles job status requests
func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := r.URL.Path[len("/api/jobs/"):]
	if idx := strings.Index(jobID, "/"); idx != -1 {
		jobID = jobID[:idx]
	}

	if jobID == "" {
		respondError(w, "Job ID is required", http.StatusBadRequest)
		return
	}

	analysis, err := h.db.GetAnalysis(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSON(w, map[string]interface{}{
				"job_id":  jobID,
				"status":  "not_found",
				"message": "Analysis not found - it may still be queued or has expired",
			}, http.StatusNotFound)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{
		"job_id":     jobID,
		"status":     "completed",
		"created_at": analysis.CreatedAt,
		"updated_at": analysis.UpdatedAt,
		"analysis":   analysis,
	}, http.StatusOK)
}

// handleListAnalyses handles listing all analyses with pagination
func (h *Handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	resultChan := make(chan []*models.Analysis)
	errorChan := make(chan error)

	go func() {
		analyses, err := h.db.ListAnalyses(r.Context(), limit, offset)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- analyses
	}()

	select {
	case analyses := <-resultChan:
		respondJSON(w, analyses, http.StatusOK)
	case err := <-errorChan:
		respondError(w, err.Error(), http.StatusInternalServerError)
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// handleAnalysisOperations handles GET and DELETE for specific analyses
func (h *Handler) handleAnalysisOperations(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/analyses/"):]
	if id == "" {
		respondError(w, "Analysis ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getAnalysis(w, r, id)
	case http.MethodDelete:
		h.deleteAnalysis(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getAnalysis retrieves a specific analysis
func (h *Handler) getAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	resultChan := make(chan *models.Analysis)
	errorChan := make(chan error)

	go func() {
		analysis, err := h.db.GetAnalysis(r.Context(), id)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- analysis
	}()

	select {
	case analysis := <-resultChan:
		respondJSON(w, analysis, http.StatusOK)
	case err := <-errorChan:
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, err.Error(), http.StatusNotFound)
		} else {
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// deleteAnalysis deletes a specific analysis
func (h *Handler) deleteAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	errorChan := make(chan error)
	doneChan := make(chan bool)

	go func() {
		if err := h.db.DeleteAnalysis(r.Context(), id); err != nil {
			errorChan <- err
			return
		}
		doneChan <- true
	}()

	select {
	case <-doneChan:
		w.WriteHeader(http.StatusNoContent)
	case err := <-errorChan:
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, err.Error(), http.StatusNotFound)
		} else {
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// handleSearchByClassification handles filtering stored analyses by their
// classification.
func (h *Handler) handleSearchByClassification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	classification := models.Classification(r.URL.Query().Get("classification"))
	if classification == "" {
		respondError(w, "Classification parameter is required", http.StatusBadRequest)
		return
	}
	if !classification.Valid() {
		respondError(w, "Invalid classification (expected True, False, or Uncertain)", http.StatusBadRequest)
		return
	}

	resultChan := make(chan []*models.Analysis)
	errorChan := make(chan error)

	go func() {
		analyses, err := h.db.GetAnalysesByClassification(r.Context(), classification)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- analyses
	}()

	select {
	case analyses := <-resultChan:
		respondJSON(w, analyses, http.StatusOK)
	case err := <-errorChan:
		respondError(w, err.Error(), http.StatusInternalServerError)
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
