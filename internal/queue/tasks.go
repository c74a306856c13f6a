package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/zombar/veracity/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// handleAnalyzeText runs a truthfulness analysis for a batch-submitted text
// and persists the result under the pre-assigned analysis ID.
func (w *Worker) handleAnalyzeText(ctx context.Context, t *asynq.Task) error {
	// Parse payload
	var payload AnalyzeTextPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}

	analysisID := payload.AnalysisID
	text := payload.Text

	retryCount, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	// Calculate queue wait time
	var queueWaitTime time.Duration
	if payload.EnqueuedAt > 0 {
		enqueuedTime := time.Unix(0, payload.EnqueuedAt)
		queueWaitTime = time.Since(enqueuedTime)
	}

	w.logger.Info("analyzing queued text",
		"analysis_id", analysisID,
		"text_length", len(text),
		"retry_count", retryCount,
		"max_retries", maxRetry,
		"queue_wait_seconds", queueWaitTime.Seconds(),
	)

	// Recreate trace context from payload if available
	var span trace.Span
	if payload.TraceID != "" && payload.SpanID != "" {
		// Parse trace ID and span ID from hex strings
		traceID, err := trace.TraceIDFromHex(payload.TraceID)
		if err == nil {
			spanID, err := trace.SpanIDFromHex(payload.SpanID)
			if err == nil {
				// Create span context from stored IDs
				remoteSpanCtx := trace.NewSpanContext(trace.SpanContextConfig{
					TraceID:    traceID,
					SpanID:     spanID,
					TraceFlags: trace.FlagsSampled,
					Remote:     true,
				})

				// Create new context with the remote span context
				ctx = trace.ContextWithRemoteSpanContext(ctx, remoteSpanCtx)

				// Start a new span linked to the enqueue span
				ctx, span = otel.Tracer("veracity").Start(ctx, "asynq.task.process",
					trace.WithSpanKind(trace.SpanKindConsumer),
					trace.WithAttributes(
						attribute.String("task.type", TypeAnalyzeText),
						attribute.String("analysis.id", analysisID),
						attribute.Int("text.length", len(text)),
						attribute.Int("retry_count", retryCount),
						attribute.Float64("queue.wait_time_seconds", queueWaitTime.Seconds()),
						attribute.Int64("enqueued_at", payload.EnqueuedAt),
					),
				)
				defer span.End()

				// Record queue wait time event
				span.AddEvent("task_processing_started", trace.WithAttributes(
					attribute.Float64("wait_time_seconds", queueWaitTime.Seconds()),
				))
			}
		}
	} else {
		// No trace context in payload, check current context
		if existingSpan := trace.SpanFromContext(ctx); existingSpan.SpanContext().IsValid() {
			existingSpan.SetAttributes(
				attribute.String("analysis.id", analysisID),
				attribute.Int("text.length", len(text)),
				attribute.Int("retry_count", retryCount),
				attribute.Float64("queue.wait_time_seconds", queueWaitTime.Seconds()),
			)
		}
	}

	// Start metrics timer for analysis duration with exemplar support
	timer := time.Now()
	var analysisStatus string
	defer func() {
		if analysisStatus != "" && w.businessMetrics != nil {
			duration := time.Since(timer).Seconds()
			// Record duration with exemplar linking to trace ID
			w.businessMetrics.ObserveDurationWithExemplar(ctx, w.businessMetrics.AnalysisDuration, duration, analysisStatus)
			w.businessMetrics.AnalysesTotal.WithLabelValues(analysisStatus).Inc()
		}
	}()

	result := w.analyzer.AnalyzeTruthfulness(ctx, text)

	now := time.Now().UTC()
	analysis := &models.Analysis{
		ID:        analysisID,
		Text:      text,
		Result:    result,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := w.db.SaveAnalysis(ctx, analysis); err != nil {
		analysisStatus = "error"
		// Transient storage contention is worth retrying
		if isRetriableError(err) {
			w.logger.Warn("retriable error saving analysis, will retry",
				"analysis_id", analysisID,
				"error", err,
				"retry_count", retryCount,
			)
			return err // Let Asynq retry
		}

		// Permanent error
		w.logger.Error("permanent error saving analysis",
			"analysis_id", analysisID,
			"error", err,
		)
		return fmt.Errorf("failed to save analysis: %v: %w", err, asynq.SkipRetry)
	}

	if result.Error != "" {
		analysisStatus = "degraded"
	} else {
		analysisStatus = "success"
	}

	if w.businessMetrics != nil {
		w.businessMetrics.ClassificationsTotal.WithLabelValues(string(result.Classification)).Inc()
		w.businessMetrics.TruthfulnessScore.Observe(result.TruthfulnessScore)
	}

	w.logger.Info("queued analysis completed",
		"analysis_id", analysisID,
		"classification", result.Classification,
		"truthfulness_score", result.TruthfulnessScore,
		"retry_count", retryCount,
	)

	return nil
}

// handlePurgeExpired deletes analyses older than the configured retention
// window.
func (w *Worker) handlePurgeExpired(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -w.retentionDays)

	deleted, err := w.db.DeleteAnalysesOlderThan(ctx, cutoff)
	if err != nil {
		if isRetriableError(err) {
			w.logger.Warn("retriable error purging analyses, will retry", "error", err)
			return err
		}
		return fmt.Errorf("failed to purge expired analyses: %v: %w", err, asynq.SkipRetry)
	}

	w.logger.Info("purged expired analyses",
		"deleted", deleted,
		"retention_days", w.retentionDays,
		"cutoff", cutoff,
	)

	return nil
}

// isRetriableError determines if an error is retriable (contention/timeout)
// vs permanent (invalid input)
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Retriable errors: connection issues, timeouts, storage contention
	retriablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"database is locked",
		"database table is locked",
		"context deadline exceeded",
		"context canceled",
		"i/o timeout",
		"no such host",
		"network is unreachable",
	}

	for _, pattern := range retriablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
