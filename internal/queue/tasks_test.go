package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zombar/veracity/internal/analyzer"
	"github.com/zombar/veracity/internal/database"
	"github.com/zombar/veracity/internal/models"
	"github.com/zombar/veracity/pkg/metrics"
)

// setupTestWorker builds a worker wired to a temp database, without an Asynq
// server, so handlers can be invoked directly.
func setupTestWorker(t *testing.T) (*Worker, *database.DB) {
	t.Helper()

	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	db, err := database.New(filepath.Join(t.TempDir(), "queue_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	w := &Worker{
		db:              db,
		analyzer:        analyzer.New(),
		retentionDays:   30,
		logger:          slog.Default(),
		businessMetrics: metrics.NewBusinessMetrics("veracity"),
	}

	return w, db
}

func TestHandleAnalyzeText(t *testing.T) {
	w, db := setupTestWorker(t)
	ctx := context.Background()

	payload := AnalyzeTextPayload{
		AnalysisID: "task-analysis-1",
		Text:       "Reuters reported that the government confirmed new findings according to a university study.",
		EnqueuedAt: time.Now().UnixNano(),
	}
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	task := asynq.NewTask(TypeAnalyzeText, payloadBytes)
	require.NoError(t, w.handleAnalyzeText(ctx, task))

	analysis, err := db.GetAnalysis(ctx, "task-analysis-1")
	require.NoError(t, err)
	assert.Equal(t, payload.Text, analysis.Text)
	assert.Equal(t, models.ClassificationTrue, analysis.Result.Classification)
	assert.Equal(t, 100.0, analysis.Result.TruthfulnessScore)
}

func TestHandleAnalyzeTextInvalidPayload(t *testing.T) {
	w, _ := setupTestWorker(t)

	task := asynq.NewTask(TypeAnalyzeText, []byte("not json"))
	err := w.handleAnalyzeText(context.Background(), task)

	// A malformed payload never succeeds, so the task must not be retried
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "expected SkipRetry, got %v", err)
}

func TestHandleAnalyzeTextWithTraceContext(t *testing.T) {
	w, db := setupTestWorker(t)
	ctx := context.Background()

	payload := AnalyzeTextPayload{
		AnalysisID: "task-analysis-2",
		Text:       "THIS IS A FAKE HOAX!!! YOU WON'T BELIEVE THIS SHOCKING TRUTH!!!",
		TraceID:    "4bf92f3577b34da6a3ce929d0e0e4736",
		SpanID:     "00f067aa0ba902b7",
		EnqueuedAt: time.Now().Add(-2 * time.Second).UnixNano(),
	}
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	task := asynq.NewTask(TypeAnalyzeText, payloadBytes)
	require.NoError(t, w.handleAnalyzeText(ctx, task))

	analysis, err := db.GetAnalysis(ctx, "task-analysis-2")
	require.NoError(t, err)
	assert.Equal(t, models.ClassificationFalse, analysis.Result.Classification)
}

func TestHandlePurgeExpired(t *testing.T) {
	w, db := setupTestWorker(t)
	ctx := context.Background()

	now := time.Now().UTC()
	expired := &models.Analysis{
		ID:        "purge-old",
		Text:      "Officials announced the findings on Monday.",
		Result:    models.Result{Classification: models.ClassificationTrue, Confidence: 85, TruthfulnessScore: 75},
		CreatedAt: now.AddDate(0, 0, -45),
		UpdatedAt: now.AddDate(0, 0, -45),
	}
	fresh := &models.Analysis{
		ID:        "purge-fresh",
		Text:      "Officials announced the findings on Tuesday.",
		Result:    models.Result{Classification: models.ClassificationTrue, Confidence: 85, TruthfulnessScore: 75},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.SaveAnalysis(ctx, expired))
	require.NoError(t, db.SaveAnalysis(ctx, fresh))

	require.NoError(t, w.handlePurgeExpired(ctx, NewPurgeExpiredTask()))

	_, err := db.GetAnalysis(ctx, "purge-old")
	assert.True(t, errors.Is(err, database.ErrNotFound), "expected expired analysis to be purged")

	_, err = db.GetAnalysis(ctx, "purge-fresh")
	assert.NoError(t, err, "expected fresh analysis to survive")
}
