package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Task type constants
const (
	TypeAnalyzeText  = "veracity:analyze_text"
	TypePurgeExpired = "veracity:purge_expired"
)

// AnalyzeTextPayload represents the payload for a background truthfulness
// analysis task
type AnalyzeTextPayload struct {
	AnalysisID string `json:"analysis_id"`
	Text       string `json:"text"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client *asynq.Client
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	client := asynq.NewClient(redisOpt)

	return &Client{
		client: client,
	}
}

// EnqueueAnalyzeText enqueues a background truthfulness analysis task. The
// analysis ID doubles as the task ID so job status lookups need no extra
// bookkeeping.
func (c *Client) EnqueueAnalyzeText(ctx context.Context, analysisID, text string) (string, error) {
	payload := AnalyzeTextPayload{
		AnalysisID: analysisID,
		Text:       text,
		EnqueuedAt: time.Now().UnixNano(), // Record enqueue time for queue wait metrics
	}

	// Add tracing context if available
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		// Record enqueue event
		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeAnalyzeText),
			attribute.String("task.id", analysisID),
			attribute.String("analysis_id", analysisID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeAnalyzeText, payloadBytes, asynq.TaskID(analysisID))

	opts := []asynq.Option{
		asynq.MaxRetry(5),                   // Analysis is local and cheap, retries cover DB contention
		asynq.Timeout(1 * time.Minute),      // Rule-based analysis finishes in milliseconds
		asynq.Queue("default"),              // Batch analyses share the default queue
		asynq.Retention(7 * 24 * time.Hour), // Keep completed tasks for 7 days
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue analyze text task: %w", err)
	}

	return info.ID, nil
}

// NewPurgeExpiredTask builds the retention sweep task. It carries no payload;
// the worker derives the cutoff from its configured retention window.
func NewPurgeExpiredTask() *asynq.Task {
	return asynq.NewTask(TypePurgeExpired, nil, asynq.Queue("low"))
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}
