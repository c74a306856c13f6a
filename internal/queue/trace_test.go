package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

// TestTraceContextPropagation_Enqueue tests that trace context is captured when enqueuing tasks
func TestTraceContextPropagation_Enqueue(t *testing.T) {
	// Setup a test tracer
	tp := tracesdk.NewTracerProvider()
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer("test")

	// Create a parent span
	ctx, span := tracer.Start(context.Background(), "test-operation")
	defer span.End()

	parentSpanContext := span.SpanContext()
	if !parentSpanContext.IsValid() {
		t.Fatal("Parent span context is invalid")
	}

	// Build the payload the way EnqueueAnalyzeText does
	payload := AnalyzeTextPayload{
		AnalysisID: "test-analysis-1",
		Text:       "Officials announced the findings on Monday.",
		EnqueuedAt: time.Now().UnixNano(),
	}
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}

	// Parse the payload to verify trace context was captured
	var decoded AnalyzeTextPayload
	if err := json.Unmarshal(payloadBytes, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}

	if decoded.TraceID == "" {
		t.Error("TraceID was not captured in payload")
	}
	if decoded.SpanID == "" {
		t.Error("SpanID was not captured in payload")
	}

	// Verify the IDs match the parent span
	if decoded.TraceID != parentSpanContext.TraceID().String() {
		t.Errorf("TraceID mismatch: got %s, want %s", decoded.TraceID, parentSpanContext.TraceID().String())
	}
	if decoded.SpanID != parentSpanContext.SpanID().String() {
		t.Errorf("SpanID mismatch: got %s, want %s", decoded.SpanID, parentSpanContext.SpanID().String())
	}

	// Verify enqueued timestamp was set
	if decoded.EnqueuedAt == 0 {
		t.Error("EnqueuedAt was not set")
	}
}

// TestTraceContextPropagation_Extract tests that the worker can reconstruct
// the trace context from a payload
func TestTraceContextPropagation_Extract(t *testing.T) {
	// Setup a test tracer
	tp := tracesdk.NewTracerProvider()
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer("test")

	// Create a parent span to get valid trace IDs
	_, parentSpan := tracer.Start(context.Background(), "test-enqueue")
	parentSpanContext := parentSpan.SpanContext()
	parentSpan.End()

	payload := AnalyzeTextPayload{
		AnalysisID: "test-analysis-1",
		Text:       "Officials announced the findings on Monday.",
		TraceID:    parentSpanContext.TraceID().String(),
		SpanID:     parentSpanContext.SpanID().String(),
		EnqueuedAt: time.Now().Add(-5 * time.Second).UnixNano(),
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}

	var extracted AnalyzeTextPayload
	if err := json.Unmarshal(payloadBytes, &extracted); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}

	// Verify trace context can be reconstructed
	traceID, err := trace.TraceIDFromHex(extracted.TraceID)
	if err != nil {
		t.Fatalf("Failed to parse TraceID: %v", err)
	}
	spanID, err := trace.SpanIDFromHex(extracted.SpanID)
	if err != nil {
		t.Fatalf("Failed to parse SpanID: %v", err)
	}

	remoteSpanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	if !remoteSpanCtx.IsValid() {
		t.Error("Reconstructed span context is invalid")
	}
	if remoteSpanCtx.TraceID() != parentSpanContext.TraceID() {
		t.Errorf("TraceID mismatch: got %s, want %s", remoteSpanCtx.TraceID(), parentSpanContext.TraceID())
	}
	if remoteSpanCtx.SpanID() != parentSpanContext.SpanID() {
		t.Errorf("SpanID mismatch: got %s, want %s", remoteSpanCtx.SpanID(), parentSpanContext.SpanID())
	}

	// Queue wait time derives from the enqueue timestamp
	enqueuedTime := time.Unix(0, extracted.EnqueuedAt)
	queueWaitTime := time.Since(enqueuedTime)
	if queueWaitTime < 0 {
		t.Error("Queue wait time is negative")
	}
}

// TestQueueWaitTimeCalculation tests that queue wait time is calculated correctly
func TestQueueWaitTimeCalculation(t *testing.T) {
	tests := []struct {
		name            string
		enqueuedAt      int64
		expectedWaitMin time.Duration
		expectedWaitMax time.Duration
	}{
		{
			name:            "RecentEnqueue",
			enqueuedAt:      time.Now().Add(-1 * time.Second).UnixNano(),
			expectedWaitMin: 900 * time.Millisecond,
			expectedWaitMax: 1100 * time.Millisecond,
		},
		{
			name:            "OlderEnqueue",
			enqueuedAt:      time.Now().Add(-10 * time.Second).UnixNano(),
			expectedWaitMin: 9900 * time.Millisecond,
			expectedWaitMax: 10100 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enqueuedTime := time.Unix(0, tt.enqueuedAt)
			queueWaitTime := time.Since(enqueuedTime)

			if queueWaitTime < tt.expectedWaitMin || queueWaitTime > tt.expectedWaitMax {
				t.Errorf("Queue wait time out of expected range: got %v, want between %v and %v",
					queueWaitTime, tt.expectedWaitMin, tt.expectedWaitMax)
			}
		})
	}
}
