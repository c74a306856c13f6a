package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	// Use the prometheus handler directly
	handler := promhttp.Handler()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/plain") {
		t.Errorf("Expected content-type to contain 'text/plain', got '%s'", contentType)
	}

	// Standard Go runtime metrics come with the default registry
	body := w.Body.String()
	expectedMetrics := []string{
		"go_goroutines",
		"go_threads",
		"go_info",
		"promhttp_metric_handler",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metrics to contain '%s'", metric)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("VERACITY_TEST_VAR", "set")
	if got := getEnv("VERACITY_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("Expected 'set', got %q", got)
	}
	if got := getEnv("VERACITY_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected 'fallback', got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("VERACITY_TEST_INT", "42")
	if got := getEnvInt("VERACITY_TEST_INT", 5); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}

	t.Setenv("VERACITY_TEST_BAD_INT", "not a number")
	if got := getEnvInt("VERACITY_TEST_BAD_INT", 5); got != 5 {
		t.Errorf("Expected fallback 5, got %d", got)
	}

	if got := getEnvInt("VERACITY_TEST_MISSING_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
}
