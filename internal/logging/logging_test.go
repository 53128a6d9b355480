package logging

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := RequestID(ctx); got != "" {
		t.Errorf("expected empty request ID on fresh context, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("FromContext returned nil")
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	logger := New("debug", "text")
	ctx := WithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		if logger := New(level, "json"); logger == nil {
			t.Errorf("New(%q) returned nil", level)
		}
	}
}

func TestLAnnotatesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if logger := L(ctx); logger == nil {
		t.Fatal("L returned nil")
	}
}
