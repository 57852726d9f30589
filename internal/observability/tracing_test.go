package observability

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.ServiceName != "uaexport" {
		t.Fatalf("expected service name 'uaexport', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{
		ServiceName: "test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
	if tp.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	// Should be no-op, shutdown should succeed
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracing_NilConfig(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
}

func TestStartPhaseSpan(t *testing.T) {
	ctx := context.Background()
	ctx, span := StartPhaseSpan(ctx, PhaseDiscover)
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	RecordDiscoverResult(span, 1200, 1199)
	span.End()
}

func TestStartConnectSpan(t *testing.T) {
	ctx := context.Background()
	_, span := StartConnectSpan(ctx, "opc.tcp://localhost:4840")
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	RecordError(span, errors.New("connection refused"))
	span.End()
}

func TestRecordError_Nil(t *testing.T) {
	_, span := StartPhaseSpan(context.Background(), PhaseStats)
	RecordError(span, nil)
	span.End()
}
