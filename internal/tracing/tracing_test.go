package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestNewProvider_disabled(t *testing.T) {
	p, err := NewProvider(Config{ServiceName: "ledgerd"}, zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error for disabled tracing, got %v", err)
	}
	if p.Enabled() {
		t.Error("expected tracing to be disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown on disabled provider: %v", err)
	}
}

func TestNewProvider_invalidConfig(t *testing.T) {
	cases := map[string]Config{
		"missing service name": {Enabled: true, SamplingRate: 0.5},
		"negative rate":        {Enabled: true, ServiceName: "ledgerd", SamplingRate: -0.1},
		"rate above one":       {Enabled: true, ServiceName: "ledgerd", SamplingRate: 1.5},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewProvider(cfg, zap.NewNop()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewProvider_enabled(t *testing.T) {
	p, err := NewProvider(Config{
		ServiceName:  "ledgerd",
		Enabled:      true,
		Endpoint:     "localhost:4318",
		SamplingRate: 1,
		Insecure:     true,
	}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if !p.Enabled() {
		t.Error("expected tracing to be enabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestStartSpan_recordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, end := StartSpan(context.Background(), "access.create")
	end(errors.New("boom"))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "access.create" {
		t.Errorf("name: got %q", spans[0].Name())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
}
