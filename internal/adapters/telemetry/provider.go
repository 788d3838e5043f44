// Package telemetry provides tracing adapters for frame and operation spans.
package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates a new OTelTracer with the given instrumentation name.
// Spans go to the global tracer provider.
func NewOTelTracer(name string) *OTelTracer {
	return &OTelTracer{
		tracer: otel.Tracer(name),
	}
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes))
	for _, k := range slices.Sorted(maps.Keys(cfg.Attributes)) {
		attrs = append(attrs, toAttribute(k, cfg.Attributes[k]))
	}

	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &OTelSpan{span: span}
}

// EmitPlan records the level ordering of a frame as an event on the current span.
func (t *OTelTracer) EmitPlan(ctx context.Context, levels [][]string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	joined := make([]string, len(levels))
	nodes := 0
	for i, level := range levels {
		joined[i] = strings.Join(level, ",")
		nodes += len(level)
	}
	span.AddEvent("plan_emitted", trace.WithAttributes(
		attribute.StringSlice("levels", joined),
		attribute.Int("nodes", nodes),
	))
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
// Writes are split into lines, each recorded as a log event.
type OTelSpan struct {
	span trace.Span

	mu      sync.Mutex
	pending bytes.Buffer
}

// End flushes any partial line and completes the span.
func (s *OTelSpan) End() {
	s.mu.Lock()
	if s.pending.Len() > 0 {
		s.logLine(s.pending.String())
		s.pending.Reset()
	}
	s.mu.Unlock()
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(toAttribute(key, value))
}

// Write satisfies io.Writer. Every complete line becomes one log event.
func (s *OTelSpan) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.Write(p)
	for {
		line, err := s.pending.ReadString('\n')
		if err != nil {
			// No newline left: keep the partial line for the next write.
			s.pending.Reset()
			s.pending.WriteString(line)
			break
		}
		s.logLine(strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

func (s *OTelSpan) logLine(line string) {
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", line)))
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
