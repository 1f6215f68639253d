// Package tracing provides lightweight span timing propagated through
// contexts and logged via slog on completion.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed operation.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration
	Attrs    map[string]any
	mu       sync.Mutex
}

// StartSpan creates a root span and stores it in the returned context.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	span := &Span{
		Name:    name,
		TraceID: traceID,
		Start:   time.Now(),
		Attrs:   make(map[string]any),
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// FromContext returns the span stored in ctx, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// SetAttr records a key/value on the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Attrs[key] = value
}

// End finalises the span and emits it as a debug log line.
func (s *Span) End() {
	s.Duration = time.Since(s.Start)
	args := []any{"span", s.Name, "duration_ms", s.Duration.Milliseconds()}
	if s.TraceID != "" {
		args = append(args, "trace_id", s.TraceID)
	}
	s.mu.Lock()
	for k, v := range s.Attrs {
		args = append(args, k, v)
	}
	s.mu.Unlock()
	slog.Debug("span completed", args...)
}
