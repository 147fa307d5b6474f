package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides a unified telemetry interface combining logging, tracing, and metrics.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Config  *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a new telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	ctx = t.Logger.WithContext(ctx)
	return ctx
}

// FromTelemetryContext retrieves the telemetry instance from the context.
// If no telemetry is found, it returns nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown gracefully shuts down all telemetry components.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.Tracer.Shutdown(ctx)
}

// Flush forces all pending telemetry data to be exported.
func (t *Telemetry) Flush(ctx context.Context) error {
	return t.Tracer.ForceFlush(ctx)
}

// StartMetricsServer starts the metrics HTTP server if metrics are enabled.
func (t *Telemetry) StartMetricsServer() error {
	return t.Metrics.StartMetricsServer()
}

// Context Helpers for common instrumentation patterns

// InstrumentedContext creates a context with telemetry, logger fields, and a trace span.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation begins an instrumented operation with logging, tracing, and timing.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{
			Ctx:    ctx,
			Logger: FromContext(ctx),
			Timer:  NewTimer(),
		}
	}

	spanCtx, span := tel.Tracer.StartSpan(ctx, operation, attrs...)

	logger := tel.Logger.WithField("operation", operation)
	if span.SpanContext().IsValid() {
		logger = logger.WithFields(map[string]interface{}{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
		})
	}

	return &InstrumentedContext{
		Ctx:    spanCtx,
		Span:   span,
		Logger: logger,
		Timer:  NewTimer(),
	}
}

// End finishes the instrumented operation, recording success or failure.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span != nil {
		if err != nil {
			RecordError(ic.Span, err)
		} else {
			RecordSuccess(ic.Span)
		}
		ic.Span.End()
	}
}

// requestSpanKey is the context key for a RegisterDataRequest span.
type requestSpanKey struct{}

// requestTimerKey is the context key for a RegisterDataRequest timer.
type requestTimerKey struct{}

// WithRequestContext creates a context enriched with request-registration telemetry.
func WithRequestContext(ctx context.Context, userID, resourceName string) context.Context {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx
	}

	spanCtx, span := tel.Tracer.StartRequestSpan(ctx, userID, resourceName)

	logger := tel.Logger.WithUserID(userID).WithField("resource_name", resourceName)
	spanCtx = logger.WithContext(spanCtx)

	tel.Metrics.RecordRequestRegistered(userID)

	spanCtx = context.WithValue(spanCtx, requestSpanKey{}, span)
	spanCtx = context.WithValue(spanCtx, requestTimerKey{}, NewTimer())

	return spanCtx
}

// EndRequestContext completes the request context, recording metrics on the result.
func EndRequestContext(ctx context.Context, status string, err error) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}

	if span, ok := ctx.Value(requestSpanKey{}).(trace.Span); ok {
		if err != nil {
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		span.End()
	}

	var duration time.Duration
	if timer, ok := ctx.Value(requestTimerKey{}).(*Timer); ok {
		duration = timer.Duration()
	}

	tel.Metrics.RecordRequestCompleted(status, duration)
}

// policyMergeSpanKey is the context key for a policy merge span.
type policyMergeSpanKey struct{}

// WithPolicyMergeContext creates a context enriched with telemetry for merging
// one resource's resource-rule or record-rule chain.
func WithPolicyMergeContext(ctx context.Context, resourceID, ruleKind string) context.Context {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx
	}

	spanCtx, span := tel.Tracer.StartPolicyMergeSpan(ctx, resourceID, ruleKind)

	logger := tel.Logger.WithResourceID(resourceID).WithField("rule_kind", ruleKind)
	spanCtx = logger.WithContext(spanCtx)

	spanCtx = context.WithValue(spanCtx, policyMergeSpanKey{}, span)

	return spanCtx
}

// EndPolicyMergeContext completes a policy merge context, recording the length
// of the surviving rule chain.
func EndPolicyMergeContext(ctx context.Context, ruleKind string, chainLength int, err error) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}

	if span, ok := ctx.Value(policyMergeSpanKey{}).(trace.Span); ok {
		if err != nil {
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		span.End()
	}

	if err == nil {
		tel.Metrics.RecordPolicyMerge(ruleKind, chainLength)
	}
}

// WithCacheOpContext creates a context enriched with telemetry for a single
// Cache Gateway operation and returns a function that records its outcome.
func WithCacheOpContext(ctx context.Context, service, op string) (context.Context, func(err error)) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx, func(error) {}
	}

	spanCtx, span := tel.Tracer.StartCacheSpan(ctx, service, op)
	timer := NewTimer()

	return spanCtx, func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		span.End()
		tel.Metrics.RecordCacheOp(service, op, status, timer.Duration())
	}
}
