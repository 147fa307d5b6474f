// Package telemetry provides observability instrumentation for Palisade.
//
// The telemetry package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry), and metrics (Prometheus) into a unified system for
// monitoring the Coordinator, Policy Resolver, Split Planner, and Cache
// Gateway.
//
// # Architecture
//
// The telemetry system is built on three pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for operational insights
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "palisade"
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	// Start metrics server
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context propagation:
//
//	logger := tel.Logger.NewComponentLogger("coordinator")
//	logger = logger.WithToken(token).WithUserID(userID)
//	logger.Info("request registered")
//	logger.WithError(err).Error("registration failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Tracing provides visibility into request flow and performance:
//
//	ctx, span := tel.Tracer.Start(ctx, "operation.name")
//	defer span.End()
//
//	span.SetAttributes(
//	    attribute.String("resource.id", resourceID),
//	    attribute.String("operation", "merge"),
//	)
//
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development), None (spans
// are created but not exported)
//
// # Metrics
//
// Prometheus metrics track request registration, policy merges, split
// planning and cache operations:
//
//	tel.Metrics.RecordRequestRegistered(userID)
//	tel.Metrics.RecordRequestCompleted("succeeded", duration)
//	tel.Metrics.RecordPolicyMerge("resource", chainLength)
//	tel.Metrics.RecordResourceDenied("no_binding")
//	tel.Metrics.RecordSplitsPlanned("succeeded", duration)
//	tel.Metrics.RecordCacheOp("directory", "get", "ok", duration)
//	tel.Metrics.RecordError("invalid_argument", "NULL_REQUEST")
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics)
//
// # Context Helpers
//
// High-level helpers wrap the three top-level operations:
//
//	ctx = telemetry.WithRequestContext(ctx, userID, resourceName)
//	defer telemetry.EndRequestContext(ctx, status, err)
//
//	ctx = telemetry.WithPolicyMergeContext(ctx, resourceID, "resource")
//	defer telemetry.EndPolicyMergeContext(ctx, "resource", chainLength, err)
//
//	ctx, done := telemetry.WithCacheOpContext(ctx, "directory", "get")
//	defer done(err)
//
// # Configuration
//
// The package provides pre-configured setups for different environments:
//
//	cfg := telemetry.DevelopmentConfig() // verbose logging, stdout traces, full sampling
//	cfg := telemetry.ProductionConfig()  // JSON logs, OTLP traces, 10% sampling
//
// # Graceful Shutdown
//
// Always shut down telemetry gracefully to flush pending trace data:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("telemetry shutdown error: %v", err)
//	}
package telemetry
