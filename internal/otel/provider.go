// Package otel provides OpenTelemetry tracer provider initialization and management.
package otel

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mrzor/audit-tracer/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

// RunIDKey identifies one invocation of the tracer across all its spans.
const RunIDKey = attribute.Key("audit_tracer.run_id")

// logProxy reports proxy configuration; the HTTP exporter honors it.
func logProxy(logger *zap.Logger) {
	httpProxy := os.Getenv("HTTP_PROXY")
	if httpProxy == "" {
		httpProxy = os.Getenv("http_proxy")
	}
	httpsProxy := os.Getenv("HTTPS_PROXY")
	if httpsProxy == "" {
		httpsProxy = os.Getenv("https_proxy")
	}

	if httpProxy != "" || httpsProxy != "" {
		logger.Info("proxy configuration",
			zap.String("http_proxy", httpProxy),
			zap.String("https_proxy", httpsProxy))
	} else {
		logger.Debug("no proxy configured")
	}
}

// newResource builds the resource describing this run.
func newResource(ctx context.Context, cfg *config.OTELConfig, runID, version string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		RunIDKey.String(runID),
	}
	if version != "" {
		attrs = append(attrs, semconv.ServiceVersion(version))
	}

	opts := []resource.Option{resource.WithAttributes(attrs...)}

	// Custom resource attributes from the environment
	if customAttrs := cfg.ParseResourceAttributes(); len(customAttrs) > 0 {
		opts = append(opts, resource.WithAttributes(customAttrs...))
	}

	res, err := resource.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// exporterOptions targets the exporter at endpoint. A URL carries its own
// scheme and path; a bare host:port is plain HTTP on the default path.
func exporterOptions(endpoint config.Endpoint) []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithTimeout(10 * time.Second)}
	if endpoint.URL != "" {
		return append(opts, otlptracehttp.WithEndpointURL(endpoint.URL))
	}
	return append(opts,
		otlptracehttp.WithEndpoint(endpoint.HostPort),
		otlptracehttp.WithInsecure(),
	)
}

// InitProvider initializes the OpenTelemetry tracer provider exporting over OTLP/HTTP.
//
// The HTTP client honors HTTP_PROXY, HTTPS_PROXY, and NO_PROXY through Go's
// standard net/http transport.
func InitProvider(cfg *config.OTELConfig, runID, version string, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint, err := cfg.GetEndpoint()
	if err != nil {
		return nil, err
	}

	logger.Info("OTEL configuration",
		zap.String("service_name", cfg.ServiceName),
		zap.Stringer("endpoint", endpoint),
		zap.String("otlp_endpoint", cfg.ExporterEndpoint),
		zap.String("otlp_traces_endpoint", cfg.TracesEndpoint),
		zap.String("resource_attributes", cfg.ResourceAttributes),
		zap.String("run_id", runID))
	logProxy(logger)

	exporter, err := otlptracehttp.New(ctx, exporterOptions(endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := newResource(ctx, cfg, runID, version)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return tp, nil
}

// ShutdownProvider gracefully shuts down the tracer provider, flushing any remaining spans.
func ShutdownProvider(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}

	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}

	return nil
}
