package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultOTLPEndpoint is used when no OTLP endpoint variable is set.
const DefaultOTLPEndpoint = "localhost:4318"

// tracesPath is appended to the generic OTLP endpoint for trace export.
const tracesPath = "/v1/traces"

// OTELConfig holds OpenTelemetry configuration from environment variables
type OTELConfig struct {
	ServiceName        string `env:"OTEL_SERVICE_NAME" envDefault:"audit-tracer"`
	ResourceAttributes string `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:""`
	ExporterEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	TracesEndpoint     string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" envDefault:""`
}

// Endpoint is where spans are sent. Exactly one field is set: URL for
// endpoints configured with a scheme, HostPort for bare host:port values,
// which are exported over plain HTTP to the default traces path.
type Endpoint struct {
	URL      string
	HostPort string
}

// String returns the endpoint for display.
func (e Endpoint) String() string {
	if e.URL != "" {
		return e.URL
	}
	return "http://" + e.HostPort + tracesPath
}

// ParseOTELConfig parses OTEL configuration from environment variables
func ParseOTELConfig() (*OTELConfig, error) {
	var cfg OTELConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}
	if _, err := cfg.GetEndpoint(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetEndpoint resolves the traces endpoint.
// Priority: OTEL_EXPORTER_OTLP_TRACES_ENDPOINT > OTEL_EXPORTER_OTLP_ENDPOINT > default.
//
// A signal-specific URL is used as is. A generic URL is a base: the traces
// path is appended to it. Values without a scheme are taken as host:port.
func (c *OTELConfig) GetEndpoint() (Endpoint, error) {
	if v := strings.TrimSpace(c.TracesEndpoint); v != "" {
		return endpointFrom("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", v, false)
	}
	if v := strings.TrimSpace(c.ExporterEndpoint); v != "" {
		return endpointFrom("OTEL_EXPORTER_OTLP_ENDPOINT", v, true)
	}
	return Endpoint{HostPort: DefaultOTLPEndpoint}, nil
}

func endpointFrom(variable, value string, appendPath bool) (Endpoint, error) {
	if !strings.Contains(value, "://") {
		return Endpoint{HostPort: value}, nil
	}

	u, err := url.Parse(value)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid %s %q: %w", variable, value, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, fmt.Errorf("invalid %s %q: scheme must be http or https", variable, value)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("invalid %s %q: missing host", variable, value)
	}
	if appendPath {
		u.Path = strings.TrimSuffix(u.Path, "/") + tracesPath
	}
	return Endpoint{URL: u.String()}, nil
}

// ParseResourceAttributes parses the OTEL_RESOURCE_ATTRIBUTES string.
// Format: key1=value1,key2=value2 with percent-encoded values.
// Malformed pairs are skipped.
func (c *OTELConfig) ParseResourceAttributes() []attribute.KeyValue {
	if c.ResourceAttributes == "" {
		return nil
	}

	var attrs []attribute.KeyValue
	for _, pair := range strings.Split(c.ResourceAttributes, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		decoded, err := url.PathUnescape(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		attrs = append(attrs, attribute.String(key, decoded))
	}
	return attrs
}
