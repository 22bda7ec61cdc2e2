package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestParseArgs_InputOnly(t *testing.T) {
	cfg, err := ParseArgs([]string{"audit-tracer", "/var/log/audit/audit.log"})

	require.NoError(t, err)
	assert.Equal(t, "/var/log/audit/audit.log", cfg.InputPath)
	assert.Empty(t, cfg.CustomAttributes)
	assert.Empty(t, cfg.Filter)
	assert.False(t, cfg.ExportOTEL)
	assert.False(t, cfg.DecodeSaddr)
	assert.False(t, cfg.NoResolve)
}

func TestParseArgs_Flags(t *testing.T) {
	args := []string{
		"audit-tracer",
		"--otel", "--decode-saddr", "--no-resolve",
		"-f", `kind == "network"`,
		"audit.log",
	}

	cfg, err := ParseArgs(args)
	require.NoError(t, err)
	assert.Equal(t, "audit.log", cfg.InputPath)
	assert.True(t, cfg.ExportOTEL)
	assert.True(t, cfg.DecodeSaddr)
	assert.True(t, cfg.NoResolve)
	assert.Equal(t, `kind == "network"`, cfg.Filter)
}

func TestParseArgs_StdinDash(t *testing.T) {
	cfg, err := ParseArgs([]string{"audit-tracer", "-"})
	require.NoError(t, err)
	assert.Equal(t, "-", cfg.InputPath)
}

func TestParseArgs_DoubleDash(t *testing.T) {
	cfg, err := ParseArgs([]string{"audit-tracer", "--otel", "--", "--weird-name.log"})
	require.NoError(t, err)
	assert.Equal(t, "--weird-name.log", cfg.InputPath)
	assert.True(t, cfg.ExportOTEL)
}

func TestParseArgs_Attributes(t *testing.T) {
	args := []string{
		"audit-tracer",
		"-a", "owner=uid",
		"--attribute", "dns=peer != address; bin=exe",
		"audit.log",
	}

	cfg, err := ParseArgs(args)
	require.NoError(t, err)
	assert.Equal(t, []CustomAttribute{
		{Name: "owner", Expression: "uid"},
		{Name: "dns", Expression: "peer != address"},
		{Name: "bin", Expression: "exe"},
	}, cfg.CustomAttributes)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no arguments", []string{}, "no arguments provided"},
		{"no input", []string{"audit-tracer", "--otel"}, "no input file specified"},
		{"two inputs", []string{"audit-tracer", "a.log", "b.log"}, `unexpected argument "b.log"`},
		{"unknown option", []string{"audit-tracer", "--bogus", "a.log"}, `unknown option "--bogus"`},
		{"filter without value", []string{"audit-tracer", "a.log", "-f"}, "-f requires a value"},
		{"attribute without value", []string{"audit-tracer", "a.log", "--attribute"}, "--attribute requires a value"},
		{"bad attribute", []string{"audit-tracer", "-a", "noequals", "a.log"}, "expected NAME=EXPR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseArgs(tt.args)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseArgs_HelpAndVersion(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		_, err := ParseArgs([]string{"audit-tracer", arg})
		assert.ErrorIs(t, err, ErrHelp)
	}
	for _, arg := range []string{"-v", "--version"} {
		_, err := ParseArgs([]string{"audit-tracer", arg, "audit.log"})
		assert.ErrorIs(t, err, ErrVersion)
	}
}

func TestUsage(t *testing.T) {
	usage := Usage("audit-tracer")
	assert.Contains(t, usage, "Usage: audit-tracer [options] <audit.log>")
	assert.Contains(t, usage, "--decode-saddr")
}

func TestParseAttributeString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []CustomAttribute
		wantErr string
	}{
		{
			name:  "single",
			input: "owner=uid",
			want:  []CustomAttribute{{Name: "owner", Expression: "uid"}},
		},
		{
			name:  "expression keeps later equals signs",
			input: `dns=port == "53"`,
			want:  []CustomAttribute{{Name: "dns", Expression: `port == "53"`}},
		},
		{
			name:  "trailing semicolon and blanks",
			input: " a = uid ;; b=exe; ",
			want: []CustomAttribute{
				{Name: "a", Expression: "uid"},
				{Name: "b", Expression: "exe"},
			},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{name: "missing equals", input: "owner", wantErr: "expected NAME=EXPR"},
		{name: "empty name", input: "=uid", wantErr: "name cannot be empty"},
		{name: "empty expression", input: "owner= ", wantErr: "expression cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAttributeString(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnv_Defaults(t *testing.T) {
	cfg, err := ParseEnv()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.Equal(t, 2*time.Second, cfg.DNSTimeout)
	assert.Zero(t, cfg.DNSRate)
	assert.Equal(t, uint32(5), cfg.DNSBreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.DNSBreakerCooldown)
	assert.Empty(t, cfg.MetricsFile)
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("AUDIT_TRACER_LOG_LEVEL", "debug")
	t.Setenv("AUDIT_TRACER_LOG_FORMAT", "json")
	t.Setenv("AUDIT_TRACER_TIME_ZONE", "Europe/Paris")
	t.Setenv("AUDIT_TRACER_DNS_TIMEOUT", "250ms")
	t.Setenv("AUDIT_TRACER_DNS_RATE", "10.5")
	t.Setenv("AUDIT_TRACER_DNS_BREAKER_FAILURES", "3")
	t.Setenv("AUDIT_TRACER_DNS_BREAKER_COOLDOWN", "1m")
	t.Setenv("AUDIT_TRACER_METRICS_FILE", "/tmp/audit.prom")

	cfg, err := ParseEnv()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "Europe/Paris", cfg.TimeZone)
	assert.Equal(t, 250*time.Millisecond, cfg.DNSTimeout)
	assert.InDelta(t, 10.5, cfg.DNSRate, 1e-9)
	assert.Equal(t, uint32(3), cfg.DNSBreakerFailures)
	assert.Equal(t, time.Minute, cfg.DNSBreakerCooldown)
	assert.Equal(t, "/tmp/audit.prom", cfg.MetricsFile)
}

func TestParseEnv_Invalid(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("AUDIT_TRACER_DNS_TIMEOUT", "soon")
		_, err := ParseEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse environment config")
	})

	t.Run("negative rate", func(t *testing.T) {
		t.Setenv("AUDIT_TRACER_DNS_RATE", "-1")
		_, err := ParseEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not be negative")
	})
}

func TestParseOTELConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := ParseOTELConfig()
		require.NoError(t, err)
		assert.Equal(t, "audit-tracer", cfg.ServiceName)
		assert.Nil(t, cfg.ParseResourceAttributes())

		endpoint, err := cfg.GetEndpoint()
		require.NoError(t, err)
		assert.Equal(t, Endpoint{HostPort: "localhost:4318"}, endpoint)
		assert.Equal(t, "http://localhost:4318/v1/traces", endpoint.String())
	})

	t.Run("invalid endpoint fails parsing", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "grpc://collector:4317")
		_, err := ParseOTELConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheme must be http or https")
	})

	t.Run("resource attributes", func(t *testing.T) {
		t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "host.name=web1, deployment.environment = prod,broken,=x,team=sre%20ops,bad=%zz")
		cfg, err := ParseOTELConfig()
		require.NoError(t, err)
		assert.Equal(t, []attribute.KeyValue{
			attribute.String("host.name", "web1"),
			attribute.String("deployment.environment", "prod"),
			attribute.String("team", "sre ops"),
		}, cfg.ParseResourceAttributes())
	})
}

func TestOTELConfig_GetEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		generic string
		traces  string
		want    Endpoint
		wantErr string
	}{
		{
			name:    "generic host:port",
			generic: "collector:4318",
			want:    Endpoint{HostPort: "collector:4318"},
		},
		{
			name:    "generic URL gets the traces path",
			generic: "http://collector:4318",
			want:    Endpoint{URL: "http://collector:4318/v1/traces"},
		},
		{
			name:    "generic URL with base path and trailing slash",
			generic: "https://otel.example.com/ingest/",
			want:    Endpoint{URL: "https://otel.example.com/ingest/v1/traces"},
		},
		{
			name:   "traces URL used as is",
			traces: "https://otel.example.com/custom/traces",
			want:   Endpoint{URL: "https://otel.example.com/custom/traces"},
		},
		{
			name:   "traces host:port",
			traces: "traces:4318",
			want:   Endpoint{HostPort: "traces:4318"},
		},
		{
			name:    "traces variable wins",
			generic: "http://collector:4318",
			traces:  "http://traces:4318/v1/traces",
			want:    Endpoint{URL: "http://traces:4318/v1/traces"},
		},
		{
			name:    "unsupported scheme",
			traces:  "ftp://collector",
			wantErr: "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		},
		{
			name:    "missing host",
			generic: "http://",
			wantErr: "missing host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &OTELConfig{ExporterEndpoint: tt.generic, TracesEndpoint: tt.traces}
			got, err := cfg.GetEndpoint()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndpoint_String(t *testing.T) {
	assert.Equal(t, "https://otel.example.com/v1/traces", Endpoint{URL: "https://otel.example.com/v1/traces"}.String())
	assert.Equal(t, "http://collector:4318/v1/traces", Endpoint{HostPort: "collector:4318"}.String())
}
