package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds runtime tuning from environment variables
type EnvConfig struct {
	LogLevel  string `env:"AUDIT_TRACER_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"AUDIT_TRACER_LOG_FORMAT" envDefault:"console"`
	TimeZone  string `env:"AUDIT_TRACER_TIME_ZONE" envDefault:"UTC"`

	DNSTimeout         time.Duration `env:"AUDIT_TRACER_DNS_TIMEOUT" envDefault:"2s"`
	DNSRate            float64       `env:"AUDIT_TRACER_DNS_RATE" envDefault:"0"`
	DNSBreakerFailures uint32        `env:"AUDIT_TRACER_DNS_BREAKER_FAILURES" envDefault:"5"`
	DNSBreakerCooldown time.Duration `env:"AUDIT_TRACER_DNS_BREAKER_COOLDOWN" envDefault:"30s"`

	MetricsFile string `env:"AUDIT_TRACER_METRICS_FILE"`
}

// ParseEnv parses runtime configuration from environment variables
func ParseEnv() (*EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment config: %w", err)
	}
	if cfg.DNSRate < 0 {
		return nil, fmt.Errorf("AUDIT_TRACER_DNS_RATE must not be negative, got %v", cfg.DNSRate)
	}
	return &cfg, nil
}
