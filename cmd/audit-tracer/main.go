// audit-tracer reports which process, as which user, connected where, from a
// Linux audit log.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrzor/audit-tracer/internal/attributes"
	"github.com/mrzor/audit-tracer/internal/config"
	"github.com/mrzor/audit-tracer/internal/correlator"
	"github.com/mrzor/audit-tracer/internal/eventstream"
	"github.com/mrzor/audit-tracer/internal/logging"
	"github.com/mrzor/audit-tracer/internal/metrics"
	"github.com/mrzor/audit-tracer/internal/otel"
	"github.com/mrzor/audit-tracer/internal/output"
	"github.com/mrzor/audit-tracer/internal/reversedns"
	"github.com/mrzor/audit-tracer/internal/timesync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := run(os.Args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupOTEL initializes the OTEL provider and returns a span formatter and cleanup function.
func setupOTEL(runID string, converter *timesync.Converter, evaluator *attributes.Evaluator, logger *zap.Logger) (*output.OTELFormatter, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}

	tp, err := otel.InitProvider(otelCfg, runID, version, logger.Named("otel"))
	if err != nil {
		return nil, nil, fmt.Errorf("ABORT: failed to initialize OTEL provider: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			logger.Error("error shutting down OTEL provider", zap.Error(err))
		}
	}

	formatter := output.NewOTELFormatter(tp.Tracer("audit-tracer"), converter, evaluator, logger.Named("otel"))
	return formatter, cleanup, nil
}

// setupResolver builds the hostname cache from the environment tuning.
func setupResolver(cfg *config.Config, envCfg *config.EnvConfig, m *metrics.Metrics, logger *zap.Logger) *reversedns.Cache {
	lookup := reversedns.SystemLookup
	if cfg.NoResolve {
		lookup = reversedns.DisabledLookup
	}

	return reversedns.New(
		reversedns.WithLookup(lookup),
		reversedns.WithTimeout(envCfg.DNSTimeout),
		reversedns.WithRateLimit(envCfg.DNSRate),
		reversedns.WithBreaker(envCfg.DNSBreakerFailures, envCfg.DNSBreakerCooldown),
		reversedns.WithLogger(logger.Named("reversedns")),
		reversedns.WithMetrics(m),
	)
}

// setupHandler assembles the text report, optional span export, and filter.
func setupHandler(cfg *config.Config, stdout io.Writer, converter *timesync.Converter, runID string, logger *zap.Logger) (output.FactHandler, func(), error) {
	filter, err := attributes.NewFilter(cfg.Filter)
	if err != nil {
		return nil, nil, err
	}

	evaluator, err := attributes.NewEvaluator(cfg.CustomAttributes, logger.Named("attributes"))
	if err != nil {
		return nil, nil, err
	}

	handlers := []output.FactHandler{output.NewTextFormatter(stdout, converter)}
	cleanup := func() {}

	if cfg.ExportOTEL {
		formatter, cleanupOTEL, err := setupOTEL(runID, converter, evaluator, logger)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, formatter)
		cleanup = cleanupOTEL
	} else if len(cfg.CustomAttributes) > 0 {
		logger.Warn("custom attributes only apply to exported spans; pass --otel to use them")
	}

	return output.Filtered(output.Multi(handlers...), filter, logger.Named("filter")), cleanup, nil
}

func run(args []string, stdout io.Writer) error {
	cfg, err := config.ParseArgs(args)
	switch {
	case errors.Is(err, config.ErrHelp):
		fmt.Fprint(stdout, config.Usage(args[0]))
		return nil
	case errors.Is(err, config.ErrVersion):
		fmt.Fprintf(stdout, "audit-tracer %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	case err != nil:
		return err
	}

	envCfg, err := config.ParseEnv()
	if err != nil {
		return err
	}

	logger, err := logging.New(envCfg.LogLevel, envCfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.NewString()
	logger.Info("starting audit-tracer",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("built", date),
		zap.String("run_id", runID),
		zap.String("input", cfg.InputPath))

	input := io.Reader(os.Stdin)
	if cfg.InputPath != "-" {
		file, err := os.Open(cfg.InputPath)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer func() { _ = file.Close() }()
		input = file
	}

	converter, err := timesync.NewConverter(envCfg.TimeZone)
	if err != nil {
		return fmt.Errorf("failed to create time converter: %w", err)
	}
	logger.Debug("displaying times", zap.Stringer("time_zone", converter.Location()))

	m := metrics.New(nil)

	handler, cleanup, err := setupHandler(cfg, stdout, converter, runID, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []correlator.Option
	if cfg.DecodeSaddr {
		opts = append(opts, correlator.WithRawSockaddrDecoding())
	}
	resolver := setupResolver(cfg, envCfg, m, logger)
	corr := correlator.New(resolver, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream := eventstream.New(input, corr, handler,
		eventstream.WithLogger(logger.Named("stream")),
		eventstream.WithMetrics(m),
	)

	stats, err := stream.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run complete",
		zap.String("run_id", runID),
		zap.Int("records", stats.Records),
		zap.Int("connect_syscalls", stats.ConnectSyscalls),
		zap.Int("facts", stats.Facts),
		zap.Int("resolved_addresses", resolver.Len()))

	if envCfg.MetricsFile != "" {
		if err := m.WriteTextfile(envCfg.MetricsFile); err != nil {
			return err
		}
	}

	return nil
}
