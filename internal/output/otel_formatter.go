package output

import (
	"context"
	"strconv"

	"github.com/mrzor/audit-tracer/internal/attributes"
	"github.com/mrzor/audit-tracer/internal/correlator"
	"github.com/mrzor/audit-tracer/internal/timesync"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Span names.
const (
	SpanConnect     = "audit.connect"
	SpanUnixConnect = "audit.unix_connect"
)

// Span attribute keys not covered by semconv.
const (
	EventIDKey      = attribute.Key("audit.event_id")
	PeerNameKey     = attribute.Key("net.peer.name")
	PeerIPKey       = attribute.Key("net.peer.ip")
	PeerPortKey     = attribute.Key("net.peer.port")
	LocalAddressKey = attribute.Key("network.local.address")
)

// OTELFormatter exports facts as OpenTelemetry spans. Each span starts and
// ends at the audit record time.
type OTELFormatter struct {
	tracer    trace.Tracer
	converter *timesync.Converter
	evaluator *attributes.Evaluator
	logger    *zap.Logger
	spans     int
}

// NewOTELFormatter creates an OTELFormatter. evaluator may be nil.
func NewOTELFormatter(tracer trace.Tracer, converter *timesync.Converter, evaluator *attributes.Evaluator, logger *zap.Logger) *OTELFormatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTELFormatter{
		tracer:    tracer,
		converter: converter,
		evaluator: evaluator,
		logger:    logger,
	}
}

// HandleFact emits one span for the fact.
func (f *OTELFormatter) HandleFact(ctx context.Context, fact *correlator.Fact) error {
	start := f.converter.ToWallClock(fact.Timestamp)

	attrs := []attribute.KeyValue{
		EventIDKey.String(fact.ID),
		semconv.ProcessOwner(fact.UID),
		semconv.ProcessExecutablePath(fact.Exe),
	}

	name := SpanConnect
	switch fact.Kind {
	case correlator.FactNetwork:
		attrs = append(attrs,
			PeerNameKey.String(fact.Peer),
			PeerIPKey.String(fact.Address),
		)
		// Records without lport carry no port attribute.
		if port, err := strconv.Atoi(fact.Port); err == nil {
			attrs = append(attrs, PeerPortKey.Int(port))
		}
	case correlator.FactUnix:
		name = SpanUnixConnect
		attrs = append(attrs, LocalAddressKey.String(fact.Path))
	}

	attrs = append(attrs, f.evaluator.Evaluate(fact)...)

	_, span := f.tracer.Start(ctx, name,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	span.End(trace.WithTimestamp(start))
	f.spans++

	return nil
}

// HandleParseError is a no-op; parse failures are not exported.
func (f *OTELFormatter) HandleParseError(int, error) error {
	return nil
}

// Finish logs how many spans were emitted. Flushing is the provider's job.
func (f *OTELFormatter) Finish(stats correlator.Stats) error {
	f.logger.Info("exported facts as spans",
		zap.Int("spans", f.spans),
		zap.Int("facts", stats.Facts))
	return nil
}
