// Package eventstream drives an audit log through the parser and the
// correlator, one line at a time, and dispatches results to a handler.
package eventstream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mrzor/audit-tracer/internal/audit"
	"github.com/mrzor/audit-tracer/internal/correlator"
	"github.com/mrzor/audit-tracer/internal/metrics"
	"github.com/mrzor/audit-tracer/internal/output"

	"go.uber.org/zap"
)

// MaxLineSize is the default bound on a single audit line. Enriched EXECVE
// records with long argument lists are the largest seen in practice.
const MaxLineSize = 1 << 20

// ErrLineTooLong is reported, through the handler, for a line longer than the
// configured bound. The line is skipped and reading continues.
var ErrLineTooLong = errors.New("line too long")

// Option configures a Stream.
type Option func(*Stream)

// WithLogger sets the logger. Per-line parse failures are logged at debug.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Stream) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxLineSize overrides MaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.maxLineSize = n
		}
	}
}

// WithMetrics records line, record and fact counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Stream) {
		s.metrics = m
	}
}

// Stream reads audit lines from a reader and dispatches them to a handler.
type Stream struct {
	reader     io.Reader
	correlator *correlator.Correlator
	handler    output.FactHandler
	logger     *zap.Logger
	metrics    *metrics.Metrics

	maxLineSize int
}

// New creates a new Stream.
func New(reader io.Reader, corr *correlator.Correlator, handler output.FactHandler, opts ...Option) *Stream {
	s := &Stream{
		reader:     reader,
		correlator: corr,
		handler:    handler,
		logger:     zap.NewNop(),

		maxLineSize: MaxLineSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every line until EOF. A line that fails to parse, including
// one over the size bound, is reported and skipped. Read failures, handler
// failures and context cancellation stop line consumption. In every case the
// handler's Finish is called once with the counters reached so far.
func (s *Stream) Run(ctx context.Context) (correlator.Stats, error) {
	runErr := s.consume(ctx)

	stats := s.correlator.Stats()
	s.metrics.SetPending(s.correlator.Pending())

	if err := s.handler.Finish(stats); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("finishing output: %w", err))
	}
	return stats, runErr
}

// consume feeds lines to processLine until EOF or the first fatal error.
func (s *Stream) consume(ctx context.Context) error {
	reader := bufio.NewReaderSize(s.reader, 64*1024)

	lineNum := 0
	for {
		line, tooLong, err := s.nextLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading input after line %d: %w", lineNum, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNum++

		if tooLong {
			s.metrics.ObserveLine()
			tooLongErr := fmt.Errorf("%w: exceeds %d bytes", ErrLineTooLong, s.maxLineSize)
			if err := s.reportParseError(lineNum, "line_too_long", tooLongErr); err != nil {
				return err
			}
			continue
		}

		if err := s.processLine(ctx, lineNum, line); err != nil {
			return err
		}
	}

	stats := s.correlator.Stats()
	s.logger.Debug("input exhausted",
		zap.Int("lines", lineNum),
		zap.Int("records", stats.Records),
		zap.Int("connect_syscalls", stats.ConnectSyscalls),
		zap.Int("facts", stats.Facts),
		zap.Int("pending", s.correlator.Pending()))
	return nil
}

// nextLine returns the next line without its terminator. tooLong is set for
// a line over the size bound; its content is discarded, not buffered.
// io.EOF is returned only when no line remains.
func (s *Stream) nextLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	read := false
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && read {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		read = true

		if !tooLong {
			if len(buf)+len(frag) > s.maxLineSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// processLine parses one line and feeds it on.
func (s *Stream) processLine(ctx context.Context, lineNum int, line string) error {
	s.metrics.ObserveLine()

	rec, err := audit.Parse(line)
	if err != nil {
		reason := "other"
		var perr *audit.ParseError
		if errors.As(err, &perr) {
			reason = perr.Kind()
		}
		return s.reportParseError(lineNum, reason, err)
	}

	s.metrics.ObserveRecord(rec.Kind.String())

	for _, fact := range s.correlator.Observe(ctx, rec) {
		s.metrics.ObserveFact(string(fact.Kind))
		if err := s.handler.HandleFact(ctx, &fact); err != nil {
			return fmt.Errorf("handling fact for event %s: %w", fact.ID, err)
		}
	}
	return nil
}

func (s *Stream) reportParseError(lineNum int, reason string, err error) error {
	s.metrics.ObserveParseError(reason)
	s.logger.Debug("failed to parse line",
		zap.Int("line", lineNum),
		zap.String("reason", reason),
		zap.Error(err))

	if herr := s.handler.HandleParseError(lineNum, err); herr != nil {
		return fmt.Errorf("reporting parse failure on line %d: %w", lineNum, herr)
	}
	return nil
}
