package output

import (
	"context"
	"errors"

	"github.com/mrzor/audit-tracer/internal/attributes"
	"github.com/mrzor/audit-tracer/internal/correlator"

	"go.uber.org/zap"
)

// FactHandler receives the results of processing an audit log.
type FactHandler interface {
	// HandleFact reports one correlated fact.
	HandleFact(ctx context.Context, fact *correlator.Fact) error
	// HandleParseError reports a line that could not be parsed. lineNum is 1-based.
	HandleParseError(lineNum int, err error) error
	// Finish is called once, after the last line consumed, also when the run
	// stops early. Output buffered so far must be written out here.
	Finish(stats correlator.Stats) error
}

// multiHandler fans out to several handlers.
type multiHandler struct {
	handlers []FactHandler
}

// Multi returns a handler forwarding to every handler in order. Errors are
// joined; a failing handler does not stop the others.
func Multi(handlers ...FactHandler) FactHandler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) HandleFact(ctx context.Context, fact *correlator.Fact) error {
	var errs []error
	for _, h := range m.handlers {
		errs = append(errs, h.HandleFact(ctx, fact))
	}
	return errors.Join(errs...)
}

func (m *multiHandler) HandleParseError(lineNum int, err error) error {
	var errs []error
	for _, h := range m.handlers {
		errs = append(errs, h.HandleParseError(lineNum, err))
	}
	return errors.Join(errs...)
}

func (m *multiHandler) Finish(stats correlator.Stats) error {
	var errs []error
	for _, h := range m.handlers {
		errs = append(errs, h.Finish(stats))
	}
	return errors.Join(errs...)
}

// filteredHandler forwards only the facts matching a filter.
type filteredHandler struct {
	next   FactHandler
	filter *attributes.Filter
	logger *zap.Logger
}

// Filtered wraps next so that it only sees facts matching filter. A nil
// filter returns next unchanged. Facts whose evaluation fails are dropped
// and logged at debug level.
func Filtered(next FactHandler, filter *attributes.Filter, logger *zap.Logger) FactHandler {
	if filter == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &filteredHandler{next: next, filter: filter, logger: logger}
}

func (f *filteredHandler) HandleFact(ctx context.Context, fact *correlator.Fact) error {
	ok, err := f.filter.Match(fact)
	if err != nil {
		f.logger.Debug("filter evaluation failed",
			zap.String("filter", f.filter.String()),
			zap.String("event_id", fact.ID),
			zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return f.next.HandleFact(ctx, fact)
}

func (f *filteredHandler) HandleParseError(lineNum int, err error) error {
	return f.next.HandleParseError(lineNum, err)
}

func (f *filteredHandler) Finish(stats correlator.Stats) error {
	return f.next.Finish(stats)
}
