package output

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/mrzor/audit-tracer/internal/correlator"
	"github.com/mrzor/audit-tracer/internal/timesync"
)

// TextFormatter writes facts as plain text lines:
//
//	<time> <uid> <exe> <peer> port <port>
//	<time> <uid> <exe> <path>
//
// followed by a blank line and a summary on Finish.
type TextFormatter struct {
	w         *bufio.Writer
	converter *timesync.Converter
}

// NewTextFormatter creates a TextFormatter writing to w.
func NewTextFormatter(w io.Writer, converter *timesync.Converter) *TextFormatter {
	return &TextFormatter{
		w:         bufio.NewWriter(w),
		converter: converter,
	}
}

// HandleFact writes one fact line.
func (f *TextFormatter) HandleFact(_ context.Context, fact *correlator.Fact) error {
	when := f.converter.Format(fact.Timestamp)

	var err error
	switch fact.Kind {
	case correlator.FactNetwork:
		_, err = fmt.Fprintf(f.w, "%s %s %s %s port %s\n", when, fact.UID, fact.Exe, fact.Peer, fact.Port)
	case correlator.FactUnix:
		_, err = fmt.Fprintf(f.w, "%s %s %s %s\n", when, fact.UID, fact.Exe, fact.Path)
	default:
		return fmt.Errorf("unknown fact kind %q", fact.Kind)
	}
	return err
}

// HandleParseError writes a one-line diagnostic in the report stream.
func (f *TextFormatter) HandleParseError(lineNum int, err error) error {
	_, werr := fmt.Fprintf(f.w, "failed to parse %d: %v\n", lineNum, err)
	return werr
}

// Finish writes the summary and flushes.
func (f *TextFormatter) Finish(stats correlator.Stats) error {
	if _, err := fmt.Fprintf(f.w, "\nTotal syscall connect %d / parsed %d\n", stats.ConnectSyscalls, stats.Facts); err != nil {
		return err
	}
	if err := f.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
