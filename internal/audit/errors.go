package audit

import (
	"errors"
	"fmt"
)

// Grammar failures. A *ParseError wraps exactly one of them.
var (
	ErrMalformedHeader    = errors.New("malformed header")
	ErrUnknownEventKind   = errors.New("unknown event kind")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrUnterminatedQuote  = errors.New("unterminated quoted value")
)

// ParseError reports why a line could not be parsed.
type ParseError struct {
	Line   string // raw input line
	Token  string // offending token, if any
	Reason string // short human-readable detail
	Err    error  // one of the Err* sentinels
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Token != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Token)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Kind returns a stable short label for the failure, suitable for metrics.
func (e *ParseError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(e.Err, ErrUnknownEventKind):
		return "unknown_event_kind"
	case errors.Is(e.Err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(e.Err, ErrUnterminatedQuote):
		return "unterminated_quote"
	default:
		return "other"
	}
}

func parseErr(line string, err error, token, reason string) *ParseError {
	return &ParseError{Line: line, Token: token, Reason: reason, Err: err}
}
