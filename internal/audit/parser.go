package audit

import (
	"strconv"
	"strings"
)

// EnrichmentSeparator is the control character auditd places between the raw
// field list and its interpreted (enriched) rendering.
// See https://github.com/linux-audit/audit-documentation/wiki/SPEC-Audit-Event-Enrichment
const EnrichmentSeparator = '\x1d'

const (
	typePrefix   = "type="
	headerPrefix = "msg=audit("
	headerSuffix = "): "
)

// Parse parses a single audit log line.
// Any failure is returned as a *ParseError.
func Parse(line string) (*Record, error) {
	kind, rest, err := parseType(line)
	if err != nil {
		return nil, err
	}

	id, ts, rest, err := parseHeader(line, rest)
	if err != nil {
		return nil, err
	}

	body := rest
	if kind == SockAddr {
		if block, ok := sockaddrBlock(rest); ok {
			body = block
		}
	}

	fields, err := parseFields(line, body)
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:        id,
		Timestamp: ts,
		Kind:      kind,
		Fields:    fields,
	}, nil
}

// parseType consumes "type=<TOKEN>" and the whitespace after it.
func parseType(line string) (EventKind, string, error) {
	if !strings.HasPrefix(line, typePrefix) {
		return 0, "", parseErr(line, ErrMalformedHeader, "", "missing type= marker")
	}
	rest := line[len(typePrefix):]

	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		return 0, "", parseErr(line, ErrMalformedHeader, "", "no whitespace after record type")
	}
	token := rest[:end]

	kind, ok := ParseEventKind(token)
	if !ok {
		return 0, "", parseErr(line, ErrUnknownEventKind, token, "")
	}
	return kind, strings.TrimLeft(rest[end:], " \t"), nil
}

// parseHeader consumes "msg=audit(<id>): " and returns the id and its timestamp.
func parseHeader(line, rest string) (string, Timestamp, string, error) {
	if !strings.HasPrefix(rest, headerPrefix) {
		return "", Timestamp{}, "", parseErr(line, ErrMalformedHeader, "", "missing msg=audit(")
	}
	rest = rest[len(headerPrefix):]

	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return "", Timestamp{}, "", parseErr(line, ErrMalformedHeader, "", "unterminated event id")
	}
	id := rest[:end]

	ts, reason := parseTimestamp(id)
	if reason != "" {
		return "", Timestamp{}, "", parseErr(line, ErrMalformedTimestamp, id, reason)
	}

	rest = rest[end:]
	switch {
	case strings.HasPrefix(rest, headerSuffix):
		rest = rest[len(headerSuffix):]
	case rest == "):":
		rest = ""
	default:
		return "", Timestamp{}, "", parseErr(line, ErrMalformedHeader, "", `expected "): " after event id`)
	}
	return id, ts, rest, nil
}

// parseTimestamp reads the "<digits>.<digits>" prefix of an event id.
// A non-empty reason means the timestamp is malformed.
func parseTimestamp(id string) (Timestamp, string) {
	text := id
	if i := strings.IndexByte(id, ':'); i >= 0 {
		text = id[:i]
	}

	secText, fracText, ok := strings.Cut(text, ".")
	if !ok || !isDigits(secText) || !isDigits(fracText) {
		return Timestamp{}, "expected <digits>.<digits>"
	}

	secs, err := strconv.ParseInt(secText, 10, 64)
	if err != nil {
		return Timestamp{}, "seconds out of range"
	}
	if len(fracText) > 9 {
		return Timestamp{}, "fraction finer than nanoseconds"
	}

	nanos, err := strconv.ParseInt(fracText, 10, 32)
	if err != nil {
		return Timestamp{}, "fraction out of range"
	}
	for i := len(fracText); i < 9; i++ {
		nanos *= 10
	}

	return Timestamp{Seconds: secs, Nanos: int32(nanos)}, ""
}

// sockaddrBlock returns the text between "{ " and " }", if the line has such a block.
func sockaddrBlock(rest string) (string, bool) {
	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return "", false
	}
	body := rest[open+1:]
	if !strings.HasPrefix(body, " ") {
		return "", false
	}

	end := strings.Index(body, " }")
	switch {
	case end < 0:
		return "", false
	case end == 0:
		return "", true
	}
	return body[1:end], true
}

// parseFields parses a key=value list. Pairs are separated by a single space or
// by the enrichment separator. A value starting with '"' runs to the next '"'.
// Tokens without '=' and pairs with an empty key are skipped.
func parseFields(line, s string) (map[string]string, error) {
	fields := make(map[string]string)

	for len(s) > 0 {
		if isSeparator(s[0]) {
			s = s[1:]
			continue
		}

		end := indexSeparator(s)
		eq := strings.IndexByte(s[:end], '=')
		if eq < 0 {
			s = s[end:]
			continue
		}
		key, rest := s[:eq], s[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			closing := strings.IndexByte(rest[1:], '"')
			if closing < 0 {
				return nil, parseErr(line, ErrUnterminatedQuote, key, "")
			}
			value = rest[1 : closing+1]
			rest = rest[closing+2:]
			// Text glued to the closing quote belongs to no pair.
			rest = rest[indexSeparator(rest):]
		} else {
			vend := indexSeparator(rest)
			value, rest = rest[:vend], rest[vend:]
		}

		if key != "" {
			fields[key] = value
		}
		s = rest
	}

	return fields, nil
}

func isSeparator(c byte) bool {
	return c == ' ' || c == EnrichmentSeparator
}

// indexSeparator returns the index of the next separator, or len(s).
func indexSeparator(s string) int {
	for i := 0; i < len(s); i++ {
		if isSeparator(s[i]) {
			return i
		}
	}
	return len(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
