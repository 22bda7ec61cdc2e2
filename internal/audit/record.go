package audit

import (
	"strconv"
	"time"
)

// Timestamp is the "<seconds>.<fraction>" part of an event id.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

// Time returns the timestamp as a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanos)).UTC()
}

// String renders the timestamp with millisecond precision, the way auditd writes it.
func (t Timestamp) String() string {
	ms := t.Nanos / int32(time.Millisecond)
	frac := strconv.Itoa(int(ms))
	for len(frac) < 3 {
		frac = "0" + frac
	}
	return strconv.FormatInt(t.Seconds, 10) + "." + frac
}

// Record is one parsed audit line.
type Record struct {
	// ID is the literal "<seconds>.<fraction>:<sequence>" text from msg=audit(...).
	// Records of one kernel transaction share it. Compare it as text only.
	ID        string
	Timestamp Timestamp
	Kind      EventKind
	// Fields maps field names to values. When a name repeats, the last value wins.
	Fields map[string]string
}

// Field returns the value of a field and whether it was present.
func (r *Record) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// FieldOr returns the value of a field, or def when it is absent.
func (r *Record) FieldOr(name, def string) string {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return def
}
