package output

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mrzor/audit-tracer/internal/attributes"
	"github.com/mrzor/audit-tracer/internal/audit"
	"github.com/mrzor/audit-tracer/internal/correlator"
	"github.com/mrzor/audit-tracer/internal/timesync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-11-10 14:16:50 UTC, a Sunday.
var testTimestamp = audit.Timestamp{Seconds: 1731248210, Nanos: 117000000}

func networkFact() *correlator.Fact {
	return &correlator.Fact{
		Kind:      correlator.FactNetwork,
		ID:        "1731248210.117:6983",
		Timestamp: testTimestamp,
		UID:       "systemd-resolve",
		Exe:       "/usr/lib/systemd/systemd-resolved",
		Peer:      "dns.example",
		Address:   "100.100.100.100",
		Port:      "53",
	}
}

func unixFact() *correlator.Fact {
	return &correlator.Fact{
		Kind:      correlator.FactUnix,
		ID:        "1731248210.117:6984",
		Timestamp: testTimestamp,
		UID:       "root",
		Exe:       "/usr/bin/sshd",
		Path:      "/run/systemd/journal/dev-log",
	}
}

func utcConverter(t *testing.T) *timesync.Converter {
	t.Helper()
	converter, err := timesync.NewConverter("UTC")
	require.NoError(t, err)
	return converter
}

// recordingHandler remembers what it was given.
type recordingHandler struct {
	facts       []*correlator.Fact
	parseErrors []int
	finished    *correlator.Stats
	err         error
}

func (r *recordingHandler) HandleFact(_ context.Context, fact *correlator.Fact) error {
	r.facts = append(r.facts, fact)
	return r.err
}

func (r *recordingHandler) HandleParseError(lineNum int, _ error) error {
	r.parseErrors = append(r.parseErrors, lineNum)
	return r.err
}

func (r *recordingHandler) Finish(stats correlator.Stats) error {
	r.finished = &stats
	return r.err
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, utcConverter(t))
	ctx := context.Background()

	noPort := networkFact()
	noPort.Port = correlator.NoPort
	noPort.UID = ""
	noPort.Exe = ""

	require.NoError(t, f.HandleFact(ctx, networkFact()))
	require.NoError(t, f.HandleFact(ctx, unixFact()))
	require.NoError(t, f.HandleParseError(7, errors.New("bad line")))
	require.NoError(t, f.HandleFact(ctx, noPort))
	require.NoError(t, f.Finish(correlator.Stats{Records: 10, ConnectSyscalls: 4, Facts: 3}))

	want := "Sun 10 Nov 2024 14:16:50 systemd-resolve /usr/lib/systemd/systemd-resolved dns.example port 53\n" +
		"Sun 10 Nov 2024 14:16:50 root /usr/bin/sshd /run/systemd/journal/dev-log\n" +
		"failed to parse 7: bad line\n" +
		"Sun 10 Nov 2024 14:16:50   dns.example port none\n" +
		"\n" +
		"Total syscall connect 4 / parsed 3\n"
	assert.Equal(t, want, buf.String())
}

func TestTextFormatter_BuffersUntilFinish(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, utcConverter(t))

	require.NoError(t, f.HandleFact(context.Background(), networkFact()))
	assert.Empty(t, buf.String())

	require.NoError(t, f.Finish(correlator.Stats{}))
	assert.Contains(t, buf.String(), "Total syscall connect 0 / parsed 0")
}

func TestTextFormatter_UnknownKind(t *testing.T) {
	f := NewTextFormatter(&bytes.Buffer{}, utcConverter(t))
	fact := networkFact()
	fact.Kind = "bogus"

	err := f.HandleFact(context.Background(), fact)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fact kind")
}

func TestMulti(t *testing.T) {
	a := &recordingHandler{}
	b := &recordingHandler{err: errors.New("b failed")}
	h := Multi(a, b)
	ctx := context.Background()

	err := h.HandleFact(ctx, networkFact())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b failed")

	_ = h.HandleParseError(3, errors.New("x"))
	_ = h.Finish(correlator.Stats{Facts: 1})

	for _, r := range []*recordingHandler{a, b} {
		assert.Len(t, r.facts, 1)
		assert.Equal(t, []int{3}, r.parseErrors)
		require.NotNil(t, r.finished)
		assert.Equal(t, 1, r.finished.Facts)
	}
}

func TestMulti_Single(t *testing.T) {
	a := &recordingHandler{}
	assert.Same(t, a, Multi(a))
}

func TestFiltered(t *testing.T) {
	filter, err := attributes.NewFilter(`kind == "unix"`)
	require.NoError(t, err)

	next := &recordingHandler{}
	h := Filtered(next, filter, nil)
	ctx := context.Background()

	require.NoError(t, h.HandleFact(ctx, networkFact()))
	require.NoError(t, h.HandleFact(ctx, unixFact()))
	require.NoError(t, h.HandleParseError(2, errors.New("x")))
	require.NoError(t, h.Finish(correlator.Stats{Facts: 2}))

	require.Len(t, next.facts, 1)
	assert.Equal(t, correlator.FactUnix, next.facts[0].Kind)
	assert.Equal(t, []int{2}, next.parseErrors)
	assert.Equal(t, 2, next.finished.Facts)
}

func TestFiltered_EvaluationErrorDrops(t *testing.T) {
	filter, err := attributes.NewFilter(`int(port) > 1000`)
	require.NoError(t, err)

	next := &recordingHandler{}
	h := Filtered(next, filter, nil)

	fact := networkFact()
	fact.Port = correlator.NoPort
	require.NoError(t, h.HandleFact(context.Background(), fact))
	assert.Empty(t, next.facts)
}

func TestFiltered_NilFilter(t *testing.T) {
	next := &recordingHandler{}
	assert.Same(t, next, Filtered(next, nil, nil))
}
