package attributes

import (
	"testing"

	"github.com/mrzor/audit-tracer/internal/config"
	"github.com/mrzor/audit-tracer/internal/correlator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func networkFact() *correlator.Fact {
	return &correlator.Fact{
		Kind:    correlator.FactNetwork,
		ID:      "1731248208.117:6983",
		UID:     "systemd-resolve",
		Exe:     "/usr/lib/systemd/systemd-resolved",
		Peer:    "dns.example",
		Address: "100.100.100.100",
		Port:    "53",
	}
}

func TestEvaluator_Simple(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "test.exe", Expression: `exe`},
		{Name: "dns", Expression: `port == "53"`},
	}

	evaluator, err := NewEvaluator(attrs, nil)
	require.NoError(t, err)

	result := evaluator.Evaluate(networkFact())
	require.Len(t, result, 2)

	assert.Equal(t, "test.exe", string(result[0].Key))
	assert.Equal(t, "/usr/lib/systemd/systemd-resolved", result[0].Value.AsString())
	assert.Equal(t, "dns", string(result[1].Key))
	assert.Equal(t, "true", result[1].Value.AsString())
}

func TestEvaluator_MapExpansion(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "actor", Expression: `{"user": uid, "bin path": exe}`},
	}

	evaluator, err := NewEvaluator(attrs, nil)
	require.NoError(t, err)

	result := evaluator.Evaluate(networkFact())
	require.Len(t, result, 2)

	got := make(map[string]string)
	for _, kv := range result {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, map[string]string{
		"actor.user":     "systemd-resolve",
		"actor.bin_path": "/usr/lib/systemd/systemd-resolved",
	}, got)
}

func TestEvaluator_CompileError(t *testing.T) {
	_, err := NewEvaluator([]config.CustomAttribute{{Name: "bad", Expression: `nosuchvar + 1`}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `attribute "bad"`)
}

func TestEvaluator_RuntimeErrorSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	attrs := []config.CustomAttribute{
		{Name: "boom", Expression: `int(port)`},
		{Name: "ok", Expression: `uid`},
	}

	evaluator, err := NewEvaluator(attrs, zap.New(core))
	require.NoError(t, err)

	fact := networkFact()
	fact.Port = correlator.NoPort

	result := evaluator.Evaluate(fact)
	require.Len(t, result, 1)
	assert.Equal(t, "ok", string(result[0].Key))
	assert.Equal(t, 1, logs.FilterMessage("failed to evaluate attribute expression").Len())
}

func TestEvaluator_NoAttributes(t *testing.T) {
	evaluator, err := NewEvaluator(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, evaluator.Evaluate(networkFact()))

	var nilEvaluator *Evaluator
	assert.Nil(t, nilEvaluator.Evaluate(networkFact()))
}

func TestSanitizeAttributeName(t *testing.T) {
	assert.Equal(t, "a_b_c", sanitizeAttributeName("a.b-c"))
	assert.Equal(t, "ABC_123", sanitizeAttributeName("ABC_123"))
}
