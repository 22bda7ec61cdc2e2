package attributes

import "github.com/mrzor/audit-tracer/internal/correlator"

// typeEnv declares the variables available to expressions, for type checking.
func typeEnv() map[string]interface{} {
	return map[string]interface{}{
		"id":      "",
		"kind":    "",
		"uid":     "",
		"exe":     "",
		"peer":    "",
		"address": "",
		"port":    "",
		"path":    "",
		"seconds": 0,
	}
}

// factEnv builds the evaluation environment for a fact.
func factEnv(f *correlator.Fact) map[string]interface{} {
	return map[string]interface{}{
		"id":      f.ID,
		"kind":    string(f.Kind),
		"uid":     f.UID,
		"exe":     f.Exe,
		"peer":    f.Peer,
		"address": f.Address,
		"port":    f.Port,
		"path":    f.Path,
		"seconds": int(f.Timestamp.Seconds),
	}
}
