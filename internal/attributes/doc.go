// Package attributes evaluates user expressions against correlated facts.
//
// Expressions use the expr language and see one fact as:
//
//	id, kind, uid, exe, peer, address, port, path  (strings)
//	seconds                                        (int, Unix time of the event)
//
// Two evaluators:
//   - Evaluator: custom attributes (-a NAME=EXPR) attached to exported spans
//   - Filter: a boolean expression selecting which facts are reported
package attributes
