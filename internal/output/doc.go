// Package output turns correlated facts into reports.
//
// TextFormatter prints one line per fact followed by a summary, the classic
// report format. OTELFormatter exports each fact as an OpenTelemetry span
// stamped with the audit record time, carrying any custom attributes.
//
// Handlers compose: Filtered drops facts an expression rejects, Multi fans
// out to several handlers. Neither parses, correlates nor resolves; facts
// arrive fully built from the correlator package.
package output
