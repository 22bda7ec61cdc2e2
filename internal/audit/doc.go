// Package audit turns Linux kernel audit log lines into typed records.
//
// A line looks like:
//
//	type=SYSCALL msg=audit(1731248208.117:6983): arch=c000003e syscall=42 exe="/usr/bin/curl" ...
//
// Parse splits it into an EventKind, the event id ("1731248208.117:6983"), the
// timestamp, and a field table. Field values are either bare (terminated by a
// space, the enrichment separator 0x1d, or end of line) or double-quoted.
// SOCKADDR records carry their interpreted fields inside a "{ ... }" block
// appended by the enrichment layer; when the block is missing the plain field
// list is used instead.
//
// Field values are substrings of the parsed line. A Record therefore keeps the
// line alive for as long as the Record is referenced; nothing else retains it.
//
// Parse has no shared state. Calling it twice on the same line yields equal records.
package audit
