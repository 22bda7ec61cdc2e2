// Package correlator joins SYSCALL records with the SOCKADDR record of the same
// audit event and emits who-connected-where facts.
//
//	type=SYSCALL  msg=audit(T:1): ... exe="/bin/x" UID="alice" ...   -> remember exe, uid for "T:1"
//	type=SOCKADDR msg=audit(T:1): ... { laddr=8.8.8.8 lport=53 }     -> fact {alice, /bin/x, dns.google, 53}
//
// The join relies on auditd writing the SYSCALL record of an event before its
// SOCKADDR record. When that does not hold, or the SYSCALL record is missing,
// the fact is still emitted with empty actor fields.
//
// Attributes of events that never get a SOCKADDR record stay pending until the
// correlator is dropped.
//
// A Correlator is not safe for concurrent use; feed it records in input order
// from a single goroutine.
package correlator
