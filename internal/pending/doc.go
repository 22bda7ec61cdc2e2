// Package pending holds attributes captured from SYSCALL records until the
// SOCKADDR record of the same event consumes them.
//
// Store provides command-query separation:
//
// Queries (read-only):
//   - Len() - Number of ids with at least one captured attribute
//
// Commands (mutations):
//   - SetExe(id, exe) / SetUID(id, uid) - Capture, overwriting any earlier value
//   - Take(id) - Consume and remove the attributes of an id
//
// Ids that are never consumed stay in the store for its lifetime. Their number
// is bounded by the number of distinct event ids in the input.
//
// A Store is owned by a single goroutine and is not safe for concurrent use.
package pending
