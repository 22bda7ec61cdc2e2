// Package timesync converts audit record timestamps to wall-clock time and
// renders them for display.
//
// Audit timestamps are Unix seconds plus a fraction, always UTC. The
// converter places them in a configured location (UTC unless told otherwise)
// and formats them like "Sun 10 Nov 2024 14:16:50".
package timesync
