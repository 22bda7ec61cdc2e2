package correlator

import "github.com/mrzor/audit-tracer/internal/audit"

// FactKind tells network facts from unix-socket facts.
type FactKind string

// Fact kinds.
const (
	FactNetwork FactKind = "network"
	FactUnix    FactKind = "unix"
)

// Fact is one attributed connection observation.
type Fact struct {
	Kind      FactKind
	ID        string // audit event id
	Timestamp audit.Timestamp
	UID       string
	Exe       string

	// Network facts.
	Peer    string // resolved host name, or the address literal
	Address string // address literal as logged
	Port    string // "none" when the record has no lport

	// Unix facts.
	Path string
}
