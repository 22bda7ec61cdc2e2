package correlator

import (
	"context"

	"github.com/mrzor/audit-tracer/internal/audit"
	"github.com/mrzor/audit-tracer/internal/pending"
	"github.com/mrzor/audit-tracer/internal/reversedns"
)

// NoPort is reported for network facts without an lport field.
const NoPort = "none"

// Resolver maps an address literal to a display name. ok is false when the
// literal is not an IP address.
type Resolver interface {
	Resolve(ctx context.Context, literal string) (name string, ok bool)
}

// Stats summarizes what the correlator has seen.
type Stats struct {
	Records         int // records observed
	ConnectSyscalls int // SYSCALL records for connect(2)
	Facts           int // facts emitted
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithRawSockaddrDecoding makes the correlator decode the raw saddr= blob of
// SOCKADDR records that have neither laddr nor path fields.
func WithRawSockaddrDecoding() Option {
	return func(c *Correlator) {
		c.decodeSaddr = true
	}
}

// Correlator carries attributes from SYSCALL records to SOCKADDR records.
type Correlator struct {
	pending     *pending.Store
	resolver    Resolver
	decodeSaddr bool
	stats       Stats
}

// New creates a correlator. A nil resolver displays addresses as their literals.
func New(resolver Resolver, opts ...Option) *Correlator {
	if resolver == nil {
		resolver = reversedns.New(reversedns.WithLookup(reversedns.DisabledLookup))
	}
	c := &Correlator{
		pending:  pending.NewStore(),
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe feeds one record and returns the facts it completes: none, one, or two.
func (c *Correlator) Observe(ctx context.Context, rec *audit.Record) []Fact {
	c.stats.Records++

	switch rec.Kind {
	case audit.SysCall:
		c.observeSyscall(rec)
		return nil
	case audit.SockAddr:
		facts := c.observeSockaddr(ctx, rec)
		c.stats.Facts += len(facts)
		return facts
	default:
		return nil
	}
}

// Stats returns counters accumulated so far.
func (c *Correlator) Stats() Stats {
	return c.stats
}

// Pending returns the number of SYSCALL events still waiting for their SOCKADDR record.
func (c *Correlator) Pending() int {
	return c.pending.Len()
}

func (c *Correlator) observeSyscall(rec *audit.Record) {
	if rec.Fields["SYSCALL"] == "connect" {
		c.stats.ConnectSyscalls++
	}

	if exe, ok := rec.Field("exe"); ok {
		c.pending.SetExe(rec.ID, exe)
	}

	// Prefer the enriched user name over the numeric uid.
	if uid, ok := rec.Field("UID"); ok {
		c.pending.SetUID(rec.ID, uid)
	} else if uid, ok := rec.Field("uid"); ok {
		c.pending.SetUID(rec.ID, uid)
	}
}

func (c *Correlator) observeSockaddr(ctx context.Context, rec *audit.Record) []Fact {
	actor := c.pending.Take(rec.ID)
	addr := c.sockaddrView(rec)

	var facts []Fact

	if laddr, ok := addr.Field("laddr"); ok {
		if peer, ok := c.resolver.Resolve(ctx, laddr); ok {
			port := addr.FieldOr("lport", NoPort)
			facts = append(facts, Fact{
				Kind:      FactNetwork,
				ID:        rec.ID,
				Timestamp: rec.Timestamp,
				UID:       actor.UID,
				Exe:       actor.Exe,
				Peer:      peer,
				Address:   laddr,
				Port:      port,
			})
		}
	}

	if path, ok := addr.Field("path"); ok {
		facts = append(facts, Fact{
			Kind:      FactUnix,
			ID:        rec.ID,
			Timestamp: rec.Timestamp,
			UID:       actor.UID,
			Exe:       actor.Exe,
			Path:      path,
		})
	}

	return facts
}

// sockaddrView returns rec, or a copy carrying the decoded saddr= blob as its
// fields when raw decoding is on and the record has no interpreted address.
func (c *Correlator) sockaddrView(rec *audit.Record) *audit.Record {
	if !c.decodeSaddr {
		return rec
	}
	_, hasAddr := rec.Field("laddr")
	_, hasPath := rec.Field("path")
	saddr, hasRaw := rec.Field("saddr")
	if hasAddr || hasPath || !hasRaw {
		return rec
	}

	decoded, err := audit.DecodeSockaddr(saddr)
	if err != nil {
		return rec
	}
	view := *rec
	view.Fields = decoded
	return &view
}
