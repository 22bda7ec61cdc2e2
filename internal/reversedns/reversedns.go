// Package reversedns turns IP addresses seen in audit records into display names.
//
// Cache memoizes one answer per address for its whole lifetime: the first
// successful reverse lookup, or the address literal itself when the lookup
// fails. A failing address is therefore looked up once, not every time it recurs.
//
// The lookup itself is an external collaborator (LookupFunc, the system
// resolver by default). Around it the cache can impose a per-lookup timeout, a
// rate limit, and a circuit breaker that stops calling a resolver that keeps
// failing. A short-circuited lookup counts as a failed one.
//
// Usage:
//
//	c := reversedns.New(reversedns.WithTimeout(2 * time.Second))
//	name, ok := c.Resolve(ctx, "8.8.8.8") // ok is false when the literal is not an IP
//
// A Cache is owned by a single goroutine and is not safe for concurrent use.
package reversedns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/mrzor/audit-tracer/internal/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LookupFunc returns the names registered for an address.
type LookupFunc func(ctx context.Context, addr string) ([]string, error)

// ErrLookupDisabled is returned by DisabledLookup.
var ErrLookupDisabled = errors.New("reverse lookup disabled")

var errNoName = errors.New("no name for address")

// SystemLookup asks the system resolver.
func SystemLookup(ctx context.Context, addr string) ([]string, error) {
	return net.DefaultResolver.LookupAddr(ctx, addr)
}

// DisabledLookup never resolves anything; every address displays as its literal.
func DisabledLookup(context.Context, string) ([]string, error) {
	return nil, ErrLookupDisabled
}

// Option configures a Cache.
type Option func(*Cache)

// WithLookup replaces the system resolver.
func WithLookup(fn LookupFunc) Option {
	return func(c *Cache) {
		c.lookup = fn
	}
}

// WithTimeout bounds each external lookup. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.timeout = d
	}
}

// WithRateLimit allows at most perSecond external lookups per second. Zero means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(c *Cache) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithBreaker stops calling the resolver after `failures` consecutive failures,
// for `cooldown`, then lets a single probe through.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(c *Cache) {
		if failures == 0 {
			return
		}
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "reversedns",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("resolver circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
}

// WithLogger sets the logger for lookup diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics counts cache hits and lookup outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// Cache memoizes address -> display name.
type Cache struct {
	names   map[netip.Addr]string
	lookup  LookupFunc
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an empty cache backed by the system resolver unless overridden.
func New(opts ...Option) *Cache {
	c := &Cache{
		names:  make(map[netip.Addr]string),
		lookup: SystemLookup,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.lookup == nil {
		c.lookup = DisabledLookup
	}
	return c
}

// Resolve returns the display name for an address literal. The second value is
// false when literal is not an IPv4 or IPv6 address; nothing is cached then.
func (c *Cache) Resolve(ctx context.Context, literal string) (string, bool) {
	addr, err := netip.ParseAddr(literal)
	if err != nil {
		return "", false
	}

	if name, ok := c.names[addr]; ok {
		c.metrics.ObserveLookup(metrics.LookupHit)
		return name, true
	}

	name, err := c.lookupName(ctx, addr)
	if err != nil && ctx.Err() != nil {
		// The caller gave up; the address may still resolve on a later call.
		c.logger.Debug("reverse lookup abandoned, using address literal",
			zap.String("addr", literal), zap.Error(err))
		return literal, true
	}
	if err != nil {
		c.logger.Debug("reverse lookup failed, using address literal",
			zap.String("addr", literal), zap.Error(err))
		c.metrics.ObserveLookup(metrics.LookupFailed)
		name = literal
	} else {
		c.metrics.ObserveLookup(metrics.LookupResolved)
	}

	c.names[addr] = name
	return name, true
}

// Len returns the number of cached addresses.
func (c *Cache) Len() int {
	return len(c.names)
}

func (c *Cache) lookupName(ctx context.Context, addr netip.Addr) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for lookup slot: %w", err)
		}
	}

	query := func() (interface{}, error) {
		lookupCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		names, err := c.lookup(lookupCtx, addr.String())
		if err != nil {
			// An authoritative "no such name" says nothing bad about the resolver.
			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
				return "", nil
			}
			return nil, err
		}
		if len(names) == 0 {
			return "", nil
		}
		return strings.TrimSuffix(names[0], "."), nil
	}

	var (
		result interface{}
		err    error
	)
	if c.breaker != nil {
		result, err = c.breaker.Execute(query)
	} else {
		result, err = query()
	}
	if err != nil {
		return "", err
	}

	name, _ := result.(string)
	if name == "" {
		return "", errNoName
	}
	return name, nil
}
