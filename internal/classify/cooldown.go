package classify

import (
	"sync"
	"time"

	"github.com/castmate/castmate/internal/domain"
)

// defaultCooldowns is the per-event-type minimum re-fire interval. Types
// not listed use the fallback. These are spam-prevention defaults, tuned
// for how often each situation plausibly deserves fresh commentary.
var defaultCooldowns = map[domain.EventType]time.Duration{
	domain.EventKill:        3 * time.Second,
	domain.EventDeath:       5 * time.Second,
	domain.EventRoundStart:  2 * time.Second,
	domain.EventRoundEnd:    2 * time.Second,
	domain.EventBombPlant:   10 * time.Second,
	domain.EventLowHealth:   8 * time.Second,
	domain.EventLowAmmo:     8 * time.Second,
	domain.EventDamage:      8 * time.Second,
	domain.EventHeavyDamage: 8 * time.Second,
}

// DefaultCooldown is the re-fire interval for event types without an
// explicit entry.
const DefaultCooldown = 10 * time.Second

// Registry tracks the last fire time per event type (not per player) and
// suppresses events that re-fire inside their window. Safe for concurrent
// use from multiple ingestion goroutines. Time is injected by the caller
// so a replayed snapshot sequence filters identically.
type Registry struct {
	mu        sync.Mutex
	lastFired map[domain.EventType]time.Time
	intervals map[domain.EventType]time.Duration
	fallback  time.Duration
}

// RegistryOption configures the registry.
type RegistryOption func(*Registry)

// WithCooldown overrides the interval for one event type. A zero interval
// disables the cooldown for that type.
func WithCooldown(t domain.EventType, d time.Duration) RegistryOption {
	return func(r *Registry) { r.intervals[t] = d }
}

// WithFallbackCooldown sets the interval for unlisted event types.
func WithFallbackCooldown(d time.Duration) RegistryOption {
	return func(r *Registry) { r.fallback = d }
}

// NewRegistry creates a cooldown registry with the default intervals.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		lastFired: make(map[domain.EventType]time.Time),
		intervals: make(map[domain.EventType]time.Duration, len(defaultCooldowns)),
		fallback:  DefaultCooldown,
	}
	for t, d := range defaultCooldowns {
		r.intervals[t] = d
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Allow reports whether an event of the given type may fire at now.
func (r *Registry) Allow(t domain.EventType, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok := r.lastFired[t]
	if !ok {
		return true
	}
	return now.Sub(last) >= r.interval(t)
}

// MarkFired records that an event of the given type fired at now.
func (r *Registry) MarkFired(t domain.EventType, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFired[t] = now
}

func (r *Registry) interval(t domain.EventType) time.Duration {
	if d, ok := r.intervals[t]; ok {
		return d
	}
	return r.fallback
}
