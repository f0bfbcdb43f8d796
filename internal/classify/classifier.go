// Package classify maps events to dispatch priorities and enforces
// per-event-type cooldowns.
package classify

import (
	"github.com/castmate/castmate/internal/domain"
)

// defaultTable is the static priority table. Event types not listed here
// default to LOW. The values are defaults, not protocol guarantees.
var defaultTable = map[domain.EventType]domain.Priority{
	domain.EventDeath:       domain.PriorityCritical,
	domain.EventLowHealth:   domain.PriorityHigh,
	domain.EventLowAmmo:     domain.PriorityHigh,
	domain.EventAce:         domain.PriorityHigh,
	domain.EventQuadraKill:  domain.PriorityHigh,
	domain.EventTripleKill:  domain.PriorityHigh,
	domain.EventBombPlant:   domain.PriorityHigh,
	domain.EventBombDefuse:  domain.PriorityHigh,
	domain.EventBombBoom:    domain.PriorityHigh,
	domain.EventMatchEnd:    domain.PriorityHigh,
	domain.EventDoubleKill:  domain.PriorityMedium,
	domain.EventRoundEnd:    domain.PriorityMedium,
	domain.EventHeavyDamage: domain.PriorityMedium,
	domain.EventKill:        domain.PriorityLow,
	domain.EventDamage:      domain.PriorityLow,
	domain.EventRoundStart:  domain.PriorityLow,
}

// Classifier is a pure function of the event: no hidden state, so the same
// event always classifies the same.
type Classifier struct {
	table          map[domain.EventType]domain.Priority
	criticalHealth int
}

// Option configures the classifier.
type Option func(*Classifier)

// WithCriticalHealthFloor sets the health value at or under which a
// low-health event escalates to CRITICAL.
func WithCriticalHealthFloor(hp int) Option {
	return func(c *Classifier) { c.criticalHealth = hp }
}

// WithOverride replaces the base priority for one event type.
func WithOverride(t domain.EventType, p domain.Priority) Option {
	return func(c *Classifier) { c.table[t] = p }
}

// New creates a classifier with the default table.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		table:          make(map[domain.EventType]domain.Priority, len(defaultTable)),
		criticalHealth: 15,
	}
	for t, p := range defaultTable {
		c.table[t] = p
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the dispatch priority for an event. Low-health events
// escalate to CRITICAL at or below the critical floor; everything else
// comes straight from the table, defaulting to LOW.
func (c *Classifier) Classify(ev domain.Event) domain.Priority {
	if p, ok := ev.Payload.(domain.LowHealthPayload); ok && p.Health <= c.criticalHealth {
		return domain.PriorityCritical
	}
	if prio, ok := c.table[ev.Type]; ok {
		return prio
	}
	return domain.PriorityLow
}
