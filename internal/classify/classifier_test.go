package classify

import (
	"testing"

	"github.com/castmate/castmate/internal/domain"
)

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		typ     domain.EventType
		payload domain.Payload
		want    domain.Priority
	}{
		{domain.EventDeath, domain.DeathPayload{}, domain.PriorityCritical},
		{domain.EventAce, domain.KillPayload{RoundKills: 5}, domain.PriorityHigh},
		{domain.EventQuadraKill, domain.KillPayload{RoundKills: 4}, domain.PriorityHigh},
		{domain.EventTripleKill, domain.KillPayload{RoundKills: 3}, domain.PriorityHigh},
		{domain.EventDoubleKill, domain.KillPayload{RoundKills: 2}, domain.PriorityMedium},
		{domain.EventHeavyDamage, domain.DamagePayload{Damage: 60}, domain.PriorityMedium},
		{domain.EventKill, domain.KillPayload{RoundKills: 1}, domain.PriorityLow},
		{domain.EventBombPlant, domain.BombPayload{}, domain.PriorityHigh},
		{domain.EventRoundEnd, domain.RoundEndPayload{}, domain.PriorityMedium},
		{domain.EventRoundStart, domain.RoundStartPayload{}, domain.PriorityLow},
		{domain.EventLowAmmo, domain.LowAmmoPayload{Total: 8}, domain.PriorityHigh},
		{domain.EventMatchEnd, domain.MatchEndPayload{}, domain.PriorityHigh},
	}

	c := New()
	for _, tt := range tests {
		got := c.Classify(domain.Event{Type: tt.typ, Payload: tt.payload})
		if got != tt.want {
			t.Errorf("%s: priority = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestLowHealthEscalation(t *testing.T) {
	c := New()

	ev := domain.Event{Type: domain.EventLowHealth, Payload: domain.LowHealthPayload{Health: 25}}
	if got := c.Classify(ev); got != domain.PriorityHigh {
		t.Fatalf("25hp priority = %s, want %s", got, domain.PriorityHigh)
	}

	ev.Payload = domain.LowHealthPayload{Health: 15}
	if got := c.Classify(ev); got != domain.PriorityCritical {
		t.Fatalf("15hp priority = %s, want %s", got, domain.PriorityCritical)
	}

	ev.Payload = domain.LowHealthPayload{Health: 1}
	if got := c.Classify(ev); got != domain.PriorityCritical {
		t.Fatalf("1hp priority = %s, want %s", got, domain.PriorityCritical)
	}
}

func TestClassifierOptions(t *testing.T) {
	c := New(
		WithCriticalHealthFloor(5),
		WithOverride(domain.EventKill, domain.PriorityIgnore),
	)

	ev := domain.Event{Type: domain.EventLowHealth, Payload: domain.LowHealthPayload{Health: 10}}
	if got := c.Classify(ev); got != domain.PriorityHigh {
		t.Fatalf("10hp with floor 5 = %s, want %s", got, domain.PriorityHigh)
	}

	ev = domain.Event{Type: domain.EventKill, Payload: domain.KillPayload{}}
	if got := c.Classify(ev); got != domain.PriorityIgnore {
		t.Fatalf("overridden kill = %s, want %s", got, domain.PriorityIgnore)
	}
}

func TestUnknownTypeDefaultsToLow(t *testing.T) {
	c := New()
	ev := domain.Event{Type: domain.EventType("flashbang"), Payload: domain.DamagePayload{}}
	if got := c.Classify(ev); got != domain.PriorityLow {
		t.Fatalf("unknown type = %s, want %s", got, domain.PriorityLow)
	}
}
