package classify

import (
	"testing"
	"time"

	"github.com/castmate/castmate/internal/domain"
)

var c0 = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func TestCooldownWindow(t *testing.T) {
	r := NewRegistry()

	if !r.Allow(domain.EventKill, c0) {
		t.Fatal("first event must always pass")
	}
	r.MarkFired(domain.EventKill, c0)

	if r.Allow(domain.EventKill, c0.Add(2*time.Second)) {
		t.Fatal("kill allowed 2s into a 3s window")
	}
	if !r.Allow(domain.EventKill, c0.Add(3*time.Second)) {
		t.Fatal("kill blocked after its window elapsed")
	}
}

func TestCooldownPerType(t *testing.T) {
	r := NewRegistry()
	r.MarkFired(domain.EventKill, c0)

	// A kill on cooldown never blocks other types.
	if !r.Allow(domain.EventDeath, c0.Add(time.Second)) {
		t.Fatal("death blocked by kill cooldown")
	}
}

func TestCooldownFallback(t *testing.T) {
	r := NewRegistry()
	r.MarkFired(domain.EventMatchEnd, c0)

	if r.Allow(domain.EventMatchEnd, c0.Add(9*time.Second)) {
		t.Fatal("unlisted type allowed inside the fallback window")
	}
	if !r.Allow(domain.EventMatchEnd, c0.Add(DefaultCooldown)) {
		t.Fatal("unlisted type blocked after the fallback window")
	}
}

func TestCooldownOptions(t *testing.T) {
	r := NewRegistry(
		WithCooldown(domain.EventKill, time.Minute),
		WithFallbackCooldown(time.Second),
	)

	r.MarkFired(domain.EventKill, c0)
	r.MarkFired(domain.EventMatchEnd, c0)

	if r.Allow(domain.EventKill, c0.Add(30*time.Second)) {
		t.Fatal("kill allowed inside the overridden window")
	}
	if !r.Allow(domain.EventMatchEnd, c0.Add(time.Second)) {
		t.Fatal("fallback override not applied")
	}
}

func TestZeroCooldownDisables(t *testing.T) {
	r := NewRegistry(WithCooldown(domain.EventKill, 0))
	r.MarkFired(domain.EventKill, c0)

	if !r.Allow(domain.EventKill, c0) {
		t.Fatal("zero interval must disable the cooldown")
	}
}
