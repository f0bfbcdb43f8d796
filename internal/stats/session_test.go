package stats

import (
	"testing"
	"time"

	"github.com/castmate/castmate/internal/domain"
)

var s0 = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func kill(weapon string, headshot bool) domain.Event {
	return domain.Event{Type: domain.EventKill, Payload: domain.KillPayload{Weapon: weapon, Headshot: headshot}}
}

func TestSessionCounters(t *testing.T) {
	s := NewSession(s0)

	s.Record(kill("ak47", true))
	s.Record(kill("ak47", false))
	s.Record(kill("awp", false))
	s.Record(domain.Event{Type: domain.EventDeath, Payload: domain.DeathPayload{}})
	s.Record(kill("deagle", true))
	s.Record(domain.Event{Type: domain.EventRoundEnd, Payload: domain.RoundEndPayload{Won: true}})
	s.Record(domain.Event{Type: domain.EventRoundEnd, Payload: domain.RoundEndPayload{Won: false}})
	s.RecordSpoken()
	s.RecordSpoken()

	got := s.Summary(s0.Add(90 * time.Second))

	if got.Kills != 4 || got.Deaths != 1 || got.Headshots != 2 {
		t.Fatalf("kills/deaths/headshots = %d/%d/%d", got.Kills, got.Deaths, got.Headshots)
	}
	if got.RoundsWon != 1 || got.RoundsLost != 1 {
		t.Fatalf("rounds = %d won, %d lost", got.RoundsWon, got.RoundsLost)
	}
	if got.BestKillStreak != 3 {
		t.Fatalf("best streak = %d, want 3 before the death", got.BestKillStreak)
	}
	if got.FavoriteWeapon != "ak47" {
		t.Fatalf("favorite weapon = %q", got.FavoriteWeapon)
	}
	if got.KDRatio != 4 {
		t.Fatalf("kd = %v", got.KDRatio)
	}
	if got.DurationSecs != 90 {
		t.Fatalf("duration = %ds", got.DurationSecs)
	}
	if got.Spoken != 2 {
		t.Fatalf("spoken = %d", got.Spoken)
	}
	if got.EventCounts["kill"] != 4 || got.EventCounts["death"] != 1 {
		t.Fatalf("event counts = %v", got.EventCounts)
	}
}

func TestAceCountsOnce(t *testing.T) {
	s := NewSession(s0)
	s.Record(domain.Event{Type: domain.EventAce, Payload: domain.KillPayload{Weapon: "ak47", RoundKills: 5}})

	got := s.Summary(s0)
	if got.Aces != 1 {
		t.Fatalf("aces = %d", got.Aces)
	}
	if got.Kills != 1 {
		t.Fatalf("kills = %d, an ace event is still one kill detection", got.Kills)
	}
}

func TestKDWithoutDeaths(t *testing.T) {
	s := NewSession(s0)
	s.Record(kill("ak47", false))
	s.Record(kill("ak47", false))

	if got := s.Summary(s0).KDRatio; got != 2 {
		t.Fatalf("kd = %v, want raw kill count while deathless", got)
	}
}

func TestEmptySessionSummary(t *testing.T) {
	got := NewSession(s0).Summary(s0)

	if got.Kills != 0 || got.KDRatio != 0 || got.FavoriteWeapon != "" {
		t.Fatalf("empty session = %+v", got)
	}
	if got.SessionStart != s0 {
		t.Fatalf("session start = %v", got.SessionStart)
	}
}
