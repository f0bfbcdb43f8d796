// Package stats accumulates per-session play statistics from the event
// stream for the stats endpoint.
package stats

import (
	"sync"
	"time"

	"github.com/castmate/castmate/internal/domain"
)

// Summary is the JSON shape served by the stats endpoint.
type Summary struct {
	SessionStart   time.Time      `json:"session_start"`
	DurationSecs   int            `json:"duration_seconds"`
	Kills          int            `json:"kills"`
	Deaths         int            `json:"deaths"`
	Headshots      int            `json:"headshots"`
	Aces           int            `json:"aces"`
	RoundsWon      int            `json:"rounds_won"`
	RoundsLost     int            `json:"rounds_lost"`
	BestKillStreak int            `json:"best_kill_streak"`
	FavoriteWeapon string         `json:"favorite_weapon"`
	KDRatio        float64        `json:"kd_ratio"`
	EventCounts    map[string]int `json:"event_counts"`
	Spoken         int            `json:"commentary_spoken"`
}

// Session aggregates counters from observed events. Safe for concurrent
// use; the ingestion path records events while the HTTP server reads
// summaries.
type Session struct {
	mu          sync.Mutex
	start       time.Time
	kills       int
	deaths      int
	headshots   int
	aces        int
	roundsWon   int
	roundsLost  int
	streak      int
	bestStreak  int
	weaponKills map[string]int
	eventCounts map[domain.EventType]int
	spoken      int
}

// NewSession starts an empty session anchored at now.
func NewSession(now time.Time) *Session {
	return &Session{
		start:       now,
		weaponKills: make(map[string]int),
		eventCounts: make(map[domain.EventType]int),
	}
}

// Record folds one event into the session counters.
func (s *Session) Record(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventCounts[ev.Type]++

	switch p := ev.Payload.(type) {
	case domain.KillPayload:
		s.kills++
		s.streak++
		if s.streak > s.bestStreak {
			s.bestStreak = s.streak
		}
		if p.Headshot {
			s.headshots++
		}
		if p.Weapon != "" {
			s.weaponKills[p.Weapon]++
		}
		if ev.Type == domain.EventAce {
			s.aces++
		}
	case domain.DeathPayload:
		s.deaths++
		s.streak = 0
	case domain.RoundEndPayload:
		if p.Won {
			s.roundsWon++
		} else {
			s.roundsLost++
		}
	}
}

// RecordSpoken counts one commentary line handed to the speech channel.
func (s *Session) RecordSpoken() {
	s.mu.Lock()
	s.spoken++
	s.mu.Unlock()
}

// Summary snapshots the session counters as of now.
func (s *Session) Summary(now time.Time) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(s.eventCounts))
	for t, n := range s.eventCounts {
		counts[string(t)] = n
	}

	kd := float64(s.kills)
	if s.deaths > 0 {
		kd = float64(s.kills) / float64(s.deaths)
	}

	return Summary{
		SessionStart:   s.start,
		DurationSecs:   int(now.Sub(s.start).Seconds()),
		Kills:          s.kills,
		Deaths:         s.deaths,
		Headshots:      s.headshots,
		Aces:           s.aces,
		RoundsWon:      s.roundsWon,
		RoundsLost:     s.roundsLost,
		BestKillStreak: s.bestStreak,
		FavoriteWeapon: s.favoriteWeaponLocked(),
		KDRatio:        kd,
		EventCounts:    counts,
		Spoken:         s.spoken,
	}
}

func (s *Session) favoriteWeaponLocked() string {
	best, bestN := "", 0
	for w, n := range s.weaponKills {
		if n > bestN || (n == bestN && w < best) {
			best, bestN = w, n
		}
	}
	return best
}
