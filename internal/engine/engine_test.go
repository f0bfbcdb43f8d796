package engine

import (
	"context"
	"testing"
	"time"

	"github.com/castmate/castmate/internal/classify"
	"github.com/castmate/castmate/internal/dispatch"
	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/gsi"
	"github.com/castmate/castmate/internal/logger"
	"github.com/castmate/castmate/internal/stats"
	"github.com/castmate/castmate/internal/track"
)

var e0 = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

type echoGen struct{}

func (echoGen) Generate(ctx context.Context, description string) (string, error) {
	return description, nil
}

type doneHandle struct{ done chan struct{} }

func (h doneHandle) Done() <-chan struct{} { return h.done }

// instantSpeaker finishes every utterance immediately and records the
// spoken lines.
type instantSpeaker struct {
	spokenCh chan string
}

func newInstantSpeaker() *instantSpeaker {
	return &instantSpeaker{spokenCh: make(chan string, 16)}
}

func (s *instantSpeaker) Speak(ctx context.Context, text string) (domain.Handle, error) {
	h := doneHandle{done: make(chan struct{})}
	close(h.done)
	s.spokenCh <- text
	return h, nil
}

func (s *instantSpeaker) Abort(domain.Handle) {}
func (s *instantSpeaker) IsActive() bool      { return false }

func newTestEngine(t *testing.T, classifierOpts ...classify.Option) (*Engine, *instantSpeaker) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	speaker := newInstantSpeaker()

	dispatcher := dispatch.New(echoGen{}, speaker, log, dispatch.WithDebounce(0))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go dispatcher.Run(ctx)

	e := New(
		track.New(log),
		classify.New(classifierOpts...),
		classify.NewRegistry(),
		dispatcher,
		stats.NewSession(e0),
		log,
	)
	return e, speaker
}

func killSnap(kills, roundKills int) *gsi.Snapshot {
	return &gsi.Snapshot{
		Player: &gsi.PlayerSnapshot{
			Name:       "player",
			Team:       "CT",
			State:      &gsi.PlayerStateSnapshot{RoundKills: &roundKills},
			MatchStats: &gsi.MatchStatsSnapshot{Kills: &kills},
		},
	}
}

func deathSnap(deaths int) *gsi.Snapshot {
	return &gsi.Snapshot{
		Player: &gsi.PlayerSnapshot{
			Name:       "player",
			MatchStats: &gsi.MatchStatsSnapshot{Deaths: &deaths},
		},
	}
}

func TestKillSnapshotReachesSpeech(t *testing.T) {
	e, speaker := newTestEngine(t)

	if got := e.HandleSnapshot(killSnap(1, 1), e0); got != 1 {
		t.Fatalf("enqueued %d events, want 1", got)
	}

	select {
	case text := <-speaker.spokenCh:
		if text == "" {
			t.Fatal("spoke an empty line")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("kill never reached the speech channel")
	}
}

func TestCooldownSuppressesRapidRepeats(t *testing.T) {
	e, _ := newTestEngine(t)

	if got := e.HandleSnapshot(killSnap(1, 1), e0); got != 1 {
		t.Fatalf("first kill enqueued %d, want 1", got)
	}
	if got := e.HandleSnapshot(killSnap(2, 1), e0.Add(time.Second)); got != 0 {
		t.Fatalf("kill inside the window enqueued %d, want 0", got)
	}
	if got := e.HandleSnapshot(killSnap(3, 1), e0.Add(4*time.Second)); got != 1 {
		t.Fatalf("kill after the window enqueued %d, want 1", got)
	}
}

func TestCriticalBypassesCooldown(t *testing.T) {
	e, _ := newTestEngine(t)

	if got := e.HandleSnapshot(deathSnap(1), e0); got != 1 {
		t.Fatalf("first death enqueued %d, want 1", got)
	}
	// Deaths carry a 5s cooldown, but critical events ignore it.
	if got := e.HandleSnapshot(deathSnap(2), e0.Add(time.Second)); got != 1 {
		t.Fatalf("second death enqueued %d, want 1", got)
	}
}

func TestIgnoredEventsAreCountedNotSpoken(t *testing.T) {
	e, _ := newTestEngine(t, classify.WithOverride(domain.EventKill, domain.PriorityIgnore))

	if got := e.HandleSnapshot(killSnap(1, 1), e0); got != 0 {
		t.Fatalf("ignored kill enqueued %d, want 0", got)
	}

	summary := e.Stats(e0.Add(time.Minute))
	if summary.Kills != 1 {
		t.Fatalf("session kills = %d, want 1 despite the ignore", summary.Kills)
	}
	if summary.EventCounts[string(domain.EventKill)] != 1 {
		t.Fatalf("event_counts = %v, want one kill", summary.EventCounts)
	}
}

func TestStatusReflectsTrackedState(t *testing.T) {
	e, _ := newTestEngine(t)

	round := 12
	e.HandleSnapshot(&gsi.Snapshot{
		Player: &gsi.PlayerSnapshot{Name: "s1mple"},
		Map:    &gsi.MapSnapshot{Name: "de_mirage", Round: &round},
	}, e0)

	player, mapName, gotRound, degraded := e.Status()
	if player != "s1mple" || mapName != "de_mirage" || gotRound != 12 {
		t.Fatalf("status = %q %q %d", player, mapName, gotRound)
	}
	if degraded {
		t.Fatal("fresh pipeline reported degraded")
	}
}
