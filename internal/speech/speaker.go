// Package speech provides the text-to-speech output channel: synthesis via
// Azure Cognitive Services and local playback through the system audio
// device.
package speech

import (
	"context"
	"sync"

	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*Speaker)(nil)

// Utterance tracks one spoken line from playback start to completion.
type Utterance struct {
	done chan struct{}
	once sync.Once
}

func newUtterance() *Utterance {
	return &Utterance{done: make(chan struct{})}
}

// Done returns a channel closed when playback finishes or is aborted.
func (u *Utterance) Done() <-chan struct{} { return u.done }

func (u *Utterance) finish() {
	u.once.Do(func() { close(u.done) })
}

// Speaker synthesizes commentary lines and plays them through the audio
// device. One utterance plays at a time; the dispatcher owns the ordering
// and never calls Speak while a previous utterance is still active unless
// it aborted it first.
type Speaker struct {
	tts    *AzureClient
	player *Player
	log    *logger.Logger

	mu     sync.Mutex
	active *Utterance
}

// NewSpeaker creates a speaker over the given TTS client and player.
func NewSpeaker(tts *AzureClient, player *Player, log *logger.Logger) *Speaker {
	return &Speaker{tts: tts, player: player, log: log}
}

// Speak synthesizes text and starts playback. It blocks for synthesis (one
// network round trip) but not for playback; the returned handle reports
// when the audio finishes.
func (s *Speaker) Speak(ctx context.Context, text string) (domain.Handle, error) {
	audio, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	utt := newUtterance()
	s.mu.Lock()
	s.active = utt
	s.mu.Unlock()

	go func() {
		defer utt.finish()
		if err := s.player.Play(ctx, audio); err != nil {
			s.log.Error("playback failed: %v", err)
		}
		s.mu.Lock()
		if s.active == utt {
			s.active = nil
		}
		s.mu.Unlock()
	}()

	return utt, nil
}

// Abort stops playback of the given utterance if it is still the active
// one. Safe to call twice and safe against handles that already finished.
func (s *Speaker) Abort(h domain.Handle) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	if active == nil || domain.Handle(active) != h {
		return
	}
	s.player.Stop()
	s.log.Debug("utterance aborted")
}

// IsActive reports whether an utterance is currently playing.
func (s *Speaker) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false
	}
	select {
	case <-s.active.done:
		return false
	default:
		return true
	}
}
