package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*NoOp)(nil)

// NoOp is a speaker that logs instead of playing audio. Used when voice is
// disabled or no audio device is available. It simulates playback duration
// from word count so queue pacing and preemption still behave.
type NoOp struct {
	log *logger.Logger

	mu     sync.Mutex
	active *Utterance
	timer  *time.Timer
}

// NewNoOp creates a no-op speaker.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// Speak logs the line and returns a handle that completes after the
// simulated playback time.
func (n *NoOp) Speak(ctx context.Context, text string) (domain.Handle, error) {
	n.log.Info("speech no-op: would say %q", text)

	utt := newUtterance()
	dur := simulatedDuration(text)

	n.mu.Lock()
	n.active = utt
	n.timer = time.AfterFunc(dur, func() {
		utt.finish()
		n.mu.Lock()
		if n.active == utt {
			n.active = nil
		}
		n.mu.Unlock()
	})
	n.mu.Unlock()

	return utt, nil
}

// Abort completes the given utterance immediately.
func (n *NoOp) Abort(h domain.Handle) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.active == nil || domain.Handle(n.active) != h {
		return
	}
	n.timer.Stop()
	n.active.finish()
	n.active = nil
}

// IsActive reports whether a simulated utterance is in progress.
func (n *NoOp) IsActive() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.active == nil {
		return false
	}
	select {
	case <-n.active.done:
		return false
	default:
		return true
	}
}

// simulatedDuration approximates speech length at a caster's pace.
func simulatedDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	return time.Duration(words) * 280 * time.Millisecond
}
