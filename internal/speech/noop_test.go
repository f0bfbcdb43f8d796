package speech

import (
	"context"
	"testing"
	"time"

	"github.com/castmate/castmate/internal/logger"
)

func TestNoOpSimulatesPlayback(t *testing.T) {
	n := NewNoOp(logger.New(logger.LevelOff, nil))

	h, err := n.Speak(context.Background(), "what a play")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if !n.IsActive() {
		t.Fatal("speaker idle right after Speak")
	}

	select {
	case <-h.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("simulated utterance never finished")
	}
	if n.IsActive() {
		t.Fatal("speaker still active after Done closed")
	}
}

func TestNoOpAbortIsIdempotent(t *testing.T) {
	n := NewNoOp(logger.New(logger.LevelOff, nil))

	h, err := n.Speak(context.Background(), "cut short")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}

	n.Abort(h)
	select {
	case <-h.Done():
	default:
		t.Fatal("Abort did not complete the utterance")
	}

	// Aborting again, or aborting a finished handle, must be a no-op.
	n.Abort(h)
	if n.IsActive() {
		t.Fatal("speaker active after abort")
	}
}

func TestSimulatedDurationScalesWithWords(t *testing.T) {
	short := simulatedDuration("nice")
	long := simulatedDuration("an absolutely massive ace to close out the half")
	if long <= short {
		t.Fatalf("duration %v for the long line, %v for the short one", long, short)
	}
	if simulatedDuration("") <= 0 {
		t.Fatal("empty line must still take time")
	}
}
