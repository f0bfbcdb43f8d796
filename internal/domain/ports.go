package domain

import "context"

// Generator turns a structured event description into commentary text.
// Implementations are typically network-bound (an LLM endpoint) and must
// honor context cancellation so a preempted or timed-out item does not
// hold the dispatch loop.
type Generator interface {
	Generate(ctx context.Context, description string) (string, error)
}

// Handle identifies one in-flight utterance. Done is closed when playback
// finishes or is aborted, letting the dispatcher wait for the speech
// resource without polling.
type Handle interface {
	Done() <-chan struct{}
}

// Speaker is the exclusive speech-output resource. Speak starts an
// utterance and returns immediately; Abort stops the utterance for the
// given handle and is a no-op for handles that already completed. Only the
// dispatch consumer loop may call Speak.
type Speaker interface {
	Speak(ctx context.Context, text string) (Handle, error)
	Abort(Handle)
	IsActive() bool
}
