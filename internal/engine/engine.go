// Package engine wires the snapshot pipeline: diff, classify, filter,
// dispatch.
package engine

import (
	"time"

	"github.com/castmate/castmate/internal/classify"
	"github.com/castmate/castmate/internal/dispatch"
	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/gsi"
	"github.com/castmate/castmate/internal/logger"
	"github.com/castmate/castmate/internal/stats"
	"github.com/castmate/castmate/internal/track"
)

// Engine runs one snapshot through the full pipeline. It owns no
// goroutines; the dispatcher's consumer loop does the async work.
type Engine struct {
	tracker    *track.Tracker
	classifier *classify.Classifier
	cooldowns  *classify.Registry
	dispatcher *dispatch.Dispatcher
	session    *stats.Session
	log        *logger.Logger
}

// New creates an engine over the given pipeline stages.
func New(
	tracker *track.Tracker,
	classifier *classify.Classifier,
	cooldowns *classify.Registry,
	dispatcher *dispatch.Dispatcher,
	session *stats.Session,
	log *logger.Logger,
) *Engine {
	return &Engine{
		tracker:    tracker,
		classifier: classifier,
		cooldowns:  cooldowns,
		dispatcher: dispatcher,
		session:    session,
		log:        log,
	}
}

// HandleSnapshot folds one snapshot into tracked state and pushes every
// surviving event into the dispatch queue. It returns the number of events
// enqueued. Called from the webhook handler; must stay fast and never
// block on collaborators.
func (e *Engine) HandleSnapshot(snap *gsi.Snapshot, now time.Time) int {
	events := e.tracker.Ingest(snap, now)

	enqueued := 0
	for _, ev := range events {
		eventsDetected.WithLabelValues(string(ev.Type)).Inc()
		e.session.Record(ev)

		prio := e.classifier.Classify(ev)
		if prio <= domain.PriorityIgnore {
			eventsSuppressed.WithLabelValues("ignored").Inc()
			e.log.Debug("dropping %s (ignored)", ev.Type)
			continue
		}

		// CRITICAL events are always worth a line; only lower tiers
		// respect the per-type cooldown.
		if prio < domain.PriorityCritical && !e.cooldowns.Allow(ev.Type, now) {
			eventsSuppressed.WithLabelValues("cooldown").Inc()
			e.log.Debug("suppressing %s (cooldown)", ev.Type)
			continue
		}

		if e.dispatcher.Enqueue(ev, prio, now) {
			e.cooldowns.MarkFired(ev.Type, now)
			enqueued++
		}
	}
	return enqueued
}

// Status reports the pipeline state the health endpoint exposes.
func (e *Engine) Status() (player, mapName string, round int, degraded bool) {
	player, mapName, round = e.tracker.Status()
	return player, mapName, round, e.dispatcher.Degraded()
}

// Stats snapshots the session counters as of now.
func (e *Engine) Stats(now time.Time) stats.Summary {
	return e.session.Summary(now)
}
