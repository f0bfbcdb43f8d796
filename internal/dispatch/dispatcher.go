package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/logger"
)

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithCapacity sets the queue capacity.
func WithCapacity(n int) Option {
	return func(d *Dispatcher) { d.capacity = n }
}

// WithDebounce sets the minimum spacing between two dispatch starts.
func WithDebounce(dur time.Duration) Option {
	return func(d *Dispatcher) { d.debounce = dur }
}

// WithPreemptMargin sets how many priority points a new item must exceed
// the active one by to interrupt it.
func WithPreemptMargin(points int) Option {
	return func(d *Dispatcher) { d.margin = points }
}

// WithGenTimeout bounds a single text-generation call.
func WithGenTimeout(dur time.Duration) Option {
	return func(d *Dispatcher) { d.genTimeout = dur }
}

// WithCacheSize sets the response cache capacity.
func WithCacheSize(n int) Option {
	return func(d *Dispatcher) { d.cacheSize = n }
}

// WithMaxFailures sets how many consecutive collaborator failures flip the
// dispatcher to degraded.
func WithMaxFailures(n int) Option {
	return func(d *Dispatcher) { d.maxFailures = n }
}

// WithOnDispatch registers a hook invoked after an utterance starts. Used
// for the live event feed and session statistics.
func WithOnDispatch(fn func(domain.Event, domain.Priority, string)) Option {
	return func(d *Dispatcher) { d.onDispatch = fn }
}

// activeUtterance is the "currently speaking" slot. Only the consumer loop
// sets or clears it, under the dispatcher lock.
type activeUtterance struct {
	handle   domain.Handle
	priority domain.Priority
	cancel   context.CancelFunc
}

// Dispatcher owns the bounded priority queue and the single consumer that
// feeds the speech channel. Enqueue never blocks; all waiting happens in
// the consumer goroutine.
type Dispatcher struct {
	gen     domain.Generator
	speaker domain.Speaker
	log     *logger.Logger
	cache   *Cache

	capacity    int
	debounce    time.Duration
	margin      int
	genTimeout  time.Duration
	cacheSize   int
	maxFailures int
	onDispatch  func(domain.Event, domain.Priority, string)

	mu           sync.Mutex
	queue        *queue
	seq          uint64
	lastDispatch time.Time
	active       *activeUtterance
	failures     int
	degraded     bool

	notify chan struct{}
}

// New creates a dispatcher with the default scheduling parameters.
func New(gen domain.Generator, speaker domain.Speaker, log *logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gen:         gen,
		speaker:     speaker,
		log:         log,
		capacity:    8,
		debounce:    300 * time.Millisecond,
		margin:      50,
		genTimeout:  10 * time.Second,
		cacheSize:   128,
		maxFailures: 3,
		notify:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = newQueue(d.capacity)
	d.cache = NewCache(d.cacheSize)
	return d
}

// Enqueue adds a classified event to the queue. It returns false when the
// item was dropped: IGNORE priority, or a full queue with nothing of lower
// priority to evict. It never blocks the ingestion path.
func (d *Dispatcher) Enqueue(ev domain.Event, prio domain.Priority, now time.Time) bool {
	if prio <= domain.PriorityIgnore {
		return false
	}

	d.mu.Lock()
	d.seq++
	item := &Item{Event: ev, Priority: prio, EnqueuedAt: now, seq: d.seq}
	evicted, ok := d.queue.push(item)
	d.mu.Unlock()

	if !ok {
		queueDrops.Inc()
		d.log.Debug("queue full, dropped %s (%s)", ev.Type, prio)
		return false
	}
	if evicted != nil {
		queueEvictions.Inc()
		d.log.Debug("queue full, evicted %s (%s) for %s (%s)",
			evicted.Event.Type, evicted.Priority, ev.Type, prio)
	}

	select {
	case d.notify <- struct{}{}:
	default: // already signaled
	}
	return true
}

// QueueLen returns the number of queued items.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.len()
}

// Degraded reports whether too many consecutive collaborator calls failed.
func (d *Dispatcher) Degraded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.degraded
}

// Cache exposes the response cache for stats reporting.
func (d *Dispatcher) Cache() *Cache { return d.cache }

// Run drives the consumer loop until the context is cancelled. A panic in
// the loop is logged and the loop restarted; nothing in the dispatch path
// may take the process down.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		if err := ctx.Err(); err != nil {
			d.log.Info("dispatcher stopped")
			return
		}
		d.runGuarded(ctx)
	}
}

func (d *Dispatcher) runGuarded(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("consumer loop panic, restarting: %v", r)
			// The crashed iteration consumed its notify token. Re-arm so
			// items already queued are served without waiting for the
			// next arrival.
			select {
			case d.notify <- struct{}{}:
			default:
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.notify:
			d.drain(ctx)
		}
	}
}

// drain dispatches queued items until the queue is empty or the context is
// cancelled.
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, ok := d.next(ctx)
		if !ok {
			return
		}
		d.dispatch(ctx, item)
	}
}

// next blocks until the highest-priority item may be dispatched: the queue
// is non-empty, the debounce interval has elapsed, and the speech resource
// is either free or preempted. It returns false when the queue is empty or
// the context ends.
func (d *Dispatcher) next(ctx context.Context) (*Item, bool) {
	for {
		d.mu.Lock()
		top := d.queue.peek()
		if top == nil {
			d.mu.Unlock()
			return nil, false
		}

		if wait := d.debounce - time.Since(d.lastDispatch); wait > 0 {
			d.mu.Unlock()
			if !sleepCtx(ctx, wait) {
				return nil, false
			}
			continue
		}

		active := d.active
		if active != nil && d.speaker.IsActive() {
			if int(top.Priority)-int(active.priority) >= d.margin {
				// Preempt: abort the running utterance and take over.
				d.speaker.Abort(active.handle)
				active.cancel()
				d.active = nil
				preemptions.Inc()
				d.mu.Unlock()
				d.log.Info("preempting %s utterance for %s (%s)",
					active.priority, top.Event.Type, top.Priority)
				continue
			}
			done := active.handle.Done()
			d.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, false
			case <-done:
				d.mu.Lock()
				if d.active == active {
					active.cancel()
					d.active = nil
				}
				d.mu.Unlock()
			case <-d.notify:
				// A new item arrived; it may clear the preemption margin.
			}
			continue
		}
		if active != nil {
			active.cancel()
			d.active = nil
		}

		item := d.queue.pop()
		d.lastDispatch = time.Now()
		d.mu.Unlock()
		return item, true
	}
}

// dispatch generates commentary for one item and hands it to the speech
// resource. Generation runs concurrently with a watch on new arrivals: an
// arrival that clears the preemption margin cancels the in-flight call and
// puts the item back in line, so a critical event never waits out a slow
// generation for a routine one. Collaborator failures drop the item and
// never stall the loop.
func (d *Dispatcher) dispatch(ctx context.Context, item *Item) {
	gctx, gcancel := context.WithTimeout(ctx, d.genTimeout)

	type genResult struct {
		text string
		err  error
	}
	resCh := make(chan genResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- genResult{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()
		text, err := d.commentary(gctx, item.Event)
		resCh <- genResult{text, err}
	}()

	var res genResult
waitGen:
	for {
		select {
		case res = <-resCh:
			break waitGen
		case <-ctx.Done():
			gcancel()
			<-resCh
			return
		case <-d.notify:
			if !d.preemptGeneration(item) {
				continue
			}
			gcancel()
			<-resCh
			preemptions.Inc()
			d.log.Info("preempting %s generation for a higher-priority arrival", item.Event.Type)
			return
		}
	}
	gcancel()

	if res.err != nil {
		d.collaboratorFailure("generation", item, res.err)
		return
	}
	text := res.text

	sctx, cancel := context.WithCancel(ctx)
	handle, err := d.speaker.Speak(sctx, text)
	if err != nil {
		cancel()
		d.collaboratorFailure("speech", item, err)
		return
	}

	d.mu.Lock()
	d.active = &activeUtterance{handle: handle, priority: item.Priority, cancel: cancel}
	d.failures = 0
	d.degraded = false
	d.mu.Unlock()

	dispatches.WithLabelValues(string(item.Event.Type)).Inc()
	d.log.Info("speaking [%s] %s: %s", item.Priority, item.Event.Type, truncate(text, 70))

	if d.onDispatch != nil {
		d.onDispatch(item.Event, item.Priority, text)
	}
}

// preemptGeneration reports whether the queue head outranks the item whose
// text is currently generating. If so the item goes back in line; its
// sequence number is preserved, so it stays ahead of later arrivals in its
// own tier.
func (d *Dispatcher) preemptGeneration(item *Item) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	top := d.queue.peek()
	if top == nil || int(top.Priority)-int(item.Priority) < d.margin {
		return false
	}
	evicted, ok := d.queue.push(item)
	if !ok {
		queueDrops.Inc()
		d.log.Debug("queue full, dropped preempted %s (%s)", item.Event.Type, item.Priority)
	} else if evicted != nil {
		queueEvictions.Inc()
	}
	return true
}

// commentary resolves the text for an event, consulting the response cache
// before the generator. The caller bounds ctx with the generation timeout.
func (d *Dispatcher) commentary(ctx context.Context, ev domain.Event) (string, error) {
	key := CacheKey(ev)
	if text, ok := d.cache.Get(key); ok {
		cacheHits.Inc()
		d.log.Debug("cache hit for %s", ev.Type)
		return text, nil
	}
	cacheMisses.Inc()

	text, err := d.gen.Generate(ctx, ev.Payload.Describe())
	if err != nil {
		return "", err
	}
	d.cache.Put(key, text)
	return text, nil
}

func (d *Dispatcher) collaboratorFailure(stage string, item *Item, err error) {
	collaboratorFailures.WithLabelValues(stage).Inc()

	d.mu.Lock()
	d.failures++
	if d.failures >= d.maxFailures && !d.degraded {
		d.degraded = true
		d.log.Warn("%d consecutive collaborator failures, marking degraded", d.failures)
	}
	d.mu.Unlock()

	d.log.Error("%s failed for %s, dropping item: %v", stage, item.Event.Type, err)
}

// sleepCtx sleeps for dur unless the context ends first.
func sleepCtx(ctx context.Context, dur time.Duration) bool {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
