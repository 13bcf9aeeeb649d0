package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// SnapshotFunc computes the full current state of a topic at delivery time,
// so mutations between subscribe and first delivery coalesce into one
// snapshot.
type SnapshotFunc func() (any, error)

// Registry fans full-state snapshots out to topic listeners. Topics are
// opaque strings: a chat id for message streams, a user id for chat lists.
type Registry struct {
	mu              sync.Mutex
	clock           clock.Clock
	snapshotDelay   time.Duration
	logger          *slog.Logger
	onListenerError func(topic string)
	topics          map[string]map[int]*Subscription
	nextID          int
}

type Option func(*Registry)

// WithSnapshotDelay delays the initial snapshot delivery after Subscribe.
func WithSnapshotDelay(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.snapshotDelay = d
		}
	}
}

// WithListenerErrorHook installs a callback invoked once per isolated
// listener failure, keyed by topic.
func WithListenerErrorHook(hook func(topic string)) Option {
	return func(r *Registry) { r.onListenerError = hook }
}

func NewRegistry(clk clock.Clock, logger *slog.Logger, opts ...Option) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		clock:  clk,
		logger: logger,
		topics: make(map[string]map[int]*Subscription),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscription is the unsubscribe token returned by Subscribe. Cancel is
// idempotent and safe to call from inside a delivery callback.
type Subscription struct {
	registry     *Registry
	topic        string
	id           int
	onData       func(any)
	onError      func(error)
	closed       bool
	initialTimer *clock.Timer
}

func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	r := s.registry
	var timer *clock.Timer
	r.mu.Lock()
	if !s.closed {
		s.closed = true
		timer = s.initialTimer
		if listeners, ok := r.topics[s.topic]; ok {
			delete(listeners, s.id)
			if len(listeners) == 0 {
				delete(r.topics, s.topic)
			}
		}
	}
	r.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
}

// Subscribe registers a listener and schedules one asynchronous delivery of
// the topic's current snapshot. The caller must not assume the snapshot
// arrives before Subscribe returns.
func (r *Registry) Subscribe(topic string, initial SnapshotFunc, onData func(any), onError func(error)) *Subscription {
	r.mu.Lock()
	r.nextID++
	sub := &Subscription{
		registry: r,
		topic:    topic,
		id:       r.nextID,
		onData:   onData,
		onError:  onError,
	}
	listeners, ok := r.topics[topic]
	if !ok {
		listeners = make(map[int]*Subscription)
		r.topics[topic] = listeners
	}
	listeners[sub.id] = sub

	if initial != nil {
		sub.initialTimer = r.clock.AfterFunc(r.snapshotDelay, func() {
			snapshot, err := initial()
			if err != nil {
				r.reportListenerError(sub, err)
				return
			}
			r.deliver(sub, snapshot)
		})
	}
	r.mu.Unlock()
	return sub
}

// Publish delivers snapshot to every live listener on topic. The listener
// list is copied before iterating so callbacks may unsubscribe (themselves
// or others) mid-delivery; a failing listener never blocks the rest.
// Returns the number of listeners the snapshot was handed to.
func (r *Registry) Publish(topic string, snapshot any) int {
	r.mu.Lock()
	listeners := make([]*Subscription, 0, len(r.topics[topic]))
	for _, sub := range r.topics[topic] {
		listeners = append(listeners, sub)
	}
	r.mu.Unlock()

	delivered := 0
	for _, sub := range listeners {
		if r.deliver(sub, snapshot) {
			delivered++
		}
	}
	return delivered
}

// ListenerCount reports the live listeners on topic.
func (r *Registry) ListenerCount(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics[topic])
}

func (r *Registry) deliver(sub *Subscription, snapshot any) (ok bool) {
	r.mu.Lock()
	closed := sub.closed
	r.mu.Unlock()
	if closed {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			r.reportListenerError(sub, fmt.Errorf("listener panic: %v", rec))
		}
	}()
	sub.onData(snapshot)
	return true
}

func (r *Registry) reportListenerError(sub *Subscription, err error) {
	r.logger.Error("subscription listener failed", "topic", sub.topic, "error", err)
	if r.onListenerError != nil {
		r.onListenerError(sub.topic)
	}
	if sub.onError == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("subscription error callback panicked", "topic", sub.topic, "panic", fmt.Sprint(rec))
		}
	}()
	sub.onError(err)
}
