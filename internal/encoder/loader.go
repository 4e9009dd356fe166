package encoder

import (
	"context"
	"fmt"
	"sync"
)

type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Event is delivered to subscribers on every lifecycle transition and on
// loading-progress updates.
type Event struct {
	State    State
	Progress float64
	Err      error
}

// Factory builds the encoder; progress may be called with values in [0,1]
// while the model downloads or initializes.
type Factory func(ctx context.Context, progress func(float64)) (Encoder, error)

// Loader owns the load-once lifecycle of a local encoder: the first Load
// starts loading in the background, every later Load is a no-op, and all
// subscribers hear about transitions regardless of which caller triggered
// the load.
type Loader struct {
	mu          sync.Mutex
	factory     Factory
	state       State
	progress    float64
	err         error
	encoder     Encoder
	subscribers map[int]func(Event)
	nextSubID   int
}

func NewLoader(factory Factory) *Loader {
	return &Loader{
		factory:     factory,
		state:       StateUnloaded,
		subscribers: make(map[int]func(Event)),
	}
}

// Load starts loading if the loader is unloaded or previously failed.
// Concurrent and repeated calls while loading or ready do nothing.
func (l *Loader) Load(ctx context.Context) {
	l.mu.Lock()
	if l.state == StateLoading || l.state == StateReady {
		l.mu.Unlock()
		return
	}
	l.state = StateLoading
	l.progress = 0
	l.err = nil
	subs := l.snapshotSubscribersLocked()
	event := l.eventLocked()
	l.mu.Unlock()
	notify(subs, event)

	go l.load(ctx)
}

func (l *Loader) load(ctx context.Context) {
	enc, err := l.factory(ctx, l.setProgress)

	l.mu.Lock()
	if err != nil {
		l.state = StateFailed
		l.err = err
	} else {
		l.state = StateReady
		l.progress = 1
		l.encoder = enc
	}
	subs := l.snapshotSubscribersLocked()
	event := l.eventLocked()
	l.mu.Unlock()
	notify(subs, event)
}

func (l *Loader) setProgress(p float64) {
	l.mu.Lock()
	if l.state != StateLoading {
		l.mu.Unlock()
		return
	}
	l.progress = p
	subs := l.snapshotSubscribersLocked()
	event := l.eventLocked()
	l.mu.Unlock()
	notify(subs, event)
}

// Subscribe registers fn and immediately delivers the current state so late
// subscribers never miss the transition that already happened.
func (l *Loader) Subscribe(fn func(Event)) int {
	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn
	event := l.eventLocked()
	l.mu.Unlock()
	fn(event)
	return id
}

func (l *Loader) Unsubscribe(id int) {
	l.mu.Lock()
	delete(l.subscribers, id)
	l.mu.Unlock()
}

func (l *Loader) State() Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eventLocked()
}

// Encoder returns the loaded encoder, or an error describing the lifecycle
// state when it is not ready.
func (l *Loader) Encoder() (Encoder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateReady:
		return l.encoder, nil
	case StateFailed:
		return nil, fmt.Errorf("encoder load failed: %w", l.err)
	default:
		return nil, fmt.Errorf("encoder not ready: state %s", l.state)
	}
}

func (l *Loader) Close() error {
	l.mu.Lock()
	enc := l.encoder
	l.encoder = nil
	l.state = StateUnloaded
	l.progress = 0
	l.err = nil
	l.mu.Unlock()
	if enc != nil {
		return enc.Close()
	}
	return nil
}

func (l *Loader) eventLocked() Event {
	return Event{State: l.state, Progress: l.progress, Err: l.err}
}

func (l *Loader) snapshotSubscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Event), event Event) {
	for _, fn := range subs {
		fn(event)
	}
}
