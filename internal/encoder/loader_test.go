package encoder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubEncoder struct {
	closed bool
}

func (s *stubEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, 384), nil
}

func (s *stubEncoder) Dimensions() int {
	return 384
}

func (s *stubEncoder) Close() error {
	s.closed = true
	return nil
}

// eventRecorder collects events and lets tests wait for a terminal state.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
	once   sync.Once
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{done: make(chan struct{})}
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if e.State == StateReady || e.State == StateFailed {
		r.once.Do(func() { close(r.done) })
	}
}

func (r *eventRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal state")
	}
}

func (r *eventRecorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.State)
	}
	return out
}

func TestLoaderSuccessLifecycle(t *testing.T) {
	enc := &stubEncoder{}
	loader := NewLoader(func(ctx context.Context, progress func(float64)) (Encoder, error) {
		progress(0.5)
		return enc, nil
	})

	rec := newEventRecorder()
	loader.Subscribe(rec.record)

	require.Equal(t, StateUnloaded, loader.State().State)
	_, err := loader.Encoder()
	require.Error(t, err)

	loader.Load(context.Background())
	rec.wait(t)

	got, err := loader.Encoder()
	require.NoError(t, err)
	require.Same(t, enc, got)

	final := loader.State()
	require.Equal(t, StateReady, final.State)
	require.Equal(t, 1.0, final.Progress)

	states := rec.states()
	require.Equal(t, StateUnloaded, states[0])
	require.Equal(t, StateLoading, states[1])
	require.Equal(t, StateReady, states[len(states)-1])
}

func TestLoaderFailureLifecycle(t *testing.T) {
	loadErr := errors.New("model file missing")
	loader := NewLoader(func(ctx context.Context, progress func(float64)) (Encoder, error) {
		return nil, loadErr
	})

	rec := newEventRecorder()
	loader.Subscribe(rec.record)
	loader.Load(context.Background())
	rec.wait(t)

	require.Equal(t, StateFailed, loader.State().State)
	_, err := loader.Encoder()
	require.ErrorIs(t, err, loadErr)
}

func TestLoaderLoadsOnce(t *testing.T) {
	var factoryCalls int
	var mu sync.Mutex
	loader := NewLoader(func(ctx context.Context, progress func(float64)) (Encoder, error) {
		mu.Lock()
		factoryCalls++
		mu.Unlock()
		return &stubEncoder{}, nil
	})

	rec := newEventRecorder()
	loader.Subscribe(rec.record)
	loader.Load(context.Background())
	rec.wait(t)

	loader.Load(context.Background())
	loader.Load(context.Background())
	// Give any stray goroutine a moment to run before counting.
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, factoryCalls)
}

func TestLoaderRetriesAfterFailure(t *testing.T) {
	var factoryCalls int
	var mu sync.Mutex
	loader := NewLoader(func(ctx context.Context, progress func(float64)) (Encoder, error) {
		mu.Lock()
		factoryCalls++
		n := factoryCalls
		mu.Unlock()
		if n == 1 {
			return nil, errors.New("transient download failure")
		}
		return &stubEncoder{}, nil
	})

	rec := newEventRecorder()
	loader.Subscribe(rec.record)
	loader.Load(context.Background())
	rec.wait(t)
	require.Equal(t, StateFailed, loader.State().State)

	rec2 := newEventRecorder()
	loader.Subscribe(rec2.record)
	loader.Load(context.Background())
	rec2.wait(t)
	require.Equal(t, StateReady, loader.State().State)
}

func TestSubscribeDeliversCurrentStateImmediately(t *testing.T) {
	loader := NewLoader(func(ctx context.Context, progress func(float64)) (Encoder, error) {
		return &stubEncoder{}, nil
	})

	rec := newEventRecorder()
	loader.Subscribe(rec.record)
	loader.Load(context.Background())
	rec.wait(t)

	// A late subscriber still hears the ready state right away.
	late := newEventRecorder()
	loader.Subscribe(late.record)
	late.wait(t)
	require.Equal(t, []State{StateReady}, late.states())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	release := make(chan struct{})
	loader := NewLoader(func(ctx context.Context, progress func(float64)) (Encoder, error) {
		<-release
		return &stubEncoder{}, nil
	})

	rec := newEventRecorder()
	id := loader.Subscribe(rec.record)
	loader.Load(context.Background())
	loader.Unsubscribe(id)

	watcher := newEventRecorder()
	loader.Subscribe(watcher.record)
	close(release)
	watcher.wait(t)

	for _, s := range rec.states() {
		require.NotEqual(t, StateReady, s)
	}
}

func TestCloseReleasesEncoder(t *testing.T) {
	enc := &stubEncoder{}
	loader := NewLoader(func(ctx context.Context, progress func(float64)) (Encoder, error) {
		return enc, nil
	})

	rec := newEventRecorder()
	loader.Subscribe(rec.record)
	loader.Load(context.Background())
	rec.wait(t)

	require.NoError(t, loader.Close())
	require.True(t, enc.closed)
	require.Equal(t, StateUnloaded, loader.State().State)
	_, err := loader.Encoder()
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "unloaded", StateUnloaded.String())
	require.Equal(t, "loading", StateLoading.String())
	require.Equal(t, "ready", StateReady.String())
	require.Equal(t, "failed", StateFailed.String())
}
