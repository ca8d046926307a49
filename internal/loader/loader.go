// Package loader drives the fetch lifecycle of a view: every input change
// moves the state to Loading, issues one fetch and settles to Loaded or
// Failed.
//
// Each fetch is tagged with a generation number. A result is applied only if
// its generation is still current, so a slow response for an old input can
// never overwrite the state of a newer one. Superseded fetches also have their
// context cancelled.
package loader

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/product-showcase/internal/domain/loadstate"
)

// ErrClosed is returned by Wait when Close abandons the load it was waiting on.
var ErrClosed = errors.New("loader closed")

// Fetch loads the value for one input.
type Fetch[I comparable, T any] func(ctx context.Context, input I) (T, error)

// Options configures a Loader.
type Options[T any] struct {
	// OnChange receives every applied transition in order. It runs
	// synchronously and must not call back into the Loader.
	OnChange func(loadstate.State[T])
	Logger   *zap.Logger
	Metrics  *Metrics
}

// Loader owns one load state and the fetch that drives it.
type Loader[I comparable, T any] struct {
	name     string
	fetch    Fetch[I, T]
	onChange func(loadstate.State[T])
	lg       *zap.Logger
	metrics  *Metrics

	// emit serializes state transitions together with their OnChange
	// delivery so observers never see them out of order.
	emit sync.Mutex

	mu      sync.Mutex
	gen     uint64
	input   I
	state   loadstate.State[T]
	cancel  context.CancelFunc
	settled chan struct{}
}

// New returns an idle Loader. name identifies the loader in logs and metrics.
func New[I comparable, T any](name string, fetch Fetch[I, T], opts Options[T]) *Loader[I, T] {
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Loader[I, T]{
		name:     name,
		fetch:    fetch,
		onChange: opts.OnChange,
		lg:       lg.Named(name),
		metrics:  opts.Metrics,
	}
}

// Load sets the input. When it differs from the current one, or nothing was
// loaded yet, the state moves to Loading and a fetch starts in the background.
// ctx bounds the fetch.
func (l *Loader[I, T]) Load(ctx context.Context, input I) {
	l.emit.Lock()
	defer l.emit.Unlock()

	l.mu.Lock()
	if l.settled != nil && l.input == input {
		l.mu.Unlock()
		return
	}
	if l.cancel != nil {
		l.cancel()
	}
	if l.settled != nil && !l.state.Settled() {
		// Release waiters of the superseded generation.
		close(l.settled)
	}

	l.gen++
	gen := l.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.input = input
	l.state = loadstate.NewLoading[T]()
	l.cancel = cancel
	l.settled = done
	state := l.state
	l.mu.Unlock()

	l.lg.Debug("Loading", zap.Uint64("generation", gen), zap.Any("input", input))
	l.notify(state)

	go l.run(fetchCtx, cancel, gen, input, done)
}

func (l *Loader[I, T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64, input I, done chan struct{}) {
	defer cancel()

	v, err := l.fetch(ctx, input)
	next := loadstate.FromResult(v, err)

	l.emit.Lock()
	defer l.emit.Unlock()

	l.mu.Lock()
	if gen != l.gen {
		current := l.gen
		l.mu.Unlock()
		l.lg.Debug("Discarding stale result",
			zap.Uint64("generation", gen),
			zap.Uint64("current", current),
		)
		l.metrics.discarded(ctx, l.name)
		return
	}
	l.state = next
	l.cancel = nil
	close(done)
	l.mu.Unlock()

	if err != nil {
		l.lg.Debug("Load failed", zap.Any("input", input), zap.Error(err))
	}
	l.metrics.settled(ctx, l.name, next.Kind())
	l.notify(next)
}

func (l *Loader[I, T]) notify(s loadstate.State[T]) {
	if l.onChange != nil {
		l.onChange(s)
	}
}

// State returns the current state.
func (l *Loader[I, T]) State() loadstate.State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Input returns the current input and whether Load was ever called.
func (l *Loader[I, T]) Input() (I, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.input, l.gen > 0
}

// Wait blocks until the current generation settles and returns its state. If
// the input changes while waiting, Wait follows the newer generation. It
// returns the state seen so far and ctx.Err() when ctx ends first. An idle
// Loader returns immediately. If Close abandons the pending load, Wait returns
// the unsettled state and ErrClosed.
func (l *Loader[I, T]) Wait(ctx context.Context) (loadstate.State[T], error) {
	for {
		l.mu.Lock()
		gen, done, state := l.gen, l.settled, l.state
		l.mu.Unlock()

		if state.Settled() {
			return state, nil
		}
		if done == nil {
			if state.Kind() == loadstate.Loading {
				return state, ErrClosed
			}
			return state, nil
		}

		select {
		case <-done:
			l.mu.Lock()
			current, state := l.gen, l.state
			l.mu.Unlock()
			if current == gen {
				return state, nil
			}
		case <-ctx.Done():
			return l.State(), ctx.Err()
		}
	}
}

// Close cancels an in-flight fetch and discards its result. The state is left
// as it was; a later Load starts over even for the same input.
func (l *Loader[I, T]) Close() {
	l.emit.Lock()
	defer l.emit.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.settled != nil && !l.state.Settled() {
		close(l.settled)
	}
	// Bump the generation so the cancelled fetch cannot apply its result.
	l.gen++
	l.settled = nil
}
