// Package loadstate defines the lifecycle state of a data loader.
package loadstate

// Kind enumerates the lifecycle phases of a load.
type Kind uint8

const (
	// Idle is the zero state of a loader that was never triggered.
	Idle Kind = iota
	// Loading means a request is in flight.
	Loading
	// Loaded means the request settled with a value.
	Loaded
	// Failed means the request settled with an error message.
	Failed
)

// String returns the lowercase name of the phase.
func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FallbackMessage is used when a failure carries no text.
const FallbackMessage = "An unexpected error occurred"

// State is a tagged variant over Idle, Loading, Loaded(value) and
// Failed(message). Exactly one phase holds at a time; the zero value is Idle.
type State[T any] struct {
	kind    Kind
	value   T
	message string
}

// NewLoading returns a Loading state.
func NewLoading[T any]() State[T] {
	return State[T]{kind: Loading}
}

// NewLoaded returns a Loaded state holding v.
func NewLoaded[T any](v T) State[T] {
	return State[T]{kind: Loaded, value: v}
}

// NewFailed returns a Failed state. An empty message is replaced with
// FallbackMessage.
func NewFailed[T any](message string) State[T] {
	if message == "" {
		message = FallbackMessage
	}
	return State[T]{kind: Failed, message: message}
}

// FromResult converts the outcome of a fetch into a settled state.
func FromResult[T any](v T, err error) State[T] {
	if err != nil {
		return NewFailed[T](err.Error())
	}
	return NewLoaded(v)
}

// Kind reports the current phase.
func (s State[T]) Kind() Kind { return s.kind }

// Settled reports whether the state is Loaded or Failed.
func (s State[T]) Settled() bool {
	return s.kind == Loaded || s.kind == Failed
}

// Value returns the loaded value and true, or the zero value and false when
// the state is not Loaded.
func (s State[T]) Value() (T, bool) {
	if s.kind != Loaded {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Message returns the failure text and true, or "" and false when the state
// is not Failed.
func (s State[T]) Message() (string, bool) {
	if s.kind != Failed {
		return "", false
	}
	return s.message, true
}
