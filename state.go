package httpmock

import (
	"encoding/json"
	"sync"
)

// StateHandler can be implemented by the client code to provide
// a way to manage the application state of individual scenarios.
type StateHandler interface {
	// Init can be used to initialize (i.e., set up) a scenario's state.
	// Init will be invoked BEFORE the scenario's steps are executed.
	Init(State) error
	// Check can be used to check whether a scenario's state is as expected.
	// Check will be invoked AFTER the scenario's steps are executed.
	Check(State) error
	// Cleanup can be used to clean up (i.e., tear down) a scenario's state.
	// Cleanup will be invoked AFTER the scenario's steps are executed.
	Cleanup(State) error
}

// A State is a value of any type that the client code can use, together with
// an implementation of the StateHandler, to manage the state of individual scenarios.
type State any

// Var is a shared, mutable reference to a value of type T. Handlers that
// close over a Var read its value at dispatch time, so that a response
// reflects modifications made by the scenario after the route was registered.
//
// The zero value is ready to use.
type Var[T any] struct {
	mu sync.RWMutex
	v  T
}

// NewVar returns a new Var holding v.
func NewVar[T any](v T) *Var[T] {
	return &Var[T]{v: v}
}

// Get returns the current value.
func (x *Var[T]) Get() T {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.v
}

// Set replaces the current value with v.
func (x *Var[T]) Set(v T) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.v = v
}

// Update invokes f with a pointer to the current value, allowing it to
// modify the value in place.
func (x *Var[T]) Update(f func(v *T)) {
	x.mu.Lock()
	defer x.mu.Unlock()
	f(&x.v)
}

// JSON returns a Body that encodes the Var's value, as it is at the time
// the body is read, into json. The value is encoded while the Var is locked,
// so in-place modifications made with Update never race with the encoding.
func (x *Var[T]) JSON() Body {
	return JSONFunc(func() interface{} {
		x.mu.RLock()
		defer x.mu.RUnlock()
		b, err := json.Marshal(x.v)
		if err != nil {
			return encodeError{err}
		}
		return json.RawMessage(b)
	})
}

// encodeError fails the encoding of the body that holds it.
type encodeError struct{ err error }

func (e encodeError) MarshalJSON() ([]byte, error) { return nil, e.err }
