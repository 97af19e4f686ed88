// Package stores holds the per-account onboarding state: tags, gallery items,
// missions, tasks, notifications, employees, images and settings. Every store
// guards its own state and publishes change events to subscribers.
package stores

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidDueDate = errors.New("invalid due date")
)

// ValidationError carries every rule a create/update request violated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func validationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// Event describes a single state change inside a store.
type Event struct {
	Store  string `json:"store"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

// Listener receives store events. It runs on the mutating goroutine after the
// store lock has been released.
type Listener func(Event)

type observable struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

// Subscribe registers fn and returns a function that removes it.
func (o *observable) Subscribe(fn Listener) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.listeners == nil {
		o.listeners = make(map[int]Listener)
	}
	id := o.next
	o.next++
	o.listeners[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

func (o *observable) emit(store, action, id string) {
	o.mu.Lock()
	fns := make([]Listener, 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	ev := Event{Store: store, Action: action, ID: id}
	for _, fn := range fns {
		fn(ev)
	}
}

// Clock returns the current time. Stores take one so tests can pin time.
type Clock func() time.Time

func newID() string {
	return uuid.New().String()
}

const dateLayout = "2006-01-02"
