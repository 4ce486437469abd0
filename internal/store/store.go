// Package store holds the current state of a quote session. Dispatch is the
// only way to change it.
//
// A Store is not safe for concurrent use; callers serialise access the way
// the session host does.
package store

import (
	"time"

	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
)

// Reducer computes the next state. It must return its input when nothing changed.
type Reducer interface {
	Reduce(state *domain.State, a actions.Action) *domain.State
}

// Listener is notified with the new state after every change
type Listener func(state *domain.State)

// Observer receives every dispatch, changed or not
type Observer func(a actions.Action, changed bool, elapsed time.Duration)

type subscription struct {
	id       int
	listener Listener
}

// Store owns the state tree
type Store struct {
	state       *domain.State
	reducer     Reducer
	subscribers []subscription
	nextID      int
	dispatching bool
	observer    Observer
	logger      *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithObserver installs a dispatch observer, e.g. for metrics
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New creates a store holding initial
func New(initial *domain.State, reducer Reducer, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		state:   initial,
		reducer: reducer,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetState returns the current state. The returned tree must be treated as read-only.
func (s *Store) GetState() *domain.State {
	return s.state
}

// Dispatch runs the reducer and, when the state reference changed, stores the
// new state and notifies subscribers. It reports whether the state changed.
// Dispatching from inside the reducer is ignored.
func (s *Store) Dispatch(a actions.Action) bool {
	if a == nil {
		return false
	}
	if s.dispatching {
		s.logger.Error("Dispatch called while reducing, action ignored",
			zap.String("action", string(a.Type())))
		return false
	}

	start := time.Now()
	s.dispatching = true
	next := func() *domain.State {
		defer func() { s.dispatching = false }()
		return s.reducer.Reduce(s.state, a)
	}()

	changed := next != s.state
	if s.observer != nil {
		s.observer(a, changed, time.Since(start))
	}
	if !changed {
		return false
	}

	s.state = next
	s.logger.Debug("State updated", zap.String("action", string(a.Type())))

	subs := append([]subscription(nil), s.subscribers...)
	for _, sub := range subs {
		sub.listener(next)
	}
	return true
}

// Subscribe registers a listener and returns a function that removes it
func (s *Store) Subscribe(l Listener) func() {
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscription{id: id, listener: l})
	return func() {
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}
