package service

import (
	"sync"

	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/store"
)

// Session is the single quote session hosted by the process. Every caller
// goes through Do, so dispatch is never entered twice at the same time.
type Session struct {
	mu       sync.Mutex
	store    *store.Store
	workflow *WorkflowService
}

// NewSession creates a new Session over a store and the workflow driving it
func NewSession(st *store.Store, workflow *WorkflowService) *Session {
	return &Session{
		store:    st,
		workflow: workflow,
	}
}

// Do runs fn while holding the session lock
func (s *Session) Do(fn func(st *store.Store, wf *WorkflowService) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store, s.workflow)
}

// Snapshot returns the current state tree. State trees are never mutated
// after a dispatch returns, so the result can be read without the lock.
func (s *Session) Snapshot() *domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.GetState()
}
