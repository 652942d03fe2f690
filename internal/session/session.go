// Package session owns the loaded dataset and the per-client filter views over it.
package session

import (
	"errors"
	"fmt"
	"sync"

	"deathmap/internal/models"
)

// Session errors.
var (
	ErrNotLoaded     = errors.New("dataset not loaded")
	ErrLoadFailed    = errors.New("dataset load failed")
	ErrAlreadyLoaded = errors.New("dataset already loaded")
	ErrNotFound      = errors.New("session not found")
)

// State is the load state of a Session.
type State string

// Load states.
const (
	StateEmpty  State = "empty"
	StateLoaded State = "loaded"
	StateFailed State = "failed"
)

// Session holds the one shared dataset. It is created empty and moves to
// loaded or failed exactly once. Filtering happens in a Manager's views.
type Session struct {
	mu      sync.RWMutex
	state   State
	dataset *models.Dataset
	loadErr error
}

// New returns an empty session.
func New() *Session {
	return &Session{state: StateEmpty}
}

// Load installs ds. A zero-record dataset is a successful load.
func (s *Session) Load(ds *models.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEmpty {
		return fmt.Errorf("%w: session is %s", ErrAlreadyLoaded, s.state)
	}

	s.dataset = ds
	s.state = StateLoaded

	return nil
}

// Fail records that the dataset could not be obtained.
func (s *Session) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEmpty {
		return fmt.Errorf("%w: session is %s", ErrAlreadyLoaded, s.state)
	}

	s.loadErr = err
	s.state = StateFailed

	return nil
}

// State returns the current load state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Err returns nil when loaded, ErrNotLoaded when empty, and an error
// wrapping ErrLoadFailed and the cause when the load failed.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.errLocked()
}

func (s *Session) errLocked() error {
	switch s.state {
	case StateLoaded:
		return nil
	case StateFailed:
		return fmt.Errorf("%w: %w", ErrLoadFailed, s.loadErr)
	default:
		return ErrNotLoaded
	}
}

// Dataset returns the loaded dataset.
func (s *Session) Dataset() (*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.errLocked(); err != nil {
		return nil, err
	}

	return s.dataset, nil
}
