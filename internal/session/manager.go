package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"deathmap/internal/filter"
)

// View is one client's filter state over the shared dataset.
type View struct {
	ID       string
	Engine   *filter.Engine
	lastSeen time.Time
}

// Manager hands out uuid-keyed views over the dataset of one Session and
// drops views idle longer than the TTL.
type Manager struct {
	mu    sync.Mutex
	base  *Session
	views map[string]*View
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager over base. A non-positive ttl disables pruning.
func NewManager(base *Session, ttl time.Duration) *Manager {
	return &Manager{
		base:  base,
		views: make(map[string]*View),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Base returns the session that owns the dataset.
func (m *Manager) Base() *Session {
	return m.base
}

// Create opens a new view with default filters.
func (m *Manager) Create() (*View, error) {
	ds, err := m.base.Dataset()
	if err != nil {
		return nil, err
	}

	v := &View{
		ID:     uuid.NewString(),
		Engine: filter.New(ds.Data),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v.lastSeen = m.now()
	m.views[v.ID] = v

	return v, nil
}

// Get returns the view for id and marks it as used.
func (m *Manager) Get(id string) (*View, error) {
	if err := m.base.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.views[id]
	if !ok {
		return nil, ErrNotFound
	}

	v.lastSeen = m.now()

	return v, nil
}

// Delete removes the view for id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.views[id]; !ok {
		return ErrNotFound
	}

	delete(m.views, id)

	return nil
}

// Len returns the number of open views.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.views)
}

// Prune drops views idle longer than the TTL and returns how many went.
func (m *Manager) Prune() int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	pruned := 0

	for id, v := range m.views {
		if v.lastSeen.Before(cutoff) {
			delete(m.views, id)
			pruned++
		}
	}

	return pruned
}
