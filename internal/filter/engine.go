package filter

import (
	"slices"
	"sync"
	"time"

	"deathmap/internal/models"
)

// Engine owns an immutable record set and the active specification. Every
// update merges and recomputes under one exclusive lock, so readers always
// see a specification together with its own result.
type Engine struct {
	mu       sync.RWMutex
	records  []models.DeathRecord
	dates    []time.Time
	dated    []bool
	spec     Spec
	filtered []models.DeathRecord
}

// New creates an engine over records with the default specification. The
// slice is copied; record dates are parsed once here.
func New(records []models.DeathRecord) *Engine {
	e := &Engine{
		records: slices.Clone(records),
		dates:   make([]time.Time, len(records)),
		dated:   make([]bool, len(records)),
		spec:    DefaultSpec(),
	}

	if e.records == nil {
		e.records = []models.DeathRecord{}
	}

	for i, r := range e.records {
		if t, err := time.Parse(dateLayout, r.Date); err == nil {
			e.dates[i] = t
			e.dated[i] = true
		}
	}

	e.filtered = e.compute(e.spec)

	return e
}

// SetFilters merges p into the active specification and recomputes. If the
// merged result is invalid the whole patch is rejected: its valid fields are
// dropped too and the prior specification stays in effect.
func (e *Engine) SetFilters(p Patch) error {
	if p.IsEmpty() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := p.apply(e.spec)
	if err := next.Validate(); err != nil {
		return err
	}

	e.spec = next
	e.filtered = e.compute(next)

	return nil
}

// ResetFilters restores DefaultSpec and recomputes.
func (e *Engine) ResetFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.spec = DefaultSpec()
	e.filtered = e.compute(e.spec)
}

// FilteredRecords returns the matching records in dataset order.
func (e *Engine) FilteredRecords() []models.DeathRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Clone(e.filtered)
}

// Filters returns a copy of the active specification.
func (e *Engine) Filters() Spec {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.spec.clone()
}

// Snapshot returns the active specification and its result as one consistent pair.
func (e *Engine) Snapshot() (Spec, []models.DeathRecord) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.spec.clone(), slices.Clone(e.filtered)
}

// Total returns the size of the unfiltered record set.
func (e *Engine) Total() int {
	return len(e.records)
}

// compute runs one full pass over the records.
func (e *Engine) compute(s Spec) []models.DeathRecord {
	m := newMatcher(s)
	out := make([]models.DeathRecord, 0, len(e.records))

	for i := range e.records {
		if m.match(&e.records[i], e.dates[i], e.dated[i]) {
			out = append(out, e.records[i])
		}
	}

	return out
}

type set[T comparable] map[T]struct{}

func newSet[T comparable](items []T) set[T] {
	if len(items) == 0 {
		return nil
	}

	s := make(set[T], len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}

	return s
}

// allows reports membership. A nil set allows everything.
func (s set[T]) allows(v T) bool {
	if s == nil {
		return true
	}

	_, ok := s[v]

	return ok
}

type matcher struct {
	years          set[int]
	types          set[models.DeathType]
	departments    set[string]
	municipalities set[string]
	genders        set[models.Gender]
	minAge, maxAge int
	dateActive     bool
	start, end     time.Time
}

func newMatcher(s Spec) *matcher {
	m := &matcher{
		years:          newSet(s.Years),
		types:          newSet(s.DeathTypes),
		departments:    newSet(s.Departments),
		municipalities: newSet(s.Municipalities),
		genders:        newSet(s.Gender),
		minAge:         s.AgeRange[0],
		maxAge:         s.AgeRange[1],
		dateActive:     s.DateRange.Active(),
	}

	if m.dateActive {
		m.start = s.DateRange[0].t
		m.end = s.DateRange[1].t
	}

	return m
}

// match applies every dimension conjunctively. A record whose date does not
// parse fails any active year or date-range restriction.
func (m *matcher) match(r *models.DeathRecord, date time.Time, dated bool) bool {
	if m.years != nil && (!dated || !m.years.allows(date.Year())) {
		return false
	}

	if !m.types.allows(r.Type) {
		return false
	}

	if !m.departments.allows(r.Location.Department) {
		return false
	}

	if !m.municipalities.allows(r.Location.Municipality) {
		return false
	}

	if age := r.Demographics.Age; age < m.minAge || age > m.maxAge {
		return false
	}

	if !m.genders.allows(r.Demographics.Gender) {
		return false
	}

	if m.dateActive && (!dated || date.Before(m.start) || date.After(m.end)) {
		return false
	}

	return true
}
