// Package filter holds a loaded dataset and the active filter specification,
// and keeps the matching subset current as the specification changes.
package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"deathmap/internal/models"
)

// Specification errors. Every rejected update wraps ErrInvalidSpecification.
var (
	ErrInvalidSpecification = errors.New("invalid filter specification")
	ErrInvalidAgeRange      = errors.New("age range min is greater than max")
	ErrInvalidDateRange     = errors.New("date range start is after end")
	ErrUnknownDeathType     = errors.New("unknown death type")
	ErrUnknownGender        = errors.New("unknown gender")
	ErrInvalidDate          = errors.New("invalid date")
	ErrRangeLength          = errors.New("range must have exactly two elements")
)

// Default age bounds.
const (
	MinAge = 0
	MaxAge = 100
)

const dateLayout = "2006-01-02"

// Date is a calendar date. It encodes as "YYYY-MM-DD" and also decodes
// RFC 3339 timestamps, keeping their calendar day.
type Date struct {
	t time.Time
}

// NewDate returns the date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t: t}, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Time returns the date at midnight UTC.
func (d Date) String() string { return d.t.Format(dateLayout) }

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// AgeRange is an inclusive [min, max] age interval.
type AgeRange [2]int

// UnmarshalJSON rejects arrays that are not exactly [min, max].
func (r *AgeRange) UnmarshalJSON(data []byte) error {
	var bounds []int
	if err := json.Unmarshal(data, &bounds); err != nil {
		return fmt.Errorf("%w: %w: %s", ErrInvalidSpecification, ErrInvalidAgeRange, data)
	}

	if len(bounds) != 2 {
		return fmt.Errorf("%w: ageRange: %w, got %d", ErrInvalidSpecification, ErrRangeLength, len(bounds))
	}

	*r = AgeRange{bounds[0], bounds[1]}

	return nil
}

// DateRange is an inclusive [start, end] interval. It restricts only when
// both ends are set.
type DateRange [2]*Date

// UnmarshalJSON rejects arrays that are not exactly [start, end]. Either end
// may be null.
func (r *DateRange) UnmarshalJSON(data []byte) error {
	var ends []*Date
	if err := json.Unmarshal(data, &ends); err != nil {
		return fmt.Errorf("%w: dateRange: %w", ErrInvalidSpecification, err)
	}

	if len(ends) != 2 {
		return fmt.Errorf("%w: dateRange: %w, got %d", ErrInvalidSpecification, ErrRangeLength, len(ends))
	}

	*r = DateRange{ends[0], ends[1]}

	return nil
}

// Active reports whether both ends are set.
func (r DateRange) Active() bool {
	return r[0] != nil && r[1] != nil
}

// Spec is a complete filter specification. An empty set imposes no
// restriction on its dimension; AgeRange always applies.
type Spec struct {
	Years          []int              `json:"years"`
	DeathTypes     []models.DeathType `json:"deathTypes"`
	Departments    []string           `json:"departments"`
	Municipalities []string           `json:"municipalities"`
	AgeRange       AgeRange           `json:"ageRange"`
	Gender         []models.Gender    `json:"gender"`
	DateRange      DateRange          `json:"dateRange"`
}

// DefaultSpec returns the specification that matches every record aged 0..100.
func DefaultSpec() Spec {
	return Spec{
		Years:          []int{},
		DeathTypes:     []models.DeathType{},
		Departments:    []string{},
		Municipalities: []string{},
		AgeRange:       AgeRange{MinAge, MaxAge},
		Gender:         []models.Gender{},
	}
}

// Validate reports the first reason s cannot be applied.
func (s Spec) Validate() error {
	if s.AgeRange[0] > s.AgeRange[1] {
		return fmt.Errorf("%w: %w: [%d, %d]", ErrInvalidSpecification, ErrInvalidAgeRange, s.AgeRange[0], s.AgeRange[1])
	}

	if s.DateRange.Active() && s.DateRange[0].t.After(s.DateRange[1].t) {
		return fmt.Errorf("%w: %w: [%s, %s]", ErrInvalidSpecification, ErrInvalidDateRange, s.DateRange[0], s.DateRange[1])
	}

	for _, t := range s.DeathTypes {
		if !t.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidSpecification, ErrUnknownDeathType, t)
		}
	}

	for _, g := range s.Gender {
		if !g.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidSpecification, ErrUnknownGender, g)
		}
	}

	return nil
}

// clone deep-copies s so callers never share slices with the engine.
func (s Spec) clone() Spec {
	c := Spec{
		Years:          cloneNonNil(s.Years),
		DeathTypes:     cloneNonNil(s.DeathTypes),
		Departments:    cloneNonNil(s.Departments),
		Municipalities: cloneNonNil(s.Municipalities),
		AgeRange:       s.AgeRange,
		Gender:         cloneNonNil(s.Gender),
	}

	for i, d := range s.DateRange {
		if d != nil {
			v := *d
			c.DateRange[i] = &v
		}
	}

	return c
}

func cloneNonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}

	return slices.Clone(s)
}

// Patch is a partial specification. Nil fields leave the current value in
// place; a non-nil field replaces it wholesale.
type Patch struct {
	Years          *[]int              `json:"years,omitempty"`
	DeathTypes     *[]models.DeathType `json:"deathTypes,omitempty"`
	Departments    *[]string           `json:"departments,omitempty"`
	Municipalities *[]string           `json:"municipalities,omitempty"`
	AgeRange       *AgeRange           `json:"ageRange,omitempty"`
	Gender         *[]models.Gender    `json:"gender,omitempty"`
	DateRange      *DateRange          `json:"dateRange,omitempty"`
}

// DecodePatch parses a JSON patch, rejecting unknown fields.
func DecodePatch(data []byte) (Patch, error) {
	var p Patch

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&p); err != nil {
		return Patch{}, fmt.Errorf("%w: %w", ErrInvalidSpecification, err)
	}

	return p, nil
}

// IsEmpty reports whether p sets no field.
func (p Patch) IsEmpty() bool {
	return p.Years == nil && p.DeathTypes == nil && p.Departments == nil &&
		p.Municipalities == nil && p.AgeRange == nil && p.Gender == nil && p.DateRange == nil
}

// apply returns s with p's fields merged in. s is not modified.
func (p Patch) apply(s Spec) Spec {
	out := s.clone()

	if p.Years != nil {
		out.Years = cloneNonNil(*p.Years)
	}

	if p.DeathTypes != nil {
		out.DeathTypes = cloneNonNil(*p.DeathTypes)
	}

	if p.Departments != nil {
		out.Departments = cloneNonNil(*p.Departments)
	}

	if p.Municipalities != nil {
		out.Municipalities = cloneNonNil(*p.Municipalities)
	}

	if p.AgeRange != nil {
		out.AgeRange = *p.AgeRange
	}

	if p.Gender != nil {
		out.Gender = cloneNonNil(*p.Gender)
	}

	if p.DateRange != nil {
		out.DateRange = DateRange{}

		for i, d := range p.DateRange {
			if d != nil {
				v := *d
				out.DateRange[i] = &v
			}
		}
	}

	return out
}
