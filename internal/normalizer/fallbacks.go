package normalizer

import (
	"maps"
	"slices"
)

// Field names counted when a default is applied.
const (
	FieldDepartment   = "department"
	FieldCentroid     = "centroid"
	FieldMunicipality = "municipality"
	FieldMonth        = "month"
	FieldAge          = "age"
	FieldGender       = "gender"
	FieldSubtype      = "subtype"
)

// Fallbacks counts, per field, how many records used a default value.
type Fallbacks map[string]int

// Add accumulates other into f.
func (f Fallbacks) Add(other Fallbacks) {
	for field, n := range other {
		f[field] += n
	}
}

// Total returns the number of defaults applied across all fields.
func (f Fallbacks) Total() int {
	total := 0
	for _, n := range f {
		total += n
	}

	return total
}

// LogArgs flattens the counts into sorted key/value pairs for structured logging.
func (f Fallbacks) LogArgs() []any {
	args := make([]any, 0, 2*len(f))
	for _, field := range slices.Sorted(maps.Keys(f)) {
		args = append(args, field, f[field])
	}

	return args
}
