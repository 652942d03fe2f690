// Package validator checks a normalized dataset against its structural invariants.
package validator

import (
	"errors"
	"fmt"
	"regexp"

	"deathmap/internal/models"
)

// Validation errors.
var (
	ErrTotalMismatch   = errors.New("total does not equal number of records")
	ErrByTypeMismatch  = errors.New("by_type counts do not partition data")
	ErrDuplicateID     = errors.New("duplicate record id")
	ErrInvalidDate     = errors.New("invalid record date")
	ErrInvalidType     = errors.New("invalid record type")
	ErrInvalidGender   = errors.New("invalid record gender")
	ErrInvalidDataset  = errors.New("dataset failed validation")
	ErrMissingRecordID = errors.New("record id is empty")
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Err     error
	Field   string
	Value   string
	Message string
	Index   int
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalRecords   int
	InvalidRecords int
	TypeCount      int
}

// DatasetValidator validates normalized datasets.
type DatasetValidator struct {
	datePattern *regexp.Regexp
}

// NewDatasetValidator creates a new validator.
func NewDatasetValidator() *DatasetValidator {
	return &DatasetValidator{
		datePattern: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	}
}

// ValidateDataset checks total, the by_type partition and every record's
// closed fields.
func (v *DatasetValidator) ValidateDataset(ds *models.Dataset) *ValidationResult {
	result := &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []string{},
		Stats: ValidationStats{
			TotalRecords: len(ds.Data),
			TypeCount:    len(ds.ByType),
		},
	}

	if ds.Total != len(ds.Data) {
		result.add(ValidationError{
			Err:     ErrTotalMismatch,
			Index:   -1,
			Field:   "total",
			Message: fmt.Sprintf("total is %d but data has %d records", ds.Total, len(ds.Data)),
		})
	}

	counted := models.CountByType(ds.Data)

	sum := 0
	for t, n := range ds.ByType {
		sum += n

		if counted[t] != n {
			result.add(ValidationError{
				Err:     ErrByTypeMismatch,
				Index:   -1,
				Field:   "by_type",
				Value:   string(t),
				Message: fmt.Sprintf("by_type[%s] is %d but data has %d", t, n, counted[t]),
			})
		}
	}

	for t, n := range counted {
		if _, ok := ds.ByType[t]; !ok {
			result.add(ValidationError{
				Err:     ErrByTypeMismatch,
				Index:   -1,
				Field:   "by_type",
				Value:   string(t),
				Message: fmt.Sprintf("type %s has %d records but no by_type entry", t, n),
			})
		}
	}

	if sum != len(ds.Data) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("by_type sums to %d, data has %d records", sum, len(ds.Data)))
	}

	seen := make(map[string]int, len(ds.Data))

	for i, r := range ds.Data {
		errs := v.validateRecord(i, r)

		if r.ID != "" {
			if first, dup := seen[r.ID]; dup {
				errs = append(errs, ValidationError{
					Err:     ErrDuplicateID,
					Index:   i,
					Field:   "id",
					Value:   r.ID,
					Message: fmt.Sprintf("id %q already used by record %d", r.ID, first),
				})
			} else {
				seen[r.ID] = i
			}
		}

		if len(errs) > 0 {
			result.Stats.InvalidRecords++
			for _, e := range errs {
				result.add(e)
			}
		}
	}

	return result
}

// Validate returns nil when ds satisfies every invariant, or an error
// wrapping ErrInvalidDataset and the first violation.
func (v *DatasetValidator) Validate(ds *models.Dataset) error {
	result := v.ValidateDataset(ds)
	if result.IsValid {
		return nil
	}

	first := result.Errors[0]

	return fmt.Errorf("%w: %w: %s (%d errors)", ErrInvalidDataset, first.Err, first.Message, len(result.Errors))
}

func (v *DatasetValidator) validateRecord(i int, r models.DeathRecord) []ValidationError {
	var errs []ValidationError

	if r.ID == "" {
		errs = append(errs, ValidationError{Err: ErrMissingRecordID, Index: i, Field: "id", Message: "id is empty"})
	}

	if !v.datePattern.MatchString(r.Date) {
		errs = append(errs, ValidationError{
			Err:     ErrInvalidDate,
			Index:   i,
			Field:   "date",
			Value:   r.Date,
			Message: fmt.Sprintf("date %q is not YYYY-MM-DD", r.Date),
		})
	}

	if !r.Type.Valid() {
		errs = append(errs, ValidationError{
			Err:     ErrInvalidType,
			Index:   i,
			Field:   "type",
			Value:   string(r.Type),
			Message: fmt.Sprintf("unknown type %q", r.Type),
		})
	}

	if !r.Demographics.Gender.Valid() {
		errs = append(errs, ValidationError{
			Err:     ErrInvalidGender,
			Index:   i,
			Field:   "demographics.gender",
			Value:   string(r.Demographics.Gender),
			Message: fmt.Sprintf("unknown gender %q", r.Demographics.Gender),
		})
	}

	return errs
}

func (r *ValidationResult) add(e ValidationError) {
	r.IsValid = false
	r.Errors = append(r.Errors, e)
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "✅ VALID"
	if !r.IsValid {
		status = "❌ INVALID"
	}

	return fmt.Sprintf(
		"%s | Records: %d | Invalid: %d | Types: %d | Errors: %d | Warnings: %d",
		status,
		r.Stats.TotalRecords,
		r.Stats.InvalidRecords,
		r.Stats.TypeCount,
		len(r.Errors),
		len(r.Warnings),
	)
}
