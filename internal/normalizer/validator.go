package normalizer

import (
	"errors"
	"fmt"

	"deathmap/internal/models"
)

// Validation errors.
var (
	ErrUnknownCategory = errors.New("unknown death category")
	ErrMissingIDPrefix = errors.New("missing id prefix")
	ErrInvalidYear     = errors.New("invalid year")
	ErrUnknownSubtype  = errors.New("unknown subtype in mechanism table")
)

var knownSubtypes = map[models.Subtype]bool{
	models.SubtypeAccidenteTransito: true,
	models.SubtypeAhogamiento:       true,
	models.SubtypeCaida:             true,
	models.SubtypeIntoxicacion:      true,
	models.SubtypeArmaFuego:         true,
	models.SubtypeArmaBlanca:        true,
	models.SubtypeAsfixia:           true,
	models.SubtypeOtro:              true,
}

// Validator checks a batch's category parameters before it is transformed.
// Raw record contents are never validated: every field has a default.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks if cat can drive a normalization pass.
func (v *Validator) Validate(cat Category) error {
	if !cat.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, cat.Type)
	}

	if cat.IDPrefix == "" {
		return ErrMissingIDPrefix
	}

	if cat.Year < 1 || cat.Year > 9999 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, cat.Year)
	}

	for mechanism, subtype := range cat.Subtypes {
		if !knownSubtypes[subtype] {
			return fmt.Errorf("%w: %q -> %q", ErrUnknownSubtype, mechanism, subtype)
		}
	}

	return nil
}
