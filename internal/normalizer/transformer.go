package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"deathmap/internal/models"
)

const jitterSpan = 0.2

// Category parameterizes one raw source: its death type, id prefix,
// mechanism table and the year stamped on every date.
type Category struct {
	Subtypes map[string]models.Subtype
	Type     models.DeathType
	IDPrefix string
	Year     int
}

// Transformer converts raw records into canonical death records.
type Transformer struct {
	rng        Rand
	agePattern *regexp.Regexp
}

// NewTransformer creates a transformer drawing jitter from rng.
func NewTransformer(rng Rand) *Transformer {
	return &Transformer{
		rng:        rng,
		agePattern: regexp.MustCompile(`\((\d+)`),
	}
}

// Normalize emits exactly one record per raw record, in input order. The
// i-th record gets id IDPrefix+(startIndex+i+1). Defaults applied along the
// way are returned as per-field counts.
func (t *Transformer) Normalize(raws []models.RawRecord, cat Category, startIndex int) ([]models.DeathRecord, Fallbacks) {
	records := make([]models.DeathRecord, 0, len(raws))
	fallbacks := Fallbacks{}

	for i, raw := range raws {
		records = append(records, t.normalizeOne(raw, cat, startIndex+i+1, fallbacks))
	}

	return records, fallbacks
}

func (t *Transformer) normalizeOne(raw models.RawRecord, cat Category, seq int, fb Fallbacks) models.DeathRecord {
	department, ok := raw.Get(models.RawDepartment)
	if !ok {
		department = FallbackDepartment
		fb[FieldDepartment]++
	}

	centroid, ok := LookupCentroid(department)
	if !ok {
		fb[FieldCentroid]++
	}

	lat := centroid.Lat + t.jitter()
	lng := centroid.Lng + t.jitter()

	municipality, ok := raw.Get(models.RawMunicipality)
	if !ok {
		municipality = UnknownMunicipality
		fb[FieldMunicipality]++
	}

	monthName, _ := raw.Get(models.RawMonth)

	month, ok := LookupMonth(strings.ToLower(monthName))
	if !ok {
		fb[FieldMonth]++
	}

	day := t.rng.IntN(28) + 1

	ageLabel, _ := raw.Get(models.RawAgeGroup)

	age, ok := t.parseAge(ageLabel)
	if !ok {
		fb[FieldAge]++
	}

	sex, _ := raw.Get(models.RawSex)

	gender, ok := LookupGender(sex)
	if !ok {
		fb[FieldGender]++
	}

	mechanism, _ := raw.Get(models.RawMechanism)

	subtype, ok := cat.Subtypes[mechanism]
	if !ok {
		subtype = models.SubtypeOtro
		fb[FieldSubtype]++
	}

	return models.DeathRecord{
		ID:      cat.IDPrefix + strconv.Itoa(seq),
		Date:    fmt.Sprintf("%04d-%02d-%02d", cat.Year, month, day),
		Type:    cat.Type,
		Subtype: subtype,
		Location: models.Location{
			Department:   department,
			Municipality: municipality,
			Lat:          lat,
			Lng:          lng,
		},
		Demographics: models.Demographics{
			Age:    age,
			Gender: gender,
		},
	}
}

// jitter returns a uniform offset in [-0.1, 0.1).
func (t *Transformer) jitter() float64 {
	return (t.rng.Float64() - 0.5) * jitterSpan
}

// parseAge extracts the lower bound of a quinquennial bracket such as "(18-25)".
func (t *Transformer) parseAge(label string) (int, bool) {
	match := t.agePattern.FindStringSubmatch(label)
	if match == nil {
		return FallbackAge, false
	}

	val, err := strconv.Atoi(match[1])
	if err != nil {
		return FallbackAge, false
	}

	return val, true
}
