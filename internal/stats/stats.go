// Package stats aggregates death records for the dashboard panels and reports.
package stats

import (
	"cmp"
	"slices"

	"deathmap/internal/models"
)

// DefaultTopDepartments is the number of departments kept in a Summary.
const DefaultTopDepartments = 10

// Age groups in display order.
var AgeGroups = []string{"0-17", "18-30", "31-50", "51-70", "71+"}

// Count is one labelled bar.
type Count struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Summary is the aggregate view of a record slice.
type Summary struct {
	Total        int                   `json:"total"`
	ByType       []Count               `json:"byType"`
	ByDepartment []Count               `json:"byDepartment"`
	ByMonth      []Count               `json:"byMonth"`
	ByGender     map[models.Gender]int `json:"byGender"`
	ByAgeGroup   []Count               `json:"byAgeGroup"`
}

// AgeGroup returns the bucket label for age.
func AgeGroup(age int) string {
	switch {
	case age <= 17:
		return AgeGroups[0]
	case age <= 30:
		return AgeGroups[1]
	case age <= 50:
		return AgeGroups[2]
	case age <= 70:
		return AgeGroups[3]
	default:
		return AgeGroups[4]
	}
}

// Compute aggregates records. ByType is sorted by count, ByDepartment keeps
// the topN largest (all when topN <= 0), ByMonth is chronological, ByGender
// always carries M, F and O, and ByAgeGroup lists every bucket in order.
func Compute(records []models.DeathRecord, topN int) Summary {
	byType := map[string]int{}
	byDept := map[string]int{}
	byMonth := map[string]int{}
	byAge := map[string]int{}
	byGender := map[models.Gender]int{}

	for _, g := range models.Genders {
		byGender[g] = 0
	}

	for _, r := range records {
		byType[string(r.Type)]++
		byDept[r.Location.Department]++
		byGender[r.Demographics.Gender]++
		byAge[AgeGroup(r.Demographics.Age)]++

		if len(r.Date) >= 7 {
			byMonth[r.Date[:7]]++
		}
	}

	months := sorted(byMonth)
	slices.SortFunc(months, func(a, b Count) int { return cmp.Compare(a.Name, b.Name) })

	ages := make([]Count, len(AgeGroups))
	for i, g := range AgeGroups {
		ages[i] = Count{Name: g, Value: byAge[g]}
	}

	return Summary{
		Total:        len(records),
		ByType:       sorted(byType),
		ByDepartment: Top(sorted(byDept), topN),
		ByMonth:      months,
		ByGender:     byGender,
		ByAgeGroup:   ages,
	}
}

// Top returns the first n counts, or all of them when n <= 0.
func Top(counts []Count, n int) []Count {
	if n <= 0 || n >= len(counts) {
		return counts
	}

	return counts[:n]
}

// Share returns value as a percentage of total, 0 for an empty total.
func Share(value, total int) float64 {
	if total == 0 {
		return 0
	}

	return float64(value) * 100 / float64(total)
}

// sorted orders counts descending by value, ties by name.
func sorted(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, v := range m {
		out = append(out, Count{Name: name, Value: v})
	}

	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}
