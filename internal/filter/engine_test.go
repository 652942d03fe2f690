package filter

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"deathmap/internal/models"
)

func rec(id string, t models.DeathType, date, dept string, age int, g models.Gender) models.DeathRecord {
	return models.DeathRecord{
		ID:           id,
		Date:         date,
		Type:         t,
		Subtype:      models.SubtypeOtro,
		Location:     models.Location{Department: dept, Municipality: dept + "-mun"},
		Demographics: models.Demographics{Age: age, Gender: g},
	}
}

func fixture() []models.DeathRecord {
	return []models.DeathRecord{
		rec("H1", models.DeathTypeHomicidio, "2023-03-14", "Antioquia", 25, models.GenderMale),
		rec("S1", models.DeathTypeSuicidio, "2023-07-02", "Nariño", 40, models.GenderFemale),
		rec("H2", models.DeathTypeHomicidio, "2022-12-31", "Meta", 5, models.GenderOther),
	}
}

func ids(records []models.DeathRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}

	return out
}

func date(s string) *Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}

	return &d
}

func TestNew_DefaultMatchesAll(t *testing.T) {
	e := New(fixture())

	if got := ids(e.FilteredRecords()); !reflect.DeepEqual(got, []string{"H1", "S1", "H2"}) {
		t.Errorf("FilteredRecords() = %v, want all in order", got)
	}

	if e.Total() != 3 {
		t.Errorf("Total() = %d", e.Total())
	}
}

func TestNew_Empty(t *testing.T) {
	e := New(nil)

	got := e.FilteredRecords()
	if got == nil || len(got) != 0 {
		t.Errorf("FilteredRecords() on empty engine = %v, want empty non-nil", got)
	}
}

func TestSetFilters_EmptySetSemantics(t *testing.T) {
	e := New(fixture())

	if err := e.SetFilters(Patch{DeathTypes: &[]models.DeathType{}}); err != nil {
		t.Fatalf("SetFilters returned %v", err)
	}

	if got := len(e.FilteredRecords()); got != 3 {
		t.Errorf("empty deathTypes matched %d records, want 3", got)
	}

	if err := e.SetFilters(Patch{DeathTypes: &[]models.DeathType{models.DeathTypeHomicidio}}); err != nil {
		t.Fatalf("SetFilters returned %v", err)
	}

	if got := ids(e.FilteredRecords()); !reflect.DeepEqual(got, []string{"H1", "H2"}) {
		t.Errorf("homicidio filter = %v, want [H1 H2]", got)
	}
}

func TestSetFilters_Dimensions(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		want  []string
	}{
		{"years", Patch{Years: &[]int{2022}}, []string{"H2"}},
		{"years multi", Patch{Years: &[]int{2022, 2023}}, []string{"H1", "S1", "H2"}},
		{"departments", Patch{Departments: &[]string{"Nariño", "Meta"}}, []string{"S1", "H2"}},
		{"municipalities", Patch{Municipalities: &[]string{"Antioquia-mun"}}, []string{"H1"}},
		{"gender", Patch{Gender: &[]models.Gender{models.GenderFemale}}, []string{"S1"}},
		{"age inclusive", Patch{AgeRange: &AgeRange{25, 40}}, []string{"H1", "S1"}},
		{"age exclude child", Patch{AgeRange: &AgeRange{18, 100}}, []string{"H1", "S1"}},
		{"date inclusive", Patch{DateRange: &DateRange{date("2023-03-14"), date("2023-07-02")}}, []string{"H1", "S1"}},
		{"date half open ignored", Patch{DateRange: &DateRange{date("2023-03-15"), nil}}, []string{"H1", "S1", "H2"}},
		{"date rfc3339", Patch{DateRange: &DateRange{date("2023-01-01T00:00:00Z"), date("2023-12-31T23:59:59-05:00")}}, []string{"H1", "S1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(fixture())

			if err := e.SetFilters(tt.patch); err != nil {
				t.Fatalf("SetFilters returned %v", err)
			}

			if got := ids(e.FilteredRecords()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilteredRecords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetFilters_Conjunction(t *testing.T) {
	e := New(fixture())

	err := e.SetFilters(Patch{
		DeathTypes: &[]models.DeathType{models.DeathTypeHomicidio},
		AgeRange:   &AgeRange{18, 100},
	})
	if err != nil {
		t.Fatalf("SetFilters returned %v", err)
	}

	// H2 matches on type but is 5 years old.
	if got := ids(e.FilteredRecords()); !reflect.DeepEqual(got, []string{"H1"}) {
		t.Errorf("FilteredRecords() = %v, want [H1]", got)
	}
}

func TestSetFilters_MergeKeepsOtherFields(t *testing.T) {
	e := New(fixture())

	if err := e.SetFilters(Patch{Gender: &[]models.Gender{models.GenderMale, models.GenderFemale}}); err != nil {
		t.Fatal(err)
	}

	if err := e.SetFilters(Patch{Years: &[]int{2023}}); err != nil {
		t.Fatal(err)
	}

	spec := e.Filters()
	if len(spec.Gender) != 2 || len(spec.Years) != 1 {
		t.Errorf("merge lost a field: %+v", spec)
	}

	if got := ids(e.FilteredRecords()); !reflect.DeepEqual(got, []string{"H1", "S1"}) {
		t.Errorf("FilteredRecords() = %v", got)
	}

	// Last write wins per field.
	if err := e.SetFilters(Patch{Gender: &[]models.Gender{models.GenderOther}}); err != nil {
		t.Fatal(err)
	}

	if got := len(e.FilteredRecords()); got != 0 {
		t.Errorf("expected no 2023 records with gender O, got %d", got)
	}
}

func TestSetFilters_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		patch   Patch
		wantErr error
	}{
		{"age", Patch{AgeRange: &AgeRange{60, 20}}, ErrInvalidAgeRange},
		{"date", Patch{DateRange: &DateRange{date("2023-12-01"), date("2023-01-01")}}, ErrInvalidDateRange},
		{"type", Patch{DeathTypes: &[]models.DeathType{"robo"}}, ErrUnknownDeathType},
		{"gender", Patch{Gender: &[]models.Gender{"X"}}, ErrUnknownGender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(fixture())

			if err := e.SetFilters(Patch{Years: &[]int{2023}}); err != nil {
				t.Fatal(err)
			}

			before, beforeRecords := e.Snapshot()

			// The valid field in the same patch is rejected along with the bad one.
			tt.patch.Departments = &[]string{"Meta"}

			err := e.SetFilters(tt.patch)
			if !errors.Is(err, ErrInvalidSpecification) || !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetFilters() = %v, want %v", err, tt.wantErr)
			}

			after, afterRecords := e.Snapshot()
			if !reflect.DeepEqual(before, after) {
				t.Errorf("spec changed after rejected update: %+v -> %+v", before, after)
			}

			if !reflect.DeepEqual(ids(beforeRecords), ids(afterRecords)) {
				t.Error("filtered view changed after rejected update")
			}
		})
	}
}

func TestResetFilters_RoundTrip(t *testing.T) {
	fresh := New(fixture())
	e := New(fixture())

	err := e.SetFilters(Patch{
		Years:      &[]int{2022},
		DeathTypes: &[]models.DeathType{models.DeathTypeSuicidio},
		AgeRange:   &AgeRange{30, 35},
		DateRange:  &DateRange{date("2023-01-01"), date("2023-02-01")},
	})
	if err != nil {
		t.Fatal(err)
	}

	e.ResetFilters()

	if !reflect.DeepEqual(e.FilteredRecords(), fresh.FilteredRecords()) {
		t.Error("reset did not restore the fresh result")
	}

	if !reflect.DeepEqual(e.Filters(), DefaultSpec()) {
		t.Errorf("reset spec = %+v, want default", e.Filters())
	}
}

func TestFilters_ReturnsCopy(t *testing.T) {
	e := New(fixture())

	years := []int{2023}
	if err := e.SetFilters(Patch{Years: &years}); err != nil {
		t.Fatal(err)
	}

	years[0] = 1999

	spec := e.Filters()
	spec.Years[0] = 1998

	if got := e.Filters().Years[0]; got != 2023 {
		t.Errorf("engine spec aliased caller memory: years[0] = %d", got)
	}

	records := e.FilteredRecords()
	records[0].ID = "mutated"

	if e.FilteredRecords()[0].ID != "H1" {
		t.Error("engine result aliased caller memory")
	}
}

func TestNew_UnparseableDate(t *testing.T) {
	records := append(fixture(), rec("X1", models.DeathTypeHomicidio, "sin fecha", "Meta", 30, models.GenderMale))
	e := New(records)

	if got := len(e.FilteredRecords()); got != 4 {
		t.Errorf("default spec matched %d, want 4", got)
	}

	if err := e.SetFilters(Patch{Years: &[]int{2023, 2022}}); err != nil {
		t.Fatal(err)
	}

	for _, r := range e.FilteredRecords() {
		if r.ID == "X1" {
			t.Error("record without a date must fail an active year filter")
		}
	}
}

func TestEngine_ConcurrentReaders(t *testing.T) {
	e := New(fixture())

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			for j := range 100 {
				if (i+j)%2 == 0 {
					_ = e.SetFilters(Patch{Years: &[]int{2022 + j%2}})
				} else {
					spec, records := e.Snapshot()
					for _, r := range records {
						if len(spec.Years) == 1 && r.Date[:4] != fmt.Sprint(spec.Years[0]) {
							t.Errorf("snapshot %v contains %s", spec.Years, r.Date)
						}
					}
				}
			}
		}(i)
	}

	wg.Wait()
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2023-03-14", "2023-03-14", false},
		{"2023-03-14T22:30:00-05:00", "2023-03-14", false},
		{"14/03/2023", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.in, err)
			}

			continue
		}

		if err != nil || got.String() != tt.want {
			t.Errorf("ParseDate(%q) = %s, %v, want %s", tt.in, got, err, tt.want)
		}
	}

	if NewDate(2023, time.March, 14).String() != "2023-03-14" {
		t.Error("NewDate formatting mismatch")
	}
}

func TestSetFilters_EmptyPatchKeepsState(t *testing.T) {
	e := New(fixture())

	if err := e.SetFilters(Patch{DeathTypes: &[]models.DeathType{models.DeathTypeSuicidio}}); err != nil {
		t.Fatal(err)
	}

	before := e.Filters()

	if err := e.SetFilters(Patch{}); err != nil {
		t.Fatalf("empty patch returned %v", err)
	}

	if !reflect.DeepEqual(e.Filters(), before) || len(e.FilteredRecords()) != 1 {
		t.Errorf("empty patch changed state: %+v", e.Filters())
	}
}
