package filter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"deathmap/internal/models"
)

func TestDecodePatch_Partial(t *testing.T) {
	p, err := DecodePatch([]byte(`{"deathTypes": ["homicidio"], "dateRange": ["2023-01-01", null]}`))
	if err != nil {
		t.Fatalf("DecodePatch returned %v", err)
	}

	if p.DeathTypes == nil || (*p.DeathTypes)[0] != models.DeathTypeHomicidio {
		t.Errorf("DeathTypes = %v", p.DeathTypes)
	}

	if p.DateRange == nil || p.DateRange[0] == nil || p.DateRange[1] != nil {
		t.Errorf("DateRange = %v, want [2023-01-01 nil]", p.DateRange)
	}

	if p.Years != nil || p.AgeRange != nil || p.Gender != nil {
		t.Error("absent fields must stay nil")
	}

	if p.IsEmpty() {
		t.Error("IsEmpty() = true for a patch with fields")
	}
}

func TestDecodePatch_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"colour": ["red"]}`},
		{"bad date", `{"dateRange": ["ayer", null]}`},
		{"bad age shape", `{"ageRange": "adults"}`},
		{"age range too short", `{"ageRange": [18]}`},
		{"age range single zero", `{"ageRange": [0]}`},
		{"age range too long", `{"ageRange": [1, 2, 3]}`},
		{"empty age range", `{"ageRange": []}`},
		{"date range too short", `{"dateRange": ["2023-01-01"]}`},
		{"date range too long", `{"dateRange": ["2023-01-01", "2023-02-01", "2023-03-01"]}`},
		{"not json", `years=2023`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePatch([]byte(tt.body)); !errors.Is(err, ErrInvalidSpecification) {
				t.Errorf("DecodePatch(%s) = %v, want ErrInvalidSpecification", tt.body, err)
			}
		})
	}
}

func TestDecodePatch_EmptyObject(t *testing.T) {
	p, err := DecodePatch([]byte(`{}`))
	if err != nil {
		t.Fatalf("DecodePatch returned %v", err)
	}

	if !p.IsEmpty() {
		t.Error("IsEmpty() = false for {}")
	}
}

func TestSpec_JSONShape(t *testing.T) {
	data, err := json.Marshal(DefaultSpec())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"years":[],"deathTypes":[],"departments":[],"municipalities":[],"ageRange":[0,100],"gender":[],"dateRange":[null,null]}`
	if string(data) != want {
		t.Errorf("Marshal(DefaultSpec()) =\n%s\nwant\n%s", data, want)
	}

	s := DefaultSpec()
	s.DateRange = DateRange{date("2023-01-01"), date("2023-06-30")}

	data, err = json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `"dateRange":["2023-01-01","2023-06-30"]`) {
		t.Errorf("dateRange encoding = %s", data)
	}
}

func TestSpec_Validate(t *testing.T) {
	s := DefaultSpec()
	s.AgeRange = AgeRange{40, 40}
	s.DateRange = DateRange{date("2023-05-05"), date("2023-05-05")}

	if err := s.Validate(); err != nil {
		t.Errorf("degenerate ranges must be valid, got %v", err)
	}
}

func TestDecodePatch_RangeLength(t *testing.T) {
	for _, body := range []string{`{"ageRange": [18]}`, `{"ageRange": [1, 2, 3]}`, `{"dateRange": ["2023-01-01"]}`} {
		if _, err := DecodePatch([]byte(body)); !errors.Is(err, ErrRangeLength) {
			t.Errorf("DecodePatch(%s) = %v, want ErrRangeLength", body, err)
		}
	}

	p, err := DecodePatch([]byte(`{"ageRange": [18, 65], "dateRange": [null, null]}`))
	if err != nil {
		t.Fatalf("DecodePatch returned %v", err)
	}

	if *p.AgeRange != (AgeRange{18, 65}) || p.DateRange.Active() {
		t.Errorf("patch = %v %v", p.AgeRange, p.DateRange)
	}
}
