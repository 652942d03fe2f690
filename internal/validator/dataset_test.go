package validator

import (
	"errors"
	"strings"
	"testing"

	"deathmap/internal/models"
)

func record(id string, t models.DeathType) models.DeathRecord {
	return models.DeathRecord{
		ID:           id,
		Date:         "2023-03-14",
		Type:         t,
		Subtype:      models.SubtypeOtro,
		Location:     models.Location{Department: "Antioquia", Municipality: "Medellín", Lat: 6.25, Lng: -75.56},
		Demographics: models.Demographics{Age: 30, Gender: models.GenderMale},
	}
}

func validDataset() *models.Dataset {
	data := []models.DeathRecord{
		record("H1", models.DeathTypeHomicidio),
		record("H2", models.DeathTypeHomicidio),
		record("S1", models.DeathTypeSuicidio),
	}

	return &models.Dataset{
		Year:   2023,
		Total:  len(data),
		ByType: models.CountByType(data),
		Data:   data,
	}
}

func TestNewDatasetValidator(t *testing.T) {
	if NewDatasetValidator() == nil {
		t.Fatal("NewDatasetValidator returned nil")
	}
}

func TestValidateDataset_Valid(t *testing.T) {
	result := NewDatasetValidator().ValidateDataset(validDataset())

	if !result.IsValid {
		t.Fatalf("Expected valid dataset, got errors: %+v", result.Errors)
	}

	if result.Stats.TotalRecords != 3 || result.Stats.TypeCount != 2 {
		t.Errorf("unexpected stats %+v", result.Stats)
	}
}

func TestValidate_EmptyDataset(t *testing.T) {
	ds := &models.Dataset{Year: 2023, ByType: map[models.DeathType]int{}, Data: []models.DeathRecord{}}

	if err := NewDatasetValidator().Validate(ds); err != nil {
		t.Errorf("Validate() on empty dataset = %v, want nil", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(ds *models.Dataset)
		wantErr error
	}{
		{"total", func(ds *models.Dataset) { ds.Total = 5 }, ErrTotalMismatch},
		{"by_type count", func(ds *models.Dataset) { ds.ByType[models.DeathTypeHomicidio] = 1 }, ErrByTypeMismatch},
		{"by_type missing key", func(ds *models.Dataset) { delete(ds.ByType, models.DeathTypeSuicidio) }, ErrByTypeMismatch},
		{"duplicate id", func(ds *models.Dataset) { ds.Data[1].ID = "H1" }, ErrDuplicateID},
		{"empty id", func(ds *models.Dataset) { ds.Data[0].ID = "" }, ErrMissingRecordID},
		{"date", func(ds *models.Dataset) { ds.Data[0].Date = "2023-3-1" }, ErrInvalidDate},
		{"type", func(ds *models.Dataset) {
			ds.Data[2].Type = "robo"
			ds.ByType = models.CountByType(ds.Data)
		}, ErrInvalidType},
		{"gender", func(ds *models.Dataset) { ds.Data[0].Demographics.Gender = "X" }, ErrInvalidGender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := validDataset()
			tt.mutate(ds)

			err := NewDatasetValidator().Validate(ds)
			if !errors.Is(err, ErrInvalidDataset) {
				t.Fatalf("Validate() = %v, want ErrInvalidDataset", err)
			}

			result := NewDatasetValidator().ValidateDataset(ds)

			found := false
			for _, e := range result.Errors {
				if errors.Is(e.Err, tt.wantErr) {
					found = true
				}
			}

			if !found {
				t.Errorf("Expected %v among %+v", tt.wantErr, result.Errors)
			}
		})
	}
}

func TestValidationResult_String(t *testing.T) {
	ds := validDataset()
	ds.Total = 0

	result := NewDatasetValidator().ValidateDataset(ds)

	if !strings.Contains(result.String(), "INVALID") {
		t.Errorf("String() = %q, want INVALID status", result.String())
	}

	if !strings.Contains(NewDatasetValidator().ValidateDataset(validDataset()).String(), "VALID") {
		t.Error("Expected VALID status")
	}
}
