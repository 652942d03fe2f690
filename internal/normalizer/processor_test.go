package normalizer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"deathmap/internal/config"
	"deathmap/internal/logger"
	"deathmap/internal/models"
)

func newTestProcessor(seed uint64) *Processor {
	p := NewProcessor(NewRand(seed), logger.Discard())
	p.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.FixedZone("COT", -5*3600)) }

	return p
}

func suicidio() Category {
	return Category{
		Type:     models.DeathTypeSuicidio,
		IDPrefix: "S",
		Subtypes: DefaultSubtypes(models.DeathTypeSuicidio),
		Year:     2023,
	}
}

func TestNewProcessor(t *testing.T) {
	if NewProcessor(NewRand(1), logger.Discard()) == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func TestProcessor_Process(t *testing.T) {
	p := newTestProcessor(1)

	batches := []Batch{
		{Name: "homicidios", Category: homicidio(), Records: []models.RawRecord{antioquiaRaw(), {}}},
		{Name: "suicidios", Category: suicidio(), Records: []models.RawRecord{{models.RawSex: "Mujer"}}},
	}

	ds, err := p.Process(DatasetInfo{Source: "INMLCF", SourceURL: "https://www.datos.gov.co", Year: 2023}, batches)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if ds.Total != 3 || len(ds.Data) != 3 {
		t.Fatalf("Total = %d, len(Data) = %d, want 3", ds.Total, len(ds.Data))
	}

	wantIDs := []string{"H1", "H2", "S1"}
	for i, r := range ds.Data {
		if r.ID != wantIDs[i] {
			t.Errorf("record %d ID = %s, want %s", i, r.ID, wantIDs[i])
		}
	}

	if ds.ByType[models.DeathTypeHomicidio] != 2 || ds.ByType[models.DeathTypeSuicidio] != 1 {
		t.Errorf("ByType = %v", ds.ByType)
	}

	sum := 0
	for _, n := range ds.ByType {
		sum += n
	}

	if sum != ds.Total {
		t.Errorf("by_type sums to %d, total is %d", sum, ds.Total)
	}

	if got := ds.Metadata.Datasets; len(got) != 2 || got[0] != "homicidios" || got[1] != "suicidios" {
		t.Errorf("Datasets = %v, want invocation order", got)
	}

	if ds.Metadata.LastUpdated != "2024-01-15T17:00:00Z" {
		t.Errorf("LastUpdated = %s, want UTC RFC3339", ds.Metadata.LastUpdated)
	}

	if len(ds.Metadata.Approximations) != 3 {
		t.Errorf("Approximations = %v", ds.Metadata.Approximations)
	}
}

func TestProcessor_Process_SharedPrefix(t *testing.T) {
	p := newTestProcessor(1)

	batches := []Batch{
		{Name: "a", Category: homicidio(), Records: make([]models.RawRecord, 2)},
		{Name: "b", Category: homicidio(), Records: make([]models.RawRecord, 1)},
	}

	ds, err := p.Process(DatasetInfo{Year: 2023}, batches)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if ds.Data[2].ID != "H3" {
		t.Errorf("third id = %s, want H3", ds.Data[2].ID)
	}
}

func TestProcessor_Process_Empty(t *testing.T) {
	p := newTestProcessor(1)

	ds, err := p.Process(DatasetInfo{Year: 2023}, []Batch{{Name: "h", Category: homicidio()}})
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if ds.Total != 0 || ds.Data == nil || ds.ByType == nil {
		t.Errorf("Expected empty non-nil dataset, got %+v", ds)
	}
}

func TestProcessor_Process_ValidationError(t *testing.T) {
	p := newTestProcessor(1)

	cat := homicidio()
	cat.IDPrefix = ""

	ds, err := p.Process(DatasetInfo{Year: 2023}, []Batch{{Name: "h", Category: cat}})
	if !errors.Is(err, ErrMissingIDPrefix) {
		t.Errorf("Process error = %v, want ErrMissingIDPrefix", err)
	}

	if ds != nil {
		t.Error("Process expected nil result for invalid input")
	}
}

type fakeLoader struct {
	records map[string][]models.RawRecord
	err     error
}

func (f *fakeLoader) Load(_ context.Context, src config.SourceConfig) ([]models.RawRecord, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.records[src.Name], nil
}

func TestProcessor_Run(t *testing.T) {
	cfg := config.Defaults()
	cfg.Sources = []config.SourceConfig{
		{Name: "h", Label: "Presuntos Homicidios 2023 (vtub-3de2)", Category: "homicidio", IDPrefix: "H", File: "h.json", Enabled: true},
		{Name: "off", Category: "homicidio", IDPrefix: "X", File: "x.json", Enabled: false},
		{Name: "s", Category: "suicidio", IDPrefix: "S", File: "s.json", Year: 2022, Enabled: true,
			Subtypes: map[string]string{"Ahorcamiento": "asfixia"}},
	}

	loader := &fakeLoader{records: map[string][]models.RawRecord{
		"h": {antioquiaRaw()},
		"s": {{models.RawMechanism: "Ahorcamiento"}},
	}}

	ds, err := newTestProcessor(1).Run(context.Background(), cfg, loader)
	if err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	if ds.Total != 2 {
		t.Fatalf("Total = %d, want 2 (disabled source skipped)", ds.Total)
	}

	if ds.Data[1].Subtype != models.SubtypeAsfixia {
		t.Errorf("override subtype = %s, want asfixia", ds.Data[1].Subtype)
	}

	if ds.Data[1].Date[:4] != "2022" {
		t.Errorf("source year override not applied: %s", ds.Data[1].Date)
	}

	if ds.Metadata.Source != cfg.Dataset.Source {
		t.Errorf("Metadata.Source = %q", ds.Metadata.Source)
	}

	want := []string{"Presuntos Homicidios 2023 (vtub-3de2)", "s"}
	if !reflect.DeepEqual(ds.Metadata.Datasets, want) {
		t.Errorf("Metadata.Datasets = %v, want %v (label, then name fallback)", ds.Metadata.Datasets, want)
	}
}

func TestProcessor_Run_LoadError(t *testing.T) {
	cfg := config.Defaults()
	cfg.Sources = []config.SourceConfig{
		{Name: "h", Category: "homicidio", IDPrefix: "H", File: "h.json", Enabled: true},
	}

	sentinel := errors.New("boom")

	_, err := newTestProcessor(1).Run(context.Background(), cfg, &fakeLoader{err: sentinel})
	if !errors.Is(err, sentinel) {
		t.Errorf("Run error = %v, want wrapped load error", err)
	}
}

func TestNewCategory(t *testing.T) {
	src := config.SourceConfig{
		Category: "suicidio",
		Subtypes: map[string]string{"Envenenamiento": "otro"},
	}

	cat := NewCategory(src, 2021)

	if cat.IDPrefix != "S" {
		t.Errorf("IDPrefix = %q, want built-in S", cat.IDPrefix)
	}

	if cat.Subtypes["Envenenamiento"] != models.SubtypeOtro {
		t.Error("override must replace the built-in entry")
	}

	if cat.Subtypes["Asfixia mecánica"] != models.SubtypeAsfixia {
		t.Error("built-in entries must survive an override")
	}

	if DefaultSubtypes(models.DeathTypeSuicidio)["Envenenamiento"] != models.SubtypeIntoxicacion {
		t.Error("override leaked into the built-in table")
	}
}
