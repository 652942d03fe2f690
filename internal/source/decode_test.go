package source

import (
	"errors"
	"strings"
	"testing"

	"deathmap/internal/models"
)

func TestDecodeJSON(t *testing.T) {
	data := []byte(`[
		{"departamento_del_hecho_dane": "Antioquia", "mes_del_hecho": "Marzo", "ano_del_hecho": 2023, "sexo_de_la_victima": null},
		{"nested": {"a": 1}, "flag": true},
		"not an object",
		{}
	]`)

	records, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON returned unexpected error: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("Expected 4 records (one per element), got %d", len(records))
	}

	first := records[0]
	if first[models.RawDepartment] != "Antioquia" {
		t.Errorf("department = %q, want Antioquia", first[models.RawDepartment])
	}

	if first["ano_del_hecho"] != "2023" {
		t.Errorf("numeric value = %q, want 2023", first["ano_del_hecho"])
	}

	if _, ok := first[models.RawSex]; ok {
		t.Error("null value should be dropped")
	}

	if _, ok := records[1]["nested"]; ok {
		t.Error("nested value should be dropped")
	}

	if records[1]["flag"] != "true" {
		t.Errorf("bool value = %q, want true", records[1]["flag"])
	}

	if len(records[2]) != 0 {
		t.Errorf("non-object element should decode as empty record, got %v", records[2])
	}
}

func TestDecodeJSON_NFC(t *testing.T) {
	// A combining acute accent (NFD) composes to the precomposed form.
	records, err := DecodeJSON([]byte(`[{"departamento_del_hecho_dane": "Bogota\u0301, D.C."}]`))
	if err != nil {
		t.Fatalf("DecodeJSON returned unexpected error: %v", err)
	}

	if got := records[0][models.RawDepartment]; got != "Bogot\u00e1, D.C." {
		t.Errorf("department = %q, want NFC form %q", got, "Bogot\u00e1, D.C.")
	}
}

func TestDecodeJSON_Empty(t *testing.T) {
	records, err := DecodeJSON([]byte(`[]`))
	if err != nil {
		t.Fatalf("empty array must not be an error: %v", err)
	}

	if records == nil || len(records) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", records)
	}
}

func TestDecodeJSON_Fatal(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"unparseable", `[{"departamento_del_hecho_dane": `, ErrMalformedDocument},
		{"empty file", ``, ErrMalformedDocument},
		{"trailing garbage", `[] []`, ErrMalformedDocument},
		{"object", `{"data": []}`, ErrNotArray},
		{"null", `null`, ErrNotArray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeJSON error = %v, want %v", err, tt.wantErr)
			}

			if !errors.Is(err, ErrIngest) {
				t.Errorf("DecodeJSON error = %v, want it to wrap ErrIngest", err)
			}
		})
	}
}

func TestDecodeCSV(t *testing.T) {
	data := "\ufeffDepartamento del hecho DANE,Mes del hecho,Sexo de la víctima,Mecanismo causal de la lesión fatal\n" +
		"Antioquia,Marzo,Hombre,Proyectil de arma de fuego\n" +
		"Cauca,Abril\n"

	records, err := DecodeCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeCSV returned unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	if got := records[0][models.RawSex]; got != "Hombre" {
		t.Errorf("sexo = %q, want Hombre", got)
	}

	if got := records[0][models.RawMechanism]; got != "Proyectil de arma de fuego" {
		t.Errorf("mecanismo = %q", got)
	}

	if _, ok := records[1][models.RawSex]; ok {
		t.Error("short row should not carry trailing keys")
	}
}

func TestDecodeCSV_EmptyAndMalformed(t *testing.T) {
	records, err := DecodeCSV(strings.NewReader(""))
	if err != nil || len(records) != 0 {
		t.Errorf("empty CSV = (%v, %v), want no records and no error", records, err)
	}

	_, err = DecodeCSV(strings.NewReader("a,b\n\"unterminated,1\n"))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("malformed CSV error = %v, want ErrMalformedDocument", err)
	}
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := Decode([]byte(`[]`), "xml")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Decode error = %v, want ErrUnknownFormat", err)
	}
}

func TestHeaderKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Departamento del hecho DANE", "departamento_del_hecho_dane"},
		{"Sexo de la víctima", "sexo_de_la_victima"},
		{"  Grupo de edad (quinquenal) ", "grupo_de_edad_quinquenal"},
		{"mes_del_hecho", "mes_del_hecho"},
		{"Año del hecho", "ano_del_hecho"},
	}

	for _, tt := range tests {
		if got := HeaderKey(tt.in); got != tt.want {
			t.Errorf("HeaderKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
