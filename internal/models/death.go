// Package models defines the raw and canonical record shapes shared by the
// normalizer, the filter engine and the HTTP layer.
package models

// DeathType is the closed category tag of a death record.
type DeathType string

// Death categories. Only homicidio and suicidio are produced by current sources.
const (
	DeathTypeNatural       DeathType = "natural"
	DeathTypeViolenta      DeathType = "violenta"
	DeathTypeAccidente     DeathType = "accidente"
	DeathTypeSuicidio      DeathType = "suicidio"
	DeathTypeHomicidio     DeathType = "homicidio"
	DeathTypeIndeterminada DeathType = "indeterminada"
)

// DeathTypes lists every category admitted by the schema.
var DeathTypes = []DeathType{
	DeathTypeNatural,
	DeathTypeViolenta,
	DeathTypeAccidente,
	DeathTypeSuicidio,
	DeathTypeHomicidio,
	DeathTypeIndeterminada,
}

// Valid reports whether t is one of the schema categories.
func (t DeathType) Valid() bool {
	for _, known := range DeathTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Subtype is the closed sub-category derived from the causal mechanism.
type Subtype string

// Death subtypes.
const (
	SubtypeAccidenteTransito Subtype = "accidente_transito"
	SubtypeAhogamiento       Subtype = "ahogamiento"
	SubtypeCaida             Subtype = "caida"
	SubtypeIntoxicacion      Subtype = "intoxicacion"
	SubtypeArmaFuego         Subtype = "arma_fuego"
	SubtypeArmaBlanca        Subtype = "arma_blanca"
	SubtypeAsfixia           Subtype = "asfixia"
	SubtypeOtro              Subtype = "otro"
)

// Gender is the victim's gender code.
type Gender string

// Gender codes.
const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// Genders lists the gender codes in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// Valid reports whether g is M, F or O.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// Location is a synthetic geocode: the department centroid plus jitter.
type Location struct {
	Department   string  `json:"department"`
	Municipality string  `json:"municipality"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

// Demographics holds the victim's age bracket lower bound and gender.
type Demographics struct {
	Age    int    `json:"age"`
	Gender Gender `json:"gender"`
}

// DeathRecord is the canonical, source-independent representation of one incident.
type DeathRecord struct {
	ID           string       `json:"id"`
	Date         string       `json:"date"`
	Type         DeathType    `json:"type"`
	Subtype      Subtype      `json:"subtype"`
	Location     Location     `json:"location"`
	Demographics Demographics `json:"demographics"`
}
