package normalizer

import (
	"maps"

	"deathmap/internal/models"
)

// Fallback labels applied when a raw field is absent.
const (
	FallbackDepartment  = "Bogotá, D.C."
	UnknownMunicipality = "Desconocido"
	FallbackMonth       = 1
	FallbackAge         = 30
)

// Centroid is a department reference point.
type Centroid struct {
	Lat float64
	Lng float64
}

var departmentCentroids = map[string]Centroid{
	"Amazonas":                 {-1.4469, -71.9469},
	"Antioquia":                {6.2518, -75.5636},
	"Arauca":                   {7.0844, -70.7614},
	"Atlántico":                {10.9685, -74.7813},
	"Bogotá D.C.":              {4.7110, -74.0721},
	"Bogotá, D.C.":             {4.7110, -74.0721},
	"Bolívar":                  {10.3910, -75.4794},
	"Boyacá":                   {5.4545, -73.3623},
	"Caldas":                   {5.0689, -75.5174},
	"Caquetá":                  {1.6144, -75.6062},
	"Casanare":                 {5.3397, -72.3958},
	"Cauca":                    {2.4448, -76.6147},
	"Cesar":                    {10.4631, -73.2532},
	"Chocó":                    {5.6979, -76.6585},
	"Córdoba":                  {8.7479, -75.8814},
	"Cundinamarca":             {4.7110, -74.0721},
	"Guainía":                  {2.5705, -69.3168},
	"Guaviare":                 {2.5706, -72.6375},
	"Huila":                    {2.9273, -75.2819},
	"La Guajira":               {11.5444, -72.9072},
	"Magdalena":                {11.2408, -74.1990},
	"Meta":                     {4.1420, -73.6266},
	"Nariño":                   {1.2136, -77.2811},
	"Norte de Santander":       {7.8939, -72.5078},
	"Putumayo":                 {0.4824, -76.3563},
	"Quindío":                  {4.4614, -75.6671},
	"Risaralda":                {4.8087, -75.6906},
	"San Andrés y Providencia": {12.5847, -81.7006},
	"Santander":                {7.1254, -73.1198},
	"Sucre":                    {9.2977, -75.3979},
	"Tolima":                   {4.4389, -75.2322},
	"Valle del Cauca":          {3.4516, -76.5320},
	"Vaupés":                   {0.8611, -70.8108},
	"Vichada":                  {4.4218, -69.2849},
}

var monthNumbers = map[string]int{
	"enero":      1,
	"febrero":    2,
	"marzo":      3,
	"abril":      4,
	"mayo":       5,
	"junio":      6,
	"julio":      7,
	"agosto":     8,
	"septiembre": 9,
	"octubre":    10,
	"noviembre":  11,
	"diciembre":  12,
}

var genderCodes = map[string]models.Gender{
	"Hombre": models.GenderMale,
	"Mujer":  models.GenderFemale,
}

var defaultSubtypes = map[models.DeathType]map[string]models.Subtype{
	models.DeathTypeHomicidio: {
		"Proyectil de arma de fuego": models.SubtypeArmaFuego,
		"Corto punzante":             models.SubtypeArmaBlanca,
	},
	models.DeathTypeSuicidio: {
		"Asfixia mecánica":           models.SubtypeAsfixia,
		"Proyectil de arma de fuego": models.SubtypeArmaFuego,
		"Envenenamiento":             models.SubtypeIntoxicacion,
	},
}

var defaultPrefixes = map[models.DeathType]string{
	models.DeathTypeHomicidio: "H",
	models.DeathTypeSuicidio:  "S",
}

// LookupCentroid resolves a department by exact name. The Bogotá centroid is
// returned with ok=false on a miss.
func LookupCentroid(department string) (Centroid, bool) {
	c, ok := departmentCentroids[department]
	if !ok {
		return departmentCentroids[FallbackDepartment], false
	}

	return c, true
}

// LookupMonth resolves a lowercase Spanish month name. January is returned
// with ok=false on a miss.
func LookupMonth(name string) (int, bool) {
	m, ok := monthNumbers[name]
	if !ok {
		return FallbackMonth, false
	}

	return m, true
}

// LookupGender maps the raw sex label. Anything unrecognized is O.
func LookupGender(label string) (models.Gender, bool) {
	g, ok := genderCodes[label]
	if !ok {
		return models.GenderOther, false
	}

	return g, true
}

// DefaultSubtypes returns a copy of the built-in mechanism table for t.
// Categories without a table get an empty map, so every mechanism maps to otro.
func DefaultSubtypes(t models.DeathType) map[string]models.Subtype {
	table := make(map[string]models.Subtype, len(defaultSubtypes[t]))
	maps.Copy(table, defaultSubtypes[t])

	return table
}

// DefaultPrefix returns the built-in id prefix for t, or "" if none.
func DefaultPrefix(t models.DeathType) string {
	return defaultPrefixes[t]
}
