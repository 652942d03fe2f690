package models

// Raw field keys used by the Medicina Legal exports on datos.gov.co.
const (
	RawDepartment   = "departamento_del_hecho_dane"
	RawMunicipality = "municipio_del_hecho_dane"
	RawMonth        = "mes_del_hecho"
	RawAgeGroup     = "grupo_de_edad_quinquenal"
	RawSex          = "sexo_de_la_victima"
	RawMechanism    = "mecanismo_causal_de_la_lesion_fatal"
)

// RawRecord is one flat source row. Values are kept as strings; an absent key
// and an empty value are treated the same by the normalizer.
type RawRecord map[string]string

// Get returns the value for key and whether it is present and non-empty.
func (r RawRecord) Get(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == "" {
		return "", false
	}

	return v, true
}
