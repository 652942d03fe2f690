package models

// Synthetic fields recorded in Metadata.Approximations.
const (
	ApproxDateDay     = "date.day"
	ApproxLocationLat = "location.lat"
	ApproxLocationLng = "location.lng"
)

// Dataset is the interchange artifact written by the normalizer and loaded by
// the filter engine. Total equals len(Data) and ByType partitions Data by type.
type Dataset struct {
	Year     int               `json:"year"`
	Total    int               `json:"total"`
	ByType   map[DeathType]int `json:"by_type"`
	Data     []DeathRecord     `json:"data"`
	Metadata Metadata          `json:"metadata"`
}

// Metadata describes where a dataset came from.
type Metadata struct {
	Source         string   `json:"source"`
	SourceURL      string   `json:"sourceUrl"`
	Datasets       []string `json:"datasets"`
	LastUpdated    string   `json:"lastUpdated"`
	Description    string   `json:"description,omitempty"`
	Approximations []string `json:"approximations,omitempty"`
	Checksum       string   `json:"checksum,omitempty"`
}

// CountByType tallies records per death type.
func CountByType(records []DeathRecord) map[DeathType]int {
	counts := make(map[DeathType]int)
	for _, r := range records {
		counts[r.Type]++
	}

	return counts
}
