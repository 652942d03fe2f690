// Package geo converts death records into map layers: a GeoJSON point
// collection and heatmap points.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"deathmap/internal/models"
)

// ErrInvalidBBox is returned when a bbox parameter cannot be parsed.
var ErrInvalidBBox = errors.New("invalid bbox: want minLng,minLat,maxLng,maxLat")

// HeatPoint is a [lat, lng, intensity] triple as consumed by leaflet.heat.
type HeatPoint [3]float64

// Point returns the record location as an XY point (x = lng, y = lat).
func Point(r models.DeathRecord) *geom.Point {
	return geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{r.Location.Lng, r.Location.Lat})
}

// Bounds returns the extent of records, or nil for an empty slice.
func Bounds(records []models.DeathRecord) *geom.Bounds {
	if len(records) == 0 {
		return nil
	}

	b := geom.NewBounds(geom.XY)
	for _, r := range records {
		b.Extend(Point(r))
	}

	return b
}

// ParseBBox parses "minLng,minLat,maxLng,maxLat".
func ParseBBox(s string) (*geom.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBBox, s)
	}

	var v [4]float64

	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBBox, s)
		}

		v[i] = f
	}

	if v[0] > v[2] || v[1] > v[3] {
		return nil, fmt.Errorf("%w: min exceeds max in %q", ErrInvalidBBox, s)
	}

	return geom.NewBounds(geom.XY).Set(v[0], v[1], v[2], v[3]), nil
}

// Within keeps the records whose point lies inside b, in order. A nil b keeps all.
func Within(records []models.DeathRecord, b *geom.Bounds) []models.DeathRecord {
	if b == nil {
		return records
	}

	out := make([]models.DeathRecord, 0, len(records))
	for _, r := range records {
		if b.OverlapsPoint(geom.XY, geom.Coord{r.Location.Lng, r.Location.Lat}) {
			out = append(out, r)
		}
	}

	return out
}

// FeatureCollection builds a point feature per record with id, type,
// subtype, date, department, municipality, age and gender properties.
func FeatureCollection(records []models.DeathRecord) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(records))

	for _, r := range records {
		features = append(features, &geojson.Feature{
			ID:       r.ID,
			Geometry: Point(r),
			Properties: map[string]any{
				"id":           r.ID,
				"type":         r.Type,
				"subtype":      r.Subtype,
				"date":         r.Date,
				"department":   r.Location.Department,
				"municipality": r.Location.Municipality,
				"age":          r.Demographics.Age,
				"gender":       r.Demographics.Gender,
			},
		})
	}

	return &geojson.FeatureCollection{
		BBox:     Bounds(records),
		Features: features,
	}
}

// HeatPoints returns one unit-intensity point per record.
func HeatPoints(records []models.DeathRecord) []HeatPoint {
	points := make([]HeatPoint, len(records))
	for i, r := range records {
		points[i] = HeatPoint{r.Location.Lat, r.Location.Lng, 1}
	}

	return points
}
