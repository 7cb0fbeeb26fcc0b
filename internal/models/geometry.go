package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Supported GeoJSON geometry types.
const (
	GeometryPoint        = "Point"
	GeometryLineString   = "LineString"
	GeometryPolygon      = "Polygon"
	GeometryMultiPolygon = "MultiPolygon"
)

// Geometry is a GeoJSON geometry stored as text in the geometry column.
// Coordinates are kept raw so every supported type shares one representation.
// SRID 4326 (WGS84) is assumed for all coordinates.
type Geometry struct {
	Type        string          // GeoJSON type name
	Coordinates json.RawMessage // GeoJSON coordinate structure
	SRID        int             // Spatial Reference ID (default: 4326)
}

// NewPoint builds a Point geometry. GeoJSON expects (longitude, latitude) order.
func NewPoint(lng, lat float64) Geometry {
	coords, _ := json.Marshal([2]float64{lng, lat})
	return Geometry{Type: GeometryPoint, Coordinates: coords, SRID: 4326}
}

// NewPolygon builds a Polygon geometry from rings of [lon,lat] points.
func NewPolygon(rings [][][2]float64) Geometry {
	coords, _ := json.Marshal(rings)
	return Geometry{Type: GeometryPolygon, Coordinates: coords, SRID: 4326}
}

// IsEmpty reports whether the geometry carries no coordinates.
func (g Geometry) IsEmpty() bool {
	return g.Type == "" || len(g.Coordinates) == 0
}

// Point decodes a Point geometry into (lng, lat).
func (g Geometry) Point() (lng, lat float64, err error) {
	if g.Type != GeometryPoint {
		return 0, 0, fmt.Errorf("expected Point type, got %s", g.Type)
	}
	var c [2]float64
	if err := json.Unmarshal(g.Coordinates, &c); err != nil {
		return 0, 0, fmt.Errorf("failed to unmarshal point coordinates: %w", err)
	}
	return c[0], c[1], nil
}

// Scan implements sql.Scanner for reading geometry from the database.
// The column holds GeoJSON text; drivers hand it over as string or []byte.
func (g *Geometry) Scan(value interface{}) error {
	if value == nil {
		*g = Geometry{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan Geometry: expected []byte or string, got %T", value)
	}

	if err := g.decode(data); err != nil {
		return fmt.Errorf("failed to unmarshal geometry: %w", err)
	}
	return nil
}

// Value implements driver.Valuer for writing geometry to the database.
// An empty geometry is stored as NULL.
func (g Geometry) Value() (driver.Value, error) {
	if g.IsEmpty() {
		return nil, nil
	}

	geoJSON, err := g.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geometry to GeoJSON: %w", err)
	}
	return string(geoJSON), nil
}

// MarshalJSON implements json.Marshaler and returns GeoJSON.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.IsEmpty() {
		return []byte("null"), nil
	}
	geom := struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}{
		Type:        g.Type,
		Coordinates: g.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = Geometry{}
		return nil
	}
	if err := g.decode(data); err != nil {
		return fmt.Errorf("failed to unmarshal geometry: %w", err)
	}
	return nil
}

func (g *Geometry) decode(data []byte) error {
	var geom struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &geom); err != nil {
		return err
	}

	switch geom.Type {
	case GeometryPoint, GeometryLineString, GeometryPolygon, GeometryMultiPolygon:
	default:
		return fmt.Errorf("unsupported geometry type %q", geom.Type)
	}

	g.Type = geom.Type
	g.Coordinates = geom.Coordinates
	g.SRID = 4326
	return nil
}
