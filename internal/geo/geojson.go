// Package geo handles GeoJSON data structures and their serialization.
package geo

// GeoJSON object and geometry type names.
const (
	TypeFeatureCollection = "FeatureCollection"
	TypeFeature           = "Feature"

	GeometryPoint           = "Point"
	GeometryLineString      = "LineString"
	GeometryMultiLineString = "MultiLineString"
)

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type" yaml:"type"`
	Features []GeoJSONFeature `json:"features" yaml:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Type       string                 `json:"type" yaml:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry" yaml:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature.
// Coordinates is a Position, []Position or [][]Position depending on Type.
type GeoJSONGeometry struct {
	Type        string      `json:"type" yaml:"type"`
	Coordinates interface{} `json:"coordinates" yaml:"coordinates"`
}

// NewFeatureCollection returns an empty collection whose features encode as [] rather than null.
func NewFeatureCollection() GeoJSONFeatureCollection {
	return GeoJSONFeatureCollection{Type: TypeFeatureCollection, Features: []GeoJSONFeature{}}
}

// NewFeature wraps a geometry into a feature. Nil properties become an empty object.
func NewFeature(geometry GeoJSONGeometry, properties map[string]interface{}) GeoJSONFeature {
	if properties == nil {
		properties = map[string]interface{}{}
	}

	return GeoJSONFeature{Type: TypeFeature, Geometry: geometry, Properties: properties}
}

// PointGeometry returns a Point geometry.
func PointGeometry(p Position) GeoJSONGeometry {
	return GeoJSONGeometry{Type: GeometryPoint, Coordinates: p}
}

// LineStringGeometry returns a LineString geometry.
func LineStringGeometry(line []Position) GeoJSONGeometry {
	return GeoJSONGeometry{Type: GeometryLineString, Coordinates: line}
}

// MultiLineStringGeometry returns a MultiLineString geometry.
func MultiLineStringGeometry(lines [][]Position) GeoJSONGeometry {
	return GeoJSONGeometry{Type: GeometryMultiLineString, Coordinates: lines}
}
