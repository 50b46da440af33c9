// Package gpx2geojson converts GPX documents into GeoJSON FeatureCollections.
//
// Waypoints become Point features, routes and track segments become LineString
// features (or MultiLineString when segments are joined), in document order.
// Every call is independent: nothing is cached and no state is shared between calls.
package gpx2geojson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/woozymasta/gpx2geojson/internal/convert"
	"github.com/woozymasta/gpx2geojson/internal/geo"
	"github.com/woozymasta/gpx2geojson/internal/gpx"
)

type (
	// Options selects which GPX elements and fields are converted.
	Options = convert.Options

	// ElementType is one of TypeWaypoint, TypeRoute or TypeTrack.
	ElementType = convert.ElementType

	// FeatureCollection is the GeoJSON result.
	FeatureCollection = geo.GeoJSONFeatureCollection

	// Feature is a single GeoJSON feature.
	Feature = geo.GeoJSONFeature

	// ParseError is returned for malformed XML and invalid GPX points.
	ParseError = gpx.ParseError
)

// Element categories accepted in Options.Types.
const (
	TypeWaypoint = convert.TypeWaypoint
	TypeRoute    = convert.TypeRoute
	TypeTrack    = convert.TypeTrack
)

var (
	// ErrParse matches every parse failure with errors.Is.
	ErrParse = gpx.ErrParse

	// ErrInvalidOptions matches every options decoding failure with errors.Is.
	ErrInvalidOptions = convert.ErrInvalidOptions
)

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() Options {
	return convert.DefaultOptions()
}

// ParseOptions decodes a JSON options payload with lower camel case keys.
// Missing keys take their defaults; an empty payload or null yields DefaultOptions.
func ParseOptions(payload []byte) (*Options, error) {
	opts := convert.DefaultOptions()

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return &opts, nil
	}

	if err := json.Unmarshal(payload, &opts); err != nil {
		if errors.Is(err, ErrInvalidOptions) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	return &opts, nil
}

// Convert parses GPX from r and converts it. A nil opts means DefaultOptions.
func Convert(r io.Reader, opts *Options) (FeatureCollection, error) {
	if opts != nil {
		if err := opts.Validate(); err != nil {
			return FeatureCollection{}, err
		}
	}

	doc, err := gpx.Parse(r)
	if err != nil {
		return FeatureCollection{}, err
	}

	return convert.ToFeatureCollection(doc, opts), nil
}

// ToGeoJSON converts a GPX document held in a string.
func ToGeoJSON(gpxText string, opts *Options) (FeatureCollection, error) {
	return Convert(strings.NewReader(gpxText), opts)
}

// ToGeoJSONString converts a GPX document and returns the compact JSON text.
// The text is exactly what encoding/json produces for the ToGeoJSON result.
func ToGeoJSONString(gpxText string, opts *Options) (string, error) {
	fc, err := ToGeoJSON(gpxText, opts)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return "", fmt.Errorf("encode geojson: %w", err)
	}

	return string(data), nil
}
