// Package convert maps parsed GPX documents to GeoJSON feature collections.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidOptions is returned when an options payload cannot be used.
var ErrInvalidOptions = errors.New("invalid convert options")

// ElementType is a GPX element category that can be selected for output.
type ElementType string

// Recognized element categories, also used as the gpxType property value.
const (
	TypeWaypoint ElementType = "waypoint"
	TypeRoute    ElementType = "route"
	TypeTrack    ElementType = "track"
)

// AllTypes lists every category in output order.
var AllTypes = []ElementType{TypeWaypoint, TypeRoute, TypeTrack}

// Options controls which elements and fields are emitted.
// A nil Types selects every category, an empty non-nil Types selects none.
type Options struct {
	Types             []ElementType `json:"types" yaml:"types,omitempty"`
	IncludeElevation  bool          `json:"includeElevation" yaml:"includeElevation"`
	IncludeTime       bool          `json:"includeTime" yaml:"includeTime"`
	IncludeMetadata   bool          `json:"includeMetadata" yaml:"includeMetadata"`
	JoinTrackSegments bool          `json:"joinTrackSegments" yaml:"joinTrackSegments"`
}

// DefaultOptions returns elevation, time and metadata enabled for every category,
// with track segments kept as separate features.
func DefaultOptions() Options {
	return Options{
		IncludeElevation: true,
		IncludeTime:      true,
		IncludeMetadata:  true,
	}
}

// Includes reports whether features of the given category should be emitted.
func (o *Options) Includes(t ElementType) bool {
	if o.Types == nil {
		return true
	}
	for _, v := range o.Types {
		if v == t {
			return true
		}
	}

	return false
}

// Validate rejects unknown element categories.
func (o *Options) Validate() error {
	for _, t := range o.Types {
		if _, err := ParseElementType(string(t)); err != nil {
			return err
		}
	}

	return nil
}

// ParseElementType parses a category name case-insensitively.
func ParseElementType(s string) (ElementType, error) {
	switch t := ElementType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeWaypoint, TypeRoute, TypeTrack:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q (want waypoint, route or track)", ErrInvalidOptions, s)
	}
}

// ParseElementTypes parses a list of category names; an empty list selects nothing.
func ParseElementTypes(values []string) ([]ElementType, error) {
	types := make([]ElementType, 0, len(values))
	for _, v := range values {
		t, err := ParseElementType(v)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	return types, nil
}

type plainOptions Options

// UnmarshalJSON decodes an options payload, defaulting every key that is missing.
func (o *Options) UnmarshalJSON(data []byte) error {
	p := plainOptions(DefaultOptions())
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	opts := Options(p)
	if err := normalizeTypes(&opts); err != nil {
		return err
	}
	*o = opts

	return nil
}

// UnmarshalYAML decodes options from a config file, defaulting every key that is missing.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	p := plainOptions(DefaultOptions())
	if err := value.Decode(&p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	opts := Options(p)
	if err := normalizeTypes(&opts); err != nil {
		return err
	}
	*o = opts

	return nil
}

func normalizeTypes(o *Options) error {
	if o.Types == nil {
		return nil
	}

	for i, t := range o.Types {
		parsed, err := ParseElementType(string(t))
		if err != nil {
			return err
		}
		o.Types[i] = parsed
	}

	return nil
}
