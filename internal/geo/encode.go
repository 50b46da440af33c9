package geo

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tdewolff/minify/v2"
	minjson "github.com/tdewolff/minify/v2/json"
	"gopkg.in/yaml.v3"
)

// Output formats understood by Marshal.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const mediaJSON = "application/json"

var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaJSON, minjson.Minify)
	return m
}

// Marshal renders the collection as indented JSON, compact JSON or YAML.
func Marshal(fc GeoJSONFeatureCollection, format string, compact bool) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(fc)

	case FormatJSON, "":
		data, err := json.MarshalIndent(fc, "", "  ")
		if err != nil {
			return nil, err
		}
		if !compact {
			return data, nil
		}
		return Minify(data)

	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// Minify strips insignificant whitespace from a JSON document.
func Minify(data []byte) ([]byte, error) {
	return minifier.Bytes(mediaJSON, data)
}

// Encode writes the collection as a single line of JSON followed by a newline.
func Encode(w io.Writer, fc GeoJSONFeatureCollection) error {
	return json.NewEncoder(w).Encode(fc)
}
