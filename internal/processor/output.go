package processor

import (
	"os"
	"path/filepath"

	"github.com/woozymasta/gpx2geojson/internal/geo"

	"github.com/rs/zerolog/log"
)

// outputExists reports whether a non-empty output file is already present.
func outputExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// saveGeoJSON renders the feature collection and writes it to disk.
func saveGeoJSON(path string, fc geo.GeoJSONFeatureCollection, format string, compact bool) error {
	data, err := geo.Marshal(fc, format, compact)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}

	// We care about write errors on close
	if err := f.Close(); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to close file")
		return err
	}

	return nil
}
