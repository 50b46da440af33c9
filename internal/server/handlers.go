// Package server exposes the converter over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/gpx2geojson/internal/convert"
	"github.com/woozymasta/gpx2geojson/internal/geo"
	"github.com/woozymasta/gpx2geojson/internal/gpx"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

const contentTypeGeoJSON = "application/geo+json"

type errorResponse struct {
	Error string   `json:"error"`
	Path  []string `json:"path,omitempty"`
}

// HandleConvert converts the GPX request body into GeoJSON.
// Options come from query parameters layered over the configured defaults.
func (s *ServerContext) HandleConvert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	opts, err := s.optionsFromQuery(r.URL.Query())
	if err != nil {
		observeConversion(resultInvalidOptions, start, 0)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.Config.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			observeConversion(resultTooLarge, start, 0)
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		observeConversion(resultReadError, start, 0)
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}

	pretty := r.URL.Query().Has("pretty")
	etag := computeETag(body, &opts, pretty)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		observeConversion(resultNotModified, start, 0)
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	doc, err := gpx.ParseBytes(body)
	if err != nil {
		observeConversion(resultParseError, start, 0)
		log.Debug().Err(err).Int("bytes", len(body)).Msg("Rejected GPX document")

		resp := errorResponse{Error: err.Error()}
		var perr *gpx.ParseError
		if errors.As(err, &perr) {
			resp.Path = perr.Path
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	fc := convert.ToFeatureCollection(doc, &opts)
	data, err := geo.Marshal(fc, geo.FormatJSON, !pretty)
	if err != nil {
		observeConversion(resultEncodeError, start, 0)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	observeConversion(resultOK, start, len(fc.Features))

	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	_, _ = w.Write(data)
}

// HandleOptions serves the configured default options.
func (s *ServerContext) HandleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Config.Defaults)
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// optionsFromQuery overlays query parameters on the configured defaults.
// An empty types parameter selects no categories.
func (s *ServerContext) optionsFromQuery(q url.Values) (convert.Options, error) {
	opts := s.Config.Defaults
	if opts.Types != nil {
		opts.Types = append([]convert.ElementType(nil), opts.Types...)
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"includeElevation", &opts.IncludeElevation},
		{"includeTime", &opts.IncludeTime},
		{"includeMetadata", &opts.IncludeMetadata},
		{"joinTrackSegments", &opts.JoinTrackSegments},
	}
	for _, f := range flags {
		if !q.Has(f.key) {
			continue
		}
		v, err := strconv.ParseBool(q.Get(f.key))
		if err != nil {
			return opts, fmt.Errorf("%w: %s must be a boolean", convert.ErrInvalidOptions, f.key)
		}
		*f.dst = v
	}

	if q.Has("types") {
		var names []string
		for _, v := range strings.Split(q.Get("types"), ",") {
			if v = strings.TrimSpace(v); v != "" {
				names = append(names, v)
			}
		}
		types, err := convert.ParseElementTypes(names)
		if err != nil {
			return opts, err
		}
		opts.Types = types
	}

	return opts, nil
}

// computeETag hashes the request body together with the effective options,
// which fully determine the response.
func computeETag(body []byte, opts *convert.Options, pretty bool) string {
	h := xxhash.New()
	_, _ = h.Write(body)

	key, _ := json.Marshal(opts)
	_, _ = h.Write(key)
	if pretty {
		_, _ = h.WriteString("pretty")
	}

	return `"` + strconv.FormatUint(h.Sum64(), 16) + `"`
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}

	return false
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}
