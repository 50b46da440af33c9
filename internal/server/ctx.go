package server

import (
	"net/http"

	"github.com/woozymasta/gpx2geojson/internal/config"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config *config.Config
}

// NewServerContext initializes the context from a loaded configuration.
// A nil cfg means config.Default.
func NewServerContext(cfg *config.Config) *ServerContext {
	if cfg == nil {
		cfg = config.Default()
	}

	log.Info().
		Bool("include_elevation", cfg.Defaults.IncludeElevation).
		Bool("include_time", cfg.Defaults.IncludeTime).
		Bool("include_metadata", cfg.Defaults.IncludeMetadata).
		Bool("join_track_segments", cfg.Defaults.JoinTrackSegments).
		Int64("max_body_bytes", cfg.Server.MaxBodyBytes).
		Msg("Server context initialized")

	return &ServerContext{Config: cfg}
}

// Routes registers every endpoint and wraps the mux with request logging.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/convert", s.compress(http.HandlerFunc(s.HandleConvert)))
	mux.Handle("GET /api/options", s.compress(http.HandlerFunc(s.HandleOptions)))
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return RequestLogger(mux)
}

func (s *ServerContext) compress(h http.Handler) http.Handler {
	if !s.Config.Server.GzipEnabled() {
		return h
	}

	return gzhttp.GzipHandler(h)
}
