package main

import (
	"io"
	"os"

	"github.com/woozymasta/gpx2geojson"
	"github.com/woozymasta/gpx2geojson/internal/config"
	"github.com/woozymasta/gpx2geojson/internal/convert"
	"github.com/woozymasta/gpx2geojson/internal/geo"
	"github.com/woozymasta/gpx2geojson/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger  logger.Logger `group:"Logger options"`
	Convert convert.Flags `group:"Conversion options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file with default options"`
	Input      string `short:"i" long:"in"     description:"Input GPX file path. Reads from stdin if empty"`
	Output     string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format     string `short:"f" long:"format" description:"Output format (config value or json when omitted)" choice:"json" choice:"yaml"`
	Compact    bool   `long:"compact"          description:"Write JSON without indentation"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			log.Fatal().Err(err).Str("path", opts.ConfigFile).Msg("Failed to load configuration")
		}
	}

	convertOpts, err := opts.Convert.Apply(cfg.Defaults)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid conversion options")
	}

	format := opts.Format
	if format == "" {
		format = cfg.Output.Format
	}

	// Read Input
	var input io.Reader = os.Stdin
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open input file")
		}
		defer func() { _ = f.Close() }()
		input = f
	}

	fc, err := gpx2geojson.Convert(input, &convertOpts)
	if err != nil {
		log.Fatal().Err(err).Str("input", opts.Input).Msg("Failed to convert GPX")
	}

	outputData, err := geo.Marshal(fc, format, opts.Compact || cfg.Output.Compact)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal GeoJSON")
	}

	if opts.Output == "" {
		if _, err := os.Stdout.Write(append(outputData, '\n')); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output")
		}
		return
	}

	if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output file")
	}

	log.Info().
		Int("features", len(fc.Features)).
		Str("path", opts.Output).
		Str("format", format).
		Msg("Conversion finished")
}
