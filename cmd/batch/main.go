package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/gpx2geojson/internal/config"
	"github.com/woozymasta/gpx2geojson/internal/convert"
	"github.com/woozymasta/gpx2geojson/internal/logger"
	"github.com/woozymasta/gpx2geojson/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger  logger.Logger `group:"Logger options"`
	Convert convert.Flags `group:"Conversion options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file with default options"`
	OutDir      string `short:"o" long:"out"         env:"OUTPUT_DIR"  description:"Output directory. Writes next to each source if empty"`
	Format      string `short:"f" long:"format"      description:"Output format (config value or json when omitted)" choice:"json" choice:"yaml"`
	Concurrency int    `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Number of files converted in parallel (config value or CPU count when omitted)"`
	Compact     bool   `long:"compact"               description:"Write JSON without indentation"`
	Force       bool   `short:"F" long:"force"       description:"Force overwrite of existing files"`

	Args struct {
		Inputs []string `positional-arg-name:"INPUT" description:"GPX files, directories or http(s) URLs" required:"1"`
	} `positional-args:"yes" required:"yes"`
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

	settings := processor.Settings{
		Client: &http.Client{
			Transport: &http.Transport{
				TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
			Timeout: 30 * time.Second,
		},
		Options:     convertOpts,
		Format:      cfg.Output.Format,
		Concurrency: cfg.Batch.Concurrency,
		Compact:     opts.Compact || cfg.Output.Compact,
		Force:       opts.Force || cfg.Batch.Force,
	}
	if opts.Format != "" {
		settings.Format = opts.Format
	}
	if opts.Concurrency > 0 {
		settings.Concurrency = opts.Concurrency
	}

	jobs, err := processor.Collect(opts.Args.Inputs, opts.OutDir, processor.OutputExt(settings.Format))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to collect inputs")
	}

	log.Info().
		Int("jobs", len(jobs)).
		Int("concurrency", settings.Concurrency).
		Bool("force", settings.Force).
		Msg("Starting batch conversion")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	summary := processor.Run(ctx, jobs, settings)

	log.Info().
		Int("converted", summary.Converted).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("features", summary.Features).
		Dur("duration", time.Since(start)).
		Msg("Batch conversion finished")

	if ctx.Err() != nil {
		log.Warn().Msg("Batch conversion interrupted")
		os.Exit(130)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
