// Package processor converts GPX files in bulk.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/woozymasta/gpx2geojson/internal/convert"
	"github.com/woozymasta/gpx2geojson/internal/geo"
	"github.com/woozymasta/gpx2geojson/internal/gpx"

	"github.com/rs/zerolog/log"
)

// ErrNoInputs is returned by Collect when nothing matched the given inputs.
var ErrNoInputs = errors.New("no GPX files found")

// Job is a single source to convert and the file it is written to.
type Job struct {
	Source string
	Dest   string
}

// Status is the outcome of a job.
type Status int

// Job outcomes.
const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result describes what happened to one job.
type Result struct {
	Err      error
	Job      Job
	Features int
	Status   Status
}

// Summary aggregates the results of a run.
type Summary struct {
	Failures  []Result
	Converted int
	Skipped   int
	Failed    int
	Features  int
}

// Settings controls how jobs are converted and written.
type Settings struct {
	Client      *http.Client
	Options     convert.Options
	Format      string
	Concurrency int
	Compact     bool
	Force       bool
}

// OutputExt returns the file extension used for a format.
func OutputExt(format string) string {
	if format == geo.FormatYAML {
		return ".yaml"
	}
	return ".geojson"
}

// Collect expands inputs into jobs. Directories are walked for *.gpx files and
// keep their relative layout under outDir; URLs are named after their last path element.
// An empty outDir writes each output next to its local source.
func Collect(inputs []string, outDir, ext string) ([]Job, error) {
	var jobs []Job
	seen := make(map[string]string)

	add := func(source, dest string) error {
		if prev, ok := seen[dest]; ok {
			return fmt.Errorf("%s and %s both write %s", prev, source, dest)
		}
		seen[dest] = source
		jobs = append(jobs, Job{Source: source, Dest: dest})
		return nil
	}

	for _, input := range inputs {
		if isRemote(input) {
			if outDir == "" {
				return nil, fmt.Errorf("%s: --out is required for remote sources", input)
			}
			if err := add(input, filepath.Join(outDir, replaceExt(remoteName(input), ext))); err != nil {
				return nil, err
			}
			continue
		}

		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			dest := replaceExt(input, ext)
			if outDir != "" {
				dest = filepath.Join(outDir, replaceExt(filepath.Base(input), ext))
			}
			if err := add(input, dest); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(input, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".gpx") {
				return nil
			}

			dest := replaceExt(p, ext)
			if outDir != "" {
				rel, err := filepath.Rel(input, p)
				if err != nil {
					return err
				}
				dest = filepath.Join(outDir, replaceExt(rel, ext))
			}
			return add(p, dest)
		})
		if err != nil {
			return nil, err
		}
	}

	if len(jobs) == 0 {
		return nil, ErrNoInputs
	}

	return jobs, nil
}

// Run converts jobs with a bounded pool of workers and returns once all of them
// finished or ctx was cancelled. Jobs not started before cancellation are not reported.
func Run(ctx context.Context, jobs []Job, settings Settings) Summary {
	concurrency := settings.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(jobs) {
		concurrency = len(jobs)
	}
	if settings.Client == nil {
		settings.Client = &http.Client{Timeout: 30 * time.Second}
	}

	queue := make(chan Job, len(jobs))
	results := make(chan Result, len(jobs))

	go func() {
		defer close(queue)
		for _, j := range jobs {
			select {
			case queue <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				if ctx.Err() != nil {
					continue
				}
				results <- convertJob(j, &settings)
			}
		}()
	}
	wg.Wait()
	close(results)

	var summary Summary
	for res := range results {
		switch res.Status {
		case StatusConverted:
			summary.Converted++
			summary.Features += res.Features
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
			summary.Failures = append(summary.Failures, res)
		}
	}

	return summary
}

func convertJob(j Job, settings *Settings) Result {
	res := Result{Job: j}

	if !settings.Force && outputExists(j.Dest) {
		log.Debug().Str("source", j.Source).Str("dest", j.Dest).Msg("Output exists, skipping")
		res.Status = StatusSkipped
		return res
	}

	start := time.Now()
	features, err := ConvertFile(settings.Client, j, settings.Options, settings.Format, settings.Compact)
	if err != nil {
		log.Error().Err(err).Str("source", j.Source).Msg("Failed to convert")
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	log.Info().
		Str("source", j.Source).
		Str("dest", j.Dest).
		Int("features", features).
		Dur("duration", time.Since(start)).
		Msg("Converted")

	res.Status = StatusConverted
	res.Features = features
	return res
}

// ConvertFile parses one source and writes its GeoJSON rendering to j.Dest.
func ConvertFile(client *http.Client, j Job, opts convert.Options, format string, compact bool) (int, error) {
	src, err := openSource(client, j.Source)
	if err != nil {
		return 0, err
	}
	defer func() { _ = src.Close() }()

	doc, err := gpx.Parse(src)
	if err != nil {
		return 0, err
	}

	fc := convert.ToFeatureCollection(doc, &opts)
	if err := saveGeoJSON(j.Dest, fc, format, compact); err != nil {
		return 0, fmt.Errorf("write %s: %w", j.Dest, err)
	}

	return len(fc.Features), nil
}

func replaceExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

func remoteName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "download"
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "download"
	}

	return name
}
