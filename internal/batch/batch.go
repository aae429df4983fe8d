// Package batch runs a filter pipeline over many image files on a
// fixed-size worker pool.
package batch

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/kernelfx"
	"github.com/gogpu/kernelfx/display"
	"github.com/gogpu/kernelfx/imageio"
	"github.com/gogpu/kernelfx/internal/parallel"
)

// Job is one input image and where its outputs go.
type Job struct {
	File imageio.File
}

// Jobs returns one job per file.
func Jobs(files []imageio.File) []Job {
	jobs := make([]Job, len(files))
	for i, f := range files {
		jobs[i] = Job{File: f}
	}
	return jobs
}

// Report is the outcome of one Job.
type Report struct {
	Input     string
	Outputs   []string // written filter outputs, in filter order
	Composite string   // written overview, if enabled
	Results   kernelfx.Results
	Duration  time.Duration

	// Err is set when the image could not be read or an output could not
	// be written. Filter failures are in Results.
	Err error
}

// OK reports whether the job completed and every filter succeeded.
func (r Report) OK() bool {
	return r.Err == nil && r.Results.Err() == nil
}

// Runner processes jobs. One task handles one file from decode to save.
type Runner struct {
	pipeline  *kernelfx.Pipeline
	filters   []kernelfx.Filter
	pool      *parallel.Pool
	composite *display.Options
}

// Option configures a Runner.
type Option func(*runnerConfig)

type runnerConfig struct {
	workers   int
	composite *display.Options
}

// WithWorkers sets the number of images processed at once. 0 means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *runnerConfig) {
		c.workers = n
	}
}

// WithComposite also writes an overview of every image and its outputs.
func WithComposite(opts display.Options) Option {
	return func(c *runnerConfig) {
		c.composite = &opts
	}
}

// NewRunner creates a runner applying filters through p.
func NewRunner(p *kernelfx.Pipeline, filters []kernelfx.Filter, opts ...Option) *Runner {
	var cfg runnerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner{
		pipeline:  p,
		filters:   filters,
		pool:      parallel.NewPool(cfg.workers),
		composite: cfg.composite,
	}
}

// Workers returns the number of images processed at once.
func (r *Runner) Workers() int {
	return r.pool.Workers()
}

// Run processes every job and returns one report per job, in job order.
// A failing job does not stop the others.
func (r *Runner) Run(jobs []Job) []Report {
	reports := make([]Report, len(jobs))
	tasks := make([]func(), len(jobs))
	for i, job := range jobs {
		tasks[i] = func() {
			reports[i] = r.process(job)
		}
	}
	r.pool.Run(tasks)
	return reports
}

// Close stops the worker pool.
func (r *Runner) Close() {
	r.pool.Close()
}

func (r *Runner) process(job Job) Report {
	start := time.Now()
	rep := Report{Input: job.File.Input}
	log := kernelfx.Logger().With("input", job.File.Input)

	img, err := imageio.Load(job.File.Input)
	if err != nil {
		rep.Err = err
		rep.Duration = time.Since(start)
		log.Error("batch: load failed", "err", err)
		return rep
	}

	rep.Results = r.pipeline.Run(img, r.filters)

	var errs []error
	for _, res := range rep.Results {
		if res.Err != nil {
			continue
		}
		path := job.File.FilterOutput(res.Name)
		if err := save(path, res.Image); err != nil {
			errs = append(errs, err)
			continue
		}
		rep.Outputs = append(rep.Outputs, path)
	}

	if r.composite != nil {
		path := job.File.CompositeOutput()
		if err := save(path, display.ComposeResults(img, rep.Results, *r.composite)); err != nil {
			errs = append(errs, err)
		} else {
			rep.Composite = path
		}
	}

	rep.Err = errors.Join(errs...)
	rep.Duration = time.Since(start)

	if rep.Err != nil {
		log.Error("batch: save failed", "err", rep.Err)
	}
	log.Info("batch: image done",
		"outputs", len(rep.Outputs),
		"failed", len(rep.Results.Failed()),
		"elapsed", rep.Duration)
	return rep
}

func save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("batch: create output dir: %w", err)
	}
	return imageio.Save(path, img)
}

// Summary counts reports that are fully OK and those that are not.
func Summary(reports []Report) (ok, failed int) {
	for _, rep := range reports {
		if rep.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
