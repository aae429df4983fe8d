package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/gogpu/kernelfx"
)

// defaultFilters runs every built-in filter.
var defaultFilters = []string{"sobel", "prewitt", "canny", "blur", "sharpen", "dither"}

// Config is the run configuration. Values come from the config file and
// are overridden by flags that were set explicitly.
//
//	input = "photos"
//	filters = ["sobel", "blur"]
//
//	[filter.blur]
//	size = 7
//	sigma = 1.5
//
//	[device]
//	validate = true
type Config struct {
	Input        string                       `toml:"input"`
	Output       string                       `toml:"output"`
	Filters      []string                     `toml:"filters"`
	Backend      string                       `toml:"backend"`
	Workers      int                          `toml:"workers"`
	Composite    bool                         `toml:"composite"`
	ProgramCache int                          `toml:"program_cache"`
	Filter       map[string]kernelfx.Settings `toml:"filter"`
	Device       DeviceConfig                 `toml:"device"`
}

func defaultConfig() Config {
	return Config{
		Input:        "input",
		Output:       "output",
		Filters:      defaultFilters,
		ProgramCache: 16,
	}
}

var errUnknownKeys = errors.New("unknown config keys")

// loadConfig reads path over the defaults. Keys the config does not
// know are an error so typos do not pass silently.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		// Per-filter tables are free-form.
		var unknown []string
		for _, k := range undecoded {
			if len(k) > 0 && k[0] == "filter" {
				continue
			}
			unknown = append(unknown, k.String())
		}
		if len(unknown) > 0 {
			return cfg, fmt.Errorf("config %s: %w: %v", path, errUnknownKeys, unknown)
		}
	}
	return cfg, nil
}

// runFlags are the values of the run command's flags.
type runFlags struct {
	input, output string
	filters       []string
	backend       string
	workers       int
	composite     bool
	programCache  int
	adapter       string
	fenceTimeout  time.Duration
	validate      bool
}

func bindRunFlags(fl *pflag.FlagSet, f *runFlags) {
	def := defaultConfig()
	fl.StringVarP(&f.input, "input", "i", def.Input, "directory of input images")
	fl.StringVarP(&f.output, "output", "o", def.Output, "directory for filtered images")
	fl.StringSliceVarP(&f.filters, "filters", "f", def.Filters, "filters to apply, comma-separated")
	fl.StringVarP(&f.backend, "backend", "b", "", "compute backend (default: best available)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "images processed at once (default: number of CPUs)")
	fl.BoolVar(&f.composite, "composite", false, "also write an overview of each image and its outputs")
	fl.IntVar(&f.programCache, "program-cache", def.ProgramCache, "compiled programs kept for reuse (0 disables)")
	fl.StringVar(&f.adapter, "adapter", "", "GPU adapter to use, matched against its name")
	fl.DurationVar(&f.fenceTimeout, "fence-timeout", 0, "how long to wait for the GPU per launch (default 5s)")
	fl.BoolVar(&f.validate, "validate", false, "compile shaders with naga on the software backend too")
}

// apply overrides cfg with every flag set on the command line.
func (f *runFlags) apply(cfg *Config, flags *pflag.FlagSet) {
	if flags.Changed("input") {
		cfg.Input = f.input
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("filters") {
		cfg.Filters = f.filters
	}
	if flags.Changed("backend") {
		cfg.Backend = f.backend
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("composite") {
		cfg.Composite = f.composite
	}
	if flags.Changed("program-cache") {
		cfg.ProgramCache = f.programCache
	}
	if flags.Changed("adapter") {
		cfg.Device.Adapter = f.adapter
	}
	if flags.Changed("fence-timeout") {
		cfg.Device.FenceTimeout = f.fenceTimeout
	}
	if flags.Changed("validate") {
		cfg.Device.Validate = f.validate
	}
}
