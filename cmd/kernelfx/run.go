package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gogpu/kernelfx"
	"github.com/gogpu/kernelfx/display"
	"github.com/gogpu/kernelfx/imageio"
	"github.com/gogpu/kernelfx/internal/batch"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Filter every image in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g.config)
			if err != nil {
				return err
			}
			f.apply(&cfg, cmd.Flags())
			return run(cfg, g.log)
		},
	}

	bindRunFlags(cmd.Flags(), f)
	return cmd
}

func run(cfg Config, log *logrus.Logger) error {
	filters, err := kernelfx.ParseFilters(strings.Join(cfg.Filters, ","), cfg.Filter)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return errors.New("no filters selected")
	}

	files, err := imageio.Files(cfg.Input, cfg.Output)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.WithField("input", cfg.Input).Warn("No images found")
		return nil
	}

	dev, err := openDevice(cfg.Backend, cfg.Device, log)
	if err != nil {
		return err
	}
	defer dev.Close()

	disp := kernelfx.NewDispatcher(dev, kernelfx.WithProgramCache(cfg.ProgramCache))
	defer disp.Close()

	var opts []batch.Option
	opts = append(opts, batch.WithWorkers(cfg.Workers))
	if cfg.Composite {
		opts = append(opts, batch.WithComposite(display.Options{MaxTileWidth: 480}))
	}
	runner := batch.NewRunner(kernelfx.NewPipeline(disp), filters, opts...)
	defer runner.Close()

	log.WithFields(logrus.Fields{
		"backend": disp.Device().Name(),
		"images":  len(files),
		"filters": len(filters),
		"workers": runner.Workers(),
	}).Info("Processing images")

	reports := runner.Run(batch.Jobs(files))
	for _, rep := range reports {
		entry := log.WithFields(logrus.Fields{
			"input":   rep.Input,
			"outputs": len(rep.Outputs),
			"elapsed": rep.Duration.String(),
		})
		if rep.Err != nil {
			entry.WithError(rep.Err).Error("Image failed")
			continue
		}
		for _, r := range rep.Results.Failed() {
			entry.WithField("filter", r.Name).WithError(r.Err).Warn("Filter failed")
		}
	}

	ok, failed := batch.Summary(reports)
	log.WithFields(logrus.Fields{"ok": ok, "failed": failed}).Info("Done")
	if failed > 0 {
		return fmt.Errorf("%d of %d images had failures", failed, len(reports))
	}
	return nil
}
