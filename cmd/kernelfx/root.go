package main

import (
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gogpu/kernelfx"
	_ "github.com/gogpu/kernelfx/backend/native"
	_ "github.com/gogpu/kernelfx/backend/software"
)

type globalFlags struct {
	verbose bool
	config  string
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "kernelfx",
		Short:         "Apply compute-kernel image filters on the GPU",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			g.log = initLogger(cmd.ErrOrStderr(), g.verbose)
			kernelfx.SetLogger(slog.New(newLogrusHandler(g.log)))
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "TOML config file")

	root.AddCommand(newRunCmd(g), newFiltersCmd(), newBackendsCmd())
	return root
}

// initLogger returns the CLI logger: human-readable text with debug
// output when verbose, JSON at info level otherwise.
func initLogger(out io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
