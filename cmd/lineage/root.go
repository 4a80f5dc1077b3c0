package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mgomes/lineage/internal/config"
	"github.com/mgomes/lineage/internal/demo"
	"github.com/mgomes/lineage/internal/logging"
	"github.com/mgomes/lineage/internal/metrics"
	"github.com/mgomes/lineage/lineage"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgPath     string
	logLevel    string
	showMetrics bool

	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	observer *metrics.Observer
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "lineage",
		Short:         "Explore single-inheritance hierarchies and how calls dispatch through them",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.finish(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "configuration file (yaml or json)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")
	root.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "print dispatch counters after the command")

	root.AddCommand(
		newDemoCommand(a),
		newDescribeCommand(a),
		newResolveCommand(a),
		newCallCommand(a),
		newREPLCommand(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		cfg.Logging.SetDefaults()
		if err := cfg.Logging.Validate(); err != nil {
			return err
		}
	}
	if a.showMetrics {
		cfg.Metrics.Enabled = true
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	observer, err := metrics.NewObserver(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	a.registry = registry
	a.observer = observer
	return nil
}

func (a *app) finish(w io.Writer) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.cfg == nil || !a.cfg.Metrics.Enabled {
		return nil
	}
	return metrics.Dump(w, a.registry)
}

func (a *app) dispatcherOptions(out io.Writer) lineage.Options {
	return lineage.Options{
		Output:   out,
		Logger:   a.logger,
		Observer: a.observer,
		MaxDepth: a.cfg.Dispatch.MaxDepth,
	}
}

// loadHierarchy reads path, falling back to hierarchy.path from config and
// then to the built-in demo playground.
func (a *app) loadHierarchy(path string) (*lineage.Hierarchy, error) {
	if path == "" {
		path = a.cfg.Hierarchy.Path
	}
	if path == "" {
		a.logger.Debug("no hierarchy file given, using demo playground")
		return demo.Playground()
	}
	a.logger.Debug("loading hierarchy", zap.String("path", path))
	return lineage.LoadFile(path)
}
