package main

import (
	"github.com/spf13/cobra"

	"github.com/stationctl/stationctl/internal/config"
	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/internal/logger"
	"github.com/stationctl/stationctl/internal/privilege"
	"github.com/stationctl/stationctl/internal/resource"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "stationctl",
		Short:         "Converge a workstation to its declared configuration",
		Long:          "stationctl reads a declarative station.yaml and converges packages,\npreferences, symlinks, handlers, dock tiles, and extensions to it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"path to station.yaml (default: XDG config dir)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"enable debug logging")

	cmd.AddCommand(
		newStatusCmd(flags),
		newDiffCmd(flags),
		newApplyCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

func (f *rootFlags) configFile() string {
	if f.configPath != "" {
		return f.configPath
	}
	return config.DefaultPath()
}

func (f *rootFlags) newLogger() *logger.Logger {
	level := "info"
	if f.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return logger.Nop()
	}
	return log
}

// station is everything a subcommand needs after loading the document.
type station struct {
	cfg        *config.Config
	resources  []resource.Resource
	classifier *privilege.Classifier
	runner     executil.Runner
	log        *logger.Logger
}

func loadStation(flags *rootFlags) (*station, error) {
	log := flags.newLogger()
	runner := executil.System{}

	cfg, err := config.Load(flags.configFile(), log)
	if err != nil {
		return nil, err
	}
	resources, err := config.BuildResources(cfg, runner)
	if err != nil {
		return nil, err
	}

	return &station{
		cfg:       cfg,
		resources: resources,
		classifier: privilege.NewClassifier(
			cfg.PrivilegedPackages(), cfg.PrivilegedPreferences()),
		runner: runner,
		log:    log,
	}, nil
}
