package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stationctl/stationctl/internal/config"
	"github.com/stationctl/stationctl/internal/engine"
	"github.com/stationctl/stationctl/internal/privilege"
	"github.com/stationctl/stationctl/internal/ui"
)

const defaultJobs = 4

type applyFlags struct {
	dryRun bool
	yes    bool
	jobs   int
	target string
}

func newApplyCmd(flags *rootFlags) *cobra.Command {
	af := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge the machine to the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, flags, af)
		},
	}

	cmd.Flags().BoolVar(&af.dryRun, "dry-run", false, "report what would change without changing it")
	cmd.Flags().BoolVar(&af.yes, "yes", false, "skip confirmation prompts")
	cmd.Flags().IntVar(&af.jobs, "jobs", defaultJobs, "parallel apply workers")
	cmd.Flags().StringVar(&af.target, "target", "", "restrict to a kind or kind.fragment (e.g. packages, formula.rip)")

	return cmd
}

func runApply(cmd *cobra.Command, flags *rootFlags, af *applyFlags) error {
	st, err := loadStation(flags)
	if err != nil {
		return err
	}

	resources := st.resources
	if targetsServices(af.target) {
		resources = append(resources, config.ServiceResources(st.cfg, st.runner)...)
	}
	resources, err = engine.FilterTarget(resources, af.target)
	if err != nil {
		return err
	}

	plan := engine.BuildPlan(resources, st.classifier, st.cfg.Services)

	var confirm engine.Confirmer
	switch {
	case af.yes || af.dryRun:
		confirm = engine.AutoConfirm{}
	case !term.IsTerminal(int(os.Stdin.Fd())):
		// Refuse to mutate a machine nobody is watching.
		st.log.Warn("stdin is not a terminal; pass --yes to apply without prompts")
		confirm = engine.AutoDecline{}
	default:
		confirm = engine.ConsoleConfirm{In: os.Stdin, Out: cmd.OutOrStdout()}
	}

	exec := &engine.Executor{
		Log:       st.log,
		Progress:  &engine.ConsoleProgress{Out: cmd.OutOrStdout(), Verbose: flags.verbose},
		Confirm:   confirm,
		Privilege: privilege.NewContext(st.runner),
		Runner:    st.runner,
	}

	summary, err := exec.Execute(cmd.Context(), plan, engine.Options{
		DryRun:      af.dryRun,
		AssumeYes:   af.yes,
		Parallelism: af.jobs,
		Verbose:     flags.verbose,
	})

	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSummary(summary))

	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d resource(s) failed to converge", summary.Failed)
	}
	return nil
}

func targetsServices(target string) bool {
	if target == "" {
		return false
	}
	kind := target
	if i := strings.Index(target, "."); i >= 0 {
		kind = target[:i]
	}
	switch strings.ToLower(kind) {
	case "service", "services":
		return true
	}
	return false
}
