package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stationctl/stationctl/internal/engine"
	"github.com/stationctl/stationctl/internal/ui"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize drift between the configuration and the machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := loadStation(flags)
			if err != nil {
				return err
			}

			diffs := engine.ComputeDiffs(cmd.Context(), st.resources, st.classifier)
			summary := engine.Summarize(diffs)
			out := cmd.OutOrStdout()

			if summary.Total() == 0 {
				fmt.Fprintln(out, ui.Muted(fmt.Sprintf(
					"in sync: %d resource(s) match the configuration", len(st.resources))))
				return nil
			}

			fmt.Fprintln(out, ui.Header(fmt.Sprintf("%d change(s) pending", summary.Total())))
			if summary.Additions > 0 {
				fmt.Fprintf(out, "  %d to add\n", summary.Additions)
			}
			if summary.Modifications > 0 {
				fmt.Fprintf(out, "  %d to modify\n", summary.Modifications)
			}
			if summary.Removals > 0 {
				fmt.Fprintf(out, "  %d to remove\n", summary.Removals)
			}
			if summary.InspectionFailures > 0 {
				fmt.Fprintf(out, "  %s\n", ui.Failure(fmt.Sprintf(
					"%d could not be inspected", summary.InspectionFailures)))
			}
			if summary.PrivilegeRequired > 0 {
				fmt.Fprintf(out, "  %s\n", ui.Muted(fmt.Sprintf(
					"%d require administrator privileges", summary.PrivilegeRequired)))
			}
			return nil
		},
	}
}
