package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stationctl/stationctl/internal/engine"
	"github.com/stationctl/stationctl/internal/ui"
)

func newDiffCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "List every divergence between the configuration and the machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := loadStation(flags)
			if err != nil {
				return err
			}

			diffs := engine.ComputeDiffs(cmd.Context(), st.resources, st.classifier)
			out := cmd.OutOrStdout()

			if len(diffs) == 0 {
				fmt.Fprintln(out, ui.Muted("no differences"))
				return nil
			}

			for _, d := range diffs {
				marker := " "
				if d.Privileged {
					marker = "!"
				}
				if d.Err != nil {
					fmt.Fprintf(out, "%s %s: %s\n", marker,
						ui.ResourceLabel(d.Kind, d.ResourceID),
						ui.Failure(fmt.Sprintf("inspection failed: %v", d.Err)))
					continue
				}
				fmt.Fprintf(out, "%s %s: %s -> %s\n", marker,
					ui.ResourceLabel(d.Kind, d.ResourceID),
					ui.Muted(d.Current.String()), d.Desired.String())
			}
			fmt.Fprintln(out, ui.Muted(fmt.Sprintf("%d change(s) pending", len(diffs))))
			return nil
		},
	}
}
