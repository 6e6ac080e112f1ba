// Package engine turns an ordered resource list into diffs, a
// partitioned plan, and an executed summary.
package engine

import (
	"context"

	"github.com/stationctl/stationctl/internal/privilege"
	"github.com/stationctl/stationctl/internal/resource"
)

// Diff is one detected divergence between desired and current state.
// Err is set when inspection failed; the diff is still emitted so the
// failure surfaces in the run instead of vanishing.
type Diff struct {
	ResourceID  string
	Kind        resource.Kind
	Description string
	Current     resource.State
	Desired     resource.State
	Privileged  bool
	Err         error
}

// DiffSummary counts diffs by direction for status output.
type DiffSummary struct {
	Additions          int
	Removals           int
	Modifications      int
	PrivilegeRequired  int
	InspectionFailures int
}

// ComputeDiffs inspects every resource in order and returns one diff
// per divergence. Converged resources emit nothing. An inspection
// failure emits a diff with an unknown current state and the error
// recorded.
func ComputeDiffs(ctx context.Context, resources []resource.Resource, classifier *privilege.Classifier) []Diff {
	diffs := make([]Diff, 0, len(resources))
	for _, r := range resources {
		current, err := r.CurrentState(ctx)
		if err != nil {
			diffs = append(diffs, Diff{
				ResourceID:  r.ID(),
				Kind:        r.Kind(),
				Description: r.Description(),
				Current:     resource.Unknown(),
				Desired:     r.DesiredState(),
				Privileged:  classifier.RequiresPrivilege(r),
				Err:         err,
			})
			continue
		}
		if current.Equal(r.DesiredState()) {
			continue
		}
		diffs = append(diffs, Diff{
			ResourceID:  r.ID(),
			Kind:        r.Kind(),
			Description: r.Description(),
			Current:     current,
			Desired:     r.DesiredState(),
			Privileged:  classifier.RequiresPrivilege(r),
		})
	}
	return diffs
}

// Summarize folds diffs into counters.
func Summarize(diffs []Diff) DiffSummary {
	var s DiffSummary
	for _, d := range diffs {
		switch {
		case d.Err != nil:
			s.InspectionFailures++
		case d.Current.IsAbsent():
			s.Additions++
		case d.Desired.IsAbsent():
			s.Removals++
		default:
			s.Modifications++
		}
		if d.Privileged {
			s.PrivilegeRequired++
		}
	}
	return s
}

// Total counts every diff in the summary.
func (s DiffSummary) Total() int {
	return s.Additions + s.Removals + s.Modifications + s.InspectionFailures
}
