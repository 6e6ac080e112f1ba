package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/internal/logger"
	"github.com/stationctl/stationctl/internal/privilege"
	"github.com/stationctl/stationctl/internal/resource"
	"github.com/stationctl/stationctl/pkg/errors"
)

// Options carries the per-invocation execution settings.
type Options struct {
	DryRun      bool
	AssumeYes   bool
	Parallelism int
	Verbose     bool
}

// Executor drives a plan to completion: unprivileged batch in
// parallel, privileged batch sequentially under an acquired sudo
// session, post-action restarts last. A resource failure never aborts
// a batch.
type Executor struct {
	Log       *logger.Logger
	Progress  Progress
	Confirm   Confirmer
	Privilege *privilege.Context
	Runner    executil.Runner
}

type inspection struct {
	pending  []resource.Resource
	failures []inspectionFailure
}

type inspectionFailure struct {
	res resource.Resource
	err error
}

// Execute runs the plan and returns the aggregated summary. The error
// is non-nil only for privilege acquisition failure; per-resource
// failures are reported through the summary.
func (e *Executor) Execute(ctx context.Context, plan Plan, opts Options) (resource.Summary, error) {
	progress := e.Progress
	if progress == nil {
		progress = NopProgress{}
	}
	confirm := e.Confirm
	if confirm == nil {
		confirm = AutoConfirm{}
	}
	runner := e.Runner
	if runner == nil {
		runner = executil.System{}
	}

	var summary resource.Summary

	// Live state may have shifted since the diff the user looked at,
	// so both buckets are re-inspected before anything runs.
	unpriv := e.inspectBatch(ctx, plan.Unprivileged, &summary)
	priv := e.inspectBatch(ctx, plan.Privileged, &summary)

	pendingTotal := len(unpriv.pending) + len(priv.pending) +
		len(unpriv.failures) + len(priv.failures)
	if pendingTotal == 0 {
		return summary, nil
	}

	// Dry-run reports nothing as applied: the diff listing already
	// told the user what would change.
	if opts.DryRun {
		return resource.Summary{}, nil
	}

	if !opts.AssumeYes {
		ok, err := confirm.Confirm(fmt.Sprintf("Apply %d change(s)?", pendingTotal))
		if err != nil {
			return summary, err
		}
		if !ok {
			for i := 0; i < pendingTotal; i++ {
				summary.Add(resource.Skipped("declined"))
			}
			return summary, nil
		}
	}

	failures := append(append([]inspectionFailure{}, unpriv.failures...), priv.failures...)
	for _, f := range failures {
		outcome := resource.Failed(f.err)
		e.Log.Error(f.err, "state inspection failed")
		progress.OnResourceComplete(f.res, outcome)
		summary.Add(outcome)
	}

	e.runUnprivileged(ctx, unpriv.pending, opts, progress, &summary)

	if len(priv.pending) > 0 {
		if err := e.runPrivileged(ctx, priv.pending, opts, confirm, progress, &summary); err != nil {
			return summary, err
		}
	}

	if summary.TotalChanges() > 0 {
		e.runPostActions(ctx, plan.PostActions, runner)
	}

	return summary, nil
}

// inspectBatch splits a batch into resources that still need an apply
// and resources whose inspection failed. Converged resources are
// folded straight into the summary.
func (e *Executor) inspectBatch(ctx context.Context, batch []resource.Resource, summary *resource.Summary) inspection {
	var ins inspection
	for _, r := range batch {
		need, err := resource.NeedsApply(ctx, r)
		if err != nil {
			ins.failures = append(ins.failures, inspectionFailure{res: r, err: err})
			continue
		}
		if !need {
			summary.Add(resource.NoChange())
			continue
		}
		ins.pending = append(ins.pending, r)
	}
	return ins
}

// runUnprivileged applies the batch with a bounded worker pool.
// Resources that are not parallel-safe are held back and applied
// sequentially once the pool drains.
func (e *Executor) runUnprivileged(ctx context.Context, pending []resource.Resource, opts Options, progress Progress, summary *resource.Summary) {
	if len(pending) == 0 {
		return
	}
	progress.OnBatchStart("applying", len(pending))
	defer progress.OnBatchComplete("applying")

	var safe, serial []resource.Resource
	for _, r := range pending {
		if r.ParallelSafe() {
			safe = append(safe, r)
		} else {
			serial = append(serial, r)
		}
	}

	ac := &resource.ApplyContext{Verbose: opts.Verbose}

	workers := opts.Parallelism
	if workers < 1 {
		workers = 1
	}
	if workers > len(safe) {
		workers = len(safe)
	}

	if len(safe) > 0 {
		jobs := make(chan resource.Resource)
		var wg sync.WaitGroup
		var mu sync.Mutex

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for r := range jobs {
					outcome := e.applyOne(ctx, r, ac, progress)
					mu.Lock()
					summary.Add(outcome)
					mu.Unlock()
				}
			}()
		}
		for _, r := range safe {
			jobs <- r
		}
		close(jobs)
		wg.Wait()
	}

	for _, r := range serial {
		summary.Add(e.applyOne(ctx, r, ac, progress))
	}
}

// runPrivileged confirms, acquires the sudo session, and applies the
// batch strictly sequentially. The session is released on every exit
// path. An acquisition failure fails the whole batch but preserves the
// unprivileged outcomes already in the summary.
func (e *Executor) runPrivileged(ctx context.Context, pending []resource.Resource, opts Options, confirm Confirmer, progress Progress, summary *resource.Summary) error {
	if !opts.AssumeYes {
		ok, err := confirm.Confirm(fmt.Sprintf(
			"%d change(s) require administrator privileges. Continue?", len(pending)))
		if err != nil {
			return err
		}
		if !ok {
			for _, r := range pending {
				outcome := resource.Skipped("privilege declined")
				progress.OnResourceComplete(r, outcome)
				summary.Add(outcome)
			}
			return nil
		}
	}

	if e.Privilege == nil {
		err := errors.NewPrivilegeDeniedError()
		for _, r := range pending {
			progress.OnResourceComplete(r, resource.Failed(err))
			summary.Add(resource.Failed(err))
		}
		return err
	}

	if err := e.Privilege.Acquire(ctx); err != nil {
		for _, r := range pending {
			progress.OnResourceComplete(r, resource.Failed(err))
			summary.Add(resource.Failed(err))
		}
		return err
	}
	// Release with a fresh context so cancellation cannot leave the
	// sudo timestamp behind.
	defer e.Privilege.Release(context.Background())

	progress.OnBatchStart("applying (privileged)", len(pending))
	defer progress.OnBatchComplete("applying (privileged)")

	ac := &resource.ApplyContext{Verbose: opts.Verbose, Privileged: e.Privilege}
	for _, r := range pending {
		summary.Add(e.applyOne(ctx, r, ac, progress))
	}
	return nil
}

// applyOne applies a single resource, converting a panic into a failed
// outcome so one bad resource cannot take down the batch.
func (e *Executor) applyOne(ctx context.Context, r resource.Resource, ac *resource.ApplyContext, progress Progress) (outcome resource.Outcome) {
	progress.OnResourceStart(r)
	defer func() {
		if v := recover(); v != nil {
			outcome = resource.Failed(fmt.Errorf("panic applying %s %s: %v", r.Kind(), r.ID(), v))
		}
		progress.OnResourceComplete(r, outcome)
	}()

	var err error
	outcome, err = r.Apply(ctx, ac)
	if err != nil {
		e.Log.Error(err, fmt.Sprintf("apply failed for %s %s", r.Kind(), r.ID()))
	}
	return outcome
}

// runPostActions restarts the processes that own changed state.
// Failures are logged and ignored; a missed restart is an
// inconvenience, not a convergence failure.
func (e *Executor) runPostActions(ctx context.Context, actions []string, runner executil.Runner) {
	for _, name := range actions {
		out, err := runner.Run(ctx, "killall", name)
		if err != nil {
			e.Log.Error(err, "post-action restart failed: "+name)
			continue
		}
		if !out.Success {
			e.Log.Warn("post-action restart failed: " + name)
			continue
		}
		e.Log.Debug("restarted " + name)
	}
}
