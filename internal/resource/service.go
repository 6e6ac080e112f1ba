package resource

import (
	"context"
	"fmt"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/pkg/errors"
)

// Service restarts a named user process so it rereads its
// preferences. The states are sentinels: a running process reads as
// present-running, the desired state is present-restarted, so a
// running service always diffs. A process that is not running is
// skipped rather than started.
type Service struct {
	process string
	runner  executil.Runner
}

// NewService builds a service resource for a process name as known to
// killall and pgrep.
func NewService(process string, runner executil.Runner) *Service {
	return &Service{process: process, runner: runner}
}

// ID is the process name.
func (s *Service) ID() string { return s.process }

// Kind tags the variant.
func (s *Service) Kind() Kind { return KindService }

// Description renders a one-line summary.
func (s *Service) Description() string {
	return fmt.Sprintf("restart %s", s.process)
}

// DesiredState is the restarted sentinel.
func (s *Service) DesiredState() State { return Present("restarted") }

// PrivilegeHint: user processes are signalled as the user.
func (s *Service) PrivilegeHint() PrivilegeHint { return NoPrivilege }

// ParallelSafe: restarts are ordered against the preference writes
// that precede them.
func (s *Service) ParallelSafe() bool { return false }

// CurrentState probes for a live process with pgrep.
func (s *Service) CurrentState(ctx context.Context) (State, error) {
	out, err := s.runner.Run(ctx, "pgrep", "-x", s.process)
	if err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(KindService), err)
	}
	// pgrep exits 1 for no match.
	if !out.Success {
		return Absent(), nil
	}
	return Present("running"), nil
}

// Apply restarts the process with killall. macOS relaunches the
// daemons and agents this targets on demand.
func (s *Service) Apply(ctx context.Context, ac *ApplyContext) (Outcome, error) {
	current, err := s.CurrentState(ctx)
	if err != nil {
		return Failed(err), err
	}
	if current.IsAbsent() {
		return Skipped("not running"), nil
	}
	if ac.DryRun {
		return Skipped("dry-run"), nil
	}

	out, err := s.runner.Run(ctx, "killall", s.process)
	if err != nil {
		return Failed(err), err
	}
	if !out.Success {
		err = errors.NewCommandFailedError(
			executil.CommandLine("killall", s.process), out.Stderr)
		return Failed(err), err
	}
	return ModifiedOutcome(), nil
}

var _ Resource = (*Service)(nil)
