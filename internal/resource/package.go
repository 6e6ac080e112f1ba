package resource

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/pkg/errors"
)

const (
	installAttempts = 3
	installDelay    = 2 * time.Second
)

// BrewPackage converges a Homebrew formula, cask, or tap. The desired
// state is always presence; the installed version is reported as the
// current fingerprint for diff output.
type BrewPackage struct {
	name   string
	kind   Kind
	runner executil.Runner
	clock  clock.Clock
}

// NewFormula builds a formula resource.
func NewFormula(name string, runner executil.Runner) *BrewPackage {
	return &BrewPackage{name: name, kind: KindFormula, runner: runner, clock: clock.WallClock}
}

// NewCask builds a cask resource.
func NewCask(name string, runner executil.Runner) *BrewPackage {
	return &BrewPackage{name: name, kind: KindCask, runner: runner, clock: clock.WallClock}
}

// NewTap builds a tap resource.
func NewTap(name string, runner executil.Runner) *BrewPackage {
	return &BrewPackage{name: name, kind: KindTap, runner: runner, clock: clock.WallClock}
}

// WithClock substitutes the retry clock. Tests use this to avoid real
// backoff sleeps.
func (p *BrewPackage) WithClock(c clock.Clock) *BrewPackage {
	p.clock = c
	return p
}

// ID returns the package name.
func (p *BrewPackage) ID() string { return p.name }

// Kind tags the variant.
func (p *BrewPackage) Kind() Kind { return p.kind }

// Description renders a one-line summary.
func (p *BrewPackage) Description() string {
	switch p.kind {
	case KindCask:
		return fmt.Sprintf("cask %s", p.name)
	case KindTap:
		return fmt.Sprintf("tap %s", p.name)
	default:
		return fmt.Sprintf("formula %s", p.name)
	}
}

// DesiredState is presence with no version pin.
func (p *BrewPackage) DesiredState() State { return Present("") }

// PrivilegeHint defers to the classifier.
func (p *BrewPackage) PrivilegeHint() PrivilegeHint { return NoPrivilege }

// ParallelSafe: brew serializes its own cellar writes with a lock.
func (p *BrewPackage) ParallelSafe() bool { return true }

// brewInfo mirrors the slice of `brew info --json=v2` output we read.
type brewInfo struct {
	Formulae []struct {
		Name      string `json:"name"`
		Installed []struct {
			Version string `json:"version"`
		} `json:"installed"`
	} `json:"formulae"`
	Casks []struct {
		Token     string `json:"token"`
		Installed string `json:"installed"`
	} `json:"casks"`
}

// CurrentState inspects the live system through brew.
func (p *BrewPackage) CurrentState(ctx context.Context) (State, error) {
	if p.kind == KindTap {
		return p.tapState(ctx)
	}

	args := []string{"info", "--json=v2"}
	if p.kind == KindCask {
		args = append(args, "--cask")
	}
	args = append(args, p.name)

	out, err := p.runner.Run(ctx, "brew", args...)
	if err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(p.kind), err)
	}
	if !out.Success {
		// brew info exits non-zero for names it has never heard of;
		// report absence and let install produce the real error.
		cause := errors.FromInstallerStderr(
			executil.CommandLine("brew", args...), out.Stderr, p.name)
		var nf *errors.NotFoundError
		if stderrors.As(cause, &nf) {
			return Absent(), nil
		}
		return Unknown(), errors.NewInspectionFailedError(string(p.kind), cause)
	}

	var info brewInfo
	if err := json.Unmarshal([]byte(out.Stdout), &info); err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(p.kind), err)
	}

	if p.kind == KindCask {
		for _, c := range info.Casks {
			if c.Token == p.name && c.Installed != "" {
				return Present(c.Installed), nil
			}
		}
		return Absent(), nil
	}

	for _, f := range info.Formulae {
		if len(f.Installed) > 0 {
			return Present(f.Installed[0].Version), nil
		}
	}
	return Absent(), nil
}

func (p *BrewPackage) tapState(ctx context.Context) (State, error) {
	out, err := p.runner.Run(ctx, "brew", "tap")
	if err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(p.kind), err)
	}
	if !out.Success {
		return Unknown(), errors.NewInspectionFailedError(string(p.kind),
			errors.NewCommandFailedError("brew tap", out.Stderr))
	}
	want := strings.ToLower(p.name)
	for _, line := range strings.Split(out.Stdout, "\n") {
		if strings.ToLower(strings.TrimSpace(line)) == want {
			return Present(""), nil
		}
	}
	return Absent(), nil
}

// Apply installs the package if it is not already present. Network
// failures are retried with backoff; an already-installed report from
// brew is treated as convergence, not failure.
func (p *BrewPackage) Apply(ctx context.Context, ac *ApplyContext) (Outcome, error) {
	current, err := p.CurrentState(ctx)
	if err != nil {
		return Failed(err), err
	}
	if current.Equal(p.DesiredState()) {
		return NoChange(), nil
	}
	if ac.DryRun {
		return Skipped("dry-run"), nil
	}

	err = retry.Call(retry.CallArgs{
		Func: func() error {
			return p.install(ctx, ac)
		},
		IsFatalError: func(err error) bool {
			return !errors.IsRetryable(err)
		},
		Attempts: installAttempts,
		Delay:    installDelay,
		Clock:    p.clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		if retry.IsAttemptsExceeded(err) || retry.IsRetryStopped(err) {
			err = retry.LastError(err)
		}
		if errors.IsIgnorable(err) {
			return NoChange(), nil
		}
		return Failed(err), err
	}
	return Created(), nil
}

func (p *BrewPackage) install(ctx context.Context, ac *ApplyContext) error {
	var args []string
	switch p.kind {
	case KindTap:
		args = []string{"tap", p.name}
	case KindCask:
		args = []string{"install", "--cask", p.name}
	default:
		args = []string{"install", "--formula", p.name}
	}

	var out executil.Output
	var err error
	if ac.Privileged != nil {
		out, err = ac.Privileged.Run(ctx, "brew", args...)
	} else {
		out, err = p.runner.Run(ctx, "brew", args...)
	}
	if err != nil {
		return err
	}
	if !out.Success {
		return errors.FromInstallerStderr(
			executil.CommandLine("brew", args...), out.Stderr, p.name)
	}
	return nil
}

var _ Resource = (*BrewPackage)(nil)
