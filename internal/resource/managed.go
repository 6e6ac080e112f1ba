package resource

import (
	"context"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/pkg/errors"
)

// ManagedPackage converges a package through a list-and-install tool
// other than Homebrew: Mac App Store apps (mas), pnpm globals, editor
// extensions (code) and gh CLI extensions. Presence is decided by
// scanning the tool's list output.
type ManagedPackage struct {
	id          string
	display     string
	kind        Kind
	runner      executil.Runner
	clock       clock.Clock
	tool        string
	listArgs    []string
	installArgs []string
	present     func(stdout string) bool
}

// NewStoreApp builds a Mac App Store app resource. id is the numeric
// store identifier; name is the display name used in diffs.
func NewStoreApp(id, name string, runner executil.Runner) *ManagedPackage {
	return &ManagedPackage{
		id:          id,
		display:     "app " + name,
		kind:        KindStoreApp,
		runner:      runner,
		clock:       clock.WallClock,
		tool:        "mas",
		listArgs:    []string{"list"},
		installArgs: []string{"install", id},
		present: func(stdout string) bool {
			return anyLine(stdout, func(line string) bool {
				fields := strings.Fields(line)
				return len(fields) > 0 && fields[0] == id
			})
		},
	}
}

// NewNodeGlobal builds a pnpm global package resource.
func NewNodeGlobal(name string, runner executil.Runner) *ManagedPackage {
	return &ManagedPackage{
		id:          name,
		display:     "node global " + name,
		kind:        KindNodeGlobal,
		runner:      runner,
		clock:       clock.WallClock,
		tool:        "pnpm",
		listArgs:    []string{"list", "-g", "--depth=0"},
		installArgs: []string{"add", "-g", name},
		present: func(stdout string) bool {
			return anyLine(stdout, func(line string) bool {
				fields := strings.Fields(line)
				return len(fields) > 0 && fields[0] == name
			})
		},
	}
}

// NewEditorExtension builds a VS Code extension resource. id is the
// publisher.extension identifier.
func NewEditorExtension(id string, runner executil.Runner) *ManagedPackage {
	return &ManagedPackage{
		id:          id,
		display:     "editor extension " + id,
		kind:        KindEditorExtension,
		runner:      runner,
		clock:       clock.WallClock,
		tool:        "code",
		listArgs:    []string{"--list-extensions"},
		installArgs: []string{"--install-extension", id, "--force"},
		present: func(stdout string) bool {
			return anyLine(stdout, func(line string) bool {
				return strings.EqualFold(strings.TrimSpace(line), id)
			})
		},
	}
}

// NewCLIExtension builds a gh extension resource. name is the
// owner/repo form gh accepts.
func NewCLIExtension(name string, runner executil.Runner) *ManagedPackage {
	return &ManagedPackage{
		id:          name,
		display:     "gh extension " + name,
		kind:        KindCLIExtension,
		runner:      runner,
		clock:       clock.WallClock,
		tool:        "gh",
		listArgs:    []string{"extension", "list"},
		installArgs: []string{"extension", "install", name},
		present: func(stdout string) bool {
			return anyLine(stdout, func(line string) bool {
				return strings.Contains(line, name)
			})
		},
	}
}

// WithClock substitutes the retry clock.
func (m *ManagedPackage) WithClock(c clock.Clock) *ManagedPackage {
	m.clock = c
	return m
}

// ID returns the package identifier.
func (m *ManagedPackage) ID() string { return m.id }

// Kind tags the variant.
func (m *ManagedPackage) Kind() Kind { return m.kind }

// Description renders a one-line summary.
func (m *ManagedPackage) Description() string { return m.display }

// DesiredState is presence.
func (m *ManagedPackage) DesiredState() State { return Present("") }

// PrivilegeHint defers to the classifier.
func (m *ManagedPackage) PrivilegeHint() PrivilegeHint { return NoPrivilege }

// ParallelSafe: each tool writes its own store.
func (m *ManagedPackage) ParallelSafe() bool { return true }

// CurrentState lists installed packages and scans for the identifier.
func (m *ManagedPackage) CurrentState(ctx context.Context) (State, error) {
	out, err := m.runner.Run(ctx, m.tool, m.listArgs...)
	if err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(m.kind), err)
	}
	if !out.Success {
		return Unknown(), errors.NewInspectionFailedError(string(m.kind),
			errors.NewCommandFailedError(
				executil.CommandLine(m.tool, m.listArgs...), out.Stderr))
	}
	if m.present(out.Stdout) {
		return Present(""), nil
	}
	return Absent(), nil
}

// Apply installs the package if absent, retrying transient network
// failures.
func (m *ManagedPackage) Apply(ctx context.Context, ac *ApplyContext) (Outcome, error) {
	current, err := m.CurrentState(ctx)
	if err != nil {
		return Failed(err), err
	}
	if current.Equal(m.DesiredState()) {
		return NoChange(), nil
	}
	if ac.DryRun {
		return Skipped("dry-run"), nil
	}

	err = retry.Call(retry.CallArgs{
		Func: func() error {
			return m.install(ctx, ac)
		},
		IsFatalError: func(err error) bool {
			return !errors.IsRetryable(err)
		},
		Attempts: installAttempts,
		Delay:    installDelay,
		Clock:    m.clock,
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

func (m *ManagedPackage) install(ctx context.Context, ac *ApplyContext) error {
	var out executil.Output
	var err error
	if ac.Privileged != nil {
		out, err = ac.Privileged.Run(ctx, m.tool, m.installArgs...)
	} else {
		out, err = m.runner.Run(ctx, m.tool, m.installArgs...)
	}
	if err != nil {
		return err
	}
	if !out.Success {
		return errors.FromInstallerStderr(
			executil.CommandLine(m.tool, m.installArgs...), out.Stderr, m.id)
	}
	return nil
}

func anyLine(stdout string, match func(string) bool) bool {
	for _, line := range strings.Split(stdout, "\n") {
		if match(line) {
			return true
		}
	}
	return false
}

var _ Resource = (*ManagedPackage)(nil)
