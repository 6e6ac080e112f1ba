package resource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/pkg/errors"
)

// DockItem converges one pinned dock entry, either an application tile
// or a folder tile. Additions go through dockutil with the restart
// suppressed; the engine restarts the Dock once after the batch.
type DockItem struct {
	path    string
	kind    Kind
	runner  executil.Runner
	options FolderOptions
}

// FolderOptions controls how a folder tile presents. Empty fields
// leave dockutil's defaults in place.
type FolderOptions struct {
	View    string
	Display string
	Sort    string
}

// NewDockApp builds a dock application tile resource.
func NewDockApp(path string, runner executil.Runner) *DockItem {
	return &DockItem{path: filepath.Clean(path), kind: KindDockApp, runner: runner}
}

// NewDockFolder builds a dock folder tile resource.
func NewDockFolder(path string, options FolderOptions, runner executil.Runner) *DockItem {
	return &DockItem{
		path:    filepath.Clean(path),
		kind:    KindDockFolder,
		runner:  runner,
		options: options,
	}
}

// ID is the pinned path.
func (d *DockItem) ID() string { return d.path }

// Kind tags the variant.
func (d *DockItem) Kind() Kind { return d.kind }

// Description renders a one-line summary.
func (d *DockItem) Description() string {
	if d.kind == KindDockFolder {
		return fmt.Sprintf("dock folder %s", d.path)
	}
	return fmt.Sprintf("dock app %s", d.path)
}

// DesiredState is presence in the dock.
func (d *DockItem) DesiredState() State { return Present("") }

// PrivilegeHint: the dock plist is per-user.
func (d *DockItem) PrivilegeHint() PrivilegeHint { return NoPrivilege }

// ParallelSafe: false, every tile write rewrites the one dock plist.
func (d *DockItem) ParallelSafe() bool { return false }

func (d *DockItem) plistKey() string {
	if d.kind == KindDockFolder {
		return "persistent-others"
	}
	return "persistent-apps"
}

// CurrentState scans the dock plist for the pinned path. Entries are
// stored as file URLs, so a substring match on the path is enough.
func (d *DockItem) CurrentState(ctx context.Context) (State, error) {
	out, err := d.runner.Run(ctx, "defaults", "read", "com.apple.dock", d.plistKey())
	if err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(d.kind), err)
	}
	if !out.Success {
		// An empty section reads as a missing key.
		return Absent(), nil
	}
	if strings.Contains(out.Stdout, d.path) {
		return Present(""), nil
	}
	return Absent(), nil
}

// Apply pins the path with dockutil, suppressing the per-item Dock
// restart.
func (d *DockItem) Apply(ctx context.Context, ac *ApplyContext) (Outcome, error) {
	current, err := d.CurrentState(ctx)
	if err != nil {
		return Failed(err), err
	}
	if current.Equal(d.DesiredState()) {
		return NoChange(), nil
	}
	if ac.DryRun {
		return Skipped("dry-run"), nil
	}

	args := []string{"--add", d.path}
	if d.options.View != "" {
		args = append(args, "--view", d.options.View)
	}
	if d.options.Display != "" {
		args = append(args, "--display", d.options.Display)
	}
	if d.options.Sort != "" {
		args = append(args, "--sort", d.options.Sort)
	}
	args = append(args, "--no-restart")
	out, err := d.runner.Run(ctx, "dockutil", args...)
	if err != nil {
		return Failed(err), err
	}
	if !out.Success {
		err = errors.NewCommandFailedError(
			executil.CommandLine("dockutil", args...), out.Stderr)
		return Failed(err), err
	}
	return Created(), nil
}

var _ Resource = (*DockItem)(nil)
