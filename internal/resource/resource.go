// Package resource defines the uniform contract for anything on the
// machine whose state can be inspected and converged, plus the concrete
// variants (packages, preferences, symlinks, services, handlers, dock
// entries, extensions).
package resource

import (
	"context"

	"github.com/stationctl/stationctl/internal/executil"
)

// Kind identifies a resource variant. The values are stable and
// user-visible (they appear in diffs and target filters).
type Kind string

const (
	KindFormula         Kind = "formula"
	KindCask            Kind = "cask"
	KindTap             Kind = "tap"
	KindStoreApp        Kind = "store-app"
	KindEditorExtension Kind = "editor-extension"
	KindCLIExtension    Kind = "cli-extension"
	KindNodeGlobal      Kind = "node-global"
	KindPreference      Kind = "preference"
	KindSymlink         Kind = "symlink"
	KindService         Kind = "service"
	KindFileHandler     Kind = "file-handler"
	KindDockApp         Kind = "dock-app"
	KindDockFolder      Kind = "dock-folder"
)

// IsPackage reports whether the kind is one of the package-manager
// backed variants. The privilege classifier treats these as a group.
func (k Kind) IsPackage() bool {
	switch k {
	case KindFormula, KindCask, KindTap, KindStoreApp,
		KindEditorExtension, KindCLIExtension, KindNodeGlobal:
		return true
	}
	return false
}

// PrivilegeHint is a resource's own static claim about elevation.
// Most privilege decisions are made externally by the classifier; the
// hint exists for resources that know they always need it.
type PrivilegeHint struct {
	Required bool
	Reason   string
}

// NoPrivilege is the hint returned by almost every resource.
var NoPrivilege = PrivilegeHint{}

// RequirePrivilege builds a hint with a user-visible reason.
func RequirePrivilege(reason string) PrivilegeHint {
	return PrivilegeHint{Required: true, Reason: reason}
}

// PrivilegedRunner executes a command with elevated rights. It is
// implemented by privilege.Context and threaded into ApplyContext only
// while the privileged batch runs. The signature mirrors
// executil.Runner so resources can route a command through either path
// and classify the output the same way.
type PrivilegedRunner interface {
	Run(ctx context.Context, name string, args ...string) (executil.Output, error)
}

// ApplyContext carries the per-invocation execution settings into
// Apply. Privileged is nil for the unprivileged batch.
type ApplyContext struct {
	DryRun     bool
	Verbose    bool
	Privileged PrivilegedRunner
}

// Resource is the uniform contract for a convergeable entity.
//
// CurrentState must be side-effect free with respect to the resource's
// own state; it may invoke read-only external commands. Apply must be
// idempotent, must re-read state rather than cache across calls, and
// must return Skipped without mutating anything when ctx.DryRun is set.
type Resource interface {
	// ID is a stable identifier, unique within the resource's kind.
	ID() string

	// Kind tags the variant.
	Kind() Kind

	// Description is a human-readable one-line summary.
	Description() string

	// DesiredState is computed from configuration and never touches
	// the live system.
	DesiredState() State

	// CurrentState inspects the live system.
	CurrentState(ctx context.Context) (State, error)

	// Apply converges current state to desired state.
	Apply(ctx context.Context, ac *ApplyContext) (Outcome, error)

	// PrivilegeHint is the resource's own static elevation claim.
	PrivilegeHint() PrivilegeHint

	// ParallelSafe reports whether the resource may be applied
	// concurrently with others. False only for resources that mutate
	// a serialized OS registry (dock list, handler map).
	ParallelSafe() bool
}

// NeedsApply reports whether the resource's current state differs from
// its desired state.
func NeedsApply(ctx context.Context, r Resource) (bool, error) {
	current, err := r.CurrentState(ctx)
	if err != nil {
		return false, err
	}
	return !current.Equal(r.DesiredState()), nil
}
