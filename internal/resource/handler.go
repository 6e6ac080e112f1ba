package resource

import (
	"context"
	"fmt"
	"strings"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/pkg/errors"
)

// FileHandler converges the default application for a file extension
// through duti. The fingerprint is the handler's bundle identifier.
type FileHandler struct {
	extension string
	bundleID  string
	runner    executil.Runner
}

// NewFileHandler builds a file handler resource. extension is bare
// ("pdf"), bundleID is the app's identifier ("com.apple.Preview").
func NewFileHandler(extension, bundleID string, runner executil.Runner) *FileHandler {
	return &FileHandler{
		extension: strings.TrimPrefix(strings.ToLower(extension), "."),
		bundleID:  bundleID,
		runner:    runner,
	}
}

// ID is the extension.
func (h *FileHandler) ID() string { return h.extension }

// Kind tags the variant.
func (h *FileHandler) Kind() Kind { return KindFileHandler }

// Description renders a one-line summary.
func (h *FileHandler) Description() string {
	return fmt.Sprintf(".%s opens with %s", h.extension, h.bundleID)
}

// DesiredState is the desired bundle identifier.
func (h *FileHandler) DesiredState() State { return Present(h.bundleID) }

// PrivilegeHint: launch services bindings are per-user.
func (h *FileHandler) PrivilegeHint() PrivilegeHint { return NoPrivilege }

// ParallelSafe: false, every handler write goes through the single
// launch services registry.
func (h *FileHandler) ParallelSafe() bool { return false }

// CurrentState asks duti for the extension's current handler. duti -x
// prints the app name, bundle path, and bundle identifier on three
// lines; a missing binding exits non-zero.
func (h *FileHandler) CurrentState(ctx context.Context) (State, error) {
	out, err := h.runner.Run(ctx, "duti", "-x", h.extension)
	if err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(KindFileHandler), err)
	}
	if !out.Success {
		return Absent(), nil
	}

	lines := strings.Split(out.Stdout, "\n")
	if len(lines) < 3 {
		return Absent(), nil
	}
	current := strings.TrimSpace(lines[2])
	if strings.EqualFold(current, h.bundleID) {
		return Present(h.bundleID), nil
	}
	return Modified(current, h.bundleID), nil
}

// Apply binds the extension to the bundle for all roles.
func (h *FileHandler) Apply(ctx context.Context, ac *ApplyContext) (Outcome, error) {
	current, err := h.CurrentState(ctx)
	if err != nil {
		return Failed(err), err
	}
	if current.Equal(h.DesiredState()) {
		return NoChange(), nil
	}
	if ac.DryRun {
		return Skipped("dry-run"), nil
	}

	args := []string{"-s", h.bundleID, h.extension, "all"}
	out, err := h.runner.Run(ctx, "duti", args...)
	if err != nil {
		return Failed(err), err
	}
	if !out.Success {
		err = errors.NewCommandFailedError(
			executil.CommandLine("duti", args...), out.Stderr)
		return Failed(err), err
	}

	if current.IsAbsent() {
		return Created(), nil
	}
	return ModifiedOutcome(), nil
}

var _ Resource = (*FileHandler)(nil)
