package resource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stationctl/stationctl/pkg/errors"
)

// Symlink converges a symbolic link at Target pointing to Source. A
// link at the wrong destination is replaced; a regular file or
// directory in the way is moved aside when force is set and skipped
// otherwise. A missing source is fatal for the resource.
type Symlink struct {
	source string
	target string
	force  bool
}

// NewSymlink builds a symlink resource. Paths must already be expanded
// and absolute.
func NewSymlink(source, target string, force bool) *Symlink {
	return &Symlink{
		source: filepath.Clean(source),
		target: filepath.Clean(target),
		force:  force,
	}
}

// ID is the link path.
func (s *Symlink) ID() string { return s.target }

// Kind tags the variant.
func (s *Symlink) Kind() Kind { return KindSymlink }

// Description renders a one-line summary.
func (s *Symlink) Description() string {
	return fmt.Sprintf("symlink %s -> %s", s.target, s.source)
}

// DesiredState is a link pointing at the source.
func (s *Symlink) DesiredState() State { return Present(s.source) }

// PrivilegeHint: links live in the user's own tree.
func (s *Symlink) PrivilegeHint() PrivilegeHint { return NoPrivilege }

// ParallelSafe: every link is an independent path.
func (s *Symlink) ParallelSafe() bool { return true }

// CurrentState inspects the link path. A relative link destination is
// resolved against the link's directory before comparison, so a
// correct relative link reads as converged.
func (s *Symlink) CurrentState(_ context.Context) (State, error) {
	info, err := os.Lstat(s.target)
	if os.IsNotExist(err) {
		return Absent(), nil
	}
	if err != nil {
		if os.IsPermission(err) {
			return Unknown(), errors.NewInspectionFailedError(string(KindSymlink),
				errors.NewPermissionError(s.target))
		}
		return Unknown(), errors.NewInspectionFailedError(string(KindSymlink), err)
	}

	if info.Mode()&os.ModeSymlink == 0 {
		what := "regular file"
		if info.IsDir() {
			what = "directory"
		}
		return Modified(what, s.source), nil
	}

	dest, err := os.Readlink(s.target)
	if err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(KindSymlink), err)
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(s.target), dest)
	}
	dest = filepath.Clean(dest)
	if dest == s.source {
		return Present(s.source), nil
	}
	return Modified(dest, s.source), nil
}

// Apply creates or repairs the link. The source must exist; linking to
// nothing would leave a dangling link that reads as converged. An
// existing non-link occupant is renamed to <target>.bak when force is
// set and skipped otherwise.
func (s *Symlink) Apply(ctx context.Context, ac *ApplyContext) (Outcome, error) {
	current, err := s.CurrentState(ctx)
	if err != nil {
		return Failed(err), err
	}
	if current.Equal(s.DesiredState()) {
		return NoChange(), nil
	}
	if ac.DryRun {
		return Skipped("dry-run"), nil
	}

	if _, err := os.Stat(s.source); err != nil {
		if os.IsNotExist(err) {
			err = errors.NewNotFoundError("symlink source " + s.source)
		} else {
			err = s.mapFSError(err, s.source)
		}
		return Failed(err), err
	}

	if occupied, err := s.occupiedByNonLink(); err != nil {
		return Failed(err), err
	} else if occupied && !s.force {
		return Skipped(fmt.Sprintf("file exists at %s", s.target)), nil
	}

	if err := s.clearTarget(); err != nil {
		return Failed(err), err
	}

	if err := os.MkdirAll(filepath.Dir(s.target), 0o755); err != nil {
		err = s.mapFSError(err, filepath.Dir(s.target))
		return Failed(err), err
	}
	if err := os.Symlink(s.source, s.target); err != nil {
		err = s.mapFSError(err, s.target)
		return Failed(err), err
	}

	if current.IsAbsent() {
		return Created(), nil
	}
	return ModifiedOutcome(), nil
}

// occupiedByNonLink reports whether something other than a symlink
// sits at the link path.
func (s *Symlink) occupiedByNonLink() (bool, error) {
	info, err := os.Lstat(s.target)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, s.mapFSError(err, s.target)
	}
	return info.Mode()&os.ModeSymlink == 0, nil
}

// clearTarget removes whatever occupies the link path. Wrong links are
// simply deleted; anything else is preserved under a .bak suffix. The
// skip-without-force case is decided before this runs.
func (s *Symlink) clearTarget() error {
	info, err := os.Lstat(s.target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return s.mapFSError(err, s.target)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(s.target); err != nil {
			return s.mapFSError(err, s.target)
		}
		return nil
	}

	backup := s.target + ".bak"
	if err := os.Rename(s.target, backup); err != nil {
		return s.mapFSError(err, s.target)
	}
	return nil
}

func (s *Symlink) mapFSError(err error, path string) error {
	if os.IsPermission(err) {
		return errors.NewPermissionError(path)
	}
	return err
}

var _ Resource = (*Symlink)(nil)
