package resource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stationctl/stationctl/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSymlinkCreatesLinkAndParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "dotfiles", "zshrc")
	target := filepath.Join(dir, "home", "nested", ".zshrc")
	writeFile(t, source, "export EDITOR=vim\n")

	link := NewSymlink(source, target, false)

	state, err := link.CurrentState(context.Background())
	require.NoError(t, err)
	require.Equal(t, Absent(), state)

	outcome, err := link.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome.Kind)

	dest, err := os.Readlink(target)
	require.NoError(t, err)
	require.Equal(t, source, dest)
}

func TestSymlinkApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "zshrc")
	target := filepath.Join(dir, ".zshrc")
	writeFile(t, source, "")

	link := NewSymlink(source, target, false)

	outcome, err := link.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome.Kind)

	outcome, err = link.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeNoChange, outcome.Kind)

	state, err := link.CurrentState(context.Background())
	require.NoError(t, err)
	require.True(t, state.Equal(link.DesiredState()))
}

func TestSymlinkRepairsWrongDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "right")
	other := filepath.Join(dir, "wrong")
	target := filepath.Join(dir, "link")
	writeFile(t, source, "")
	writeFile(t, other, "")
	require.NoError(t, os.Symlink(other, target))

	link := NewSymlink(source, target, false)

	state, err := link.CurrentState(context.Background())
	require.NoError(t, err)
	require.Equal(t, Modified(other, source), state)

	outcome, err := link.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeModified, outcome.Kind)

	dest, err := os.Readlink(target)
	require.NoError(t, err)
	require.Equal(t, source, dest)
}

func TestSymlinkSkipsExistingFileWithoutForce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "zshrc")
	target := filepath.Join(dir, ".zshrc")
	writeFile(t, source, "")
	writeFile(t, target, "precious local edits")

	link := NewSymlink(source, target, false)

	outcome, err := link.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome.Kind)
	require.Contains(t, outcome.Reason, "file exists at")

	// The occupant is untouched.
	content, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	require.Equal(t, "precious local edits", string(content))
}

func TestSymlinkMissingSourceIsFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "nonexistent")
	target := filepath.Join(dir, ".zshrc")

	link := NewSymlink(source, target, false)

	outcome, err := link.Apply(context.Background(), &ApplyContext{})
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, outcome.Kind)

	var notFound *errors.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// No dangling link was left behind.
	_, lerr := os.Lstat(target)
	require.True(t, os.IsNotExist(lerr))
}

func TestSymlinkAcceptsCorrectRelativeDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "zshrc")
	target := filepath.Join(dir, ".zshrc")
	writeFile(t, source, "")
	require.NoError(t, os.Symlink("zshrc", target))

	link := NewSymlink(source, target, false)

	state, err := link.CurrentState(context.Background())
	require.NoError(t, err)
	require.Equal(t, Present(source), state)

	outcome, err := link.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeNoChange, outcome.Kind)

	// The relative link is left as is.
	dest, err := os.Readlink(target)
	require.NoError(t, err)
	require.Equal(t, "zshrc", dest)
}

func TestSymlinkForceMovesOccupantAside(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "zshrc")
	target := filepath.Join(dir, ".zshrc")
	writeFile(t, source, "")
	writeFile(t, target, "old contents")

	link := NewSymlink(source, target, true)

	outcome, err := link.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeModified, outcome.Kind)

	dest, err := os.Readlink(target)
	require.NoError(t, err)
	require.Equal(t, source, dest)

	backup, err := os.ReadFile(target + ".bak")
	require.NoError(t, err)
	require.Equal(t, "old contents", string(backup))
}

func TestSymlinkDryRunDoesNotTouchFilesystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "zshrc")
	target := filepath.Join(dir, ".zshrc")
	writeFile(t, source, "")

	link := NewSymlink(source, target, false)

	outcome, err := link.Apply(context.Background(), &ApplyContext{DryRun: true})
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome.Kind)

	_, err = os.Lstat(target)
	require.True(t, os.IsNotExist(err))
}
