package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stationctl/stationctl/internal/executil"
)

func TestStoreAppCurrentState(t *testing.T) {
	t.Parallel()

	listing := "497799835  Xcode       (15.4)\n1502839586 Hand Mirror (2.3)\n"
	fake := executil.NewFake().
		Respond("mas", "list", executil.Output{Stdout: listing, Success: true})

	state, err := NewStoreApp("497799835", "Xcode", fake).CurrentState(context.Background())
	require.NoError(t, err)
	require.Equal(t, Present(""), state)

	state, err = NewStoreApp("409183694", "Keynote", fake).CurrentState(context.Background())
	require.NoError(t, err)
	require.Equal(t, Absent(), state)
}

func TestStoreAppApplyInstallsByIdentifier(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("mas", "list", executil.Output{Stdout: "", Success: true}).
		Respond("mas", "install", executil.Output{Success: true})

	outcome, err := NewStoreApp("409183694", "Keynote", fake).Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome.Kind)

	calls := fake.Calls()
	last := calls[len(calls)-1]
	require.Equal(t, []string{"install", "409183694"}, last.Args)
}

func TestNodeGlobalCurrentState(t *testing.T) {
	t.Parallel()

	listing := "dependencies:\ntypescript 5.5.4\nvercel 37.0.0\n"
	fake := executil.NewFake().
		Respond("pnpm", "list", executil.Output{Stdout: listing, Success: true})

	state, err := NewNodeGlobal("typescript", fake).CurrentState(context.Background())
	require.NoError(t, err)
	require.Equal(t, Present(""), state)

	state, err = NewNodeGlobal("eslint", fake).CurrentState(context.Background())
	require.NoError(t, err)
	require.Equal(t, Absent(), state)
}

func TestEditorExtensionMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("code", "--list-extensions", executil.Output{
			Stdout: "golang.Go\nvscodevim.vim\n", Success: true})

	state, err := NewEditorExtension("golang.go", fake).CurrentState(context.Background())
	require.NoError(t, err)
	require.Equal(t, Present(""), state)
}

func TestEditorExtensionApplyForcesInstall(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("code", "--list-extensions", executil.Output{Stdout: "", Success: true}).
		Respond("code", "--install-extension", executil.Output{Success: true})

	outcome, err := NewEditorExtension("golang.go", fake).Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome.Kind)

	calls := fake.Calls()
	last := calls[len(calls)-1]
	require.Equal(t, []string{"--install-extension", "golang.go", "--force"}, last.Args)
}

func TestCLIExtensionApplyInstalls(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("gh", "extension", executil.Output{Stdout: "", Success: true})

	outcome, err := NewCLIExtension("dlvhdr/gh-dash", fake).Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome.Kind)

	calls := fake.Calls()
	last := calls[len(calls)-1]
	require.Equal(t, []string{"extension", "install", "dlvhdr/gh-dash"}, last.Args)
}

func TestManagedListFailureIsInspectionError(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("mas", "list", executil.Output{Stderr: "not signed in", Success: false})

	app := NewStoreApp("497799835", "Xcode", fake)
	state, err := app.CurrentState(context.Background())
	require.Error(t, err)
	require.Equal(t, Unknown(), state)

	outcome, applyErr := app.Apply(context.Background(), &ApplyContext{})
	require.Error(t, applyErr)
	require.Equal(t, OutcomeFailed, outcome.Kind)
	require.Zero(t, countVerb(fake.Calls(), "mas", "install"))
}
