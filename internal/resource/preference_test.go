package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stationctl/stationctl/internal/executil"
)

func TestPreferenceCurrentState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  PrefValue
		read   executil.Output
		want   State
	}{
		{
			name:  "missing key reads absent",
			value: BoolValue(true),
			read:  executil.Output{Stderr: "does not exist", Success: false},
			want:  Absent(),
		},
		{
			name:  "bool one reads true",
			value: BoolValue(true),
			read:  executil.Output{Stdout: "1", Success: true},
			want:  Present("true"),
		},
		{
			name:  "bool drift",
			value: BoolValue(true),
			read:  executil.Output{Stdout: "0", Success: true},
			want:  Modified("false", "true"),
		},
		{
			name:  "int converged",
			value: IntValue(48),
			read:  executil.Output{Stdout: "48", Success: true},
			want:  Present("48"),
		},
		{
			name:  "unparseable value reads absent",
			value: IntValue(48),
			read:  executil.Output{Stdout: "tiny", Success: true},
			want:  Absent(),
		},
		{
			name:  "float canonicalized",
			value: FloatValue(0.5),
			read:  executil.Output{Stdout: "0.500", Success: true},
			want:  Present("0.5"),
		},
		{
			name:  "string compared raw",
			value: StringValue("left"),
			read:  executil.Output{Stdout: "bottom", Success: true},
			want:  Modified("bottom", "left"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := executil.NewFake().Respond("defaults", "read", tt.read)
			pref := NewPreference("com.apple.dock", "tilesize", tt.value, fake)

			state, err := pref.CurrentState(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.want, state)
		})
	}
}

func TestPreferenceApplyWritesTypedValue(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("defaults", "read", executil.Output{Stdout: "64", Success: true}).
		Respond("defaults", "write", executil.Output{Success: true})

	pref := NewPreference("com.apple.dock", "tilesize", IntValue(48), fake)
	outcome, err := pref.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeModified, outcome.Kind)

	calls := fake.Calls()
	last := calls[len(calls)-1]
	require.Equal(t, "defaults", last.Name)
	require.Equal(t, []string{"write", "com.apple.dock", "tilesize", "-int", "48"}, last.Args)
}

func TestPreferenceApplyCreatesMissingKey(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("defaults", "read", executil.Output{Success: false}).
		Respond("defaults", "write", executil.Output{Success: true})

	pref := NewPreference("com.apple.finder", "ShowPathbar", BoolValue(true), fake)
	outcome, err := pref.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome.Kind)
}

func TestPreferenceApplyConvergedIsNoChange(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("defaults", "read", executil.Output{Stdout: "1", Success: true})

	pref := NewPreference("com.apple.finder", "ShowPathbar", BoolValue(true), fake)
	outcome, err := pref.Apply(context.Background(), &ApplyContext{})
	require.NoError(t, err)
	require.Equal(t, OutcomeNoChange, outcome.Kind)
	require.Zero(t, countVerb(fake.Calls(), "defaults", "write"))
}

func TestPreferenceDryRunOnlyReads(t *testing.T) {
	t.Parallel()

	fake := executil.NewFake().
		Respond("defaults", "read", executil.Output{Stdout: "0", Success: true})

	pref := NewPreference("com.apple.finder", "ShowPathbar", BoolValue(true), fake)
	outcome, err := pref.Apply(context.Background(), &ApplyContext{DryRun: true})
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome.Kind)
	require.Zero(t, countVerb(fake.Calls(), "defaults", "write"))
}
