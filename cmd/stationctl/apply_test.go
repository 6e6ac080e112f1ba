package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargetsServices(t *testing.T) {
	t.Parallel()

	require.True(t, targetsServices("services"))
	require.True(t, targetsServices("service.Dock"))
	require.False(t, targetsServices(""))
	require.False(t, targetsServices("packages"))
	require.False(t, targetsServices("symlinks"))
}

func TestApplyDefaultsToFourJobs(t *testing.T) {
	t.Parallel()

	cmd := newApplyCmd(&rootFlags{})
	flag := cmd.Flags().Lookup("jobs")
	require.NotNil(t, flag)
	require.Equal(t, "4", flag.DefValue)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	require.Contains(t, out.String(), "stationctl")
}
