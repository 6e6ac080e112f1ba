package errors

import "strings"

// FromInstallerStderr classifies the stderr of a failed package-manager
// invocation into the taxonomy using a fixed pattern table. cmd is the
// full command line for the CommandFailed fallback; name is the package
// the command operated on.
func FromInstallerStderr(cmd, stderr, name string) error {
	lower := strings.ToLower(stderr)

	switch {
	case containsAny(lower,
		"curl", "could not resolve", "connection refused", "timed out",
		"network", "ssl", "certificate", "failed to download", "sha256 mismatch"):
		return NewNetworkError(strings.TrimSpace(stderr))

	case containsAny(lower,
		"no available formula", "no formulae found", "no cask with this name",
		"unknown command", "no such keg", "couldn't find"):
		return NewNotFoundError(name)

	case containsAny(lower, "already installed", "is already an installed"):
		return NewAlreadyInstalledError(name)

	case containsAny(lower, "conflict", "depends on", "dependency", "is a dependency"):
		return NewConflictError(strings.TrimSpace(stderr))

	case containsAny(lower, "permission denied", "operation not permitted", "cannot write"):
		return NewPermissionError(strings.TrimSpace(stderr))

	default:
		return NewCommandFailedError(cmd, stderr)
	}
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
