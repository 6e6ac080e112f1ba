// Package errors defines the typed error taxonomy shared by the
// resource variants and the configuration layer.
//
// Each error carries contextual fields rather than prose. Two
// classification attributes matter to callers: retryable (network
// failures only) and ignorable (already-installed only). Resource
// variants consult them; the engine never does.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// NetworkError indicates a transient connectivity failure from an
// external tool. The only retryable error in the taxonomy.
type NetworkError struct {
	Message string
}

// NewNetworkError constructs a NetworkError.
func NewNetworkError(message string) error {
	return &NetworkError{Message: message}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.Message)
}

// NotFoundError indicates a package or resource that the external tool
// does not know about.
type NotFoundError struct {
	Name string
}

// NewNotFoundError constructs a NotFoundError.
func NewNotFoundError(name string) error {
	return &NotFoundError{Name: name}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Name)
}

// ConflictError indicates a dependency or version conflict reported by
// an external tool.
type ConflictError struct {
	Message string
}

// NewConflictError constructs a ConflictError.
func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

// PermissionError indicates a permission-denied failure on a path or
// operation.
type PermissionError struct {
	Path string
}

// NewPermissionError constructs a PermissionError.
func NewPermissionError(path string) error {
	return &PermissionError{Path: path}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Path)
}

// AlreadyInstalledError indicates the operation was already done. The
// only ignorable error in the taxonomy.
type AlreadyInstalledError struct {
	Name string
}

// NewAlreadyInstalledError constructs an AlreadyInstalledError.
func NewAlreadyInstalledError(name string) error {
	return &AlreadyInstalledError{Name: name}
}

func (e *AlreadyInstalledError) Error() string {
	return fmt.Sprintf("already installed: %s", e.Name)
}

// ToolMissingError indicates a required external binary is not on PATH.
type ToolMissingError struct {
	Tool string
}

// NewToolMissingError constructs a ToolMissingError.
func NewToolMissingError(tool string) error {
	return &ToolMissingError{Tool: tool}
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("required tool not found: %s", e.Tool)
}

// InspectionFailedError wraps a failure to read the current state of a
// resource.
type InspectionFailedError struct {
	Kind  string
	Cause error
}

// NewInspectionFailedError constructs an InspectionFailedError.
func NewInspectionFailedError(kind string, cause error) error {
	return &InspectionFailedError{Kind: kind, Cause: cause}
}

func (e *InspectionFailedError) Error() string {
	return fmt.Sprintf("inspection failed for %s: %v", e.Kind, e.Cause)
}

// Unwrap exposes the underlying error.
func (e *InspectionFailedError) Unwrap() error {
	return e.Cause
}

// InvalidConfigError captures a fatal configuration problem.
type InvalidConfigError struct {
	Where string
	Why   string
}

// NewInvalidConfigError constructs an InvalidConfigError.
func NewInvalidConfigError(where, why string) error {
	return &InvalidConfigError{Where: where, Why: why}
}

func (e *InvalidConfigError) Error() string {
	if e.Where != "" {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Where, e.Why)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Why)
}

// PrivilegeDeniedError indicates the user declined or failed privilege
// validation.
type PrivilegeDeniedError struct{}

// NewPrivilegeDeniedError constructs a PrivilegeDeniedError.
func NewPrivilegeDeniedError() error {
	return &PrivilegeDeniedError{}
}

func (e *PrivilegeDeniedError) Error() string {
	return "privilege acquisition refused"
}

// CommandFailedError carries the failing command and the tail of its
// stderr for diagnostics.
type CommandFailedError struct {
	Cmd        string
	StderrTail string
}

// NewCommandFailedError constructs a CommandFailedError, keeping only
// the last few lines of stderr.
func NewCommandFailedError(cmd, stderr string) error {
	return &CommandFailedError{Cmd: cmd, StderrTail: stderrTail(stderr)}
}

func (e *CommandFailedError) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("command failed: %s", e.Cmd)
	}
	return fmt.Sprintf("command failed: %s: %s", e.Cmd, e.StderrTail)
}

// UnsupportedError indicates the environment cannot perform the
// requested operation at all.
type UnsupportedError struct {
	Feature string
}

// NewUnsupportedError constructs an UnsupportedError.
func NewUnsupportedError(feature string) error {
	return &UnsupportedError{Feature: feature}
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported: %s", e.Feature)
}

// IsRetryable reports whether the error is transient and worth
// retrying. Only network errors qualify.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return stderrors.As(err, &netErr)
}

// IsIgnorable reports whether the error means the operation was
// already complete. Only already-installed errors qualify.
func IsIgnorable(err error) bool {
	var aiErr *AlreadyInstalledError
	return stderrors.As(err, &aiErr)
}

const stderrTailLines = 5

func stderrTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > stderrTailLines {
		lines = lines[len(lines)-stderrTailLines:]
	}
	return strings.Join(lines, "\n")
}
