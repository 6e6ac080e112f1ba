package privilege

import (
	"context"
	"os"
	"os/exec"
	"sync"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/pkg/errors"
)

// Context is a scoped sudo session. Acquire validates credentials once
// up front; Run prefixes commands with sudo while the session is held;
// Release drops the cached timestamp. Release is idempotent and must
// run on every exit path, including panics, so callers defer it
// immediately after a successful Acquire.
type Context struct {
	runner executil.Runner
	prompt func(ctx context.Context) error

	mu     sync.Mutex
	active bool
}

// NewContext builds an inactive privilege context. The sudo password
// prompt goes to the user's terminal; everything else runs through the
// supplied runner.
func NewContext(runner executil.Runner) *Context {
	return &Context{
		runner: runner,
		prompt: func(ctx context.Context) error {
			cmd := exec.CommandContext(ctx, "sudo", "-v")
			cmd.Stdin = os.Stdin
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			return cmd.Run()
		},
	}
}

// WithPrompt substitutes the interactive credential check. Tests use
// this to avoid touching sudo.
func (c *Context) WithPrompt(prompt func(ctx context.Context) error) *Context {
	c.prompt = prompt
	return c
}

// Acquire validates sudo credentials, prompting on the terminal if
// needed. A failed or declined prompt yields a privilege-denied error
// and leaves the context inactive.
func (c *Context) Acquire(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return nil
	}
	if err := c.prompt(ctx); err != nil {
		return errors.NewPrivilegeDeniedError()
	}
	c.active = true
	return nil
}

// Valid reports whether the cached credentials are still accepted
// without prompting.
func (c *Context) Valid(ctx context.Context) bool {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if !active {
		return false
	}

	out, err := c.runner.Run(ctx, "sudo", "-n", "true")
	return err == nil && out.Success
}

// Run executes the command under sudo. The session must be active.
func (c *Context) Run(ctx context.Context, name string, args ...string) (executil.Output, error) {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if !active {
		return executil.Output{}, errors.NewPrivilegeDeniedError()
	}

	full := append([]string{"-n", name}, args...)
	return c.runner.Run(ctx, "sudo", full...)
}

// Release drops the cached sudo timestamp. Safe to call whether or not
// Acquire ever succeeded; errors are deliberately discarded because
// release runs on already-failing paths.
func (c *Context) Release(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = c.runner.Run(ctx, "sudo", "-k")
	c.active = false
}

// Active reports whether Acquire has succeeded and Release has not yet
// run.
func (c *Context) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
