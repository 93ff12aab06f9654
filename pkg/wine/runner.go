package wine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vintner/vintner/pkg/werrors"
)

// Command describes a subprocess to run.
type Command struct {
	// Name is the binary to execute.
	Name string

	// Args are the command arguments.
	Args []string

	// Dir is the working directory; empty means inherit.
	Dir string

	// Env is overlaid on the current process environment.
	Env map[string]string

	// UnsetEnv removes variables from the environment after the overlay.
	UnsetEnv []string

	// Stdout and Stderr, when set, receive the subprocess output instead
	// of the captured buffers.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a finished subprocess.
type Result struct {
	// ExitCode is the subprocess exit status.
	ExitCode int

	// Stdout and Stderr hold captured output when no writers were given.
	Stdout string
	Stderr string

	// Duration is the wall-clock runtime.
	Duration time.Duration
}

// Success reports whether the subprocess exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes subprocesses. The executor and the Wine probe both go
// through it so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec, waiting synchronously.
type ExecRunner struct{}

// Run executes the command and waits for it. A non-zero exit is not an
// error; failure to spawn or wait is.
func (ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	c.Env = buildEnv(cmd.Env, cmd.UnsetEnv)

	var stdout, stderr bytes.Buffer
	if cmd.Stdout != nil {
		c.Stdout = cmd.Stdout
	} else {
		c.Stdout = &stdout
	}
	if cmd.Stderr != nil {
		c.Stderr = cmd.Stderr
	} else {
		c.Stderr = &stderr
	}

	start := time.Now()
	err := c.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, werrors.CommandExecution(cmd.String(), err)
	}
	return result, nil
}

// buildEnv overlays env on the current environment and drops unset keys.
func buildEnv(env map[string]string, unset []string) []string {
	if len(env) == 0 && len(unset) == 0 {
		return nil
	}

	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			merged[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range env {
		merged[k] = v
	}
	for _, k := range unset {
		delete(merged, k)
	}

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}
