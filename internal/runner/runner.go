// Package runner executes detekt invocations asynchronously.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
)

// Outcome is the result of one external process run. Transient;
// produced once per started invocation.
type Outcome struct {
	// ExitCode is the process exit code. Valid only when Err is nil.
	ExitCode int

	// Stderr is the captured standard error output.
	Stderr string

	// Err is set only for spawn-level failures (executable missing,
	// context cancelled before completion). Tool findings and tool
	// errors are conveyed through ExitCode, never through Err.
	Err error
}

// Runner starts invocations without blocking the caller.
//
// Exactly one Outcome is delivered on the returned channel per Start
// call. The runner never retries and applies no timeout of its own;
// cancellation comes only from the caller's context.
type Runner interface {
	Start(ctx context.Context, inv invoke.Invocation) <-chan Outcome
}

// ExecRunner runs invocations with os/exec.
type ExecRunner struct{}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start launches the invocation and returns a channel that receives
// the single Outcome when the process exits. The channel is buffered,
// so the outcome is delivered even if the caller is slow to receive.
func (r *ExecRunner) Start(ctx context.Context, inv invoke.Invocation) <-chan Outcome {
	out := make(chan Outcome, 1)

	go func() {
		cmd := exec.CommandContext(ctx, inv.Executable, inv.Args...)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		err := cmd.Run()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				out <- Outcome{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}

				return
			}

			out <- Outcome{Stderr: stderr.String(), Err: err}

			return
		}

		out <- Outcome{ExitCode: 0, Stderr: stderr.String()}
	}()

	return out
}
