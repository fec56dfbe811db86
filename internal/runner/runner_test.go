package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/runner"
)

const outcomeWait = 10 * time.Second

func receive(t *testing.T, ch <-chan runner.Outcome) runner.Outcome {
	t.Helper()

	select {
	case outcome := <-ch:
		return outcome
	case <-time.After(outcomeWait):
		t.Fatal("no outcome delivered")

		return runner.Outcome{}
	}
}

func TestExecRunner_ZeroExit(t *testing.T) {
	t.Parallel()

	r := runner.NewExecRunner()
	inv := invoke.Invocation{Executable: "true"}

	outcome := receive(t, r.Start(context.Background(), inv))

	require.NoError(t, outcome.Err)
	assert.Equal(t, 0, outcome.ExitCode)
}

func TestExecRunner_NonzeroExitWithStderr(t *testing.T) {
	t.Parallel()

	r := runner.NewExecRunner()
	inv := invoke.Invocation{
		Executable: "sh",
		Args:       []string{"-c", "echo 'bad rule set' >&2; exit 3"},
	}

	outcome := receive(t, r.Start(context.Background(), inv))

	require.NoError(t, outcome.Err)
	assert.Equal(t, 3, outcome.ExitCode)
	assert.Equal(t, "bad rule set\n", outcome.Stderr)
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	t.Parallel()

	r := runner.NewExecRunner()
	inv := invoke.Invocation{Executable: "detekt-ls-no-such-binary"}

	outcome := receive(t, r.Start(context.Background(), inv))

	assert.Error(t, outcome.Err)
}

func TestExecRunner_ContextCancelKillsProcess(t *testing.T) {
	t.Parallel()

	r := runner.NewExecRunner()
	inv := invoke.Invocation{Executable: "sleep", Args: []string{"60"}}

	ctx, cancel := context.WithCancel(context.Background())
	ch := r.Start(ctx, inv)
	cancel()

	outcome := receive(t, ch)

	// Killed by signal: either a spawn error or a nonzero exit,
	// depending on timing, but exactly one outcome either way.
	if outcome.Err == nil {
		assert.NotEqual(t, 0, outcome.ExitCode)
	}
}

func TestSpy_RecordsInvocations(t *testing.T) {
	t.Parallel()

	spy := &runner.Spy{Outcome: runner.Outcome{ExitCode: 0}}
	inv := invoke.Invocation{Executable: "detekt", TargetPath: "/proj/Main.kt"}

	outcome := receive(t, spy.Start(context.Background(), inv))

	assert.Equal(t, 0, outcome.ExitCode)
	require.Len(t, spy.Started(), 1)
	assert.Equal(t, "/proj/Main.kt", spy.Started()[0].TargetPath)
}
