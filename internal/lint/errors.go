package lint

import "fmt"

// invalidConfigExitCode is detekt's reserved exit code for an invalid
// configuration. Fatal for the run; stderr carries the reason.
const invalidConfigExitCode = 3

// InvalidConfigError reports that detekt rejected its configuration
// (exit code 3). The run produced no usable report; Stderr is the
// tool's verbatim error output.
//
// The cached invocation is deliberately NOT invalidated on this error:
// resolution is once-per-session, and an operator fixes the config and
// clears the cache out-of-band (or reopens the document) to retry.
type InvalidConfigError struct {
	Stderr string
}

func (e *InvalidConfigError) Error() string {
	return "detekt rejected its configuration: " + e.Stderr
}

// SpawnError reports that the detekt process could not be started at
// all (for example, the executable is not on PATH).
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
