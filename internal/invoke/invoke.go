// Package invoke resolves and caches detekt invocations per target.
//
// Resolution happens once per target identity: the detekt config (and
// optionally a baseline) is located by upward search, an argument
// vector is built around a freshly allocated scratch report path, and
// the result is memoized so repeated triggers skip the filesystem.
package invoke

import (
	"fmt"
	"strings"
)

// Identity is the stable handle naming the file under analysis for one
// editing session. URI is the editor's document identifier; Path is
// the absolute filesystem path of the target.
type Identity struct {
	URI  string
	Path string
}

// Invocation is a fully resolved detekt command for one target.
// Immutable once created; owned by the Cache, keyed by Identity.
type Invocation struct {
	// Identity names the target this invocation analyzes.
	Identity Identity

	// TargetPath is the file passed to detekt via --includes.
	TargetPath string

	// ReportPath is the uniquely allocated scratch file detekt writes
	// its SARIF report to. Never shared between invocations.
	ReportPath string

	// Executable is the detekt executable name or path.
	Executable string

	// Args is the argument vector, not including the executable.
	Args []string
}

// String renders the invocation as a shell-style command line for logs.
func (inv Invocation) String() string {
	return fmt.Sprintf("%s %s", inv.Executable, strings.Join(inv.Args, " "))
}

// ConfigNotFoundError reports that no detekt config file was found in
// any ancestor of the target's directory. Fatal: no invocation is
// produced and nothing is cached.
type ConfigNotFoundError struct {
	// Names are the candidate file names that were searched.
	Names []string

	// StartDir is the directory the upward search started from.
	StartDir string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf(
		"no detekt config found: searched %s upward from %s",
		strings.Join(e.Names, ", "), e.StartDir,
	)
}

// Warning is a non-fatal resolution notice surfaced alongside a
// successful result.
type Warning string

// WarnBaselineNotFound is reported when baseline names are configured
// but no baseline file was found; the run proceeds without one.
const WarnBaselineNotFound Warning = "baseline not found"
