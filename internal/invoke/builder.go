package invoke

import (
	"fmt"
	"os"
)

// scratchPattern is the os.CreateTemp name pattern for SARIF scratch
// report files.
const scratchPattern = "detekt-ls-*.sarif"

// Builder composes resolved paths into detekt argument vectors.
type Builder struct {
	// Executable is the detekt executable name or path.
	Executable string

	// BuildUponDefaultConfig adds --build-upon-default-config.
	BuildUponDefaultConfig bool
}

// Build produces an Invocation for the target. A fresh scratch report
// path is allocated on every call, so no two invocations ever share
// one. baselinePath may be empty.
func (b Builder) Build(id Identity, configPath, baselinePath string) (Invocation, error) {
	scratch, err := os.CreateTemp("", scratchPattern)
	if err != nil {
		return Invocation{}, fmt.Errorf("allocate scratch report: %w", err)
	}

	reportPath := scratch.Name()

	closeErr := scratch.Close()
	if closeErr != nil {
		return Invocation{}, fmt.Errorf("close scratch report: %w", closeErr)
	}

	args := []string{
		"-r", "sarif:" + reportPath,
		"--includes", id.Path,
	}

	if b.BuildUponDefaultConfig {
		args = append(args, "--build-upon-default-config")
	}

	args = append(args, "--config", configPath)

	if baselinePath != "" {
		args = append(args, "--baseline", baselinePath)
	}

	return Invocation{
		Identity:   id,
		TargetPath: id.Path,
		ReportPath: reportPath,
		Executable: b.Executable,
		Args:       args,
	}, nil
}
