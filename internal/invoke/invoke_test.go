package invoke_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
)

func writeFile(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
}

func identity(path string) invoke.Identity {
	return invoke.Identity{URI: "file://" + path, Path: path}
}

func TestBuilder_ArgumentVector(t *testing.T) {
	t.Parallel()

	b := invoke.Builder{Executable: "detekt", BuildUponDefaultConfig: true}
	id := identity("/proj/src/Main.kt")

	inv, err := b.Build(id, "/proj/detekt.yaml", "/proj/baseline.xml")
	require.NoError(t, err)

	t.Cleanup(func() { _ = os.Remove(inv.ReportPath) })

	assert.Equal(t, "detekt", inv.Executable)
	assert.Equal(t, "/proj/src/Main.kt", inv.TargetPath)
	assert.NotEmpty(t, inv.ReportPath)
	assert.Equal(t, []string{
		"-r", "sarif:" + inv.ReportPath,
		"--includes", "/proj/src/Main.kt",
		"--build-upon-default-config",
		"--config", "/proj/detekt.yaml",
		"--baseline", "/proj/baseline.xml",
	}, inv.Args)
}

func TestBuilder_OptionalFlagsOmitted(t *testing.T) {
	t.Parallel()

	b := invoke.Builder{Executable: "detekt", BuildUponDefaultConfig: false}

	inv, err := b.Build(identity("/proj/src/Main.kt"), "/proj/detekt.yaml", "")
	require.NoError(t, err)

	t.Cleanup(func() { _ = os.Remove(inv.ReportPath) })

	assert.NotContains(t, inv.Args, "--build-upon-default-config")
	assert.NotContains(t, inv.Args, "--baseline")
}

func TestBuilder_ScratchPathUniquePerCall(t *testing.T) {
	t.Parallel()

	b := invoke.Builder{Executable: "detekt"}
	id := identity("/proj/src/Main.kt")

	first, err := b.Build(id, "/proj/detekt.yaml", "")
	require.NoError(t, err)

	second, err := b.Build(id, "/proj/detekt.yaml", "")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = os.Remove(first.ReportPath)
		_ = os.Remove(second.ReportPath)
	})

	assert.NotEqual(t, first.ReportPath, second.ReportPath)
}

func TestCache_ResolveOncePerIdentity(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "src", "Main.kt")
	writeFile(t, target)
	writeFile(t, filepath.Join(root, "detekt.yaml"))

	cache := invoke.NewCache(invoke.Builder{Executable: "detekt"}, []string{"detekt.yaml"}, nil)
	id := identity(target)

	first, warning, err := cache.Resolve(id, filepath.Dir(target))
	require.NoError(t, err)
	assert.Empty(t, warning)

	// Removing the config after the first resolution must not matter:
	// the cached entry is returned without filesystem access.
	require.NoError(t, os.Remove(filepath.Join(root, "detekt.yaml")))

	second, warning, err := cache.Resolve(id, filepath.Dir(target))
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, first, second)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCache_ConfigNotFoundIsFatalAndUncached(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	start := filepath.Join(root, "proj", "src")
	require.NoError(t, os.MkdirAll(start, 0o750))

	cache := invoke.NewCache(
		invoke.Builder{Executable: "detekt"},
		[]string{"detekt.yaml", "detekt.yml"},
		nil,
	)
	id := identity(filepath.Join(start, "Main.kt"))

	_, _, err := cache.Resolve(id, start)
	require.Error(t, err)

	var notFound *invoke.ConfigNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"detekt.yaml", "detekt.yml"}, notFound.Names)
	assert.Equal(t, start, notFound.StartDir)
	assert.Contains(t, err.Error(), "detekt.yaml")
	assert.Contains(t, err.Error(), "detekt.yml")
	assert.Contains(t, err.Error(), start)

	// A failed resolution is not cached: adding the config afterwards
	// lets the next trigger succeed.
	writeFile(t, filepath.Join(root, "proj", "detekt.yaml"))

	inv, _, err := cache.Resolve(id, start)
	require.NoError(t, err)
	assert.Contains(t, inv.Args, "--config")
}

func TestCache_BaselineAbsenceIsWarningOnFirstResolveOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "Main.kt")
	writeFile(t, target)
	writeFile(t, filepath.Join(root, "detekt.yaml"))

	cache := invoke.NewCache(
		invoke.Builder{Executable: "detekt"},
		[]string{"detekt.yaml"},
		[]string{"detekt-baseline.xml"},
	)
	id := identity(target)

	inv, warning, err := cache.Resolve(id, root)
	require.NoError(t, err)
	assert.Equal(t, invoke.WarnBaselineNotFound, warning)
	assert.NotContains(t, inv.Args, "--baseline")

	_, warning, err = cache.Resolve(id, root)
	require.NoError(t, err)
	assert.Empty(t, warning, "cached resolutions carry no warning")
}

func TestCache_BaselineFoundIsPassedThrough(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "src", "Main.kt")
	writeFile(t, target)
	writeFile(t, filepath.Join(root, "detekt.yaml"))
	writeFile(t, filepath.Join(root, "detekt-baseline.xml"))

	cache := invoke.NewCache(
		invoke.Builder{Executable: "detekt"},
		[]string{"detekt.yaml"},
		[]string{"detekt-baseline.xml"},
	)

	inv, warning, err := cache.Resolve(identity(target), filepath.Dir(target))
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Contains(t, inv.Args, "--baseline")
	assert.Contains(t, inv.Args, filepath.Join(root, "detekt-baseline.xml"))
}

func TestCache_InvalidateForcesFreshResolution(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "Main.kt")
	writeFile(t, target)
	writeFile(t, filepath.Join(root, "detekt.yaml"))

	cache := invoke.NewCache(invoke.Builder{Executable: "detekt"}, []string{"detekt.yaml"}, nil)
	id := identity(target)

	first, _, err := cache.Resolve(id, root)
	require.NoError(t, err)

	cache.Invalidate(id)

	second, _, err := cache.Resolve(id, root)
	require.NoError(t, err)

	// A fresh resolution allocates a fresh scratch path.
	assert.NotEqual(t, first.ReportPath, second.ReportPath)
}

func TestCache_ConcurrentFirstResolveSingleWriter(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "Main.kt")
	writeFile(t, target)
	writeFile(t, filepath.Join(root, "detekt.yaml"))

	cache := invoke.NewCache(invoke.Builder{Executable: "detekt"}, []string{"detekt.yaml"}, nil)
	id := identity(target)

	const goroutines = 16

	results := make([]invoke.Invocation, goroutines)

	var wg sync.WaitGroup

	for i := range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			inv, _, err := cache.Resolve(id, root)
			assert.NoError(t, err)

			results[i] = inv
		}()
	}

	wg.Wait()

	// Check-then-insert is atomic: every caller observed the same
	// invocation, meaning exactly one scratch path was allocated.
	for i := 1; i < goroutines; i++ {
		assert.Equal(t, results[0].ReportPath, results[i].ReportPath)
	}
}
