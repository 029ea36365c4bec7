// Package support holds the state and step definitions shared by the
// lexseg CLI's godog scenarios.
package support

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state for one scenario: the last command run, its
// output and exit code, and the temp directories it touched.
type TestContext struct {
	ProjectRoot string
	BinPath     string
	TempDir     string

	LastArgs     []string
	LastOutput   string
	LastExitCode int
	LastDuration time.Duration
}

// NewTestContext locates the project root and binary, and creates a fresh
// scratch directory for the scenario about to run.
func NewTestContext(projectRoot, binPath string) (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "lexseg-cli-test-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return &TestContext{
		ProjectRoot: projectRoot,
		BinPath:     binPath,
		TempDir:     tempDir,
	}, nil
}

// Cleanup removes the scenario's scratch directory and everything under it.
func (tc *TestContext) Cleanup() error {
	if err := os.RemoveAll(tc.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cleanup: %w", err)
	}
	return nil
}

// runLexseg executes the built binary with args relative to the scratch
// directory, resolving any "<tmp>/" prefix to the scenario's scratch dir.
func (tc *TestContext) runLexseg(args []string) error {
	resolved := make([]string, len(args))
	for i, a := range args {
		resolved[i] = strings.ReplaceAll(a, "<tmp>", tc.TempDir)
	}
	tc.LastArgs = resolved

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, tc.BinPath, resolved...) //nolint:gosec // G204: fixed binary, scenario-controlled args
	cmd.Dir = tc.TempDir
	output, err := cmd.CombinedOutput()
	tc.LastDuration = time.Since(start)
	tc.LastOutput = string(output)

	if err == nil {
		tc.LastExitCode = 0
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		tc.LastExitCode = exitErr.ExitCode()
		return nil
	}
	return fmt.Errorf("running lexseg: %w", err)
}

// writeFixturePDF writes name under the scratch directory with the given
// bytes, tracked for cleanup, and returns its absolute path.
func (tc *TestContext) writeFixturePDF(name string, content []byte) (string, error) {
	path := filepath.Join(tc.TempDir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("writing fixture %s: %w", name, err)
	}
	return path, nil
}
