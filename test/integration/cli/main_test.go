package cli_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/lexseg/lexseg/test/integration/cli/support"
)

var (
	projectRoot string
	binPath     string
)

func InitializeScenario(sc *godog.ScenarioContext) {
	tc, err := support.NewTestContext(projectRoot, binPath)
	if err != nil {
		panic(fmt.Sprintf("failed to create test context: %v", err))
	}
	tc.RegisterSteps(sc)

	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if cleanupErr := tc.Cleanup(); cleanupErr != nil {
			fmt.Fprintf(os.Stderr, "warning: cleanup failed: %v\n", cleanupErr)
		}
		return ctx, nil
	})
}

// TestFeatures runs every .feature file under features/ against the
// lexseg binary built by TestMain.
func TestFeatures(t *testing.T) {
	entries, err := os.ReadDir("features")
	if err != nil {
		t.Fatalf("reading features directory: %v", err)
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}
	tags := os.Getenv("GODOG_TAGS")

	found := false
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".feature") {
			continue
		}
		found = true
		featurePath := filepath.Join("features", e.Name())

		t.Run(e.Name(), func(t *testing.T) {
			suite := godog.TestSuite{
				ScenarioInitializer: InitializeScenario,
				Options: &godog.Options{
					Format:   format,
					Tags:     tags,
					Paths:    []string{featurePath},
					TestingT: t,
				},
			}
			if suite.Run() != 0 {
				t.Fatalf("non-zero status returned for %s", featurePath)
			}
		})
	}

	if !found {
		t.Fatalf("no .feature files found in features/")
	}
}

// TestMain locates the module root, builds the lexseg binary into bin/ if
// it isn't already there, and runs the suite against it.
func TestMain(m *testing.M) {
	root, err := locateProjectRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate project root: %v\n", err)
		os.Exit(1)
	}
	projectRoot = root

	binDir := filepath.Join(root, "bin")
	binPath = filepath.Join(binDir, "lexseg")

	if _, statErr := os.Stat(binPath); os.IsNotExist(statErr) {
		if mkErr := os.MkdirAll(binDir, 0o750); mkErr != nil {
			fmt.Fprintf(os.Stderr, "failed to create bin dir: %v\n", mkErr)
			os.Exit(1)
		}
		build := exec.CommandContext(context.Background(), "go", "build", "-o", binPath, "./cmd/lexseg")
		build.Dir = root
		build.Env = os.Environ()
		if out, buildErr := build.CombinedOutput(); buildErr != nil {
			fmt.Fprintf(os.Stderr, "failed to build lexseg binary: %v\n%s\n", buildErr, string(out))
			os.Exit(1)
		}
	}

	os.Exit(m.Run())
}

func locateProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}
