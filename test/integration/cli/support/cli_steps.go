package support

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

var fakePDFContent = []byte("%PDF-1.4\n% not a real PDF body, just enough bytes to have the right extension\n")

func (tc *TestContext) iHaveAnUnparsablePDFNamed(name string) error {
	_, err := tc.writeFixturePDF(name, fakePDFContent)
	return err
}

func (tc *TestContext) iRunLexsegWith(argLine string) error {
	return tc.runLexseg(strings.Fields(argLine))
}

func (tc *TestContext) theExitCodeShouldBe(code int) error {
	if tc.LastExitCode != code {
		return fmt.Errorf("expected exit code %d, got %d (output: %s)", code, tc.LastExitCode, tc.LastOutput)
	}
	return nil
}

func (tc *TestContext) theOutputShouldContain(substr string) error {
	if !strings.Contains(tc.LastOutput, substr) {
		return fmt.Errorf("expected output to contain %q, got: %s", substr, tc.LastOutput)
	}
	return nil
}

func (tc *TestContext) theDirectoryShouldExist(name string) error {
	path := strings.ReplaceAll(name, "<tmp>", tc.TempDir)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("expected directory %s to exist: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("expected %s to be a directory", path)
	}
	return nil
}

// RegisterSteps wires every step definition this suite uses into sc.
func (tc *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I have an unparsable PDF named "([^"]*)"$`, tc.iHaveAnUnparsablePDFNamed)
	sc.Step(`^I run lexseg with "([^"]*)"$`, tc.iRunLexsegWith)
	sc.Step(`^the exit code should be (\d+)$`, func(code string) error {
		n, err := strconv.Atoi(code)
		if err != nil {
			return err
		}
		return tc.theExitCodeShouldBe(n)
	})
	sc.Step(`^the output should contain "([^"]*)"$`, tc.theOutputShouldContain)
	sc.Step(`^the directory "([^"]*)" should exist$`, tc.theDirectoryShouldExist)
}
