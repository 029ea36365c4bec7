package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexseg/lexseg/internal/capability"
	"github.com/lexseg/lexseg/internal/orchestrator"
	"github.com/lexseg/lexseg/internal/progress"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <output>",
	Short: "Resume an interrupted run from its saved checkpoint",
	Long: `Resume reads .checkpoint.json under output, re-derives the original
source's file list, skips every PDF that already has a pipeline-report.json,
and continues the one that was interrupted from its last completed stage.

Example:
  lexseg resume out/`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runResumeCommand,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().Bool("quiet", false, "suppress the console progress bar")
}

func runResumeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	output := args[0]
	quiet, _ := cmd.Flags().GetBool("quiet")

	caps := capability.Probe(capability.Set{
		PdftotextPath: cfg.Capability.PdftotextPath,
		PdftoppmPath:  cfg.Capability.PdftoppmPath,
		TesseractPath: cfg.Capability.TesseractPath,
		SipsPath:      cfg.Capability.SipsPath,
		ConvertPath:   cfg.Capability.ConvertPath,
		OCRLanguage:   cfg.Capability.OCRLanguage,
		PageSegMode:   cfg.Capability.OCRPageSegMode,
	})

	interrupt, stop := orchestrator.NewInterruptFlag()
	defer stop()

	orch := orchestrator.New(cfg, caps, interrupt)
	if !quiet {
		orch.Progress = progress.NewConsoleProgressCallback(cmd.ErrOrStderr(), "lexseg: ")
	}

	report, exitCode, err := orch.Run(cmd.Context(), orchestrator.RunOptions{
		OutputBase: output,
		Resume:     true,
	})
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "processed %d document(s): %d passed, %d flagged, %d rejected, %d mislabels caught\n",
		len(report.Reports), report.Summary.Passed, report.Summary.Flagged, report.Summary.Rejected, report.Summary.MislabelsCaught)

	if exitCode != orchestrator.ExitOK {
		os.Exit(exitCode)
	}
	return nil
}
