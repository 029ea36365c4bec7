package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexseg/lexseg/internal/capability"
	"github.com/lexseg/lexseg/internal/orchestrator"
	"github.com/lexseg/lexseg/internal/progress"
)

var runCmd = &cobra.Command{
	Use:   "run <source>",
	Short: "Run the pipeline over a single PDF or a directory of PDFs",
	Long: `Run ingests source (a PDF file or a directory scanned for PDFs),
carries each one through extraction, profiling, classification, routing,
segmentation, reclassification, Markdown export, and QC, writing every
artifact under --output.

A checkpoint is saved after each stage. If the run is interrupted, re-run
with "lexseg resume" pointed at the same --output directory instead of
starting over.

Examples:
  lexseg run case.pdf --output out/
  lexseg run cases/ --output out/ --continue-on-error=false`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runRunCommand,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("output", "o", "out", "directory to write pipeline artifacts under")
	runCmd.Flags().Bool("continue-on-error", true, "keep processing remaining PDFs after one fails fatally")
	runCmd.Flags().Bool("dedup", true, "skip duplicate PDFs found during intake")
	runCmd.Flags().Bool("recursive", true, "scan source recursively when it is a directory")
	runCmd.Flags().Bool("quiet", false, "suppress the console progress bar")
}

func runRunCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	output, _ := cmd.Flags().GetString("output")
	if cmd.Flags().Changed("continue-on-error") {
		cfg.Batch.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}
	if cmd.Flags().Changed("dedup") {
		cfg.Batch.DedupEnabled, _ = cmd.Flags().GetBool("dedup")
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Batch.RecursiveScan, _ = cmd.Flags().GetBool("recursive")
	}
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
	for _, limitation := range caps.Limitations() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", limitation)
	}

	interrupt, stop := orchestrator.NewInterruptFlag()
	defer stop()

	orch := orchestrator.New(cfg, caps, interrupt)
	if !quiet {
		orch.Progress = progress.NewConsoleProgressCallback(cmd.ErrOrStderr(), "lexseg: ")
	}

	report, exitCode, err := orch.Run(cmd.Context(), orchestrator.RunOptions{
		Source:     args[0],
		OutputBase: output,
	})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "processed %d document(s): %d passed, %d flagged, %d rejected, %d mislabels caught\n",
		len(report.Reports), report.Summary.Passed, report.Summary.Flagged, report.Summary.Rejected, report.Summary.MislabelsCaught)

	if exitCode != orchestrator.ExitOK {
		os.Exit(exitCode)
	}
	return nil
}
