// Package orchestrator sequences intake, extraction, profiling,
// classification, routing, segmentation, reclassification, export, and QC
// for every PDF a run is given, checkpointing progress between stages so an
// interrupted run can resume without redoing finished work.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	pdfcpuapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/lexseg/lexseg/internal/capability"
	"github.com/lexseg/lexseg/internal/classifier"
	"github.com/lexseg/lexseg/internal/config"
	"github.com/lexseg/lexseg/internal/intake"
	"github.com/lexseg/lexseg/internal/markdown"
	"github.com/lexseg/lexseg/internal/metrics"
	"github.com/lexseg/lexseg/internal/pdfx"
	"github.com/lexseg/lexseg/internal/pipeerr"
	"github.com/lexseg/lexseg/internal/pipeline"
	"github.com/lexseg/lexseg/internal/profiler"
	"github.com/lexseg/lexseg/internal/progress"
	"github.com/lexseg/lexseg/internal/qc"
	"github.com/lexseg/lexseg/internal/reclassifier"
	"github.com/lexseg/lexseg/internal/router"
	"github.com/lexseg/lexseg/internal/segmenter"
)

// Version is stamped into every Checkpoint and Markdown frontmatter block.
const Version = "lexseg-1.0"

// Exit codes per the CLI contract: 0 success, 130 graceful interrupt with a
// saved checkpoint, 1 fatal.
const (
	ExitOK        = 0
	ExitInterrupt = 130
	ExitFatal     = 1
)

// Per-file checkpoint stage numbers. The spec's fractional 5.5/5.6 notation
// (segment, reclassify) is represented here as consecutive integers so
// Checkpoint.CompletedStages stays a plain []int; the ordering they encode
// is identical.
const (
	stageExtractFast   = 1
	stageProfile       = 2
	stageClassify      = 3
	stageRoute         = 4
	stageExtractHybrid = 5
	stageSegment       = 6
	stageReclassify    = 7
	stageExport        = 8
	stageQC            = 9
)

var stageNames = map[int]string{
	stageExtractFast:   "extract-fast",
	stageProfile:       "profile",
	stageClassify:      "classify",
	stageRoute:         "route",
	stageExtractHybrid: "extract-hybrid",
	stageSegment:       "segment",
	stageReclassify:    "reclassify",
	stageExport:        "export",
	stageQC:            "qc",
}

// Orchestrator sequences every stage for a run.
type Orchestrator struct {
	Config    *config.Config
	Caps      capability.Set
	Extractor *pdfx.Extractor
	Interrupt *InterruptFlag
	Progress  progress.ProgressCallback
}

// New builds an Orchestrator wired to cfg's thresholds and the probed
// capability set.
func New(cfg *config.Config, caps capability.Set, interrupt *InterruptFlag) *Orchestrator {
	th := cfg.Thresholds
	ex := pdfx.NewExtractor(caps, pdfx.Timeouts{
		TextExtractSec: th.TextExtractTimeoutSec,
		RasterizeSec:   th.RasterizeTimeoutSec,
		OCRSec:         th.OCRTimeoutSec,
		RotateSec:      th.RotateTimeoutSec,
	})
	return &Orchestrator{
		Config:    cfg,
		Caps:      caps,
		Extractor: ex,
		Interrupt: interrupt,
		Progress:  progress.NoOpProgressCallback{},
	}
}

// RunOptions describes one invocation of Run.
type RunOptions struct {
	Source     string
	OutputBase string
	// Resume, when true, reads the source from the checkpoint already present
	// under OutputBase; Source is used only when no valid checkpoint is found.
	Resume bool
}

// Run processes Source (a single PDF or a directory of PDFs), writing every
// per-PDF artifact under OutputBase, and returns the batch report plus the
// process exit code the CLI should use.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*pipeline.BatchReport, int, error) {
	source := opts.Source
	var resumeCP *pipeline.Checkpoint

	if opts.Resume {
		cp, err := LoadCheckpoint(opts.OutputBase)
		switch {
		case err == nil:
			resumeCP = &cp
			source = cp.Source
			slog.Info("resuming from checkpoint", "source", source, "current_stage", cp.CurrentStage)
		case os.IsNotExist(err):
			slog.Warn("no checkpoint found under output dir, starting a fresh run", "dir", opts.OutputBase)
		default:
			slog.Warn("checkpoint is corrupt, restarting from stage 1", "error", err)
		}
	}

	manifest, err := intake.Ingest(source, intake.Options{
		Recursive:    o.Config.Batch.RecursiveScan,
		DedupEnabled: o.Config.Batch.DedupEnabled,
	})
	if err != nil {
		return nil, ExitFatal, fmt.Errorf("orchestrator: intake: %w", err)
	}
	if err := writeManifest(opts.OutputBase, manifest); err != nil {
		return nil, ExitFatal, err
	}

	report := &pipeline.BatchReport{GeneratedAt: time.Now().UTC()}
	nested := len(manifest.Files) > 1
	o.Progress.OnStart(len(manifest.Files))
	metrics.BatchInProgress.Set(1)
	defer metrics.BatchInProgress.Set(0)

	for i, f := range manifest.Files {
		pdfDir := filepath.Join(opts.OutputBase, baseNameNoExt(f.Name))
		reportPath := filepath.Join(pdfDir, "pipeline-report.json")

		if existing, ok := tryLoadExistingReport(reportPath); ok {
			report.Reports = append(report.Reports, existing)
			report.Summary.Add(existing)
			o.Progress.OnProgress(i+1, len(manifest.Files))
			continue
		}

		if o.interrupted() {
			slog.Warn("interrupted before starting next file", "file", f.Name)
			_ = o.writeBatchReport(opts.OutputBase, report)
			return report, ExitInterrupt, nil
		}

		dirs, err := ensureSkeleton(pdfDir)
		if err != nil {
			return report, ExitFatal, err
		}
		markdownDir := dirs.markdown
		if nested {
			markdownDir = filepath.Join(dirs.markdown, baseNameNoExt(f.Name))
		}

		var cpForFile *pipeline.Checkpoint
		if resumeCP != nil {
			cpForFile = resumeCP
			resumeCP = nil
		}

		pr, exitCode, procErr := o.processOne(ctx, f, pdfDir, dirs, markdownDir, opts.OutputBase, cpForFile)
		if procErr != nil {
			slog.Error("processing failed", "file", f.Name, "error", procErr)
			pr.ReviewNeeded = true
			pr.ReviewReasons = append(pr.ReviewReasons, procErr.Error())
			o.Progress.OnError(i+1, procErr)
			if pipeerr.IsFatal(procErr) || !o.Config.Batch.ContinueOnError {
				metrics.PDFsProcessedTotal.WithLabelValues("fatal").Inc()
				report.Reports = append(report.Reports, pr)
				report.Summary.Add(pr)
				_ = o.writeBatchReport(opts.OutputBase, report)
				return report, ExitFatal, procErr
			}
		}

		if pr.ReviewNeeded {
			metrics.PDFsProcessedTotal.WithLabelValues("review_needed").Inc()
		} else {
			metrics.PDFsProcessedTotal.WithLabelValues("ok").Inc()
		}
		report.Reports = append(report.Reports, pr)
		report.Summary.Add(pr)
		o.Progress.OnProgress(i+1, len(manifest.Files))

		if exitCode == ExitInterrupt {
			_ = o.writeBatchReport(opts.OutputBase, report)
			return report, ExitInterrupt, nil
		}
	}

	o.Progress.OnComplete()
	if err := o.writeBatchReport(opts.OutputBase, report); err != nil {
		return report, ExitFatal, err
	}
	return report, ExitOK, nil
}

// processOne runs stages 1-9 for a single PDF, checkpointing after each one
// and skipping (by reloading from disk) any stage cpIn already marks done.
func (o *Orchestrator) processOne(
	ctx context.Context, f pipeline.SourceFile, pdfDir string, dirs skeleton, markdownDir, outputBase string,
	cpIn *pipeline.Checkpoint,
) (pipeline.PipelineReport, int, error) {
	cp := cpIn
	if cp == nil {
		cp = &pipeline.Checkpoint{
			PipelineVersion: Version,
			Source:          f.SourcePath,
			StartedAt:       time.Now().UTC(),
			StageResults:    map[string]pipeline.StageResult{},
		}
	}

	report := pipeline.PipelineReport{Source: f.SourcePath, IntakeRegistered: 1, SegmentTypeCounts: map[string]int{}}
	report.Limitations = append(report.Limitations, o.Caps.Limitations()...)
	if notes := probePDF(f.SourcePath); len(notes) > 0 {
		report.Limitations = append(report.Limitations, notes...)
		report.ReviewNeeded = true
		report.ReviewReasons = append(report.ReviewReasons, notes...)
	}

	th := o.Config.Thresholds

	pageCount, err := pdfx.PageCount(f.SourcePath)
	if err != nil {
		return report, ExitFatal, fmt.Errorf("orchestrator: page count %s: %w", f.SourcePath, err)
	}
	report.PageCount = pageCount

	// --- stage 1: fast-parse extraction ---
	fastPath := filepath.Join(dirs.extracted, "fast-parse.json")
	var fastPages []pipeline.Page
	if stageCompleted(*cp, stageExtractFast) {
		if err := loadJSON(fastPath, &fastPages); err != nil {
			return report, ExitFatal, fmt.Errorf("orchestrator: reloading fast-parse for %s: %w", f.Name, err)
		}
	} else {
		start := time.Now()
		fastPages, err = o.Extractor.FastParsePerPage(ctx, f.SourcePath, pageCount)
		if err != nil {
			return report, ExitFatal, fmt.Errorf("orchestrator: fast-parse %s: %w", f.Name, err)
		}
		fastPages = profiler.StripRepetitiveContent(fastPages, th)
		if err := o.completeStage(outputBase, cp, stageExtractFast, fastPath, fastPages, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
	}
	if o.interrupted() {
		return report, ExitInterrupt, nil
	}

	// --- stage 2: quality profile ---
	profilePath := filepath.Join(dirs.profiles, "profile.json")
	var doc pipeline.DocumentProfile
	if stageCompleted(*cp, stageProfile) {
		if err := loadJSON(profilePath, &doc); err != nil {
			return report, ExitFatal, err
		}
	} else {
		start := time.Now()
		pageProfiles := profiler.ProfilePages(fastPages, th)
		doc = profiler.AggregateDocument(pageProfiles, th)
		if err := o.completeStage(outputBase, cp, stageProfile, profilePath, doc, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
	}
	report.ProfileQualityTier = doc.QualityTier
	report.ProfileReadability = doc.ReadabilityMed
	if o.interrupted() {
		return report, ExitInterrupt, nil
	}

	// --- stage 3: document-level L1 classification ---
	classifyPath := filepath.Join(dirs.routes, "classification.json")
	var docClassification pipeline.Classification
	if stageCompleted(*cp, stageClassify) {
		if err := loadJSON(classifyPath, &docClassification); err != nil {
			return report, ExitFatal, err
		}
	} else {
		start := time.Now()
		docClassification = classifier.Classify(joinPageText(fastPages))
		if err := o.completeStage(outputBase, cp, stageClassify, classifyPath, docClassification, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
	}
	if o.interrupted() {
		return report, ExitInterrupt, nil
	}

	// --- stage 4: routing ---
	routePath := filepath.Join(dirs.routes, "route.json")
	pageRoutesPath := filepath.Join(dirs.routes, "page-routes.json")
	var routeDecision pipeline.RouteDecision
	var pageRoutes []pipeline.PageRoute
	if stageCompleted(*cp, stageRoute) {
		if err := loadJSON(routePath, &routeDecision); err != nil {
			return report, ExitFatal, err
		}
		if err := loadJSON(pageRoutesPath, &pageRoutes); err != nil {
			return report, ExitFatal, err
		}
	} else {
		start := time.Now()
		// No standalone orientation/skew detector exists ahead of
		// rasterization; deskew is instead retried reactively against the
		// OCR garbage score in OCRSinglePageWithRetry.
		routeDecision = router.RouteDocument(f.Name, doc, false, false)
		pageRoutes = router.RoutePages(doc, router.PageOCRStandardReadabilityFloor)
		if err := saveJSON(pageRoutesPath, pageRoutes); err != nil {
			return report, ExitFatal, err
		}
		if err := o.completeStage(outputBase, cp, stageRoute, routePath, routeDecision, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
	}
	report.RouteMethod = routeDecision.Method
	if o.interrupted() {
		return report, ExitInterrupt, nil
	}

	// --- stage 5: hybrid extraction (fills in OCR for routed pages) ---
	extractedPath := filepath.Join(dirs.extracted, "hybrid.json")
	var extracted pipeline.ExtractedDocument
	if stageCompleted(*cp, stageExtractHybrid) {
		if err := loadJSON(extractedPath, &extracted); err != nil {
			return report, ExitFatal, err
		}
	} else {
		start := time.Now()
		extracted = o.Extractor.ExtractHybrid(
			ctx, f.SourcePath, fastPages, pageRoutes,
			th.OCRDPIStandard, th.OCRDPIEnhanced,
			th.RotationGarbageGate, th.RotationEarlyExit,
			th.GarbagePenaltyThreshold, th.GarbagePenaltyConfidence,
			routeDecision.Preprocessing,
		)
		if err := o.completeStage(outputBase, cp, stageExtractHybrid, extractedPath, extracted, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
	}
	report.ExtractMethod = extracted.Method
	report.ExtractConfidence = extracted.OverallConfidence
	report.OCRPages = extracted.OCRPages
	for _, route := range pageRoutes {
		if !route.NeedsOCR {
			continue
		}
		metrics.OCRPagesTotal.WithLabelValues(string(route.Method)).Inc()
	}
	if extracted.OverallConfidence < th.ExtractionFallbackConfidence {
		report.ReviewNeeded = true
		report.ReviewReasons = append(report.ReviewReasons,
			fmt.Sprintf("extraction confidence %.2f below fallback floor %.2f", extracted.OverallConfidence, th.ExtractionFallbackConfidence))
	}
	if o.interrupted() {
		return report, ExitInterrupt, nil
	}

	// --- stage 6: segmentation ---
	segmentsPath := filepath.Join(dirs.segments, "segments.json")
	var segments []pipeline.Segment
	if stageCompleted(*cp, stageSegment) {
		if err := loadJSON(segmentsPath, &segments); err != nil {
			return report, ExitFatal, err
		}
	} else {
		start := time.Now()
		segments = segmenter.Segment(extracted.Pages, docClassification, th.ProfilerFallbackMinConfidence)
		if orphans := segmenter.CheckCoverage(segments, pageCount); len(orphans) > 0 {
			slog.Warn("page coverage violation", "file", f.Name, "orphans", orphans)
			report.ReviewNeeded = true
			report.ReviewReasons = append(report.ReviewReasons, fmt.Sprintf("uncovered pages: %v", orphans))
		}
		if err := o.completeStage(outputBase, cp, stageSegment, segmentsPath, segments, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
	}
	if o.interrupted() {
		return report, ExitInterrupt, nil
	}

	// --- stage 7: per-segment L1 rerun + L2 contextual reclassification ---
	if stageCompleted(*cp, stageReclassify) {
		if err := loadJSON(segmentsPath, &segments); err != nil {
			return report, ExitFatal, err
		}
	} else {
		start := time.Now()
		byPage := make(map[int]string, len(extracted.Pages))
		for _, p := range extracted.Pages {
			byPage[p.PageNumber] = p.Text
		}
		segmentText := func(seg pipeline.Segment) string {
			var b strings.Builder
			for i := seg.PageStart; i <= seg.PageEnd; i++ {
				b.WriteString(byPage[i])
				b.WriteString("\n")
			}
			return b.String()
		}
		segments = reclassifier.RerunL1(segments, segmentText, th.SegmentL1OverrideMinConfidence)
		segments = reclassifier.ApplyL2(segments, docClassification)
		if err := o.completeStage(outputBase, cp, stageReclassify, segmentsPath, segments, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
	}
	report.SegmentCount = len(segments)
	for _, s := range segments {
		if s.Type == pipeline.SegmentSeparator {
			continue
		}
		report.SegmentTypeCounts[string(s.Type)]++
	}
	if o.interrupted() {
		return report, ExitInterrupt, nil
	}

	// --- stage 8: markdown export ---
	indexPath := filepath.Join(markdownDir, "index.json")
	var idx markdown.Index
	if stageCompleted(*cp, stageExport) {
		if err := loadJSON(indexPath, &idx); err != nil {
			return report, ExitFatal, err
		}
	} else {
		start := time.Now()
		idx, err = markdown.Export(segments, markdown.ExportParams{
			SourcePDFName:     f.Name,
			SourcePDFPath:     f.SourcePath,
			OutDir:            markdownDir,
			Pages:             extracted.Pages,
			ExtractionMethod:  extracted.Method,
			ExtractConfidence: extracted.OverallConfidence,
			FallbackTriggered: extracted.FallbackTriggered,
			PipelineVersion:   Version,
			GeneratedAt:       time.Now().UTC(),
		})
		if err != nil {
			return report, ExitFatal, fmt.Errorf("orchestrator: export %s: %w", f.Name, err)
		}
		// Export already wrote index.json itself; the stage only needs its
		// completion recorded, not a second copy of the same file.
		if err := o.markStageDone(outputBase, cp, stageExport, indexPath, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
		for _, entry := range idx.Files {
			metrics.SegmentsExportedTotal.WithLabelValues(entry.DocType).Inc()
		}
	}
	report.ExportCount = idx.SegmentCount
	if o.interrupted() {
		return report, ExitInterrupt, nil
	}

	// --- stage 9: QC validation ---
	qcMarkerPath := filepath.Join(dirs.review, ".qc-report.json")
	var qcReport qc.Report
	if stageCompleted(*cp, stageQC) {
		if err := loadJSON(qcMarkerPath, &qcReport); err != nil {
			return report, ExitFatal, err
		}
	} else {
		start := time.Now()
		qcReport, err = qc.Validate(markdownDir, qc.Params{
			ExtractionConfidenceFlag:   th.QCExtractionConfidenceFlag,
			SegmentationConfidenceFlag: th.QCSegmentationConfidenceFlag,
			MinBodyChars:               th.QCMinBodyChars,
			ReviewDir:                  dirs.review,
		})
		if err != nil {
			return report, ExitFatal, fmt.Errorf("orchestrator: qc %s: %w", f.Name, err)
		}
		if err := o.completeStage(outputBase, cp, stageQC, qcMarkerPath, qcReport, time.Since(start)); err != nil {
			return report, ExitFatal, err
		}
		metrics.ObserveQCReport(qcReport.Passed, qcReport.Flagged, qcReport.Rejected)
	}
	report.QCPassed = qcReport.Passed
	report.QCFlagged = qcReport.Flagged
	report.QCRejected = qcReport.Rejected
	report.QCMislabelsCaught = qcReport.MislabelsCaught
	if qcReport.Rejected > 0 {
		report.ReviewNeeded = true
		report.ReviewReasons = append(report.ReviewReasons, fmt.Sprintf("%d segment(s) rejected by QC", qcReport.Rejected))
	}

	if err := saveJSON(filepath.Join(pdfDir, "pipeline-report.json"), report); err != nil {
		return report, ExitFatal, fmt.Errorf("orchestrator: writing pipeline-report.json for %s: %w", f.Name, err)
	}
	return report, ExitOK, nil
}

func (o *Orchestrator) interrupted() bool {
	return o.Interrupt != nil && o.Interrupt.Interrupted()
}

// completeStage persists data to outputPath, then records the stage as done
// in cp and writes the checkpoint.
func (o *Orchestrator) completeStage(
	outputBase string, cp *pipeline.Checkpoint, stage int, outputPath string, data interface{}, elapsed time.Duration,
) error {
	if err := saveJSON(outputPath, data); err != nil {
		return fmt.Errorf("orchestrator: writing stage output %s: %w", outputPath, err)
	}
	return o.markStageDone(outputBase, cp, stage, outputPath, elapsed)
}

func recordStageDuration(stage int, elapsed time.Duration) {
	metrics.StageDuration.WithLabelValues(stageNames[stage]).Observe(elapsed.Seconds())
}

// markStageDone records stage as completed without writing its output file,
// for stages (like markdown export) that persist their own artifacts.
func (o *Orchestrator) markStageDone(outputBase string, cp *pipeline.Checkpoint, stage int, outputPath string, elapsed time.Duration) error {
	name := stageNames[stage]
	recordStageDuration(stage, elapsed)
	cp.CurrentStage = stage
	cp.CompletedStages = append(cp.CompletedStages, stage)
	if cp.StageResults == nil {
		cp.StageResults = map[string]pipeline.StageResult{}
	}
	cp.StageResults[name] = pipeline.StageResult{
		Status:     pipeline.StageStatusOK,
		DurationMs: elapsed.Milliseconds(),
		OutputPath: outputPath,
	}
	if err := WriteCheckpoint(outputBase, *cp); err != nil {
		slog.Error("writing checkpoint", "error", err)
	}
	return nil
}

// probePDF runs pdfcpu's structural validation, which also rejects PDFs
// encrypted without a usable permission set. A failure here is recorded as
// a limitation and a review reason, never fatal: downstream stages still
// attempt best-effort extraction.
func probePDF(path string) []string {
	if err := pdfcpuapi.ValidateFile(path, nil); err != nil {
		return []string{fmt.Sprintf("pdfcpu validation failed (possibly encrypted or malformed): %v", err)}
	}
	return nil
}

func joinPageText(pages []pipeline.Page) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func baseNameNoExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// skeleton is the seven-directory layout created per PDF.
type skeleton struct {
	intake, profiles, routes, extracted, segments, markdown, review string
}

func ensureSkeleton(pdfDir string) (skeleton, error) {
	s := skeleton{
		intake:    filepath.Join(pdfDir, "intake"),
		profiles:  filepath.Join(pdfDir, "profiles"),
		routes:    filepath.Join(pdfDir, "routes"),
		extracted: filepath.Join(pdfDir, "extracted"),
		segments:  filepath.Join(pdfDir, "segments"),
		markdown:  filepath.Join(pdfDir, "markdown"),
		review:    filepath.Join(pdfDir, "review"),
	}
	for _, d := range []string{s.intake, s.profiles, s.routes, s.extracted, s.segments, s.markdown, s.review} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return s, fmt.Errorf("orchestrator: creating %s: %w", d, err)
		}
	}
	return s, nil
}

func writeManifest(outputBase string, m *pipeline.Manifest) error {
	dir := filepath.Join(outputBase, "intake")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("orchestrator: creating %s: %w", dir, err)
	}
	return saveJSON(filepath.Join(dir, intake.ManifestFileName(m.GeneratedAt)), m)
}

func (o *Orchestrator) writeBatchReport(outputBase string, report *pipeline.BatchReport) error {
	return saveJSON(filepath.Join(outputBase, "batch-report.json"), report)
}

func tryLoadExistingReport(path string) (pipeline.PipelineReport, bool) {
	var r pipeline.PipelineReport
	if err := loadJSON(path, &r); err != nil {
		return pipeline.PipelineReport{}, false
	}
	return r, true
}

func saveJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("orchestrator: marshaling %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("orchestrator: creating dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("orchestrator: writing %s: %w", path, err)
	}
	return nil
}

func loadJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path is built from our own output-directory layout
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
