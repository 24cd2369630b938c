// Package orchestrator drives the full archive-processing loop: extract
// once, scan once, then for every watermark in the batch inject it into
// every eligible file and repack (spec.md §6).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blindmarkctl/blindmark/internal/archivefmt"
	"github.com/blindmarkctl/blindmark/internal/blinderr"
	"github.com/blindmarkctl/blindmark/internal/batch"
	"github.com/blindmarkctl/blindmark/internal/jsonmark"
	"github.com/blindmarkctl/blindmark/internal/progress"
	"github.com/blindmarkctl/blindmark/internal/scan"
	"github.com/blindmarkctl/blindmark/internal/workspace"
)

// Options configures one archive run. Watermarks holds one or more
// strings — more than one means a batch run, each watermark producing
// its own output subfolder, unless PerFileWatermarks selects the
// spreadsheet-driven mapped mode instead.
type Options struct {
	ArchivePath string
	OutputDir   string // base output directory; defaults to the archive's own directory
	Watermarks  []string

	// PerFileWatermarks selects the spreadsheet-driven mapped mode: file i
	// of each processed category (images, json, vaj, vmi) is watermarked
	// with Watermarks[min(i, len(Watermarks)-1)], and the whole archive is
	// repacked once into a single output archive, rather than producing
	// one full output archive per watermark string.
	PerFileWatermarks bool

	ProcessImages bool
	ProcessJSON   bool
	ProcessVAJ    bool
	ProcessVMI    bool

	Obfuscate     bool
	WatermarkMode jsonmark.Mode
	WatermarkKey  string // used when Obfuscate is false; defaults to "_watermark"
	AESKey        string

	Strength    float64
	FastMode    bool
	WorkerCount int
	TempDir     string
	ZipLevel    int

	Hub *progress.Hub // may be nil
}

// Result is returned once every watermark in the batch has been applied.
type Result struct {
	// OutputPath is the single produced archive's path when there was
	// exactly one watermark or PerFileWatermarks was set, and the base
	// output directory for a multi-watermark run otherwise.
	OutputPath string
	Scan       scan.Summary
}

// ProcessArchive runs the full extract → scan → (inject × N) → repack
// loop described by spec.md §6.
func ProcessArchive(ctx context.Context, opts Options) (Result, error) {
	if len(opts.Watermarks) == 0 {
		return Result{}, blinderr.New(blinderr.InvalidConfig, "at least one watermark is required")
	}

	archiveName := strings.TrimSuffix(filepath.Base(opts.ArchivePath), filepath.Ext(opts.ArchivePath))
	archiveFilename := filepath.Base(opts.ArchivePath)
	isBatch := len(opts.Watermarks) > 1 && !opts.PerFileWatermarks

	baseOutputDir := opts.OutputDir
	if baseOutputDir == "" {
		baseOutputDir = filepath.Dir(opts.ArchivePath)
	}

	dispatcher := archivefmt.NewDispatcher(zipLevelOrDefault(opts.ZipLevel))

	hub := opts.Hub
	emitStatus := func(status, message string) {
		if hub != nil {
			hub.EmitStatus(status, message)
		}
	}

	emitStatus("initializing", "creating workspace")
	ws, err := workspace.New(opts.TempDir, archiveName)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if extracted, err := ws.ExtractedSize(); err == nil {
			if processed, err := ws.ProcessedSize(); err == nil {
				slog.Debug("workspace size before cleanup",
					slog.Int64("extracted_bytes", extracted),
					slog.Int64("processed_bytes", processed))
			}
		}
		ws.Close()
	}()

	emitStatus("extracting", "extracting "+archiveName)
	if err := dispatcher.Extract(opts.ArchivePath, ws.ExtractedPath()); err != nil {
		return Result{}, err
	}

	emitStatus("scanning", "scanning archive contents")
	inventory, err := scan.Scan(ws.ExtractedPath())
	if err != nil {
		return Result{}, err
	}

	images := inventory.Images
	if !opts.ProcessImages {
		images = nil
	}
	jsonFiles := inventory.JSON
	if !opts.ProcessJSON {
		jsonFiles = nil
	}
	vajFiles := inventory.VAJ
	if !opts.ProcessVAJ {
		vajFiles = nil
	}
	vmiFiles := inventory.VMI
	if !opts.ProcessVMI {
		vmiFiles = nil
	}

	summary := inventory.Summary()
	if hub != nil {
		hub.EmitScanSummary(summary)
	}

	watermarkKey := opts.WatermarkKey
	if strings.TrimSpace(watermarkKey) == "" {
		watermarkKey = jsonmark.DefaultKey
	}

	if opts.PerFileWatermarks {
		outputPath, err := processArchiveMapped(ctx, opts, ws, processArchiveContext{
			dispatcher:      dispatcher,
			images:          images,
			jsonFiles:       jsonFiles,
			vajFiles:        vajFiles,
			vmiFiles:        vmiFiles,
			watermarkKey:    watermarkKey,
			baseOutputDir:   baseOutputDir,
			archiveFilename: archiveFilename,
			hub:             hub,
			emitStatus:      emitStatus,
		})
		if err != nil {
			return Result{}, err
		}
		if hub != nil {
			hub.EmitComplete(outputPath)
		}
		return Result{OutputPath: outputPath, Scan: summary}, nil
	}

	var finalOutput string
	for idx, wmText := range opts.Watermarks {
		batchCurrent := idx + 1
		batchTotal := len(opts.Watermarks)

		if isBatch {
			emitStatus("processing", batchProgressMessage(wmText, batchCurrent, batchTotal))
		}

		processedDir, err := os.MkdirTemp(ws.BasePath(), "processed_")
		if err != nil {
			return Result{}, blinderr.Wrap(blinderr.IO, err, "create per-watermark processed directory")
		}

		if len(images) > 0 {
			if _, err := batch.ProcessImages(ctx, images, processedDir, batch.Options{
				WatermarkText: wmText,
				Strength:      opts.Strength,
				FastMode:      opts.FastMode,
				WorkerCount:   opts.WorkerCount,
				BatchCurrent:  batchCurrent,
				BatchTotal:    batchTotal,
				Hub:           hub,
			}); err != nil {
				return Result{}, err
			}
		}

		if err := injectJSONFamily(jsonFiles, "json", processedDir, wmText, opts, watermarkKey, batchCurrent, batchTotal, hub); err != nil {
			return Result{}, err
		}
		if err := injectJSONFamily(vajFiles, "vaj", processedDir, wmText, opts, watermarkKey, batchCurrent, batchTotal, hub); err != nil {
			return Result{}, err
		}
		if err := injectJSONFamily(vmiFiles, "vmi", processedDir, wmText, opts, watermarkKey, batchCurrent, batchTotal, hub); err != nil {
			return Result{}, err
		}

		if err := copyUnprocessedFiles(ws.ExtractedPath(), processedDir, images, jsonFiles, vajFiles, vmiFiles); err != nil {
			return Result{}, err
		}

		folderName := SanitizePathComponent(wmText)
		subfolder := filepath.Join(baseOutputDir, folderName)
		if err := os.MkdirAll(subfolder, 0o755); err != nil {
			return Result{}, blinderr.Wrap(blinderr.IO, err, "create output subfolder")
		}
		outputPath := filepath.Join(subfolder, archiveFilename)

		emitStatus("packaging", "packaging "+archiveFilename)
		if err := dispatcher.Create(processedDir, outputPath); err != nil {
			return Result{}, err
		}

		finalOutput = outputPath
		if isBatch && hub != nil {
			hub.EmitStatus("batch_item_done", "completed watermark "+folderName)
		}
	}

	result := finalOutput
	if isBatch {
		result = baseOutputDir
	}
	if hub != nil {
		hub.EmitComplete(result)
	}

	return Result{OutputPath: result, Scan: summary}, nil
}

// processArchiveContext bundles the pieces processArchiveMapped needs that
// ProcessArchive has already computed, so the mapped-mode path doesn't
// recompute the extract/scan step.
type processArchiveContext struct {
	dispatcher      *archivefmt.Dispatcher
	images          []scan.File
	jsonFiles       []scan.File
	vajFiles        []scan.File
	vmiFiles        []scan.File
	watermarkKey    string
	baseOutputDir   string
	archiveFilename string
	hub             *progress.Hub
	emitStatus      func(status, message string)
}

// watermarkForIndex returns watermarks[min(idx, len(watermarks)-1)], the
// process_batch_excel index-clamping rule: once the file list outruns the
// watermark list, the last watermark is reused for every remaining file.
func watermarkForIndex(watermarks []string, idx int) string {
	if idx >= len(watermarks) {
		idx = len(watermarks) - 1
	}
	return watermarks[idx]
}

// processArchiveMapped implements the spreadsheet-driven mapped mode:
// file i of every processed category is watermarked with
// watermarks[min(i, len(watermarks)-1)] and the result is packaged into a
// single output archive, rather than one archive per watermark string.
func processArchiveMapped(ctx context.Context, opts Options, ws *workspace.Workspace, pc processArchiveContext) (string, error) {
	processedDir, err := os.MkdirTemp(ws.BasePath(), "processed_")
	if err != nil {
		return "", blinderr.Wrap(blinderr.IO, err, "create mapped processed directory")
	}

	watermarks := opts.Watermarks
	imageMap := func(idx int) string { return watermarkForIndex(watermarks, idx) }

	if len(pc.images) > 0 {
		if _, err := batch.ProcessImages(ctx, pc.images, processedDir, batch.Options{
			WatermarkForIndex: imageMap,
			Strength:          opts.Strength,
			FastMode:          opts.FastMode,
			WorkerCount:       opts.WorkerCount,
			BatchCurrent:      1,
			BatchTotal:        1,
			Hub:               pc.hub,
		}); err != nil {
			return "", err
		}
	}

	if err := injectJSONFamilyMapped(pc.jsonFiles, "json", processedDir, imageMap, opts, pc.watermarkKey, 1, 1, pc.hub); err != nil {
		return "", err
	}
	if err := injectJSONFamilyMapped(pc.vajFiles, "vaj", processedDir, imageMap, opts, pc.watermarkKey, 1, 1, pc.hub); err != nil {
		return "", err
	}
	if err := injectJSONFamilyMapped(pc.vmiFiles, "vmi", processedDir, imageMap, opts, pc.watermarkKey, 1, 1, pc.hub); err != nil {
		return "", err
	}

	if err := copyUnprocessedFiles(ws.ExtractedPath(), processedDir, pc.images, pc.jsonFiles, pc.vajFiles, pc.vmiFiles); err != nil {
		return "", err
	}

	if err := os.MkdirAll(pc.baseOutputDir, 0o755); err != nil {
		return "", blinderr.Wrap(blinderr.IO, err, "create output directory")
	}
	outputPath := filepath.Join(pc.baseOutputDir, pc.archiveFilename)

	pc.emitStatus("packaging", "packaging "+pc.archiveFilename)
	if err := pc.dispatcher.Create(processedDir, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

func zipLevelOrDefault(level int) int {
	if level <= 0 {
		return 1
	}
	return level
}

func batchProgressMessage(text string, current, total int) string {
	runes := []rune(text)
	label := text
	if len(runes) > 24 {
		label = string(runes[:24]) + "…"
	}
	return fmt.Sprintf("[%d/%d] processing: %s", current, total, label)
}

// SanitizePathComponent turns an arbitrary watermark string into a safe
// single path component: forbidden characters become underscores,
// leading dots/whitespace are trimmed, the result is capped at 100
// characters, and an empty result falls back to "watermark".
func SanitizePathComponent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	trimmed := strings.TrimFunc(b.String(), func(r rune) bool {
		return r == '.' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if trimmed == "" {
		return "watermark"
	}
	runes := []rune(trimmed)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes)
}
