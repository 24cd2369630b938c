// Package batch runs the image-watermarking stage of an archive over a
// worker pool, mirroring the per-image parallelism of the original
// watermark pipeline.
package batch

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	_ "image/jpeg"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
	"github.com/blindmarkctl/blindmark/internal/progress"
	"github.com/blindmarkctl/blindmark/internal/scan"
	"github.com/blindmarkctl/blindmark/internal/watermark"
)

// Options configures one batch run.
type Options struct {
	WatermarkText string
	// WatermarkForIndex, when non-nil, overrides WatermarkText on a
	// per-image basis — images[i] is watermarked with WatermarkForIndex(i)
	// instead of the uniform WatermarkText. Used by the spreadsheet-driven
	// per-file mapping mode (spec.md §5's images[i] ↔ watermarks[i]
	// contract), where each image in the batch carries a different row's
	// watermark rather than one text applied to the whole batch.
	WatermarkForIndex func(idx int) string
	Strength          float64
	FastMode          bool
	WorkerCount       int
	// BatchCurrent/BatchTotal identify this watermark's position within a
	// multi-watermark run that writes one archive per watermark; both are
	// 1 for a single-watermark run and for the per-file mapped mode.
	BatchCurrent int
	BatchTotal   int
	Hub          *progress.Hub // may be nil
}

// ProcessImages embeds opts.WatermarkText into every image in images,
// writing each watermarked (or, for JPEG, copied-as-is) file to outputDir
// at its original relative path. Images are processed concurrently across
// opts.WorkerCount workers; a failure on one image aborts the remaining
// work and returns the first error encountered.
func ProcessImages(ctx context.Context, images []scan.File, outputDir string, opts Options) (int, error) {
	workers := opts.WorkerCount
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	total := len(images)
	var completed int64

	for typeIdx, img := range images {
		img := img
		typeIdx := typeIdx
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if opts.Hub != nil {
				opts.Hub.EmitDetailProgress(progress.DetailProgress{
					BatchCurrent: opts.BatchCurrent,
					BatchTotal:   opts.BatchTotal,
					FileType:     "image",
					TypeCurrent:  typeIdx + 1,
					TypeTotal:    total,
					Filename:     filepath.Base(img.RelativePath),
				})
			}

			outputPath := filepath.Join(outputDir, img.RelativePath)
			if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
				return blinderr.Wrap(blinderr.ImageProcessing, err, "create output directory")
			}

			text := opts.WatermarkText
			if opts.WatermarkForIndex != nil {
				text = opts.WatermarkForIndex(typeIdx)
			}

			if err := processOne(img, outputPath, text, opts.Strength, opts.FastMode); err != nil {
				return err
			}

			done := atomic.AddInt64(&completed, 1)
			if opts.Hub != nil {
				opts.Hub.EmitProgress(progress.FileProgress{
					CurrentFile: int(done),
					TotalFiles:  total,
					Filename:    img.RelativePath,
					Fraction:    float32(done) / float32(total) * 100,
					Status:      "processing",
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(atomic.LoadInt64(&completed)), err
	}
	return int(atomic.LoadInt64(&completed)), nil
}

// processOne watermarks a single image, or copies it unmodified if it is
// a JPEG — the codec only supports lossless embedding, so JPEG inputs are
// passed through as-is rather than silently degraded by re-encoding.
func processOne(img scan.File, outputPath string, text string, strength float64, fastMode bool) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outputPath), "."))
	if ext == "jpg" || ext == "jpeg" {
		return copyFile(img.AbsolutePath, outputPath)
	}

	src, err := os.Open(img.AbsolutePath)
	if err != nil {
		return blinderr.Wrap(blinderr.ImageProcessing, err, fmt.Sprintf("open %s", img.RelativePath))
	}
	defer src.Close()

	decoded, _, err := image.Decode(src)
	if err != nil {
		return blinderr.Wrap(blinderr.ImageProcessing, err, fmt.Sprintf("decode %s", img.RelativePath))
	}

	watermarked, err := watermark.EmbedText(decoded, text, strength, fastMode)
	if err != nil {
		return blinderr.Wrap(blinderr.ImageProcessing, err, fmt.Sprintf("embed watermark in %s", img.RelativePath))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return blinderr.Wrap(blinderr.ImageProcessing, err, fmt.Sprintf("create %s", outputPath))
	}
	defer out.Close()

	if err := png.Encode(out, watermarked); err != nil {
		return blinderr.Wrap(blinderr.ImageProcessing, err, fmt.Sprintf("save %s", outputPath))
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return blinderr.Wrap(blinderr.ImageProcessing, err, "open source for copy")
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return blinderr.Wrap(blinderr.ImageProcessing, err, "create copy destination")
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return blinderr.Wrap(blinderr.ImageProcessing, err, "copy file")
	}
	return nil
}
