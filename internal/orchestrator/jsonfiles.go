package orchestrator

import (
	"io"
	"os"
	"path/filepath"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
	"github.com/blindmarkctl/blindmark/internal/jsonmark"
	"github.com/blindmarkctl/blindmark/internal/progress"
	"github.com/blindmarkctl/blindmark/internal/scan"
)

// injectJSONFamily watermarks every file in files (all sharing fileType,
// one of "json"/"vaj"/"vmi") with the single uniform watermarkText and
// writes the result under processedDir at the same relative path.
func injectJSONFamily(
	files []scan.File,
	fileType string,
	processedDir string,
	watermarkText string,
	opts Options,
	watermarkKey string,
	batchCurrent, batchTotal int,
	hub *progress.Hub,
) error {
	return injectJSONFamilyMapped(files, fileType, processedDir, func(int) string { return watermarkText }, opts, watermarkKey, batchCurrent, batchTotal, hub)
}

// injectJSONFamilyMapped watermarks every file in files with
// watermarkFor(i), letting the per-file mapping mode assign a different
// watermark to each file in the category rather than one text applied
// uniformly (spec.md §5).
func injectJSONFamilyMapped(
	files []scan.File,
	fileType string,
	processedDir string,
	watermarkFor func(idx int) string,
	opts Options,
	watermarkKey string,
	batchCurrent, batchTotal int,
	hub *progress.Hub,
) error {
	total := len(files)
	for i, f := range files {
		if hub != nil {
			hub.EmitDetailProgress(progress.DetailProgress{
				BatchCurrent: batchCurrent,
				BatchTotal:   batchTotal,
				FileType:     fileType,
				TypeCurrent:  i + 1,
				TypeTotal:    total,
				Filename:     filepath.Base(f.RelativePath),
			})
		}

		content, err := os.ReadFile(f.AbsolutePath)
		if err != nil {
			return blinderr.Wrap(blinderr.IO, err, "read "+f.RelativePath)
		}

		watermarkText := watermarkFor(i)

		var watermarked []byte
		if opts.Obfuscate {
			watermarked, err = jsonmark.EmbedObfuscated(content, watermarkText, opts.WatermarkMode, opts.AESKey)
		} else {
			watermarked, err = jsonmark.Embed(content, watermarkKey, watermarkText, opts.WatermarkMode, opts.AESKey)
		}
		if err != nil {
			return blinderr.Wrap(blinderr.EmbeddingFailed, err, "inject watermark into "+f.RelativePath)
		}

		dest := filepath.Join(processedDir, f.RelativePath)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return blinderr.Wrap(blinderr.IO, err, "create directory for "+f.RelativePath)
		}
		if err := os.WriteFile(dest, watermarked, 0o644); err != nil {
			return blinderr.Wrap(blinderr.IO, err, "write "+f.RelativePath)
		}
	}
	return nil
}

// copyUnprocessedFiles copies every file under srcRoot that is not one of
// the already-watermarked images/json/vaj/vmi files, preserving its
// relative path.
func copyUnprocessedFiles(srcRoot, destRoot string, images, jsonFiles, vajFiles, vmiFiles []scan.File) error {
	handled := make(map[string]bool)
	for _, group := range [][]scan.File{images, jsonFiles, vajFiles, vmiFiles} {
		for _, f := range group {
			handled[f.RelativePath] = true
		}
	}

	return filepath.Walk(srcRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if handled[rel] {
			return nil
		}

		dest := filepath.Join(destRoot, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return copyFile(path, dest)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return blinderr.Wrap(blinderr.IO, err, "open "+src)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return blinderr.Wrap(blinderr.IO, err, "create "+dest)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return blinderr.Wrap(blinderr.IO, err, "copy "+src+" to "+dest)
	}
	return nil
}
