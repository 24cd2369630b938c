package orchestrator

import (
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blindmarkctl/blindmark/internal/archivefmt"
	"github.com/blindmarkctl/blindmark/internal/jsonmark"
	"github.com/blindmarkctl/blindmark/internal/scan"
	"github.com/blindmarkctl/blindmark/internal/watermark"
	"github.com/blindmarkctl/blindmark/internal/workspace"
)

// JSONFinding is one watermark value recovered from a json/vaj/vmi file.
type JSONFinding struct {
	File      string
	Value     string
	Mode      jsonmark.Mode
	Decrypted bool
}

// ImageFinding is raw text recovered from a PNG's blind watermark.
type ImageFinding struct {
	File string
	Text string
}

// ScanOptions configures ScanArchive.
type ScanOptions struct {
	ArchivePath string
	AESKey      string

	// ScanImages scans PNG images for a blind watermark in addition to
	// the json/vaj/vmi text scan. JPEG images are always skipped: lossy
	// re-encoding cannot preserve the DWT+DCT watermark, so attempting
	// extraction would only waste IO and decode time.
	ScanImages bool

	TempDir  string
	ZipLevel int
}

// ScanResult is the combined outcome of scanning one archive.
type ScanResult struct {
	JSONFindings    []JSONFinding
	ImageFindings   []ImageFinding
	ScannedPNGCount int
}

// ScanArchive extracts an archive once and scans it for watermark values,
// without modifying or repacking anything (spec.md §6 scan endpoint).
func ScanArchive(opts ScanOptions) (ScanResult, error) {
	archiveName := strings.TrimSuffix(filepath.Base(opts.ArchivePath), filepath.Ext(opts.ArchivePath))

	ws, err := workspace.New(opts.TempDir, archiveName)
	if err != nil {
		return ScanResult{}, err
	}
	defer func() {
		if extracted, err := ws.ExtractedSize(); err == nil {
			slog.Debug("workspace size before cleanup", slog.Int64("extracted_bytes", extracted))
		}
		ws.Close()
	}()

	dispatcher := archivefmt.NewDispatcher(zipLevelOrDefault(opts.ZipLevel))
	if err := dispatcher.Extract(opts.ArchivePath, ws.ExtractedPath()); err != nil {
		return ScanResult{}, err
	}

	inventory, err := scan.Scan(ws.ExtractedPath())
	if err != nil {
		return ScanResult{}, err
	}

	var jsonFindings []JSONFinding
	for _, group := range [][]scan.File{inventory.JSON, inventory.VAJ, inventory.VMI} {
		for _, f := range group {
			content, err := os.ReadFile(f.AbsolutePath)
			if err != nil {
				continue // tolerate unreadable/malformed files, matching the combined-scan endpoint
			}
			matches, err := jsonmark.Scan(content, opts.AESKey)
			if err != nil {
				continue
			}
			for _, m := range matches {
				jsonFindings = append(jsonFindings, JSONFinding{
					File:      f.RelativePath,
					Value:     m.Text,
					Mode:      m.Mode,
					Decrypted: m.Decrypted,
				})
			}
		}
	}

	var imageFindings []ImageFinding
	scannedPNGCount := 0
	if opts.ScanImages {
		var pngFiles []scan.File
		for _, f := range inventory.Images {
			if strings.HasSuffix(strings.ToLower(f.RelativePath), ".png") {
				pngFiles = append(pngFiles, f)
			}
		}
		scannedPNGCount = len(pngFiles)

		for _, f := range pngFiles {
			text, ok, err := extractPNGText(f.AbsolutePath)
			if err != nil || !ok {
				continue
			}
			imageFindings = append(imageFindings, ImageFinding{File: f.RelativePath, Text: text})
		}
		sort.Slice(imageFindings, func(i, j int) bool {
			return imageFindings[i].File < imageFindings[j].File
		})
	}

	return ScanResult{
		JSONFindings:    jsonFindings,
		ImageFindings:   imageFindings,
		ScannedPNGCount: scannedPNGCount,
	}, nil
}

func extractPNGText(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", false, err
	}
	return watermark.ExtractText(img)
}
