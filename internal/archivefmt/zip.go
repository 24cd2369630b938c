package archivefmt

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
)

// defaultZipDeflateLevel matches the original tool's fastest-deflate
// choice: level 1, since archive contents are already
// watermark-processed media that rarely compresses further.
const defaultZipDeflateLevel = 1

var registerFastDeflateOnce sync.Once

// registerFastDeflate installs a DEFLATE compressor at level for
// zip.Deflate, since archive/zip's built-in default is level -1
// (DefaultCompression). zip.RegisterCompressor is process-global, so
// only the first caller's level takes effect for the life of the
// process — callers that need per-run control should call
// NewZipHandler with their configured level before any other archive
// operation.
func registerFastDeflate(level int) {
	registerFastDeflateOnce.Do(func() {
		zip.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, level)
		})
	})
}

// ZipHandler reads and writes standard ZIP archives, including the
// VaM-package alias extension ".var".
type ZipHandler struct{}

// NewZipHandler returns a ZIP handler and registers level as the DEFLATE
// level for compressible entries; only the first call in a process sets
// the level (see registerFastDeflate). The configured default is 1.
func NewZipHandler(level int) *ZipHandler {
	registerFastDeflate(level)
	return &ZipHandler{}
}

// Supports reports true for .zip and .var, case-insensitively.
func (h *ZipHandler) Supports(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext == "zip" || ext == "var"
}

// Extract unpacks every entry of archivePath into destDir, preserving
// directory hierarchy and rejecting any entry path that would escape
// destDir (a maliciously crafted "../../etc/passwd" entry name).
func (h *ZipHandler) Extract(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return blinderr.Wrap(blinderr.CorruptedArchive, err, "open zip archive")
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return blinderr.Wrap(blinderr.Archive, err, "create destination directory")
	}

	for _, f := range r.File {
		outPath, err := safeJoin(destDir, f.Name)
		if err != nil {
			continue // skip entries with unsafe/invalid names
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				return blinderr.Wrap(blinderr.Archive, err, fmt.Sprintf("create directory %s", outPath))
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return blinderr.Wrap(blinderr.Archive, err, fmt.Sprintf("create parent directory for %s", outPath))
		}

		if err := extractZipEntry(f, outPath); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, outPath string) error {
	rc, err := f.Open()
	if err != nil {
		return blinderr.Wrap(blinderr.Archive, err, fmt.Sprintf("open entry %s", f.Name))
	}
	defer rc.Close()

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm())
	if err != nil {
		return blinderr.Wrap(blinderr.Archive, err, fmt.Sprintf("create output file %s", outPath))
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return blinderr.Wrap(blinderr.Archive, err, fmt.Sprintf("extract entry %s", f.Name))
	}
	return nil
}

// Create archives sourceDir into outputPath, storing already-compressed
// media formats and DEFLATE-compressing everything else at the registered
// level.
func (h *ZipHandler) Create(sourceDir, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return blinderr.Wrap(blinderr.Archive, err, "create zip file")
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	err = filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		if info.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}

		method := zip.Deflate
		if isAlreadyCompressed(name) {
			method = zip.Store
		}
		header := &zip.FileHeader{
			Name:   name,
			Method: method,
		}
		header.SetMode(0o644)

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		return blinderr.Wrap(blinderr.Archive, err, "write zip entries")
	}

	if err := zw.Close(); err != nil {
		return blinderr.Wrap(blinderr.Archive, err, "finalize zip archive")
	}
	return nil
}

// safeJoin joins base and name, rejecting names that would escape base
// via ".." path traversal.
func safeJoin(base, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(base, name))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(os.PathSeparator)) && cleaned != filepath.Clean(base) {
		return "", fmt.Errorf("archivefmt: entry %q escapes destination directory", name)
	}
	return cleaned, nil
}
