package archivefmt

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
)

// SevenZipHandler reads 7z archives via bodgit/sevenzip, the only 7z
// library in the wider Go ecosystem with no cgo dependency on the
// reference p7zip/7-Zip codebase. The library is read-only: it exposes
// no writer, so Create reports UnsupportedArchive rather than silently
// producing a broken archive.
type SevenZipHandler struct{}

func NewSevenZipHandler() *SevenZipHandler {
	return &SevenZipHandler{}
}

func (h *SevenZipHandler) Supports(path string) bool {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) == "7z"
}

func (h *SevenZipHandler) Extract(archivePath, destDir string) error {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return blinderr.Wrap(blinderr.CorruptedArchive, err, "open 7z archive")
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return blinderr.Wrap(blinderr.Archive, err, "create destination directory")
	}

	for _, f := range r.File {
		outPath, err := safeJoin(destDir, f.Name)
		if err != nil {
			continue
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

		if err := extractSevenZipEntry(f, outPath); err != nil {
			return err
		}
	}
	return nil
}

func extractSevenZipEntry(f *sevenzip.File, outPath string) error {
	rc, err := f.Open()
	if err != nil {
		return blinderr.Wrap(blinderr.Archive, err, fmt.Sprintf("open entry %s", f.Name))
	}
	defer rc.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return blinderr.Wrap(blinderr.Archive, err, fmt.Sprintf("create output file %s", outPath))
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return blinderr.Wrap(blinderr.Archive, err, fmt.Sprintf("extract entry %s", f.Name))
	}
	return nil
}

// Create always fails: bodgit/sevenzip exposes no archive writer, and no
// other 7z library in the pack or wider ecosystem offers one without a
// cgo dependency on the reference codec.
func (h *SevenZipHandler) Create(sourceDir, outputPath string) error {
	return blinderr.New(blinderr.UnsupportedArchive, "creating .7z archives is not supported; re-export as .zip instead")
}
