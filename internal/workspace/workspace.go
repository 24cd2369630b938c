// Package workspace manages scoped temporary directories used while an
// archive is extracted, watermarked, and repacked.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
)

// Workspace is a disk-backed scratch area for one archive run, with
// extracted/ and processed/ subdirectories. Call Close when done to
// remove it from disk.
type Workspace struct {
	base      string
	extracted string
	processed string
}

// New creates a fresh workspace under dir (os.TempDir() if dir is empty),
// named for archiveName for easier debugging and tagged with a random UUID
// so concurrent runs over the same archive never collide, with its
// extracted/ and processed/ subdirectories already created.
func New(dir, archiveName string) (*Workspace, error) {
	name := fmt.Sprintf("blindmark_%s_%s", sanitizeForTempName(archiveName), uuid.NewString())
	base := filepath.Join(dirOrDefault(dir), name)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, blinderr.Wrap(blinderr.IO, err, "create temporary workspace")
	}

	w := &Workspace{
		base:      base,
		extracted: filepath.Join(base, "extracted"),
		processed: filepath.Join(base, "processed"),
	}
	if err := os.MkdirAll(w.extracted, 0o755); err != nil {
		return nil, blinderr.Wrap(blinderr.IO, err, "create extracted directory")
	}
	if err := os.MkdirAll(w.processed, 0o755); err != nil {
		return nil, blinderr.Wrap(blinderr.IO, err, "create processed directory")
	}
	return w, nil
}

// ExtractedPath returns the directory archive contents are extracted into.
func (w *Workspace) ExtractedPath() string { return w.extracted }

// ProcessedPath returns the directory watermarked output is written into.
func (w *Workspace) ProcessedPath() string { return w.processed }

// BasePath returns the workspace's root directory.
func (w *Workspace) BasePath() string { return w.base }

// Close removes the entire workspace tree from disk.
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.base); err != nil {
		return blinderr.Wrap(blinderr.IO, err, "remove workspace")
	}
	return nil
}

// CopyProcessed copies a file from srcRelative (relative to ExtractedPath)
// to destRelative (relative to ProcessedPath), creating any intermediate
// directories the destination needs.
func (w *Workspace) CopyProcessed(srcRelative, destRelative string) error {
	srcFull := filepath.Join(w.extracted, srcRelative)
	destFull := filepath.Join(w.processed, destRelative)

	if err := os.MkdirAll(filepath.Dir(destFull), 0o755); err != nil {
		return blinderr.Wrap(blinderr.IO, err, fmt.Sprintf("create directory for %s", destRelative))
	}

	src, err := os.Open(srcFull)
	if err != nil {
		return blinderr.Wrap(blinderr.IO, err, fmt.Sprintf("open %s", srcRelative))
	}
	defer src.Close()

	dest, err := os.Create(destFull)
	if err != nil {
		return blinderr.Wrap(blinderr.IO, err, fmt.Sprintf("create %s", destRelative))
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return blinderr.Wrap(blinderr.IO, err, fmt.Sprintf("copy %s to %s", srcRelative, destRelative))
	}
	return nil
}

// WriteProcessed writes content directly to relativePath under
// ProcessedPath, creating any intermediate directories it needs.
func (w *Workspace) WriteProcessed(relativePath string, content []byte) error {
	destFull := filepath.Join(w.processed, relativePath)
	if err := os.MkdirAll(filepath.Dir(destFull), 0o755); err != nil {
		return blinderr.Wrap(blinderr.IO, err, fmt.Sprintf("create directory for %s", relativePath))
	}
	if err := os.WriteFile(destFull, content, 0o644); err != nil {
		return blinderr.Wrap(blinderr.IO, err, fmt.Sprintf("write %s", relativePath))
	}
	return nil
}

// ExtractedSize returns the total size, in bytes, of everything under
// ExtractedPath. Used only for debug logging.
func (w *Workspace) ExtractedSize() (int64, error) {
	return Size(w.extracted)
}

// ProcessedSize returns the total size, in bytes, of everything under
// ProcessedPath.
func (w *Workspace) ProcessedSize() (int64, error) {
	return Size(w.processed)
}

// Size recursively sums file sizes under dir. A missing dir reports 0.
func Size(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, blinderr.Wrap(blinderr.IO, err, "compute directory size")
	}
	return total, nil
}

func dirOrDefault(dir string) string {
	if dir == "" {
		return os.TempDir()
	}
	return dir
}

// sanitizeForTempName replaces path separators and other characters that
// are not safe in a file name on every platform with '_', so archiveName
// can be embedded in the workspace directory name.
func sanitizeForTempName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "archive"
	}
	return string(out)
}
