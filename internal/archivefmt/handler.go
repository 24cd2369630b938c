// Package archivefmt dispatches archive extraction and creation across
// container formats, keyed by file extension (spec.md §6).
package archivefmt

import (
	"path/filepath"
	"strings"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
)

// Handler is a single archive format's capability set. The dispatcher
// holds a fixed, ordered collection of these and picks the first whose
// Supports returns true — adding a new format (RAR, TAR) is purely an
// extension point, never a change to existing handlers.
type Handler interface {
	Supports(path string) bool
	Extract(archivePath, destDir string) error
	Create(sourceDir, outputPath string) error
}

// Dispatcher routes an archive path to the handler that supports it.
type Dispatcher struct {
	handlers []Handler
}

// NewDispatcher builds the default dispatcher: ZIP (and its .var alias),
// then 7z. zipDeflateLevel configures the ZIP handler's compression
// level for compressible entries.
func NewDispatcher(zipDeflateLevel int) *Dispatcher {
	return &Dispatcher{handlers: []Handler{
		NewZipHandler(zipDeflateLevel),
		NewSevenZipHandler(),
	}}
}

func (d *Dispatcher) handlerFor(path string) (Handler, error) {
	for _, h := range d.handlers {
		if h.Supports(path) {
			return h, nil
		}
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		ext = "unknown"
	}
	return nil, blinderr.New(blinderr.UnsupportedArchive, "unsupported archive format: ."+ext)
}

// Extract dispatches to the handler matching archivePath's extension.
func (d *Dispatcher) Extract(archivePath, destDir string) error {
	h, err := d.handlerFor(archivePath)
	if err != nil {
		return err
	}
	return h.Extract(archivePath, destDir)
}

// Create dispatches to the handler matching outputPath's extension.
func (d *Dispatcher) Create(sourceDir, outputPath string) error {
	h, err := d.handlerFor(outputPath)
	if err != nil {
		return err
	}
	return h.Create(sourceDir, outputPath)
}

// IsSupported reports whether any registered handler claims path.
func (d *Dispatcher) IsSupported(path string) bool {
	_, err := d.handlerFor(path)
	return err == nil
}

// alreadyCompressedExtensions lists formats that gain nothing from
// Deflate and are stored as-is to avoid wasting CPU on incompressible
// data.
var alreadyCompressedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
	"mp3": true, "mp4": true, "ogg": true, "wav": true, "aac": true, "flac": true,
	"zip": true, "7z": true, "rar": true, "var": true,
}

func isAlreadyCompressed(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return alreadyCompressedExtensions[ext]
}
